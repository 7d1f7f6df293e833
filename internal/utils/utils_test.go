package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/lpg-distribution/internal/model"
)

func TestAccessTokenClaims(t *testing.T) {
	agency := "DELH123456"
	u := model.User{
		ID:       7,
		Email:    "owner@example.com",
		Role:     model.RoleAgency,
		AgencyID: &agency,
	}
	at, err := NewAccessToken("test-secret", u, 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	if !at.Exp.After(time.Now()) {
		t.Fatal("expiry not in the future")
	}

	parsed, err := jwt.Parse(at.Token, func(*jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		t.Fatalf("parse: %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)
	if claims["email"] != "owner@example.com" {
		t.Fatalf("email claim=%v", claims["email"])
	}
	if claims["role"] != string(model.RoleAgency) {
		t.Fatalf("role claim=%v", claims["role"])
	}
	if claims["agency_id"] != agency {
		t.Fatalf("agency_id claim=%v", claims["agency_id"])
	}
	if _, present := claims["customer_id"]; present {
		t.Fatal("customer_id claim set for an agency account")
	}
}

func TestRefreshTokenHash(t *testing.T) {
	rt, err := NewRefreshToken(7)
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	if len(rt.Raw) != 96 {
		t.Fatalf("raw token length=%d, want 96 hex chars", len(rt.Raw))
	}
	if HashRefreshRaw(rt.Raw) != HashRefreshRaw(rt.Raw) {
		t.Fatal("hash is not deterministic")
	}
	other, err := NewRefreshToken(7)
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	if rt.Raw == other.Raw {
		t.Fatal("two tokens collided")
	}
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-pass", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !VerifyPassword(hash, "s3cret-pass") {
		t.Fatal("correct password rejected")
	}
	if VerifyPassword(hash, "wrong") {
		t.Fatal("wrong password accepted")
	}
}

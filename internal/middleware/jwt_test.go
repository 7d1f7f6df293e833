package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lpg-distribution/internal/model"
	"github.com/iliyamo/lpg-distribution/internal/utils"
)

const testSecret = "test-secret"

func protectedEcho(mw ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	chain := append([]echo.MiddlewareFunc{JWTAuth(testSecret)}, mw...)
	e.GET("/guarded", func(c echo.Context) error {
		actor, ok := ActorFrom(c)
		if !ok {
			return c.NoContent(http.StatusInternalServerError)
		}
		return c.String(http.StatusOK, string(actor.Role))
	}, chain...)
	return e
}

func bearerFor(t *testing.T, u model.User) string {
	t.Helper()
	tok, err := utils.NewAccessToken(testSecret, u, 5)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	return "Bearer " + tok.Token
}

func TestJWTAuthResolvesActor(t *testing.T) {
	agencyID := "KABA000001"
	u := model.User{ID: 7, Email: "owner@example.com", Role: model.RoleAgency, AgencyID: &agencyID}

	e := protectedEcho()
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", bearerFor(t, u))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if got := rec.Body.String(); got != string(model.RoleAgency) {
		t.Fatalf("resolved role = %q, want %q", got, model.RoleAgency)
	}
}

func TestJWTAuthRejects(t *testing.T) {
	e := protectedEcho()
	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.jwt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	e := protectedEcho(RequireRole(model.RoleAdmin))

	admin := model.User{ID: 1, Email: "admin@example.com", Role: model.RoleAdmin}
	customer := model.User{ID: 2, Email: "c@example.com", Role: model.RoleCustomer}

	cases := []struct {
		name string
		user model.User
		want int
	}{
		{"admin allowed", admin, http.StatusOK},
		{"customer forbidden", customer, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
			req.Header.Set("Authorization", bearerFor(t, tc.user))
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestRequirePermission(t *testing.T) {
	e := protectedEcho(RequirePermission(model.PermCreateBooking))

	customerID := "KABA000009"
	customer := model.User{ID: 3, Email: "c@example.com", Role: model.RoleCustomer, CustomerID: &customerID}
	plain := model.User{ID: 4, Email: "u@example.com", Role: model.RoleUser}

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", bearerFor(t, customer))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("customer with create_booking: status = %d, want 200", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", bearerFor(t, plain))
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("plain user without create_booking: status = %d, want 403", rec.Code)
	}
}

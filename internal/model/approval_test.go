package model

import (
	"errors"
	"strings"
	"testing"
)

func TestCanDecide(t *testing.T) {
	cases := []struct {
		current string
		ok      bool
	}{
		{ApprovalPending, true},
		{ApprovalApproved, false},
		{ApprovalDenied, false},
		{"Whatever", false},
		{"", false},
	}
	for _, tt := range cases {
		err := CanDecide(tt.current)
		if (err == nil) != tt.ok {
			t.Fatalf("CanDecide(%q)=%v, want ok=%v", tt.current, err, tt.ok)
		}
	}
}

func TestCanDecideAlreadyDecided(t *testing.T) {
	err := CanDecide(ApprovalApproved)
	var decided *AlreadyDecidedError
	if !errors.As(err, &decided) {
		t.Fatalf("CanDecide(Approved) error type=%T, want *AlreadyDecidedError", err)
	}
	if decided.Status != ApprovalApproved {
		t.Fatalf("decided.Status=%q, want %q", decided.Status, ApprovalApproved)
	}
	if got := decided.Error(); got != "already Approved" {
		t.Fatalf("Error()=%q", got)
	}
}

func TestValidateDenialComments(t *testing.T) {
	if err := ValidateDenialComments(strings.Repeat("x", MaxDenialComments)); err != nil {
		t.Fatalf("comments at limit rejected: %v", err)
	}
	if err := ValidateDenialComments(strings.Repeat("x", MaxDenialComments+1)); err == nil {
		t.Fatal("comments over limit accepted")
	}
}

func TestBookingTransitions(t *testing.T) {
	cases := []struct {
		from, to string
		valid    bool
	}{
		{BookingPending, BookingConfirmed, true},
		{BookingPending, BookingDelivered, false},
		{BookingConfirmed, BookingOutForDelivery, true},
		{BookingConfirmed, BookingCancelled, true},
		{BookingOutForDelivery, BookingDelivered, true},
		{BookingOutForDelivery, BookingCancelled, false},
		{BookingDelivered, BookingPending, false},
		{BookingCancelled, BookingConfirmed, false},
	}
	for _, tt := range cases {
		if got := ValidBookingTransition(tt.from, tt.to); got != tt.valid {
			t.Fatalf("ValidBookingTransition(%q, %q)=%v, want %v", tt.from, tt.to, got, tt.valid)
		}
	}
}

func TestDeliveryTransitions(t *testing.T) {
	cases := []struct {
		from, to string
		valid    bool
	}{
		{DeliveryAssigned, DeliveryOnTheWay, true},
		{DeliveryAssigned, DeliveryDelivered, false},
		{DeliveryOnTheWay, DeliveryDelivered, true},
		{DeliveryDelivered, DeliveryOnTheWay, false},
		{DeliveryFailed, DeliveryOnTheWay, false},
	}
	for _, tt := range cases {
		if got := ValidDeliveryTransition(tt.from, tt.to); got != tt.valid {
			t.Fatalf("ValidDeliveryTransition(%q, %q)=%v, want %v", tt.from, tt.to, got, tt.valid)
		}
	}
}

func TestParseRole(t *testing.T) {
	cases := []struct {
		in   string
		want Role
	}{
		{"admin", RoleAdmin},
		{" Agency ", RoleAgency},
		{"DELIVERY_STAFF", RoleDeliveryStaff},
		{"customer", RoleCustomer},
		{"", RoleUser},
		{"banana", RoleUser},
	}
	for _, tt := range cases {
		if got := ParseRole(tt.in); got != tt.want {
			t.Fatalf("ParseRole(%q)=%q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestActorIdentity(t *testing.T) {
	a := Actor{ID: 3, Email: "admin@example.com", Role: RoleAdmin}
	if !a.Identified() {
		t.Fatal("complete actor reported unidentified")
	}
	if got := a.Stamp(); got != "3/admin@example.com/ADMIN" {
		t.Fatalf("Stamp()=%q", got)
	}
	if (Actor{}).Identified() {
		t.Fatal("zero actor reported identified")
	}
	if (Actor{ID: 3}).Identified() {
		t.Fatal("actor without email reported identified")
	}
}

func TestPermissionsSingleSource(t *testing.T) {
	if !HasPermission(RoleAdmin, PermDeleteAgency) {
		t.Fatal("admin should hold delete_agency")
	}
	if HasPermission(RoleCustomer, PermApproveCustomer) {
		t.Fatal("customer must not hold approve_customer")
	}
	// PermissionsFor returns a copy; mutating it must not leak into the table.
	perms := PermissionsFor(RoleCustomer)
	if len(perms) == 0 {
		t.Fatal("customer has no permissions")
	}
	perms[0] = PermDeleteAgency
	if HasPermission(RoleCustomer, PermDeleteAgency) {
		t.Fatal("mutation of returned slice leaked into the permission table")
	}
}

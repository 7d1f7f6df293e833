package handler

import (
	"testing"

	"github.com/iliyamo/lpg-distribution/internal/model"
)

func bookingFor(customerID, agencyID string, employeeID *string) model.Booking {
	return model.Booking{
		BookingID:  "BK250309000001101500",
		CustomerID: customerID,
		AgencyID:   agencyID,
		EmployeeID: employeeID,
		Status:     model.BookingPending,
	}
}

func TestCanCancelBooking(t *testing.T) {
	emp := "KABAEMP000001"
	b := bookingFor("KABA000007", "KABA000001", &emp)

	cases := []struct {
		name  string
		actor model.Actor
		want  bool
	}{
		{"admin", model.Actor{Role: model.RoleAdmin}, true},
		{"owning customer", model.Actor{Role: model.RoleCustomer, CustomerID: "KABA000007"}, true},
		{"other customer", model.Actor{Role: model.RoleCustomer, CustomerID: "KABA000099"}, false},
		{"owning agency", model.Actor{Role: model.RoleAgency, AgencyID: "KABA000001"}, true},
		{"other agency", model.Actor{Role: model.RoleAgency, AgencyID: "MHPU000001"}, false},
		{"assigned employee", model.Actor{Role: model.RoleDeliveryStaff, EmployeeID: emp}, false},
		{"plain user account", model.Actor{Role: model.RoleUser}, false},
		{"zero actor", model.Actor{}, false},
	}
	for _, tt := range cases {
		if got := canCancelBooking(tt.actor, b); got != tt.want {
			t.Fatalf("%s: canCancelBooking=%v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCanSeeBooking(t *testing.T) {
	emp := "KABAEMP000001"
	b := bookingFor("KABA000007", "KABA000001", &emp)

	cases := []struct {
		name  string
		actor model.Actor
		want  bool
	}{
		{"admin", model.Actor{Role: model.RoleAdmin}, true},
		{"owning customer", model.Actor{Role: model.RoleCustomer, CustomerID: "KABA000007"}, true},
		{"assigned employee", model.Actor{Role: model.RoleDeliveryStaff, EmployeeID: emp}, true},
		{"other employee", model.Actor{Role: model.RoleDeliveryStaff, EmployeeID: "KABAEMP000002"}, false},
		{"plain user account", model.Actor{Role: model.RoleUser}, false},
	}
	for _, tt := range cases {
		if got := canSeeBooking(tt.actor, b); got != tt.want {
			t.Fatalf("%s: canSeeBooking=%v, want %v", tt.name, got, tt.want)
		}
	}

	unassigned := bookingFor("KABA000007", "KABA000001", nil)
	if canSeeBooking(model.Actor{Role: model.RoleDeliveryStaff, EmployeeID: emp}, unassigned) {
		t.Fatal("employee can see a booking with no assignment")
	}
}

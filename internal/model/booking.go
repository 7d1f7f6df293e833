package model

import "time"

// Booking status lifecycle.  The forward path is
// Pending -> Confirmed -> Out for Delivery -> Delivered; Cancelled and
// Failed are terminal side exits.
const (
	BookingPending        = "Pending"
	BookingConfirmed      = "Confirmed"
	BookingOutForDelivery = "Out for Delivery"
	BookingDelivered      = "Delivered"
	BookingCancelled      = "Cancelled"
	BookingFailed         = "Failed"
)

// Payment states on a booking.
const (
	PaymentPending = "PENDING"
	PaymentPaid    = "PAID"
	PaymentFailed  = "FAILED"
)

// booking status transitions; terminal states have no successors.
var bookingNext = map[string][]string{
	BookingPending:        {BookingConfirmed, BookingCancelled, BookingFailed},
	BookingConfirmed:      {BookingOutForDelivery, BookingCancelled, BookingFailed},
	BookingOutForDelivery: {BookingDelivered, BookingFailed},
}

// ValidBookingTransition reports whether a booking may move from -> to.
func ValidBookingTransition(from, to string) bool {
	for _, s := range bookingNext[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ValidPaymentStatus reports whether s is a recognized payment state.
func ValidPaymentStatus(s string) bool {
	return s == PaymentPending || s == PaymentPaid || s == PaymentFailed
}

// Booking is a cylinder refill order placed by a customer against their
// agency.  BookingID embeds a date, a sequence and a time-of-day suffix.
type Booking struct {
	ID         uint64    `json:"id"`
	BookingID  string    `json:"booking_id"`
	CustomerID string    `json:"customer_id"`
	AgencyID   string    `json:"agency_id"`
	EmployeeID *string   `json:"employee_id"`
	Category   string    `json:"category"`
	Quantity   uint32    `json:"quantity"`
	Amount     float64   `json:"amount"`
	PaymentRef *string   `json:"payment_ref"`
	Payment    string    `json:"payment"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

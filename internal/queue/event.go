// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingCreatedEvent is published when a refill booking is accepted and
// stock has been reserved.  It carries enough for downstream consumers to
// log or notify without querying the primary database.
type BookingCreatedEvent struct {
	BookingID  string  `json:"booking_id"`
	CustomerID string  `json:"customer_id"`
	AgencyID   string  `json:"agency_id"`
	Category   string  `json:"category"`
	Quantity   uint32  `json:"quantity"`
	Amount     float64 `json:"amount"`
	PaymentRef string  `json:"payment_ref"`
	CreatedAt  string  `json:"created_at"`
}

// DeliveryCompletedEvent is published when an assignment finishes and the
// collected empties have been returned to stock.
type DeliveryCompletedEvent struct {
	AssignmentID     string `json:"assignment_id"`
	BookingID        string `json:"booking_id"`
	EmployeeID       string `json:"employee_id"`
	AgencyID         string `json:"agency_id"`
	FilledDelivered  uint32 `json:"filled_delivered"`
	EmptiesCollected uint32 `json:"empties_collected"`
	PaymentStatus    string `json:"payment_status"`
	CompletedAt      string `json:"completed_at"`
}

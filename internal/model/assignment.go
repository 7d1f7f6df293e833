package model

import "time"

// Delivery progress states on an assignment, independent from the payment
// collection state.
const (
	DeliveryAssigned  = "Assigned"
	DeliveryOnTheWay  = "On-the-way"
	DeliveryDelivered = "Delivered"
	DeliveryFailed    = "Failed"
)

// Payment-received states recorded by the delivering employee.
const (
	ReceivedPaymentPending   = "PENDING"
	ReceivedPaymentCollected = "COLLECTED"
	ReceivedPaymentFailed    = "FAILED"
)

var deliveryNext = map[string][]string{
	DeliveryAssigned: {DeliveryOnTheWay, DeliveryFailed},
	DeliveryOnTheWay: {DeliveryDelivered, DeliveryFailed},
}

// ValidDeliveryTransition reports whether an assignment's delivery status
// may move from -> to.
func ValidDeliveryTransition(from, to string) bool {
	for _, s := range deliveryNext[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ValidReceivedPaymentStatus reports whether s is a recognized collection state.
func ValidReceivedPaymentStatus(s string) bool {
	return s == ReceivedPaymentPending || s == ReceivedPaymentCollected || s == ReceivedPaymentFailed
}

// Assignment hands a booking's cylinders to one delivery employee.
type Assignment struct {
	ID                    uint64    `json:"id"`
	AssignmentID          string    `json:"assignment_id"`
	BookingID             string    `json:"booking_id"`
	EmployeeID            string    `json:"employee_id"`
	AgencyID              string    `json:"agency_id"`
	FilledQuantity        uint32    `json:"filled_quantity"`
	EmptyQuantity         uint32    `json:"empty_quantity"`
	DeliveryStatus        string    `json:"delivery_status"`
	ReceivedPaymentStatus string    `json:"received_payment_status"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

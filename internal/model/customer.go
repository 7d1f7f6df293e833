package model

import "time"

// Connection modes accepted on a customer application.  "Regular" maps to
// the Domestic rate category; anything else is priced as Commercial.
const (
	ConnectionModeRegular    = "Regular"
	ConnectionModeCommercial = "Commercial"
)

// Customer is a gas-connection holder linked to one agency.  RegistrationID
// is assigned at application time; CustomerID is assigned on approval from
// the owning agency's prefix plus a per-agency sequence.
type Customer struct {
	ID               uint64     `json:"id"`
	UserID           uint64     `json:"user_id"`
	AgencyID         string     `json:"agency_id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	Phone            string     `json:"phone"`
	AddressLine      string     `json:"address_line"`
	City             string     `json:"city"`
	State            string     `json:"state"`
	Pincode          string     `json:"pincode"`
	ConnectionMode   string     `json:"connection_mode"`
	AllotedCylinders uint32     `json:"alloted_cylinders"`
	PendingPayment   float64    `json:"pending_payment"`
	RegistrationID   string     `json:"registration_id"`
	CustomerID       *string    `json:"customer_id"`
	IDProofPath      *string    `json:"id_proof_path"`
	PhotoPath        *string    `json:"photo_path"`
	ApprovalStatus   string     `json:"approval_status"`
	ApprovedBy       *string    `json:"approved_by"`
	ApprovalDate     *time.Time `json:"approval_date"`
	Comments         *string    `json:"comments"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

package model

import "time"

// Operational status values for delivery staff.  Status tracks whether the
// employee is currently on duty and is synchronized with the approval
// outcome: approval activates, denial leaves the record inactive.
const (
	StaffActive   = "Active"
	StaffInactive = "Inactive"
)

// DeliveryStaff is an employee of one agency who fulfils bookings.
// ApplicationID is assigned at submission; EmployeeID is assigned on
// approval as `<agency prefix>EMP<6-digit sequence>`.
type DeliveryStaff struct {
	ID             uint64     `json:"id"`
	UserID         uint64     `json:"user_id"`
	AgencyID       string     `json:"agency_id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	ApplicationID  string     `json:"application_id"`
	EmployeeID     *string    `json:"employee_id"`
	Status         string     `json:"status"`
	ApprovalStatus string     `json:"approval_status"`
	ApprovedBy     *string    `json:"approved_by"`
	ApprovalDate   *time.Time `json:"approval_date"`
	Comments       *string    `json:"comments"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

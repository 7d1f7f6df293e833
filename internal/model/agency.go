package model

import "time"

// Agency is a business entity approved to sell and deliver cylinders in a
// region.  RegistrationID is provisional and assigned at submission;
// AgencyID is the permanent business ID, derived from the agency's state
// and city, and is assigned exactly once on the first transition to
// Approved.  It is never regenerated.
type Agency struct {
	ID             uint64     `json:"id"`
	OwnerUserID    uint64     `json:"owner_user_id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	AddressLine    string     `json:"address_line"`
	City           string     `json:"city"`
	State          string     `json:"state"`
	Pincode        string     `json:"pincode"`
	RegistrationID string     `json:"registration_id"`
	AgencyID       *string    `json:"agency_id"`
	ApprovalStatus string     `json:"approval_status"`
	ApprovedBy     *string    `json:"approved_by"`
	ApprovalDate   *time.Time `json:"approval_date"`
	Comments       *string    `json:"comments"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Approvable reports whether the agency carries the fields ID generation
// needs.  State and City feed the AgencyID prefix, so an agency cannot be
// approved without them.
func (a *Agency) Approvable() error {
	if len(a.State) < 2 {
		return &MissingFieldError{Entity: "agency", Field: "state"}
	}
	if len(a.City) < 2 {
		return &MissingFieldError{Entity: "agency", Field: "city"}
	}
	return nil
}

// MissingFieldError reports a required derivation input absent from an
// entity.  ID generation fails loudly with this error rather than emitting
// a malformed identifier.
type MissingFieldError struct {
	Entity string
	Field  string
}

func (e *MissingFieldError) Error() string {
	return e.Entity + ": missing required field " + e.Field
}

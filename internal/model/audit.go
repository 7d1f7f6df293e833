package model

import (
	"fmt"
	"time"
)

// Actor is the resolved identity performing a request, extracted from the
// access token at the middleware boundary.  Workflows consult it for role
// and ownership checks and stamp it into approval records and audit rows.
type Actor struct {
	ID         uint64
	Email      string
	Role       Role
	AgencyID   string // business ID when the actor is an agency or its staff
	CustomerID string
	EmployeeID string
}

// Stamp renders the "id/email/role" form recorded in Approved_By columns.
func (a Actor) Stamp() string {
	return fmt.Sprintf("%d/%s/%s", a.ID, a.Email, a.Role)
}

// Identified reports whether the actor carries a usable identity.  Approval
// transitions refuse to stamp an empty Approved_By.
func (a Actor) Identified() bool {
	return a.ID != 0 && a.Email != ""
}

// AuditEntry is an append-only record of an administrative or lifecycle
// action.  Entries are inserted once and never mutated or deleted.
type AuditEntry struct {
	ID         uint64    `json:"id"`
	ActorID    uint64    `json:"actor_id"`
	ActorEmail string    `json:"actor_email"`
	ActorRole  Role      `json:"actor_role"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityRef  string    `json:"entity_ref"`
	Details    string    `json:"details"`
	CreatedAt  time.Time `json:"created_at"`
}

package model

import "time"

// User represents an account row in the `users` table.  Every account is
// created with RoleUser; the role is promoted to AGENCY, CUSTOMER or
// DELIVERY_STAFF when a linked application is approved.  The permission set
// is derived from the role through rolePermissions and never stored
// separately.
//
// AgencyID/CustomerID/EmployeeID are the business IDs cross-referenced on
// promotion; at most one of them is set for a given account.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email (unique)
	PasswordHash string    // users.password_hash
	Role         Role      // users.role
	AgencyID     *string   // users.agency_id (set when promoted to AGENCY)
	CustomerID   *string   // users.customer_id (set when promoted to CUSTOMER)
	EmployeeID   *string   // users.employee_id (set when promoted to DELIVERY_STAFF)
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA-256 hash of the raw token is stored.
type RefreshToken struct {
	ID        uint64
	UserID    uint64
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

package model

import "strings"

// Role is the closed set of account roles.  Roles are normalized exactly
// once, at the identity-resolution boundary (JWT middleware), via ParseRole.
// Downstream code compares Role values directly and never re-normalizes.
type Role string

const (
	RoleAdmin         Role = "ADMIN"
	RoleAgency        Role = "AGENCY"
	RoleDeliveryStaff Role = "DELIVERY_STAFF"
	RoleCustomer      Role = "CUSTOMER"
	RoleUser          Role = "USER"
)

// ParseRole maps a free-form role string onto the closed Role set.  Unknown
// or empty values fall back to RoleUser, the role every account starts with.
func ParseRole(s string) Role {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(RoleAdmin):
		return RoleAdmin
	case string(RoleAgency):
		return RoleAgency
	case string(RoleDeliveryStaff):
		return RoleDeliveryStaff
	case string(RoleCustomer):
		return RoleCustomer
	default:
		return RoleUser
	}
}

// Permission names a single operation an account may perform.
type Permission string

const (
	PermManageUsers     Permission = "manage_users"
	PermApproveAgency   Permission = "approve_agency"
	PermDeleteAgency    Permission = "delete_agency"
	PermDeleteCustomer  Permission = "delete_customer"
	PermDeleteStaff     Permission = "delete_staff"
	PermViewAuditLog    Permission = "view_audit_log"
	PermManageStock     Permission = "manage_stock"
	PermApproveCustomer Permission = "approve_customer"
	PermApproveStaff    Permission = "approve_staff"
	PermManageBookings  Permission = "manage_bookings"
	PermCreateBooking   Permission = "create_booking"
	PermViewOwnBookings Permission = "view_own_bookings"
	PermUpdateDelivery  Permission = "update_delivery"
	PermApplyAgency     Permission = "apply_agency"
	PermApplyConnection Permission = "apply_connection"
	PermApplyStaff      Permission = "apply_staff"
)

// rolePermissions is the single source of truth mapping each role to its
// allow-list.  Assignment at account creation and every later permission
// check both read from this table; there is no second copy anywhere.
var rolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermManageUsers, PermApproveAgency, PermDeleteAgency,
		PermDeleteCustomer, PermDeleteStaff,
		PermViewAuditLog, PermManageStock, PermManageBookings,
	},
	RoleAgency: {
		PermApproveCustomer, PermApproveStaff, PermManageStock,
		PermManageBookings, PermViewAuditLog,
	},
	RoleDeliveryStaff: {
		PermUpdateDelivery, PermViewOwnBookings,
	},
	RoleCustomer: {
		PermCreateBooking, PermViewOwnBookings,
	},
	RoleUser: {
		PermApplyAgency, PermApplyConnection, PermApplyStaff,
	},
}

// PermissionsFor returns a copy of the allow-list for role.
func PermissionsFor(role Role) []Permission {
	src := rolePermissions[role]
	out := make([]Permission, len(src))
	copy(out, src)
	return out
}

// HasPermission reports whether role's allow-list contains p.
func HasPermission(role Role, p Permission) bool {
	for _, q := range rolePermissions[role] {
		if q == p {
			return true
		}
	}
	return false
}

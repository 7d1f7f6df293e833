// Package router wires HTTP routes to handlers and guards them with the
// JWT, role and permission middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lpg-distribution/internal/handler"
	"github.com/iliyamo/lpg-distribution/internal/middleware"
	"github.com/iliyamo/lpg-distribution/internal/model"
)

// Handlers bundles every handler the router mounts.
type Handlers struct {
	Auth       *handler.AuthHandler
	Agency     *handler.AgencyHandler
	Customer   *handler.CustomerHandler
	Staff      *handler.StaffHandler
	Cylinder   *handler.CylinderHandler
	Booking    *handler.BookingHandler
	Assignment *handler.AssignmentHandler
	Admin      *handler.AdminHandler
}

// Register mounts all routes.  cacheMW is applied to the public browse
// endpoints; pass nil to skip response caching.
func Register(e *echo.Echo, h Handlers, jwtSecret string, cacheMW echo.MiddlewareFunc) {
	e.GET("/healthz", handler.Health)

	// Unauthenticated auth operations.
	authGroup := e.Group("/v1/auth")
	authGroup.POST("/register", h.Auth.Register)
	authGroup.POST("/login", h.Auth.Login)
	authGroup.POST("/refresh", h.Auth.Refresh)

	// Public browse of approved agencies, cached when a cache is wired.
	if cacheMW != nil {
		e.GET("/v1/agencies", h.Agency.Browse, cacheMW)
	} else {
		e.GET("/v1/agencies", h.Agency.Browse)
	}

	// Everything else requires a valid access token.
	v1 := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	v1.POST("/auth/logout", h.Auth.Logout)
	v1.GET("/me", h.Auth.Me)

	// Applications: any USER account may apply for exactly one role.
	v1.POST("/agencies/apply", h.Agency.Apply, middleware.RequirePermission(model.PermApplyAgency))
	v1.GET("/agencies/mine", h.Agency.Mine)
	v1.POST("/connections/apply", h.Customer.Apply, middleware.RequirePermission(model.PermApplyConnection))
	v1.GET("/connections/quote", h.Customer.Quote)
	v1.GET("/connections/mine", h.Customer.Mine)
	v1.POST("/staff/apply", h.Staff.Apply, middleware.RequirePermission(model.PermApplyStaff))

	// Admin: agency review, accounts, audit trail.
	admin := v1.Group("", middleware.RequireRole(model.RoleAdmin))
	admin.GET("/admin/agencies", h.Agency.List)
	admin.GET("/admin/agencies/:id", h.Agency.Get)
	admin.PUT("/admin/agencies/:id/approve", h.Agency.Approve, middleware.RequirePermission(model.PermApproveAgency))
	admin.PUT("/admin/agencies/:id/deny", h.Agency.Deny, middleware.RequirePermission(model.PermApproveAgency))
	admin.DELETE("/admin/agencies/:id", h.Agency.Delete, middleware.RequirePermission(model.PermDeleteAgency))
	admin.DELETE("/admin/customers/:id", h.Customer.Remove, middleware.RequirePermission(model.PermDeleteCustomer))
	admin.DELETE("/admin/staff/:id", h.Staff.Remove, middleware.RequirePermission(model.PermDeleteStaff))
	admin.GET("/admin/users", h.Admin.ListUsers, middleware.RequirePermission(model.PermManageUsers))
	admin.GET("/admin/audit", h.Admin.ListAudit, middleware.RequirePermission(model.PermViewAuditLog))

	// Agency: customer and staff review, stock, assignment creation.
	agency := v1.Group("", middleware.RequireRole(model.RoleAgency, model.RoleAdmin))
	agency.GET("/agency/customers", h.Customer.ListForAgency)
	agency.PUT("/agency/customers/:id/approve", h.Customer.Approve, middleware.RequirePermission(model.PermApproveCustomer))
	agency.PUT("/agency/customers/:id/deny", h.Customer.Deny, middleware.RequirePermission(model.PermApproveCustomer))
	agency.GET("/agency/staff", h.Staff.ListForAgency)
	agency.PUT("/agency/staff/:id/approve", h.Staff.Approve, middleware.RequirePermission(model.PermApproveStaff))
	agency.PUT("/agency/staff/:id/deny", h.Staff.Deny, middleware.RequirePermission(model.PermApproveStaff))
	agency.PUT("/agency/staff/:id/status", h.Staff.SetStatus)
	agency.PUT("/agency/stock", h.Cylinder.Upsert, middleware.RequirePermission(model.PermManageStock))
	agency.GET("/agency/stock", h.Cylinder.List)
	agency.POST("/assignments", h.Assignment.Create, middleware.RequirePermission(model.PermManageBookings))
	agency.PUT("/bookings/:booking_id/status", h.Booking.UpdateStatus, middleware.RequirePermission(model.PermManageBookings))
	agency.PUT("/bookings/:booking_id/payment", h.Booking.SetPayment, middleware.RequirePermission(model.PermManageBookings))

	// Bookings: creation is customer-only, reads are role scoped.
	v1.POST("/bookings", h.Booking.Create, middleware.RequirePermission(model.PermCreateBooking))
	v1.GET("/bookings", h.Booking.List)
	v1.GET("/bookings/:booking_id", h.Booking.Get)
	v1.PUT("/bookings/:booking_id/cancel", h.Booking.Cancel)

	// Assignments: reads are role scoped, progress updates are staff-only
	// through the update_delivery permission.
	reads := v1.Group("", middleware.RequireRole(model.RoleDeliveryStaff, model.RoleAgency, model.RoleAdmin))
	reads.GET("/assignments/mine", h.Assignment.Mine)
	reads.GET("/assignments/:assignment_id", h.Assignment.Get)
	v1.PUT("/assignments/:assignment_id/delivery", h.Assignment.UpdateDelivery, middleware.RequirePermission(model.PermUpdateDelivery))
	v1.PUT("/assignments/:assignment_id/payment", h.Assignment.SetReceivedPayment, middleware.RequirePermission(model.PermUpdateDelivery))
	v1.PUT("/assignments/:assignment_id/complete", h.Assignment.Complete, middleware.RequirePermission(model.PermUpdateDelivery))
}

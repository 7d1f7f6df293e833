package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lpg-distribution/internal/repository"
)

// AdminHandler serves account listing and the audit trail.
type AdminHandler struct {
	Users *repository.UserRepo
	Audit *repository.AuditRepo
}

func NewAdminHandler(u *repository.UserRepo, a *repository.AuditRepo) *AdminHandler {
	return &AdminHandler{Users: u, Audit: a}
}

type adminUserPart struct {
	ID         uint64  `json:"id"`
	Email      string  `json:"email"`
	Role       string  `json:"role"`
	AgencyID   *string `json:"agency_id,omitempty"`
	CustomerID *string `json:"customer_id,omitempty"`
	EmployeeID *string `json:"employee_id,omitempty"`
	IsActive   bool    `json:"is_active"`
}

// ListUsers pages through accounts.  Password hashes never leave the
// repository layer.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	limit, offset := pageParams(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	users, err := h.Users.List(ctx, limit, offset)
	if err != nil {
		return failJSON(c, http.StatusInternalServerError, "query failed")
	}
	out := make([]adminUserPart, 0, len(users))
	for _, u := range users {
		out = append(out, adminUserPart{
			ID: u.ID, Email: u.Email, Role: string(u.Role),
			AgencyID: u.AgencyID, CustomerID: u.CustomerID, EmployeeID: u.EmployeeID,
			IsActive: u.IsActive,
		})
	}
	return okJSON(c, http.StatusOK, out)
}

// ListAudit pages through the append-only audit trail, newest first.
func (h *AdminHandler) ListAudit(c echo.Context) error {
	limit, offset := pageParams(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	entries, err := h.Audit.List(ctx, limit, offset)
	if err != nil {
		return failJSON(c, http.StatusInternalServerError, "query failed")
	}
	return okJSON(c, http.StatusOK, entries)
}

package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lpg-distribution/internal/model"
	"github.com/iliyamo/lpg-distribution/internal/repository"
)

// StaffHandler serves delivery-staff applications and employee status.
type StaffHandler struct {
	Staff *repository.StaffRepo
}

func NewStaffHandler(s *repository.StaffRepo) *StaffHandler {
	return &StaffHandler{Staff: s}
}

type staffApplyReq struct {
	AgencyID string `json:"agency_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

type staffStatusReq struct {
	Status string `json:"status"`
}

// Apply submits an employment application to one agency.  The record is
// created Pending and Inactive; approval activates it.
func (h *StaffHandler) Apply(c echo.Context) error {
	actor, ok := mustActor(c)
	if !ok {
		return failJSON(c, http.StatusUnauthorized, "unauthorized")
	}

	var req staffApplyReq
	if err := c.Bind(&req); err != nil {
		return failJSON(c, http.StatusBadRequest, "invalid body")
	}
	req.AgencyID = strings.TrimSpace(req.AgencyID)
	req.Name = strings.TrimSpace(req.Name)
	if req.AgencyID == "" || req.Name == "" {
		return failJSON(c, http.StatusBadRequest, "agency_id and name are required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	s := model.DeliveryStaff{
		UserID:   actor.ID,
		AgencyID: req.AgencyID,
		Name:     req.Name,
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:    strings.TrimSpace(req.Phone),
	}
	if err := h.Staff.Create(ctx, &s); err != nil {
		return failRepo(c, err, "create application failed")
	}
	return okJSON(c, http.StatusCreated, s)
}

// ListForAgency returns the caller agency's staff, optionally filtered by
// ?status= (approval status).
func (h *StaffHandler) ListForAgency(c echo.Context) error {
	actor, ok := mustActor(c)
	if !ok {
		return failJSON(c, http.StatusUnauthorized, "unauthorized")
	}
	if actor.AgencyID == "" {
		return failJSON(c, http.StatusForbidden, "no agency linked to this account")
	}
	limit, offset := pageParams(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	out, err := h.Staff.ListByAgency(ctx, actor.AgencyID, strings.TrimSpace(c.QueryParam("status")), limit, offset)
	if err != nil {
		return failJSON(c, http.StatusInternalServerError, "query failed")
	}
	return okJSON(c, http.StatusOK, out)
}

// Approve assigns the employee ID, activates the record and promotes the
// applicant's account.
func (h *StaffHandler) Approve(c echo.Context) error {
	actor, ok := mustActor(c)
	if !ok {
		return failJSON(c, http.StatusUnauthorized, "unauthorized")
	}
	id, ok := pathID(c)
	if !ok {
		return failJSON(c, http.StatusBadRequest, "invalid id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Staff.Approve(ctx, id, actor)
	if err != nil {
		return failRepo(c, err, "approve failed")
	}
	return okJSON(c, http.StatusOK, s)
}

// Deny records a terminal denial; the record stays Inactive.
func (h *StaffHandler) Deny(c echo.Context) error {
	actor, ok := mustActor(c)
	if !ok {
		return failJSON(c, http.StatusUnauthorized, "unauthorized")
	}
	id, ok := pathID(c)
	if !ok {
		return failJSON(c, http.StatusBadRequest, "invalid id")
	}
	var req denyReq
	if err := c.Bind(&req); err != nil {
		return failJSON(c, http.StatusBadRequest, "invalid body")
	}
	if err := model.ValidateDenialComments(req.Comments); err != nil {
		return failJSON(c, http.StatusBadRequest, err.Error())
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Staff.Deny(ctx, id, actor, req.Comments)
	if err != nil {
		return failRepo(c, err, "deny failed")
	}
	return okJSON(c, http.StatusOK, s)
}

// SetStatus flips an approved employee between Active and Inactive, for
// leave or off-boarding without touching the approval record.
func (h *StaffHandler) SetStatus(c echo.Context) error {
	actor, ok := mustActor(c)
	if !ok {
		return failJSON(c, http.StatusUnauthorized, "unauthorized")
	}
	id, ok := pathID(c)
	if !ok {
		return failJSON(c, http.StatusBadRequest, "invalid id")
	}
	var req staffStatusReq
	if err := c.Bind(&req); err != nil {
		return failJSON(c, http.StatusBadRequest, "invalid body")
	}
	if req.Status != model.StaffActive && req.Status != model.StaffInactive {
		return failJSON(c, http.StatusBadRequest, "status must be Active or Inactive")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Staff.GetByID(ctx, id)
	if err != nil {
		return failRepo(c, err, "query failed")
	}
	if actor.Role != model.RoleAdmin && actor.AgencyID != s.AgencyID {
		return failJSON(c, http.StatusForbidden, "forbidden")
	}
	if err := h.Staff.SetStatus(ctx, id, req.Status); err != nil {
		return failRepo(c, err, "update failed")
	}
	return okMessage(c, http.StatusOK, "status updated")
}

// Remove deletes a staff record and resets the linked account to USER.
// Assignments keep their EmployeeID strings as historical references.
func (h *StaffHandler) Remove(c echo.Context) error {
	actor, ok := mustActor(c)
	if !ok {
		return failJSON(c, http.StatusUnauthorized, "unauthorized")
	}
	id, ok := pathID(c)
	if !ok {
		return failJSON(c, http.StatusBadRequest, "invalid id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Staff.Remove(ctx, id, actor); err != nil {
		return failRepo(c, err, "delete failed")
	}
	return okMessage(c, http.StatusOK, "staff deleted")
}

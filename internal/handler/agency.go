package handler

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lpg-distribution/internal/model"
	"github.com/iliyamo/lpg-distribution/internal/repository"
)

// AgencyHandler serves the agency application lifecycle: submission by a
// USER account, admin review, and admin deletion.
type AgencyHandler struct {
	Agencies *repository.AgencyRepo
}

func NewAgencyHandler(a *repository.AgencyRepo) *AgencyHandler {
	return &AgencyHandler{Agencies: a}
}

type agencyApplyReq struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	AddressLine string `json:"address_line"`
	City        string `json:"city"`
	State       string `json:"state"`
	Pincode     string `json:"pincode"`
}

type denyReq struct {
	Comments string `json:"comments"`
}

// Apply submits an agency application.  The record is created Pending with
// a provisional registration ID; the permanent agency ID only exists after
// an admin approves.
func (h *AgencyHandler) Apply(c echo.Context) error {
	actor, ok := mustActor(c)
	if !ok {
		return failJSON(c, http.StatusUnauthorized, "unauthorized")
	}

	var req agencyApplyReq
	if err := c.Bind(&req); err != nil {
		return failJSON(c, http.StatusBadRequest, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.State = strings.TrimSpace(req.State)
	req.City = strings.TrimSpace(req.City)
	if req.Name == "" || len(req.State) < 2 || len(req.City) < 2 {
		return failJSON(c, http.StatusBadRequest, "name, state and city (2+ characters) are required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Agencies.GetByOwner(ctx, actor.ID); err == nil {
		return failJSON(c, http.StatusConflict, "an application already exists for this account")
	} else if err != sql.ErrNoRows {
		return failJSON(c, http.StatusInternalServerError, "query failed")
	}

	a := model.Agency{
		OwnerUserID: actor.ID,
		Name:        req.Name,
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:       strings.TrimSpace(req.Phone),
		AddressLine: strings.TrimSpace(req.AddressLine),
		City:        req.City,
		State:       req.State,
		Pincode:     strings.TrimSpace(req.Pincode),
	}
	if err := h.Agencies.Create(ctx, &a); err != nil {
		return failRepo(c, err, "create agency application failed")
	}
	return okJSON(c, http.StatusCreated, a)
}

// Mine returns the caller's own application, whatever its status.
func (h *AgencyHandler) Mine(c echo.Context) error {
	actor, ok := mustActor(c)
	if !ok {
		return failJSON(c, http.StatusUnauthorized, "unauthorized")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	a, err := h.Agencies.GetByOwner(ctx, actor.ID)
	if err != nil {
		return failRepo(c, err, "query failed")
	}
	return okJSON(c, http.StatusOK, a)
}

// List returns agency applications, optionally filtered by ?status=.
func (h *AgencyHandler) List(c echo.Context) error {
	limit, offset := pageParams(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	out, err := h.Agencies.List(ctx, strings.TrimSpace(c.QueryParam("status")), limit, offset)
	if err != nil {
		return failJSON(c, http.StatusInternalServerError, "query failed")
	}
	return okJSON(c, http.StatusOK, out)
}

// Browse lists approved agencies for prospective customers and staff.
// Only public fields are returned.
func (h *AgencyHandler) Browse(c echo.Context) error {
	limit, offset := pageParams(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	agencies, err := h.Agencies.List(ctx, model.ApprovalApproved, limit, offset)
	if err != nil {
		return failJSON(c, http.StatusInternalServerError, "query failed")
	}
	out := make([]echo.Map, 0, len(agencies))
	for _, a := range agencies {
		id := ""
		if a.AgencyID != nil {
			id = *a.AgencyID
		}
		out = append(out, echo.Map{
			"agency_id": id,
			"name":      a.Name,
			"city":      a.City,
			"state":     a.State,
			"pincode":   a.Pincode,
		})
	}
	return okJSON(c, http.StatusOK, out)
}

// Get returns one application by numeric id.
func (h *AgencyHandler) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return failJSON(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	a, err := h.Agencies.GetByID(ctx, id)
	if err != nil {
		return failRepo(c, err, "query failed")
	}
	return okJSON(c, http.StatusOK, a)
}

// Approve finalizes a pending application: the permanent agency ID is
// assigned and the owning account is promoted to the AGENCY role.  A second
// call reports the decision already taken.
func (h *AgencyHandler) Approve(c echo.Context) error {
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

	a, err := h.Agencies.Approve(ctx, id, actor)
	if err != nil {
		return failRepo(c, err, "approve failed")
	}
	return okJSON(c, http.StatusOK, a)
}

// Deny records a denial with reviewer comments.  Denial is terminal.
func (h *AgencyHandler) Deny(c echo.Context) error {
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

	a, err := h.Agencies.Deny(ctx, id, actor, req.Comments)
	if err != nil {
		return failRepo(c, err, "deny failed")
	}
	return okJSON(c, http.StatusOK, a)
}

// Delete removes an agency and resets its owner's role in one transaction.
func (h *AgencyHandler) Delete(c echo.Context) error {
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

	if err := h.Agencies.Delete(ctx, id, actor); err != nil {
		return failRepo(c, err, "delete failed")
	}
	return okMessage(c, http.StatusOK, "agency deleted")
}

package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lpg-distribution/internal/model"
	"github.com/iliyamo/lpg-distribution/internal/repository"
)

// CylinderHandler serves per-agency cylinder inventory.
type CylinderHandler struct {
	Stock *repository.CylinderRepo
}

func NewCylinderHandler(s *repository.CylinderRepo) *CylinderHandler {
	return &CylinderHandler{Stock: s}
}

type stockUpsertReq struct {
	Category string `json:"category"`
	Total    uint32 `json:"total_cylinders"`
	Filled   uint32 `json:"filled_cylinders"`
	Empty    uint32 `json:"empty_cylinders"`
}

// Upsert creates or replaces one category's stock record for the caller's
// agency.  The filled+empty<=total invariant is enforced before anything is
// written.
func (h *CylinderHandler) Upsert(c echo.Context) error {
	actor, ok := mustActor(c)
	if !ok {
		return failJSON(c, http.StatusUnauthorized, "unauthorized")
	}
	if actor.AgencyID == "" {
		return failJSON(c, http.StatusForbidden, "no agency linked to this account")
	}

	var req stockUpsertReq
	if err := c.Bind(&req); err != nil {
		return failJSON(c, http.StatusBadRequest, "invalid body")
	}
	if req.Category != model.CategoryDomestic && req.Category != model.CategoryCommercial {
		return failJSON(c, http.StatusBadRequest, "category must be Domestic or Commercial")
	}

	s := model.CylinderStock{
		AgencyID: actor.AgencyID,
		Category: req.Category,
		Total:    req.Total,
		Filled:   req.Filled,
		Empty:    req.Empty,
		Status:   model.StockInStock,
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Stock.Upsert(ctx, &s); err != nil {
		return failRepo(c, err, "save stock failed")
	}
	return okJSON(c, http.StatusOK, s)
}

// List returns the caller agency's stock records.  Admins may inspect any
// agency via ?agency_id=.
func (h *CylinderHandler) List(c echo.Context) error {
	actor, ok := mustActor(c)
	if !ok {
		return failJSON(c, http.StatusUnauthorized, "unauthorized")
	}
	agencyID := actor.AgencyID
	if actor.Role == model.RoleAdmin {
		if q := strings.TrimSpace(c.QueryParam("agency_id")); q != "" {
			agencyID = q
		}
	}
	if agencyID == "" {
		return failJSON(c, http.StatusBadRequest, "agency_id required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	out, err := h.Stock.ListByAgency(ctx, agencyID)
	if err != nil {
		return failJSON(c, http.StatusInternalServerError, "query failed")
	}
	return okJSON(c, http.StatusOK, out)
}

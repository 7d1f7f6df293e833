package handler

import (
	"database/sql"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lpg-distribution/internal/model"
	"github.com/iliyamo/lpg-distribution/internal/pricing"
	"github.com/iliyamo/lpg-distribution/internal/repository"
	"github.com/iliyamo/lpg-distribution/internal/upload"
)

const (
	// maxDocumentBytes caps each uploaded document (ID proof, photo).
	maxDocumentBytes = 5 << 20

	// maxAllotedCylinders caps how many cylinders a single connection may request.
	maxAllotedCylinders = 10
)

// CustomerHandler serves gas-connection applications: quoting, submission
// with document uploads, agency review and listing.
type CustomerHandler struct {
	Customers *repository.CustomerRepo
	Agencies  *repository.AgencyRepo
	Rates     pricing.RateTable
	Uploads   upload.Store
}

func NewCustomerHandler(cu *repository.CustomerRepo, ag *repository.AgencyRepo, rates pricing.RateTable, up upload.Store) *CustomerHandler {
	return &CustomerHandler{Customers: cu, Agencies: ag, Rates: rates, Uploads: up}
}

// Quote prices a prospective connection without creating anything.
func (h *CustomerHandler) Quote(c echo.Context) error {
	agencyID := strings.TrimSpace(c.QueryParam("agency_id"))
	mode := strings.TrimSpace(c.QueryParam("connection_mode"))
	count := uint32(1)
	if v, err := strconv.ParseUint(c.QueryParam("cylinders"), 10, 32); err == nil && v > 0 {
		count = uint32(v)
	}
	if agencyID == "" {
		return failJSON(c, http.StatusBadRequest, "agency_id required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	agency, err := h.Agencies.GetByAgencyID(ctx, agencyID)
	if err != nil {
		if err == sql.ErrNoRows {
			return failJSON(c, http.StatusNotFound, "agency not found")
		}
		return failJSON(c, http.StatusInternalServerError, "query failed")
	}

	bd, err := pricing.ComputeBreakdown(h.Rates, mode, count, &agency)
	if err != nil {
		return failRepo(c, err, "pricing failed")
	}
	return okJSON(c, http.StatusOK, bd)
}

// Apply submits a connection application as multipart form data.  The
// connection cost is quoted server side and stored as the pending payment;
// uploaded documents land under the application's registration ID.  If a
// document cannot be stored the whole application is rolled back.
func (h *CustomerHandler) Apply(c echo.Context) error {
	actor, ok := mustActor(c)
	if !ok {
		return failJSON(c, http.StatusUnauthorized, "unauthorized")
	}

	agencyID := strings.TrimSpace(c.FormValue("agency_id"))
	name := strings.TrimSpace(c.FormValue("name"))
	mode := strings.TrimSpace(c.FormValue("connection_mode"))
	if agencyID == "" || name == "" {
		return failJSON(c, http.StatusBadRequest, "agency_id and name are required")
	}
	cylinders := uint32(1)
	if raw := strings.TrimSpace(c.FormValue("alloted_cylinders")); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || v == 0 || v > maxAllotedCylinders {
			return failJSON(c, http.StatusBadRequest, "alloted_cylinders must be between 1 and 10")
		}
		cylinders = uint32(v)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	agency, err := h.Agencies.GetByAgencyID(ctx, agencyID)
	if err != nil {
		if err == sql.ErrNoRows {
			return failJSON(c, http.StatusNotFound, "agency not found")
		}
		return failJSON(c, http.StatusInternalServerError, "query failed")
	}
	if agency.ApprovalStatus != model.ApprovalApproved {
		return failJSON(c, http.StatusUnprocessableEntity, "agency is not approved")
	}

	if _, err := h.Customers.GetByUser(ctx, actor.ID); err == nil {
		return failJSON(c, http.StatusConflict, "an application already exists for this account")
	} else if err != sql.ErrNoRows {
		return failJSON(c, http.StatusInternalServerError, "query failed")
	}

	bd, err := pricing.ComputeBreakdown(h.Rates, mode, cylinders, &agency)
	if err != nil {
		return failRepo(c, err, "pricing failed")
	}

	cust := model.Customer{
		UserID:           actor.ID,
		AgencyID:         agencyID,
		Name:             name,
		Email:            strings.ToLower(strings.TrimSpace(c.FormValue("email"))),
		Phone:            strings.TrimSpace(c.FormValue("phone")),
		AddressLine:      strings.TrimSpace(c.FormValue("address_line")),
		City:             strings.TrimSpace(c.FormValue("city")),
		State:            strings.TrimSpace(c.FormValue("state")),
		Pincode:          strings.TrimSpace(c.FormValue("pincode")),
		ConnectionMode:   mode,
		AllotedCylinders: cylinders,
		PendingPayment:   bd.TotalCost,
	}
	if err := h.Customers.Create(ctx, &cust); err != nil {
		return failRepo(c, err, "create application failed")
	}

	idProofPath, err := h.storeDocument(c, "id_proof", cust.RegistrationID)
	if err == nil {
		var photoPath string
		photoPath, err = h.storeDocument(c, "photo", cust.RegistrationID)
		if err == nil && (idProofPath != "" || photoPath != "") {
			err = h.Customers.SetDocuments(ctx, cust.ID, idProofPath, photoPath)
			if err == nil {
				if idProofPath != "" {
					cust.IDProofPath = &idProofPath
				}
				if photoPath != "" {
					cust.PhotoPath = &photoPath
				}
			}
		}
	}
	if err != nil {
		// Document storage failed after the row was written; undo both so a
		// retry starts clean.
		_ = h.Uploads.DeleteAll(cust.RegistrationID)
		_ = h.Customers.Delete(ctx, cust.ID)
		code, msg := documentErrorStatus(err)
		return failJSON(c, code, msg)
	}

	return okJSON(c, http.StatusCreated, echo.Map{"application": cust, "quote": bd})
}

// storeDocument saves one optional multipart file under the application's
// registration ID and returns its relative path ("" when absent).
func (h *CustomerHandler) storeDocument(c echo.Context, field, registrationID string) (string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return "", nil // field absent
	}
	if fh.Size > maxDocumentBytes {
		return "", echo.NewHTTPError(http.StatusRequestEntityTooLarge, field+" too large")
	}
	data, err := readMultipart(fh)
	if err != nil {
		return "", err
	}
	return h.Uploads.Save(upload.DocumentPath(registrationID, field, fh.Filename), data)
}

// documentErrorStatus maps a document-storage failure to a response. An HTTP
// error raised while reading the upload, such as the 413 for an oversized
// file, keeps its code and message; anything else is reported as a 500.
func documentErrorStatus(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if msg, ok := he.Message.(string); ok {
			return he.Code, msg
		}
		return he.Code, http.StatusText(he.Code)
	}
	return http.StatusInternalServerError, "storing documents failed"
}

func readMultipart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(io.LimitReader(f, maxDocumentBytes))
}

// Mine returns the caller's own application.
func (h *CustomerHandler) Mine(c echo.Context) error {
	actor, ok := mustActor(c)
	if !ok {
		return failJSON(c, http.StatusUnauthorized, "unauthorized")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	cust, err := h.Customers.GetByUser(ctx, actor.ID)
	if err != nil {
		return failRepo(c, err, "query failed")
	}
	return okJSON(c, http.StatusOK, cust)
}

// ListForAgency returns the caller agency's applications, optionally
// filtered by ?status=.
func (h *CustomerHandler) ListForAgency(c echo.Context) error {
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

	out, err := h.Customers.ListByAgency(ctx, actor.AgencyID, strings.TrimSpace(c.QueryParam("status")), limit, offset)
	if err != nil {
		return failJSON(c, http.StatusInternalServerError, "query failed")
	}
	return okJSON(c, http.StatusOK, out)
}

// Approve assigns the customer ID and promotes the applicant.  Only the
// agency named on the application may decide it.
func (h *CustomerHandler) Approve(c echo.Context) error {
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

	cust, err := h.Customers.Approve(ctx, id, actor)
	if err != nil {
		return failRepo(c, err, "approve failed")
	}
	return okJSON(c, http.StatusOK, cust)
}

// Deny records a terminal denial with comments.
func (h *CustomerHandler) Deny(c echo.Context) error {
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

	cust, err := h.Customers.Deny(ctx, id, actor, req.Comments)
	if err != nil {
		return failRepo(c, err, "deny failed")
	}
	return okJSON(c, http.StatusOK, cust)
}

// Remove deletes a customer record, resets the linked account to USER and
// removes any uploaded documents.  Bookings keep their CustomerID strings
// as historical references.
func (h *CustomerHandler) Remove(c echo.Context) error {
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

	cust, err := h.Customers.Remove(ctx, id, actor)
	if err != nil {
		return failRepo(c, err, "delete failed")
	}
	_ = h.Uploads.DeleteAll(cust.RegistrationID)
	return okMessage(c, http.StatusOK, "customer deleted")
}

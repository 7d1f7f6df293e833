package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lpg-distribution/internal/model"
	"github.com/iliyamo/lpg-distribution/internal/pricing"
	"github.com/iliyamo/lpg-distribution/internal/queue"
	"github.com/iliyamo/lpg-distribution/internal/repository"
	qp "github.com/iliyamo/lpg-distribution/internal/service"
)

// BookingHandler serves refill bookings: creation by a customer, listing
// per role, status updates and payment marking.
type BookingHandler struct {
	Bookings  *repository.BookingRepo
	Customers *repository.CustomerRepo
	Rates     pricing.RateTable
}

func NewBookingHandler(b *repository.BookingRepo, cu *repository.CustomerRepo, rates pricing.RateTable) *BookingHandler {
	return &BookingHandler{Bookings: b, Customers: cu, Rates: rates}
}

type bookingCreateReq struct {
	Quantity uint32 `json:"quantity"`
}

type bookingStatusReq struct {
	Status string `json:"status"`
}

type paymentReq struct {
	Payment string `json:"payment"`
}

// Create places a refill booking for the calling customer.  Quantity is
// capped by the connection's allotment, the amount is priced server side,
// and stock is reserved in the same transaction that writes the booking.
func (h *BookingHandler) Create(c echo.Context) error {
	actor, ok := mustActor(c)
	if !ok {
		return failJSON(c, http.StatusUnauthorized, "unauthorized")
	}
	if actor.CustomerID == "" {
		return failJSON(c, http.StatusForbidden, "no customer connection linked to this account")
	}

	var req bookingCreateReq
	if err := c.Bind(&req); err != nil {
		return failJSON(c, http.StatusBadRequest, "invalid body")
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	cust, err := h.Customers.GetByCustomerID(ctx, actor.CustomerID)
	if err != nil {
		return failRepo(c, err, "query failed")
	}
	if req.Quantity > cust.AllotedCylinders {
		return failJSON(c, http.StatusUnprocessableEntity, "quantity exceeds the connection allotment")
	}

	category := pricing.CategoryFor(cust.ConnectionMode)
	amount, err := pricing.RefillCost(h.Rates, category, req.Quantity)
	if err != nil {
		return failRepo(c, err, "pricing failed")
	}

	b := model.Booking{
		CustomerID: actor.CustomerID,
		AgencyID:   cust.AgencyID,
		Category:   category,
		Quantity:   req.Quantity,
		Amount:     amount,
	}
	if err := h.Bookings.Create(ctx, &b, actor); err != nil {
		return failRepo(c, err, "create booking failed")
	}

	ref := ""
	if b.PaymentRef != nil {
		ref = *b.PaymentRef
	}
	// Best effort: the booking stands even if the broker is down.
	_ = qp.PublishBookingCreated(ctx, queue.BookingCreatedEvent{
		BookingID:  b.BookingID,
		CustomerID: b.CustomerID,
		AgencyID:   b.AgencyID,
		Category:   b.Category,
		Quantity:   b.Quantity,
		Amount:     b.Amount,
		PaymentRef: ref,
		CreatedAt:  time.Now().UTC().Format("2006-01-02 15:04:05"),
	})

	return okJSON(c, http.StatusCreated, b)
}

// Get returns one booking by business ID, visible only to its customer,
// its agency, the assigned employee or an admin.
func (h *BookingHandler) Get(c echo.Context) error {
	actor, ok := mustActor(c)
	if !ok {
		return failJSON(c, http.StatusUnauthorized, "unauthorized")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	b, err := h.Bookings.GetByBookingID(ctx, c.Param("booking_id"))
	if err != nil {
		return failRepo(c, err, "query failed")
	}
	if !canSeeBooking(actor, b) {
		return failJSON(c, http.StatusForbidden, "forbidden")
	}
	return okJSON(c, http.StatusOK, b)
}

func canSeeBooking(actor model.Actor, b model.Booking) bool {
	switch actor.Role {
	case model.RoleAdmin:
		return true
	case model.RoleAgency:
		return actor.AgencyID == b.AgencyID
	case model.RoleCustomer:
		return actor.CustomerID == b.CustomerID
	case model.RoleDeliveryStaff:
		return b.EmployeeID != nil && actor.EmployeeID == *b.EmployeeID
	}
	return false
}

// List returns the caller's bookings scoped by role: customers see their
// own, agencies their agency's, delivery staff their assigned ones.
func (h *BookingHandler) List(c echo.Context) error {
	actor, ok := mustActor(c)
	if !ok {
		return failJSON(c, http.StatusUnauthorized, "unauthorized")
	}
	limit, offset := pageParams(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	var (
		out []model.Booking
		err error
	)
	switch actor.Role {
	case model.RoleCustomer:
		out, err = h.Bookings.ListByCustomer(ctx, actor.CustomerID, limit, offset)
	case model.RoleAgency:
		out, err = h.Bookings.ListByAgency(ctx, actor.AgencyID, limit, offset)
	case model.RoleDeliveryStaff:
		out, err = h.Bookings.ListByEmployee(ctx, actor.EmployeeID, limit, offset)
	case model.RoleAdmin:
		if agencyID := strings.TrimSpace(c.QueryParam("agency_id")); agencyID != "" {
			out, err = h.Bookings.ListByAgency(ctx, agencyID, limit, offset)
		} else {
			return failJSON(c, http.StatusBadRequest, "agency_id required")
		}
	default:
		return failJSON(c, http.StatusForbidden, "forbidden")
	}
	if err != nil {
		return failJSON(c, http.StatusInternalServerError, "query failed")
	}
	return okJSON(c, http.StatusOK, out)
}

// Cancel moves a booking to Cancelled while the transition is still legal.
// Only the owning customer, the owning agency or an admin may cancel; every
// other caller is rejected.
func (h *BookingHandler) Cancel(c echo.Context) error {
	actor, ok := mustActor(c)
	if !ok {
		return failJSON(c, http.StatusUnauthorized, "unauthorized")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	b, err := h.Bookings.GetByBookingID(ctx, c.Param("booking_id"))
	if err != nil {
		return failRepo(c, err, "query failed")
	}
	if !canCancelBooking(actor, b) {
		return failJSON(c, http.StatusForbidden, "forbidden")
	}

	b, err = h.Bookings.UpdateStatus(ctx, b.BookingID, model.BookingCancelled, actor)
	if err != nil {
		return failRepo(c, err, "cancel failed")
	}
	return okJSON(c, http.StatusOK, b)
}

// canCancelBooking default-denies: the assigned employee may see a booking
// but never cancel it, and unmatched roles fall through to false.
func canCancelBooking(actor model.Actor, b model.Booking) bool {
	switch actor.Role {
	case model.RoleAdmin:
		return true
	case model.RoleAgency:
		return actor.AgencyID == b.AgencyID
	case model.RoleCustomer:
		return actor.CustomerID == b.CustomerID
	}
	return false
}

// UpdateStatus moves a booking along its lifecycle.  Illegal jumps are
// rejected by the transition table before anything is written.
func (h *BookingHandler) UpdateStatus(c echo.Context) error {
	actor, ok := mustActor(c)
	if !ok {
		return failJSON(c, http.StatusUnauthorized, "unauthorized")
	}
	var req bookingStatusReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Status) == "" {
		return failJSON(c, http.StatusBadRequest, "status required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	b, err := h.Bookings.GetByBookingID(ctx, c.Param("booking_id"))
	if err != nil {
		return failRepo(c, err, "query failed")
	}
	if actor.Role == model.RoleAgency && actor.AgencyID != b.AgencyID {
		return failJSON(c, http.StatusForbidden, "forbidden")
	}

	b, err = h.Bookings.UpdateStatus(ctx, b.BookingID, req.Status, actor)
	if err != nil {
		return failRepo(c, err, "update failed")
	}
	return okJSON(c, http.StatusOK, b)
}

// SetPayment records a payment state change on a booking.
func (h *BookingHandler) SetPayment(c echo.Context) error {
	actor, ok := mustActor(c)
	if !ok {
		return failJSON(c, http.StatusUnauthorized, "unauthorized")
	}
	var req paymentReq
	if err := c.Bind(&req); err != nil || !model.ValidPaymentStatus(req.Payment) {
		return failJSON(c, http.StatusBadRequest, "payment must be PENDING, PAID or FAILED")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	b, err := h.Bookings.GetByBookingID(ctx, c.Param("booking_id"))
	if err != nil {
		return failRepo(c, err, "query failed")
	}
	if actor.Role == model.RoleAgency && actor.AgencyID != b.AgencyID {
		return failJSON(c, http.StatusForbidden, "forbidden")
	}

	if err := h.Bookings.SetPayment(ctx, b.BookingID, req.Payment, actor); err != nil {
		return failRepo(c, err, "update failed")
	}
	b.Payment = req.Payment
	return okJSON(c, http.StatusOK, b)
}

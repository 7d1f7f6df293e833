package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lpg-distribution/internal/model"
	"github.com/iliyamo/lpg-distribution/internal/queue"
	"github.com/iliyamo/lpg-distribution/internal/repository"
	qp "github.com/iliyamo/lpg-distribution/internal/service"
)

// AssignmentHandler serves delivery assignments: creation by the agency,
// progress and payment updates by the assigned employee, and completion.
type AssignmentHandler struct {
	Assignments *repository.AssignmentRepo
	Bookings    *repository.BookingRepo
	Staff       *repository.StaffRepo
}

func NewAssignmentHandler(a *repository.AssignmentRepo, b *repository.BookingRepo, s *repository.StaffRepo) *AssignmentHandler {
	return &AssignmentHandler{Assignments: a, Bookings: b, Staff: s}
}

type assignmentCreateReq struct {
	BookingID  string `json:"booking_id"`
	EmployeeID string `json:"employee_id"`
}

type deliveryStatusReq struct {
	Status string `json:"status"`
}

type receivedPaymentReq struct {
	Status string `json:"status"`
}

type completeReq struct {
	EmptiesCollected uint32 `json:"empties_collected"`
}

// Create hands a pending booking to one of the agency's active employees.
// The booking is confirmed and stamped with the employee in the same
// transaction that writes the assignment.
func (h *AssignmentHandler) Create(c echo.Context) error {
	actor, ok := mustActor(c)
	if !ok {
		return failJSON(c, http.StatusUnauthorized, "unauthorized")
	}
	var req assignmentCreateReq
	if err := c.Bind(&req); err != nil {
		return failJSON(c, http.StatusBadRequest, "invalid body")
	}
	req.BookingID = strings.TrimSpace(req.BookingID)
	req.EmployeeID = strings.TrimSpace(req.EmployeeID)
	if req.BookingID == "" || req.EmployeeID == "" {
		return failJSON(c, http.StatusBadRequest, "booking_id and employee_id are required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	b, err := h.Bookings.GetByBookingID(ctx, req.BookingID)
	if err != nil {
		return failRepo(c, err, "query failed")
	}
	if actor.Role != model.RoleAdmin && actor.AgencyID != b.AgencyID {
		return failJSON(c, http.StatusForbidden, "forbidden")
	}

	emp, err := h.Staff.GetByEmployeeID(ctx, req.EmployeeID)
	if err != nil {
		return failRepo(c, err, "query failed")
	}
	if emp.AgencyID != b.AgencyID {
		return failJSON(c, http.StatusUnprocessableEntity, "employee belongs to a different agency")
	}
	if emp.Status != model.StaffActive {
		return failJSON(c, http.StatusUnprocessableEntity, "employee is not active")
	}

	a := model.Assignment{
		BookingID:      b.BookingID,
		EmployeeID:     req.EmployeeID,
		AgencyID:       b.AgencyID,
		FilledQuantity: b.Quantity,
	}
	if err := h.Assignments.Create(ctx, &a, actor); err != nil {
		return failRepo(c, err, "create assignment failed")
	}
	return okJSON(c, http.StatusCreated, a)
}

// Get returns one assignment by business ID.
func (h *AssignmentHandler) Get(c echo.Context) error {
	actor, ok := mustActor(c)
	if !ok {
		return failJSON(c, http.StatusUnauthorized, "unauthorized")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	a, err := h.Assignments.GetByAssignmentID(ctx, c.Param("assignment_id"))
	if err != nil {
		return failRepo(c, err, "query failed")
	}
	if !canSeeAssignment(actor, a) {
		return failJSON(c, http.StatusForbidden, "forbidden")
	}
	return okJSON(c, http.StatusOK, a)
}

func canSeeAssignment(actor model.Actor, a model.Assignment) bool {
	switch actor.Role {
	case model.RoleAdmin:
		return true
	case model.RoleAgency:
		return actor.AgencyID == a.AgencyID
	case model.RoleDeliveryStaff:
		return actor.EmployeeID == a.EmployeeID
	}
	return false
}

// Mine lists the calling employee's assignments.
func (h *AssignmentHandler) Mine(c echo.Context) error {
	actor, ok := mustActor(c)
	if !ok {
		return failJSON(c, http.StatusUnauthorized, "unauthorized")
	}
	if actor.EmployeeID == "" {
		return failJSON(c, http.StatusForbidden, "no employee record linked to this account")
	}
	limit, offset := pageParams(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	out, err := h.Assignments.ListByEmployee(ctx, actor.EmployeeID, limit, offset)
	if err != nil {
		return failJSON(c, http.StatusInternalServerError, "query failed")
	}
	return okJSON(c, http.StatusOK, out)
}

// UpdateDelivery moves the delivery status forward.  Going On-the-way also
// moves the underlying booking to Out for Delivery.
func (h *AssignmentHandler) UpdateDelivery(c echo.Context) error {
	actor, ok := mustActor(c)
	if !ok {
		return failJSON(c, http.StatusUnauthorized, "unauthorized")
	}
	var req deliveryStatusReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Status) == "" {
		return failJSON(c, http.StatusBadRequest, "status required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	a, err := h.Assignments.GetByAssignmentID(ctx, c.Param("assignment_id"))
	if err != nil {
		return failRepo(c, err, "query failed")
	}
	if actor.Role == model.RoleDeliveryStaff && actor.EmployeeID != a.EmployeeID {
		return failJSON(c, http.StatusForbidden, "forbidden")
	}

	a, err = h.Assignments.UpdateDelivery(ctx, a.AssignmentID, req.Status, actor)
	if err != nil {
		return failRepo(c, err, "update failed")
	}
	return okJSON(c, http.StatusOK, a)
}

// SetReceivedPayment records whether the employee collected payment.
func (h *AssignmentHandler) SetReceivedPayment(c echo.Context) error {
	actor, ok := mustActor(c)
	if !ok {
		return failJSON(c, http.StatusUnauthorized, "unauthorized")
	}
	var req receivedPaymentReq
	if err := c.Bind(&req); err != nil || !model.ValidReceivedPaymentStatus(req.Status) {
		return failJSON(c, http.StatusBadRequest, "status must be PENDING, COLLECTED or FAILED")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	a, err := h.Assignments.GetByAssignmentID(ctx, c.Param("assignment_id"))
	if err != nil {
		return failRepo(c, err, "query failed")
	}
	if actor.Role == model.RoleDeliveryStaff && actor.EmployeeID != a.EmployeeID {
		return failJSON(c, http.StatusForbidden, "forbidden")
	}

	if err := h.Assignments.SetReceivedPayment(ctx, a.AssignmentID, req.Status); err != nil {
		return failRepo(c, err, "update failed")
	}
	a.ReceivedPaymentStatus = req.Status
	return okJSON(c, http.StatusOK, a)
}

// Complete finishes a delivery round: collected empties return to stock,
// the assignment and booking both land on Delivered, and the completion
// event is published.
func (h *AssignmentHandler) Complete(c echo.Context) error {
	actor, ok := mustActor(c)
	if !ok {
		return failJSON(c, http.StatusUnauthorized, "unauthorized")
	}
	var req completeReq
	if err := c.Bind(&req); err != nil {
		return failJSON(c, http.StatusBadRequest, "invalid body")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	a, err := h.Assignments.GetByAssignmentID(ctx, c.Param("assignment_id"))
	if err != nil {
		return failRepo(c, err, "query failed")
	}
	if actor.Role == model.RoleDeliveryStaff && actor.EmployeeID != a.EmployeeID {
		return failJSON(c, http.StatusForbidden, "forbidden")
	}
	if req.EmptiesCollected == 0 {
		// A refill round normally swaps one empty per filled cylinder.
		req.EmptiesCollected = a.FilledQuantity
	}

	a, err = h.Assignments.Complete(ctx, a.AssignmentID, req.EmptiesCollected, actor)
	if err != nil {
		return failRepo(c, err, "complete failed")
	}

	// Best effort: completion stands even if the broker is down.
	_ = qp.PublishDeliveryCompleted(ctx, queue.DeliveryCompletedEvent{
		AssignmentID:     a.AssignmentID,
		BookingID:        a.BookingID,
		EmployeeID:       a.EmployeeID,
		AgencyID:         a.AgencyID,
		FilledDelivered:  a.FilledQuantity,
		EmptiesCollected: a.EmptyQuantity,
		PaymentStatus:    a.ReceivedPaymentStatus,
		CompletedAt:      time.Now().UTC().Format("2006-01-02 15:04:05"),
	})

	return okJSON(c, http.StatusOK, a)
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/lpg-distribution/internal/idgen"
	"github.com/iliyamo/lpg-distribution/internal/model"
)

// AssignmentRepo persists delivery assignments.  Creating an assignment
// stamps the employee onto the booking and confirms it in the same
// transaction; completing one returns collected empties to stock and marks
// the booking delivered, again atomically.
type AssignmentRepo struct {
	DB       *sql.DB
	Counters *CounterRepo
	Bookings *BookingRepo
	Stock    *CylinderRepo
	Audit    *AuditRepo
}

func NewAssignmentRepo(db *sql.DB, counters *CounterRepo, bookings *BookingRepo, stock *CylinderRepo, audit *AuditRepo) *AssignmentRepo {
	return &AssignmentRepo{DB: db, Counters: counters, Bookings: bookings, Stock: stock, Audit: audit}
}

const assignmentColumns = `id, assignment_id, booking_id, employee_id, agency_id,
	filled_quantity, empty_quantity, delivery_status, received_payment_status, created_at, updated_at`

// Create assigns a booking to an employee.  The AssignmentID sequence
// comes from the shared counter store; the timestamp in the format is
// informational, not a uniqueness mechanism.
func (r *AssignmentRepo) Create(ctx context.Context, a *model.Assignment, actor model.Actor) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	booking, err := r.Bookings.assignEmployeeTx(ctx, tx, a.BookingID, a.EmployeeID)
	if err != nil {
		return err
	}
	a.AgencyID = booking.AgencyID
	a.FilledQuantity = booking.Quantity
	a.DeliveryStatus = model.DeliveryAssigned
	a.ReceivedPaymentStatus = model.ReceivedPaymentPending

	var inserted bool
	for attempt := 0; attempt < idgen.MaxAttempts; attempt++ {
		seq, err := r.Counters.Next(ctx, idgen.KeyAssignment)
		if err != nil {
			return err
		}
		a.AssignmentID = idgen.AssignmentID(time.Now().UTC(), seq)
		res, err := tx.ExecContext(ctx,
			`INSERT INTO assignments (assignment_id, booking_id, employee_id, agency_id,
				filled_quantity, empty_quantity, delivery_status, received_payment_status)
			 VALUES (?,?,?,?,?,?,?,?)`,
			a.AssignmentID, a.BookingID, a.EmployeeID, a.AgencyID,
			a.FilledQuantity, a.EmptyQuantity, a.DeliveryStatus, a.ReceivedPaymentStatus)
		if err == nil {
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			a.ID = uint64(id)
			inserted = true
			break
		}
		if !isDuplicateKey(err) {
			return err
		}
	}
	if !inserted {
		return ErrIDGeneration
	}

	details := fmt.Sprintf("assignment %s: booking %s -> employee %s", a.AssignmentID, a.BookingID, a.EmployeeID)
	if err := r.Audit.InsertTx(ctx, tx, actor, "assignment.create", "assignment", a.AssignmentID, details); err != nil {
		return err
	}
	return tx.Commit()
}

// GetByAssignmentID fetches an assignment by business ID.
func (r *AssignmentRepo) GetByAssignmentID(ctx context.Context, assignmentID string) (model.Assignment, error) {
	return scanAssignment(r.DB.QueryRowContext(ctx,
		"SELECT "+assignmentColumns+" FROM assignments WHERE assignment_id=? LIMIT 1", assignmentID))
}

// ListByEmployee returns an employee's assignments, newest first.
func (r *AssignmentRepo) ListByEmployee(ctx context.Context, employeeID string, limit, offset int) ([]model.Assignment, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+assignmentColumns+" FROM assignments WHERE employee_id=? ORDER BY created_at DESC LIMIT ? OFFSET ?",
		employeeID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateDelivery moves the delivery status along its state machine.  When
// the target is Out-for-delivery the booking follows.
func (r *AssignmentRepo) UpdateDelivery(ctx context.Context, assignmentID, to string, actor model.Actor) (model.Assignment, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Assignment{}, err
	}
	defer tx.Rollback()

	a, err := scanAssignment(tx.QueryRowContext(ctx,
		"SELECT "+assignmentColumns+" FROM assignments WHERE assignment_id=? LIMIT 1 FOR UPDATE", assignmentID))
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Assignment{}, ErrNotFound
		}
		return model.Assignment{}, err
	}
	if !model.ValidDeliveryTransition(a.DeliveryStatus, to) {
		return model.Assignment{}, ErrConflict
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE assignments SET delivery_status=? WHERE assignment_id=?", to, assignmentID); err != nil {
		return model.Assignment{}, err
	}
	if to == model.DeliveryOnTheWay {
		if err := r.Bookings.setStatusTx(ctx, tx, a.BookingID, model.BookingOutForDelivery); err != nil {
			return model.Assignment{}, err
		}
	}
	details := fmt.Sprintf("assignment %s delivery: %s -> %s", assignmentID, a.DeliveryStatus, to)
	if err := r.Audit.InsertTx(ctx, tx, actor, "assignment.delivery", "assignment", assignmentID, details); err != nil {
		return model.Assignment{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Assignment{}, err
	}
	a.DeliveryStatus = to
	return a, nil
}

// SetReceivedPayment records the collection outcome reported by the
// delivering employee.
func (r *AssignmentRepo) SetReceivedPayment(ctx context.Context, assignmentID, status string) error {
	if !model.ValidReceivedPaymentStatus(status) {
		return ErrConflict
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE assignments SET received_payment_status=? WHERE assignment_id=?", status, assignmentID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Complete finishes a delivery round: the assignment moves to Delivered,
// collected empties go back to stock and the booking is marked Delivered,
// all in one transaction.
func (r *AssignmentRepo) Complete(ctx context.Context, assignmentID string, emptiesCollected uint32, actor model.Actor) (model.Assignment, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Assignment{}, err
	}
	defer tx.Rollback()

	a, err := scanAssignment(tx.QueryRowContext(ctx,
		"SELECT "+assignmentColumns+" FROM assignments WHERE assignment_id=? LIMIT 1 FOR UPDATE", assignmentID))
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Assignment{}, ErrNotFound
		}
		return model.Assignment{}, err
	}
	if !model.ValidDeliveryTransition(a.DeliveryStatus, model.DeliveryDelivered) {
		return model.Assignment{}, ErrConflict
	}

	booking, err := r.Bookings.GetByBookingID(ctx, a.BookingID)
	if err != nil {
		return model.Assignment{}, err
	}
	if _, err := r.Stock.ReturnTx(ctx, tx, a.AgencyID, booking.Category, emptiesCollected); err != nil {
		return model.Assignment{}, err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE assignments SET delivery_status=?, empty_quantity=? WHERE assignment_id=?",
		model.DeliveryDelivered, emptiesCollected, assignmentID); err != nil {
		return model.Assignment{}, err
	}
	if err := r.Bookings.setStatusTx(ctx, tx, a.BookingID, model.BookingDelivered); err != nil {
		return model.Assignment{}, err
	}
	details := fmt.Sprintf("assignment %s delivered, %d empties returned", assignmentID, emptiesCollected)
	if err := r.Audit.InsertTx(ctx, tx, actor, "assignment.complete", "assignment", assignmentID, details); err != nil {
		return model.Assignment{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Assignment{}, err
	}
	a.DeliveryStatus = model.DeliveryDelivered
	a.EmptyQuantity = emptiesCollected
	return a, nil
}

func scanAssignment(row rowScanner) (model.Assignment, error) {
	var a model.Assignment
	err := row.Scan(&a.ID, &a.AssignmentID, &a.BookingID, &a.EmployeeID, &a.AgencyID,
		&a.FilledQuantity, &a.EmptyQuantity, &a.DeliveryStatus, &a.ReceivedPaymentStatus,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return model.Assignment{}, err
	}
	return a, nil
}

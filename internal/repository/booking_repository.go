package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/lpg-distribution/internal/idgen"
	"github.com/iliyamo/lpg-distribution/internal/model"
)

// BookingRepo persists refill bookings.  Creating a booking reserves stock
// in the same transaction: the insert and the inventory decrement commit or
// roll back together.
type BookingRepo struct {
	DB       *sql.DB
	Counters *CounterRepo
	Stock    *CylinderRepo
	Audit    *AuditRepo
}

func NewBookingRepo(db *sql.DB, counters *CounterRepo, stock *CylinderRepo, audit *AuditRepo) *BookingRepo {
	return &BookingRepo{DB: db, Counters: counters, Stock: stock, Audit: audit}
}

const bookingColumns = `id, booking_id, customer_id, agency_id, employee_id, category, quantity,
	amount, payment_ref, payment, status, created_at, updated_at`

// Create inserts a booking and books qty cylinders out of the agency's
// stock.  BookingID comes from the shared counter plus a time-of-day
// suffix; a duplicate-key hit on it retries with a fresh sequence value up
// to the bounded attempt count.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking, actor model.Actor) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := r.Stock.BookTx(ctx, tx, b.AgencyID, b.Category, b.Quantity); err != nil {
		return err
	}

	ref := uuid.NewString()
	b.PaymentRef = &ref
	b.Payment = model.PaymentPending
	b.Status = model.BookingPending

	var inserted bool
	for attempt := 0; attempt < idgen.MaxAttempts; attempt++ {
		seq, err := r.Counters.Next(ctx, idgen.KeyBooking)
		if err != nil {
			return err
		}
		b.BookingID = idgen.BookingID(time.Now().UTC(), seq)
		res, err := tx.ExecContext(ctx,
			`INSERT INTO bookings (booking_id, customer_id, agency_id, category, quantity, amount, payment_ref, payment, status)
			 VALUES (?,?,?,?,?,?,?,?,?)`,
			b.BookingID, b.CustomerID, b.AgencyID, b.Category, b.Quantity, b.Amount, ref, b.Payment, b.Status)
		if err == nil {
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			b.ID = uint64(id)
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

	details := fmt.Sprintf("booking %s created: %d %s cylinders for customer %s", b.BookingID, b.Quantity, b.Category, b.CustomerID)
	if err := r.Audit.InsertTx(ctx, tx, actor, "booking.create", "booking", b.BookingID, details); err != nil {
		return err
	}
	return tx.Commit()
}

// GetByBookingID fetches a booking by business ID.
func (r *BookingRepo) GetByBookingID(ctx context.Context, bookingID string) (model.Booking, error) {
	return scanBooking(r.DB.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE booking_id=? LIMIT 1", bookingID))
}

// ListByCustomer returns a customer's bookings, newest first.
func (r *BookingRepo) ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]model.Booking, error) {
	return r.list(ctx, "customer_id", customerID, limit, offset)
}

// ListByAgency returns an agency's bookings, newest first.
func (r *BookingRepo) ListByAgency(ctx context.Context, agencyID string, limit, offset int) ([]model.Booking, error) {
	return r.list(ctx, "agency_id", agencyID, limit, offset)
}

// ListByEmployee returns bookings assigned to an employee, newest first.
func (r *BookingRepo) ListByEmployee(ctx context.Context, employeeID string, limit, offset int) ([]model.Booking, error) {
	return r.list(ctx, "employee_id", employeeID, limit, offset)
}

func (r *BookingRepo) list(ctx context.Context, column, value string, limit, offset int) ([]model.Booking, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE "+column+"=? ORDER BY created_at DESC LIMIT ? OFFSET ?",
		value, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// UpdateStatus moves a booking along its lifecycle, rejecting transitions
// the state machine does not allow.
func (r *BookingRepo) UpdateStatus(ctx context.Context, bookingID, to string, actor model.Actor) (model.Booking, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Booking{}, err
	}
	defer tx.Rollback()

	b, err := scanBooking(tx.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE booking_id=? LIMIT 1 FOR UPDATE", bookingID))
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Booking{}, ErrNotFound
		}
		return model.Booking{}, err
	}
	if !model.ValidBookingTransition(b.Status, to) {
		return model.Booking{}, ErrConflict
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE bookings SET status=? WHERE booking_id=?", to, bookingID); err != nil {
		return model.Booking{}, err
	}
	details := fmt.Sprintf("booking %s: %s -> %s", bookingID, b.Status, to)
	if err := r.Audit.InsertTx(ctx, tx, actor, "booking.status", "booking", bookingID, details); err != nil {
		return model.Booking{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Booking{}, err
	}
	b.Status = to
	return b, nil
}

// SetPayment updates the payment state.  The audit row is appended
// best-effort after the update.
func (r *BookingRepo) SetPayment(ctx context.Context, bookingID, payment string, actor model.Actor) error {
	if !model.ValidPaymentStatus(payment) {
		return ErrConflict
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE bookings SET payment=? WHERE booking_id=?", payment, bookingID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	details := fmt.Sprintf("booking %s payment set to %s", bookingID, payment)
	_ = r.Audit.Insert(ctx, actor, "booking.payment", "booking", bookingID, details)
	return nil
}

// assignEmployeeTx stamps the delivering employee onto a booking and moves
// it to Confirmed.  Called from the assignment-creation transaction.
func (r *BookingRepo) assignEmployeeTx(ctx context.Context, tx *sql.Tx, bookingID, employeeID string) (model.Booking, error) {
	b, err := scanBooking(tx.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE booking_id=? LIMIT 1 FOR UPDATE", bookingID))
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Booking{}, ErrNotFound
		}
		return model.Booking{}, err
	}
	if b.EmployeeID != nil {
		return model.Booking{}, ErrConflict
	}
	if !model.ValidBookingTransition(b.Status, model.BookingConfirmed) {
		return model.Booking{}, ErrConflict
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE bookings SET employee_id=?, status=? WHERE booking_id=?",
		employeeID, model.BookingConfirmed, bookingID); err != nil {
		return model.Booking{}, err
	}
	b.EmployeeID = &employeeID
	b.Status = model.BookingConfirmed
	return b, nil
}

// setStatusTx applies a checked status change inside a caller's transaction.
func (r *BookingRepo) setStatusTx(ctx context.Context, tx *sql.Tx, bookingID, to string) error {
	b, err := scanBooking(tx.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE booking_id=? LIMIT 1 FOR UPDATE", bookingID))
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return err
	}
	if !model.ValidBookingTransition(b.Status, to) {
		return ErrConflict
	}
	_, err = tx.ExecContext(ctx, "UPDATE bookings SET status=? WHERE booking_id=?", to, bookingID)
	return err
}

func scanBooking(row rowScanner) (model.Booking, error) {
	var (
		b          model.Booking
		employeeID sql.NullString
		paymentRef sql.NullString
	)
	err := row.Scan(&b.ID, &b.BookingID, &b.CustomerID, &b.AgencyID, &employeeID,
		&b.Category, &b.Quantity, &b.Amount, &paymentRef, &b.Payment, &b.Status,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return model.Booking{}, err
	}
	if employeeID.Valid {
		b.EmployeeID = &employeeID.String
	}
	if paymentRef.Valid {
		b.PaymentRef = &paymentRef.String
	}
	return b, nil
}

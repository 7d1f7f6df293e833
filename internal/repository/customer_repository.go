package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/lpg-distribution/internal/idgen"
	"github.com/iliyamo/lpg-distribution/internal/model"
)

// CustomerRepo persists gas-connection customers and runs their approval
// lifecycle.  CustomerID assignment uses the per-agency counter as the
// primary mechanism, seeded from the highest already-assigned ID the first
// time an agency's key is used; retry-after-duplicate remains only as a
// defensive fallback.
type CustomerRepo struct {
	DB       *sql.DB
	Counters *CounterRepo
	Users    *UserRepo
	Audit    *AuditRepo
}

func NewCustomerRepo(db *sql.DB, counters *CounterRepo, users *UserRepo, audit *AuditRepo) *CustomerRepo {
	return &CustomerRepo{DB: db, Counters: counters, Users: users, Audit: audit}
}

const customerColumns = `id, user_id, agency_id, name, email, phone, address_line, city, state, pincode,
	connection_mode, alloted_cylinders, pending_payment, registration_id, customer_id,
	id_proof_path, photo_path, approval_status, approved_by, approval_date, comments, created_at, updated_at`

// Create inserts a pending connection application.  RegistrationID comes
// from the shared counter; PendingPayment carries the pricing engine's
// quote computed by the handler.
func (r *CustomerRepo) Create(ctx context.Context, c *model.Customer) error {
	seq, err := r.Counters.Next(ctx, idgen.KeyRegistration)
	if err != nil {
		return err
	}
	c.RegistrationID = idgen.RegistrationID(time.Now().UTC(), seq)
	c.ApprovalStatus = model.ApprovalPending

	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO customers (user_id, agency_id, name, email, phone, address_line, city, state, pincode,
			connection_mode, alloted_cylinders, pending_payment, registration_id, approval_status)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		c.UserID, c.AgencyID, c.Name, c.Email, c.Phone, c.AddressLine, c.City, c.State, c.Pincode,
		c.ConnectionMode, c.AllotedCylinders, c.PendingPayment, c.RegistrationID, c.ApprovalStatus)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// Delete removes a customer row with no side effects.  It is the
// compensation step when a later stage of the application workflow fails.
func (r *CustomerRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM customers WHERE id=?", id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Remove is the admin delete: in one transaction it removes the customer,
// resets the linked account back to USER and appends the audit entry.
// Bookings referencing the CustomerID stay in place as historical records.
func (r *CustomerRepo) Remove(ctx context.Context, id uint64, actor model.Actor) (model.Customer, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Customer{}, err
	}
	defer tx.Rollback()

	c, err := scanCustomer(tx.QueryRowContext(ctx,
		"SELECT "+customerColumns+" FROM customers WHERE id=? LIMIT 1 FOR UPDATE", id))
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Customer{}, ErrNotFound
		}
		return model.Customer{}, err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM customers WHERE id=?", id); err != nil {
		return model.Customer{}, err
	}
	if err := r.Users.ResetRoleTx(ctx, tx, c.UserID); err != nil {
		return model.Customer{}, err
	}
	ref := c.RegistrationID
	if c.CustomerID != nil {
		ref = *c.CustomerID
	}
	details := fmt.Sprintf("customer %q deleted, account %d reset to USER", c.Name, c.UserID)
	if err := r.Audit.InsertTx(ctx, tx, actor, "customer.delete", "customer", ref, details); err != nil {
		return model.Customer{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Customer{}, err
	}
	return c, nil
}

// SetDocuments stores uploaded document paths on a customer row.
func (r *CustomerRepo) SetDocuments(ctx context.Context, id uint64, idProofPath, photoPath string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE customers SET id_proof_path=?, photo_path=? WHERE id=?",
		idProofPath, photoPath, id)
	return err
}

// GetByID fetches a customer row.
func (r *CustomerRepo) GetByID(ctx context.Context, id uint64) (model.Customer, error) {
	return scanCustomer(r.DB.QueryRowContext(ctx,
		"SELECT "+customerColumns+" FROM customers WHERE id=? LIMIT 1", id))
}

// GetByCustomerID fetches a customer by business ID.
func (r *CustomerRepo) GetByCustomerID(ctx context.Context, customerID string) (model.Customer, error) {
	return scanCustomer(r.DB.QueryRowContext(ctx,
		"SELECT "+customerColumns+" FROM customers WHERE customer_id=? LIMIT 1", customerID))
}

// GetByUser fetches the customer application linked to a user account.
func (r *CustomerRepo) GetByUser(ctx context.Context, userID uint64) (model.Customer, error) {
	return scanCustomer(r.DB.QueryRowContext(ctx,
		"SELECT "+customerColumns+" FROM customers WHERE user_id=? LIMIT 1", userID))
}

// ListByAgency returns an agency's customers, optionally filtered by
// approval status, newest first.
func (r *CustomerRepo) ListByAgency(ctx context.Context, agencyID, status string, limit, offset int) ([]model.Customer, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := "SELECT " + customerColumns + " FROM customers WHERE agency_id=?"
	args := []any{agencyID}
	if status != "" {
		q += " AND approval_status=?"
		args = append(args, status)
	}
	q += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// lastAssignedSuffix scans for the highest numeric suffix among IDs in
// column matching prefix.  Pending and denied rows have no ID yet, so only
// approved records contribute.
func lastAssignedSuffix(ctx context.Context, db *sql.DB, table, column, prefix string) (uint64, error) {
	var last sql.NullString
	err := db.QueryRowContext(ctx,
		"SELECT "+column+" FROM "+table+" WHERE "+column+" LIKE CONCAT(?, '%') ORDER BY "+column+" DESC LIMIT 1",
		prefix).Scan(&last)
	if err != nil && err != sql.ErrNoRows {
		return 0, err
	}
	if !last.Valid {
		return 0, nil
	}
	n, _ := idgen.NumericSuffix(last.String, prefix)
	return n, nil
}

// Approve runs the Pending -> Approved transition: assigns the CustomerID
// from the per-agency counter, promotes the linked account to CUSTOMER and
// appends the audit entry, all under one transaction.
func (r *CustomerRepo) Approve(ctx context.Context, id uint64, actor model.Actor) (model.Customer, error) {
	if !actor.Identified() {
		return model.Customer{}, &model.MissingFieldError{Entity: "approval", Field: "approved_by"}
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Customer{}, err
	}
	defer tx.Rollback()

	c, err := scanCustomer(tx.QueryRowContext(ctx,
		"SELECT "+customerColumns+" FROM customers WHERE id=? LIMIT 1 FOR UPDATE", id))
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Customer{}, ErrNotFound
		}
		return model.Customer{}, err
	}
	if actor.Role != model.RoleAdmin && actor.AgencyID != c.AgencyID {
		return model.Customer{}, ErrForbidden
	}
	if err := model.CanDecide(c.ApprovalStatus); err != nil {
		return model.Customer{}, err
	}

	// Seed the per-agency counter from the scan the first time it is used,
	// so counters adopted over pre-existing data continue the sequence.
	prefix := c.AgencyID
	if len(prefix) > 4 {
		prefix = prefix[:4]
	}
	floor, err := lastAssignedSuffix(ctx, r.DB, "customers", "customer_id", prefix)
	if err != nil {
		return model.Customer{}, err
	}
	if floor > 0 {
		if err := r.Counters.Seed(ctx, idgen.CustomerKey(c.AgencyID), floor); err != nil {
			return model.Customer{}, err
		}
	}

	now := time.Now().UTC()
	stamp := actor.Stamp()
	var assigned string
	for attempt := 0; attempt < idgen.MaxAttempts; attempt++ {
		seq, err := r.Counters.Next(ctx, idgen.CustomerKey(c.AgencyID))
		if err != nil {
			return model.Customer{}, err
		}
		candidate, err := idgen.CustomerID(c.AgencyID, seq)
		if err != nil {
			return model.Customer{}, err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE customers SET customer_id=?, approval_status=?, approved_by=?, approval_date=?
			 WHERE id=? AND approval_status=?`,
			candidate, model.ApprovalApproved, stamp, now, id, model.ApprovalPending)
		if err == nil {
			assigned = candidate
			break
		}
		if !isDuplicateKey(err) {
			return model.Customer{}, err
		}
	}
	if assigned == "" {
		return model.Customer{}, ErrIDGeneration
	}

	if err := r.Users.PromoteTx(ctx, tx, c.UserID, model.RoleCustomer, assigned); err != nil {
		return model.Customer{}, err
	}
	details := fmt.Sprintf("customer %q approved for agency %s, assigned %s", c.Name, c.AgencyID, assigned)
	if err := r.Audit.InsertTx(ctx, tx, actor, "customer.approve", "customer", assigned, details); err != nil {
		return model.Customer{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Customer{}, err
	}

	c.CustomerID = &assigned
	c.ApprovalStatus = model.ApprovalApproved
	c.ApprovedBy = &stamp
	c.ApprovalDate = &now
	return c, nil
}

// Deny runs the Pending -> Denied transition.  No CustomerID is assigned.
func (r *CustomerRepo) Deny(ctx context.Context, id uint64, actor model.Actor, comments string) (model.Customer, error) {
	if !actor.Identified() {
		return model.Customer{}, &model.MissingFieldError{Entity: "approval", Field: "approved_by"}
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Customer{}, err
	}
	defer tx.Rollback()

	c, err := scanCustomer(tx.QueryRowContext(ctx,
		"SELECT "+customerColumns+" FROM customers WHERE id=? LIMIT 1 FOR UPDATE", id))
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Customer{}, ErrNotFound
		}
		return model.Customer{}, err
	}
	if actor.Role != model.RoleAdmin && actor.AgencyID != c.AgencyID {
		return model.Customer{}, ErrForbidden
	}
	if err := model.CanDecide(c.ApprovalStatus); err != nil {
		return model.Customer{}, err
	}

	now := time.Now().UTC()
	stamp := actor.Stamp()
	if _, err := tx.ExecContext(ctx,
		`UPDATE customers SET approval_status=?, approved_by=?, approval_date=?, comments=?
		 WHERE id=? AND approval_status=?`,
		model.ApprovalDenied, stamp, now, comments, id, model.ApprovalPending); err != nil {
		return model.Customer{}, err
	}
	details := fmt.Sprintf("customer %q denied for agency %s", c.Name, c.AgencyID)
	if err := r.Audit.InsertTx(ctx, tx, actor, "customer.deny", "customer", c.RegistrationID, details); err != nil {
		return model.Customer{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Customer{}, err
	}

	c.ApprovalStatus = model.ApprovalDenied
	c.ApprovedBy = &stamp
	c.ApprovalDate = &now
	c.Comments = &comments
	return c, nil
}

func scanCustomer(row rowScanner) (model.Customer, error) {
	var (
		c            model.Customer
		customerID   sql.NullString
		idProofPath  sql.NullString
		photoPath    sql.NullString
		approvedBy   sql.NullString
		approvalDate sql.NullTime
		comments     sql.NullString
	)
	err := row.Scan(&c.ID, &c.UserID, &c.AgencyID, &c.Name, &c.Email, &c.Phone,
		&c.AddressLine, &c.City, &c.State, &c.Pincode,
		&c.ConnectionMode, &c.AllotedCylinders, &c.PendingPayment, &c.RegistrationID, &customerID,
		&idProofPath, &photoPath, &c.ApprovalStatus, &approvedBy, &approvalDate, &comments,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return model.Customer{}, err
	}
	if customerID.Valid {
		c.CustomerID = &customerID.String
	}
	if idProofPath.Valid {
		c.IDProofPath = &idProofPath.String
	}
	if photoPath.Valid {
		c.PhotoPath = &photoPath.String
	}
	if approvedBy.Valid {
		c.ApprovedBy = &approvedBy.String
	}
	if approvalDate.Valid {
		t := approvalDate.Time
		c.ApprovalDate = &t
	}
	if comments.Valid {
		c.Comments = &comments.String
	}
	return c, nil
}

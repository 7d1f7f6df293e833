package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/lpg-distribution/internal/idgen"
	"github.com/iliyamo/lpg-distribution/internal/model"
)

// StaffRepo persists delivery staff and runs their approval lifecycle.
// EmployeeID assignment mirrors CustomerID: per-agency counter seeded from
// the highest assigned suffix, bounded duplicate-retry as fallback.
// Approval additionally flips the operational Status to Active.
type StaffRepo struct {
	DB       *sql.DB
	Counters *CounterRepo
	Users    *UserRepo
	Audit    *AuditRepo
}

func NewStaffRepo(db *sql.DB, counters *CounterRepo, users *UserRepo, audit *AuditRepo) *StaffRepo {
	return &StaffRepo{DB: db, Counters: counters, Users: users, Audit: audit}
}

const staffColumns = `id, user_id, agency_id, name, email, phone, application_id, employee_id,
	status, approval_status, approved_by, approval_date, comments, created_at, updated_at`

// Create inserts a pending staff application.  ApplicationID is the
// provisional identifier; the record starts Inactive.
func (r *StaffRepo) Create(ctx context.Context, s *model.DeliveryStaff) error {
	seq, err := r.Counters.Next(ctx, idgen.KeyRegistration)
	if err != nil {
		return err
	}
	s.ApplicationID = idgen.RegistrationID(time.Now().UTC(), seq)
	s.ApprovalStatus = model.ApprovalPending
	s.Status = model.StaffInactive

	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO delivery_staff (user_id, agency_id, name, email, phone, application_id, status, approval_status)
		 VALUES (?,?,?,?,?,?,?,?)`,
		s.UserID, s.AgencyID, s.Name, s.Email, s.Phone, s.ApplicationID, s.Status, s.ApprovalStatus)
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
	s.ID = uint64(id)
	return nil
}

// Remove is the admin delete: in one transaction it removes the staff
// record, resets the linked account back to USER and appends the audit
// entry.  Assignments referencing the EmployeeID stay in place as
// historical records.
func (r *StaffRepo) Remove(ctx context.Context, id uint64, actor model.Actor) (model.DeliveryStaff, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.DeliveryStaff{}, err
	}
	defer tx.Rollback()

	s, err := scanStaff(tx.QueryRowContext(ctx,
		"SELECT "+staffColumns+" FROM delivery_staff WHERE id=? LIMIT 1 FOR UPDATE", id))
	if err != nil {
		if err == sql.ErrNoRows {
			return model.DeliveryStaff{}, ErrNotFound
		}
		return model.DeliveryStaff{}, err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM delivery_staff WHERE id=?", id); err != nil {
		return model.DeliveryStaff{}, err
	}
	if err := r.Users.ResetRoleTx(ctx, tx, s.UserID); err != nil {
		return model.DeliveryStaff{}, err
	}
	ref := s.ApplicationID
	if s.EmployeeID != nil {
		ref = *s.EmployeeID
	}
	details := fmt.Sprintf("staff %q deleted, account %d reset to USER", s.Name, s.UserID)
	if err := r.Audit.InsertTx(ctx, tx, actor, "staff.delete", "staff", ref, details); err != nil {
		return model.DeliveryStaff{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.DeliveryStaff{}, err
	}
	return s, nil
}

// GetByID fetches a staff row.
func (r *StaffRepo) GetByID(ctx context.Context, id uint64) (model.DeliveryStaff, error) {
	return scanStaff(r.DB.QueryRowContext(ctx,
		"SELECT "+staffColumns+" FROM delivery_staff WHERE id=? LIMIT 1", id))
}

// GetByEmployeeID fetches a staff member by business ID.
func (r *StaffRepo) GetByEmployeeID(ctx context.Context, employeeID string) (model.DeliveryStaff, error) {
	return scanStaff(r.DB.QueryRowContext(ctx,
		"SELECT "+staffColumns+" FROM delivery_staff WHERE employee_id=? LIMIT 1", employeeID))
}

// ListByAgency returns an agency's staff, optionally filtered by approval
// status, newest first.
func (r *StaffRepo) ListByAgency(ctx context.Context, agencyID, status string, limit, offset int) ([]model.DeliveryStaff, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := "SELECT " + staffColumns + " FROM delivery_staff WHERE agency_id=?"
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
	var out []model.DeliveryStaff
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Approve runs Pending -> Approved: assigns the EmployeeID, sets Status to
// Active, promotes the linked account and appends the audit entry.
func (r *StaffRepo) Approve(ctx context.Context, id uint64, actor model.Actor) (model.DeliveryStaff, error) {
	if !actor.Identified() {
		return model.DeliveryStaff{}, &model.MissingFieldError{Entity: "approval", Field: "approved_by"}
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.DeliveryStaff{}, err
	}
	defer tx.Rollback()

	s, err := scanStaff(tx.QueryRowContext(ctx,
		"SELECT "+staffColumns+" FROM delivery_staff WHERE id=? LIMIT 1 FOR UPDATE", id))
	if err != nil {
		if err == sql.ErrNoRows {
			return model.DeliveryStaff{}, ErrNotFound
		}
		return model.DeliveryStaff{}, err
	}
	if actor.Role != model.RoleAdmin && actor.AgencyID != s.AgencyID {
		return model.DeliveryStaff{}, ErrForbidden
	}
	if err := model.CanDecide(s.ApprovalStatus); err != nil {
		return model.DeliveryStaff{}, err
	}

	prefix := s.AgencyID
	if len(prefix) > 4 {
		prefix = prefix[:4]
	}
	floor, err := lastAssignedSuffix(ctx, r.DB, "delivery_staff", "employee_id", prefix+"EMP")
	if err != nil {
		return model.DeliveryStaff{}, err
	}
	if floor > 0 {
		if err := r.Counters.Seed(ctx, idgen.EmployeeKey(s.AgencyID), floor); err != nil {
			return model.DeliveryStaff{}, err
		}
	}

	now := time.Now().UTC()
	stamp := actor.Stamp()
	var assigned string
	for attempt := 0; attempt < idgen.MaxAttempts; attempt++ {
		seq, err := r.Counters.Next(ctx, idgen.EmployeeKey(s.AgencyID))
		if err != nil {
			return model.DeliveryStaff{}, err
		}
		candidate, err := idgen.EmployeeID(s.AgencyID, seq)
		if err != nil {
			return model.DeliveryStaff{}, err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE delivery_staff SET employee_id=?, status=?, approval_status=?, approved_by=?, approval_date=?
			 WHERE id=? AND approval_status=?`,
			candidate, model.StaffActive, model.ApprovalApproved, stamp, now, id, model.ApprovalPending)
		if err == nil {
			assigned = candidate
			break
		}
		if !isDuplicateKey(err) {
			return model.DeliveryStaff{}, err
		}
	}
	if assigned == "" {
		return model.DeliveryStaff{}, ErrIDGeneration
	}

	if err := r.Users.PromoteTx(ctx, tx, s.UserID, model.RoleDeliveryStaff, assigned); err != nil {
		return model.DeliveryStaff{}, err
	}
	details := fmt.Sprintf("staff %q approved for agency %s, assigned %s", s.Name, s.AgencyID, assigned)
	if err := r.Audit.InsertTx(ctx, tx, actor, "staff.approve", "delivery_staff", assigned, details); err != nil {
		return model.DeliveryStaff{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.DeliveryStaff{}, err
	}

	s.EmployeeID = &assigned
	s.Status = model.StaffActive
	s.ApprovalStatus = model.ApprovalApproved
	s.ApprovedBy = &stamp
	s.ApprovalDate = &now
	return s, nil
}

// Deny runs Pending -> Denied.  The record stays Inactive and no
// EmployeeID is assigned.
func (r *StaffRepo) Deny(ctx context.Context, id uint64, actor model.Actor, comments string) (model.DeliveryStaff, error) {
	if !actor.Identified() {
		return model.DeliveryStaff{}, &model.MissingFieldError{Entity: "approval", Field: "approved_by"}
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.DeliveryStaff{}, err
	}
	defer tx.Rollback()

	s, err := scanStaff(tx.QueryRowContext(ctx,
		"SELECT "+staffColumns+" FROM delivery_staff WHERE id=? LIMIT 1 FOR UPDATE", id))
	if err != nil {
		if err == sql.ErrNoRows {
			return model.DeliveryStaff{}, ErrNotFound
		}
		return model.DeliveryStaff{}, err
	}
	if actor.Role != model.RoleAdmin && actor.AgencyID != s.AgencyID {
		return model.DeliveryStaff{}, ErrForbidden
	}
	if err := model.CanDecide(s.ApprovalStatus); err != nil {
		return model.DeliveryStaff{}, err
	}

	now := time.Now().UTC()
	stamp := actor.Stamp()
	if _, err := tx.ExecContext(ctx,
		`UPDATE delivery_staff SET approval_status=?, status=?, approved_by=?, approval_date=?, comments=?
		 WHERE id=? AND approval_status=?`,
		model.ApprovalDenied, model.StaffInactive, stamp, now, comments, id, model.ApprovalPending); err != nil {
		return model.DeliveryStaff{}, err
	}
	details := fmt.Sprintf("staff %q denied for agency %s", s.Name, s.AgencyID)
	if err := r.Audit.InsertTx(ctx, tx, actor, "staff.deny", "delivery_staff", s.ApplicationID, details); err != nil {
		return model.DeliveryStaff{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.DeliveryStaff{}, err
	}

	s.ApprovalStatus = model.ApprovalDenied
	s.ApprovedBy = &stamp
	s.ApprovalDate = &now
	s.Comments = &comments
	return s, nil
}

// SetStatus flips the operational status of an approved employee.
func (r *StaffRepo) SetStatus(ctx context.Context, id uint64, status string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE delivery_staff SET status=? WHERE id=? AND approval_status=?",
		status, id, model.ApprovalApproved)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanStaff(row rowScanner) (model.DeliveryStaff, error) {
	var (
		s            model.DeliveryStaff
		employeeID   sql.NullString
		approvedBy   sql.NullString
		approvalDate sql.NullTime
		comments     sql.NullString
	)
	err := row.Scan(&s.ID, &s.UserID, &s.AgencyID, &s.Name, &s.Email, &s.Phone,
		&s.ApplicationID, &employeeID, &s.Status, &s.ApprovalStatus,
		&approvedBy, &approvalDate, &comments, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return model.DeliveryStaff{}, err
	}
	if employeeID.Valid {
		s.EmployeeID = &employeeID.String
	}
	if approvedBy.Valid {
		s.ApprovedBy = &approvedBy.String
	}
	if approvalDate.Valid {
		t := approvalDate.Time
		s.ApprovalDate = &t
	}
	if comments.Valid {
		s.Comments = &comments.String
	}
	return s, nil
}

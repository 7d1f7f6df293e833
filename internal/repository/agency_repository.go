package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/lpg-distribution/internal/idgen"
	"github.com/iliyamo/lpg-distribution/internal/model"
)

// AgencyRepo persists agencies and runs their approval lifecycle.
// Approval is one-shot: a row whose status is already terminal is never
// mutated again.
type AgencyRepo struct {
	DB       *sql.DB
	Counters *CounterRepo
	Users    *UserRepo
	Audit    *AuditRepo
}

func NewAgencyRepo(db *sql.DB, counters *CounterRepo, users *UserRepo, audit *AuditRepo) *AgencyRepo {
	return &AgencyRepo{DB: db, Counters: counters, Users: users, Audit: audit}
}

const agencyColumns = `id, owner_user_id, name, email, phone, address_line, city, state, pincode,
	registration_id, agency_id, approval_status, approved_by, approval_date, comments, created_at, updated_at`

// Create inserts a pending agency application.  The provisional reference
// (2-digit year + 6-digit sequence) is generated here; the permanent
// AgencyID stays NULL until approval.
func (r *AgencyRepo) Create(ctx context.Context, a *model.Agency) error {
	seq, err := r.Counters.Next(ctx, idgen.KeyAgencyRegistration)
	if err != nil {
		return err
	}
	a.RegistrationID = idgen.AgencyRegistrationRef(time.Now().UTC(), seq)
	a.ApprovalStatus = model.ApprovalPending

	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO agencies (owner_user_id, name, email, phone, address_line, city, state, pincode,
			registration_id, approval_status)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		a.OwnerUserID, a.Name, a.Email, a.Phone, a.AddressLine, a.City, a.State, a.Pincode,
		a.RegistrationID, a.ApprovalStatus)
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
	a.ID = uint64(id)
	return nil
}

// GetByID fetches an agency row.
func (r *AgencyRepo) GetByID(ctx context.Context, id uint64) (model.Agency, error) {
	return scanAgency(r.DB.QueryRowContext(ctx,
		"SELECT "+agencyColumns+" FROM agencies WHERE id=? LIMIT 1", id))
}

// GetByAgencyID fetches an agency by its permanent business ID.
func (r *AgencyRepo) GetByAgencyID(ctx context.Context, agencyID string) (model.Agency, error) {
	return scanAgency(r.DB.QueryRowContext(ctx,
		"SELECT "+agencyColumns+" FROM agencies WHERE agency_id=? LIMIT 1", agencyID))
}

// GetByOwner fetches the agency application linked to a user account.
func (r *AgencyRepo) GetByOwner(ctx context.Context, userID uint64) (model.Agency, error) {
	return scanAgency(r.DB.QueryRowContext(ctx,
		"SELECT "+agencyColumns+" FROM agencies WHERE owner_user_id=? LIMIT 1", userID))
}

// List returns agencies filtered by approval status ("" for all), newest
// first.
func (r *AgencyRepo) List(ctx context.Context, status string, limit, offset int) ([]model.Agency, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := "SELECT " + agencyColumns + " FROM agencies"
	args := []any{}
	if status != "" {
		q += " WHERE approval_status=?"
		args = append(args, status)
	}
	q += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Agency
	for rows.Next() {
		a, err := scanAgency(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Approve runs the Pending -> Approved transition.  In one transaction it
// locks the row, checks the one-shot guard and the required address fields,
// assigns the permanent AgencyID from the per-(state,city) counter,
// promotes the owner account to AGENCY and appends the audit entry.
// Counter increments happen outside the transaction; numbers burned by a
// rollback leave gaps, never duplicates.
func (r *AgencyRepo) Approve(ctx context.Context, id uint64, actor model.Actor) (model.Agency, error) {
	if !actor.Identified() {
		return model.Agency{}, &model.MissingFieldError{Entity: "approval", Field: "approved_by"}
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Agency{}, err
	}
	defer tx.Rollback()

	a, err := scanAgency(tx.QueryRowContext(ctx,
		"SELECT "+agencyColumns+" FROM agencies WHERE id=? LIMIT 1 FOR UPDATE", id))
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Agency{}, ErrNotFound
		}
		return model.Agency{}, err
	}
	if err := model.CanDecide(a.ApprovalStatus); err != nil {
		return model.Agency{}, err
	}
	if err := a.Approvable(); err != nil {
		return model.Agency{}, err
	}

	prefix, err := idgen.AgencyPrefix(a.State, a.City)
	if err != nil {
		return model.Agency{}, err
	}

	now := time.Now().UTC()
	stamp := actor.Stamp()
	var assigned string
	for attempt := 0; attempt < idgen.MaxAttempts; attempt++ {
		seq, err := r.Counters.Next(ctx, idgen.AgencyKey(prefix))
		if err != nil {
			return model.Agency{}, err
		}
		candidate, err := idgen.AgencyID(a.State, a.City, seq)
		if err != nil {
			return model.Agency{}, err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE agencies SET agency_id=?, approval_status=?, approved_by=?, approval_date=?
			 WHERE id=? AND approval_status=?`,
			candidate, model.ApprovalApproved, stamp, now, id, model.ApprovalPending)
		if err == nil {
			assigned = candidate
			break
		}
		if !isDuplicateKey(err) {
			return model.Agency{}, err
		}
	}
	if assigned == "" {
		return model.Agency{}, ErrIDGeneration
	}

	if err := r.Users.PromoteTx(ctx, tx, a.OwnerUserID, model.RoleAgency, assigned); err != nil {
		return model.Agency{}, err
	}
	details := fmt.Sprintf("agency %q approved, assigned %s", a.Name, assigned)
	if err := r.Audit.InsertTx(ctx, tx, actor, "agency.approve", "agency", assigned, details); err != nil {
		return model.Agency{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Agency{}, err
	}

	a.AgencyID = &assigned
	a.ApprovalStatus = model.ApprovalApproved
	a.ApprovedBy = &stamp
	a.ApprovalDate = &now
	return a, nil
}

// Deny runs the Pending -> Denied transition.  No permanent ID is ever
// assigned on denial.  Comments are validated by the caller before any
// mutation.
func (r *AgencyRepo) Deny(ctx context.Context, id uint64, actor model.Actor, comments string) (model.Agency, error) {
	if !actor.Identified() {
		return model.Agency{}, &model.MissingFieldError{Entity: "approval", Field: "approved_by"}
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Agency{}, err
	}
	defer tx.Rollback()

	a, err := scanAgency(tx.QueryRowContext(ctx,
		"SELECT "+agencyColumns+" FROM agencies WHERE id=? LIMIT 1 FOR UPDATE", id))
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Agency{}, ErrNotFound
		}
		return model.Agency{}, err
	}
	if err := model.CanDecide(a.ApprovalStatus); err != nil {
		return model.Agency{}, err
	}

	now := time.Now().UTC()
	stamp := actor.Stamp()
	if _, err := tx.ExecContext(ctx,
		`UPDATE agencies SET approval_status=?, approved_by=?, approval_date=?, comments=?
		 WHERE id=? AND approval_status=?`,
		model.ApprovalDenied, stamp, now, comments, id, model.ApprovalPending); err != nil {
		return model.Agency{}, err
	}
	details := fmt.Sprintf("agency %q denied", a.Name)
	if err := r.Audit.InsertTx(ctx, tx, actor, "agency.deny", "agency", a.RegistrationID, details); err != nil {
		return model.Agency{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Agency{}, err
	}

	a.ApprovalStatus = model.ApprovalDenied
	a.ApprovedBy = &stamp
	a.ApprovalDate = &now
	a.Comments = &comments
	return a, nil
}

// Delete removes an agency, resets its owner account back to USER and
// appends the audit entry, all in one transaction: either all three writes
// commit or none do.  Customers, staff and bookings referencing the agency
// stay in place as historical records; their AgencyID strings become
// orphaned references.
func (r *AgencyRepo) Delete(ctx context.Context, id uint64, actor model.Actor) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	a, err := scanAgency(tx.QueryRowContext(ctx,
		"SELECT "+agencyColumns+" FROM agencies WHERE id=? LIMIT 1 FOR UPDATE", id))
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM agencies WHERE id=?", id); err != nil {
		return err
	}
	if err := r.Users.ResetRoleTx(ctx, tx, a.OwnerUserID); err != nil {
		return err
	}
	ref := a.RegistrationID
	if a.AgencyID != nil {
		ref = *a.AgencyID
	}
	details := fmt.Sprintf("agency %q deleted, owner account %d reset to USER", a.Name, a.OwnerUserID)
	if err := r.Audit.InsertTx(ctx, tx, actor, "agency.delete", "agency", ref, details); err != nil {
		return err
	}
	return tx.Commit()
}

func scanAgency(row rowScanner) (model.Agency, error) {
	var (
		a            model.Agency
		agencyID     sql.NullString
		approvedBy   sql.NullString
		approvalDate sql.NullTime
		comments     sql.NullString
	)
	err := row.Scan(&a.ID, &a.OwnerUserID, &a.Name, &a.Email, &a.Phone,
		&a.AddressLine, &a.City, &a.State, &a.Pincode,
		&a.RegistrationID, &agencyID, &a.ApprovalStatus,
		&approvedBy, &approvalDate, &comments, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return model.Agency{}, err
	}
	if agencyID.Valid {
		a.AgencyID = &agencyID.String
	}
	if approvedBy.Valid {
		a.ApprovedBy = &approvedBy.String
	}
	if approvalDate.Valid {
		t := approvalDate.Time
		a.ApprovalDate = &t
	}
	if comments.Valid {
		a.Comments = &comments.String
	}
	return a, nil
}

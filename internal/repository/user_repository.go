package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/lpg-distribution/internal/model"
	"github.com/iliyamo/lpg-distribution/internal/utils"
)

// UserRepo provides account persistence.  Accounts start with role USER and
// are promoted when a linked application is approved.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,email,password_hash,role,agency_id,customer_id,employee_id,is_active,created_at,updated_at"

// Create inserts an account with role USER and returns its ID.
func (r *UserRepo) Create(ctx context.Context, email, password string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role) VALUES (?,?,?)",
		email, hash, string(model.RoleUser))
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches an account by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches an account by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// List returns accounts ordered by creation time, newest first.
func (r *UserRepo) List(ctx context.Context, limit, offset int) ([]model.User, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at DESC LIMIT ? OFFSET ?",
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Promote sets the role and the matching business-ID cross-reference on an
// account.  Exactly one of the reference columns is written, chosen by the
// target role.  Used inside approval transactions.
func (r *UserRepo) PromoteTx(ctx context.Context, tx *sql.Tx, userID uint64, role model.Role, businessID string) error {
	var column string
	switch role {
	case model.RoleAgency:
		column = "agency_id"
	case model.RoleCustomer:
		column = "customer_id"
	case model.RoleDeliveryStaff:
		column = "employee_id"
	default:
		return ErrConflict
	}
	res, err := tx.ExecContext(ctx,
		"UPDATE users SET role=?, "+column+"=? WHERE id=?",
		string(role), businessID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetRoleTx demotes an account back to USER and clears its business-ID
// references.  Part of the agency-delete transaction.
func (r *UserRepo) ResetRoleTx(ctx context.Context, tx *sql.Tx, userID uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE users SET role=?, agency_id=NULL, customer_id=NULL, employee_id=NULL WHERE id=?",
		string(model.RoleUser), userID)
	return err
}

type rowScanner interface{ Scan(dest ...any) error }

func (r *UserRepo) scanOne(row *sql.Row) (model.User, error) {
	return scanUser(row)
}

func scanUser(row rowScanner) (model.User, error) {
	var (
		u          model.User
		role       string
		agencyID   sql.NullString
		customerID sql.NullString
		employeeID sql.NullString
		createdAt  time.Time
		updatedAt  time.Time
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &role,
		&agencyID, &customerID, &employeeID, &u.IsActive, &createdAt, &updatedAt)
	if err != nil {
		return model.User{}, err
	}
	u.Role = model.ParseRole(role)
	if agencyID.Valid {
		u.AgencyID = &agencyID.String
	}
	if customerID.Valid {
		u.CustomerID = &customerID.String
	}
	if employeeID.Valid {
		u.EmployeeID = &employeeID.String
	}
	u.CreatedAt = createdAt
	u.UpdatedAt = updatedAt
	return u, nil
}

package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/lpg-distribution/internal/model"
)

// CylinderRepo persists per-agency, per-category cylinder stock.  The
// filled+empty<=total invariant is enforced by model.CylinderStock before
// every save; a violating mutation never reaches the database.
type CylinderRepo struct{ DB *sql.DB }

func NewCylinderRepo(db *sql.DB) *CylinderRepo { return &CylinderRepo{DB: db} }

const stockColumns = "id, agency_id, category, total_cylinders, filled_cylinders, empty_cylinders, status, updated_at"

// Upsert creates or replaces the stock record for an agency+category.  The
// record is validated before any write.
func (r *CylinderRepo) Upsert(ctx context.Context, s *model.CylinderStock) error {
	if err := s.Validate(); err != nil {
		return err
	}
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO cylinder_stock (agency_id, category, total_cylinders, filled_cylinders, empty_cylinders, status)
		 VALUES (?,?,?,?,?,?)
		 ON DUPLICATE KEY UPDATE total_cylinders=VALUES(total_cylinders),
			filled_cylinders=VALUES(filled_cylinders), empty_cylinders=VALUES(empty_cylinders),
			status=VALUES(status)`,
		s.AgencyID, s.Category, s.Total, s.Filled, s.Empty, s.Status)
	return err
}

// Get fetches the stock record for an agency+category.
func (r *CylinderRepo) Get(ctx context.Context, agencyID, category string) (model.CylinderStock, error) {
	return scanStock(r.DB.QueryRowContext(ctx,
		"SELECT "+stockColumns+" FROM cylinder_stock WHERE agency_id=? AND category=? LIMIT 1",
		agencyID, category))
}

// ListByAgency returns all stock records for an agency.
func (r *CylinderRepo) ListByAgency(ctx context.Context, agencyID string) ([]model.CylinderStock, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+stockColumns+" FROM cylinder_stock WHERE agency_id=? ORDER BY category", agencyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.CylinderStock
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// getForUpdateTx locks and fetches a stock row inside a transaction.
func (r *CylinderRepo) getForUpdateTx(ctx context.Context, tx *sql.Tx, agencyID, category string) (model.CylinderStock, error) {
	return scanStock(tx.QueryRowContext(ctx,
		"SELECT "+stockColumns+" FROM cylinder_stock WHERE agency_id=? AND category=? LIMIT 1 FOR UPDATE",
		agencyID, category))
}

// saveTx writes back a mutated, already-validated stock row.
func (r *CylinderRepo) saveTx(ctx context.Context, tx *sql.Tx, s *model.CylinderStock) error {
	if err := s.Validate(); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx,
		`UPDATE cylinder_stock SET total_cylinders=?, filled_cylinders=?, empty_cylinders=?, status=?
		 WHERE id=?`,
		s.Total, s.Filled, s.Empty, s.Status, s.ID)
	return err
}

// BookTx locks the stock row and moves qty filled cylinders out for
// delivery, failing with model.ErrInsufficientStock when the bucket is
// short.  Runs inside the booking-creation transaction.
func (r *CylinderRepo) BookTx(ctx context.Context, tx *sql.Tx, agencyID, category string, qty uint32) (model.CylinderStock, error) {
	s, err := r.getForUpdateTx(ctx, tx, agencyID, category)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.CylinderStock{}, ErrNotFound
		}
		return model.CylinderStock{}, err
	}
	if err := s.Book(qty); err != nil {
		return model.CylinderStock{}, err
	}
	if err := r.saveTx(ctx, tx, &s); err != nil {
		return model.CylinderStock{}, err
	}
	return s, nil
}

// ReturnTx locks the stock row and refills qty collected empties.  Runs
// inside the delivery-completion transaction.
func (r *CylinderRepo) ReturnTx(ctx context.Context, tx *sql.Tx, agencyID, category string, qty uint32) (model.CylinderStock, error) {
	s, err := r.getForUpdateTx(ctx, tx, agencyID, category)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.CylinderStock{}, ErrNotFound
		}
		return model.CylinderStock{}, err
	}
	if err := s.Return(qty); err != nil {
		return model.CylinderStock{}, err
	}
	if err := r.saveTx(ctx, tx, &s); err != nil {
		return model.CylinderStock{}, err
	}
	return s, nil
}

func scanStock(row rowScanner) (model.CylinderStock, error) {
	var s model.CylinderStock
	err := row.Scan(&s.ID, &s.AgencyID, &s.Category, &s.Total, &s.Filled, &s.Empty, &s.Status, &s.UpdatedAt)
	if err != nil {
		return model.CylinderStock{}, err
	}
	return s, nil
}

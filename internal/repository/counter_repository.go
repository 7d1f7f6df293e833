package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// CounterRepo is the durable counter store backing sequential business-ID
// generation.  Each counter_key maps to an integer sequence starting at 1.
// Next is atomic: MySQL's LAST_INSERT_ID(expr) trick makes the increment
// and the fetch a single statement, so no two callers ever observe the same
// value for a key.
type CounterRepo struct{ DB *sql.DB }

func NewCounterRepo(db *sql.DB) *CounterRepo { return &CounterRepo{DB: db} }

// Next atomically increments and returns the sequence for key.
func (r *CounterRepo) Next(ctx context.Context, key string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO id_counters (counter_key, seq) VALUES (?, LAST_INSERT_ID(1))
		 ON DUPLICATE KEY UPDATE seq = LAST_INSERT_ID(seq + 1)`,
		key)
	if err != nil {
		return 0, fmt.Errorf("counter %s: %w", key, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("counter %s: %w", key, err)
	}
	return uint64(id), nil
}

// Seed raises the sequence for key to at least floor.  It is used when a
// per-agency counter key has no row yet but approved records already exist
// (their highest assigned suffix becomes the floor).  Seed never lowers an
// existing sequence.
func (r *CounterRepo) Seed(ctx context.Context, key string, floor uint64) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO id_counters (counter_key, seq) VALUES (?, ?)
		 ON DUPLICATE KEY UPDATE seq = GREATEST(seq, VALUES(seq))`,
		key, floor)
	if err != nil {
		return fmt.Errorf("counter seed %s: %w", key, err)
	}
	return nil
}

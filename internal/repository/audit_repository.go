package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/lpg-distribution/internal/model"
)

// AuditRepo appends and lists audit entries.  Rows are append-only: there
// is no update or delete path.
type AuditRepo struct{ DB *sql.DB }

func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{DB: db} }

const auditInsert = `INSERT INTO audit_log
	(actor_id, actor_email, actor_role, action, entity_type, entity_ref, details)
	VALUES (?,?,?,?,?,?,?)`

// Insert appends an audit entry.
func (r *AuditRepo) Insert(ctx context.Context, actor model.Actor, action, entityType, entityRef, details string) error {
	_, err := r.DB.ExecContext(ctx, auditInsert,
		actor.ID, actor.Email, string(actor.Role), action, entityType, entityRef, details)
	return err
}

// InsertTx appends an audit entry inside an existing transaction.  Lifecycle
// transitions use this so the audit row commits or rolls back with the
// state change it records.
func (r *AuditRepo) InsertTx(ctx context.Context, tx *sql.Tx, actor model.Actor, action, entityType, entityRef, details string) error {
	_, err := tx.ExecContext(ctx, auditInsert,
		actor.ID, actor.Email, string(actor.Role), action, entityType, entityRef, details)
	return err
}

// List returns audit entries newest first.
func (r *AuditRepo) List(ctx context.Context, limit, offset int) ([]model.AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, actor_id, actor_email, actor_role, action, entity_type, entity_ref, details, created_at
		 FROM audit_log ORDER BY id DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.AuditEntry
	for rows.Next() {
		var (
			e    model.AuditEntry
			role string
		)
		if err := rows.Scan(&e.ID, &e.ActorID, &e.ActorEmail, &role,
			&e.Action, &e.EntityType, &e.EntityRef, &e.Details, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.ActorRole = model.ParseRole(role)
		out = append(out, e)
	}
	return out, rows.Err()
}

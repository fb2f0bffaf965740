package shipping

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditRepo is append-only: entries are inserted and listed, never updated.
type AuditRepo struct{ DB *pgxpool.Pool }

func (r *AuditRepo) Insert(ctx context.Context, e AuditEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := r.DB.Exec(ctx, `
		INSERT INTO booking_audit
			(id, order_id, shipment_id, action, outcome, courier, fallback_used,
			 attempt_count, tracking_number, detail, actor)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, e.ID, e.OrderID, e.ShipmentID, e.Action, e.Outcome, e.Courier, e.FallbackUsed,
		e.AttemptCount, e.TrackingNumber, e.Detail, e.Actor)
	if err != nil {
		return errors.Wrap(err, "insert audit entry")
	}
	return nil
}

func (r *AuditRepo) ListByOrder(ctx context.Context, orderID string) ([]AuditEntry, error) {
	sql, args, err := psql.Select(
		"id", "order_id", "shipment_id", "action", "outcome", "courier",
		"fallback_used", "attempt_count", "tracking_number", "detail", "actor", "created_at",
	).From("booking_audit").Where(sq.Eq{"order_id": orderID}).OrderBy("created_at DESC").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build query")
	}
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list audit entries")
	}
	defer rows.Close()

	var out []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.OrderID, &e.ShipmentID, &e.Action, &e.Outcome,
			&e.Courier, &e.FallbackUsed, &e.AttemptCount, &e.TrackingNumber,
			&e.Detail, &e.Actor, &e.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan audit entry")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/compass-mel/compass-mel/internal/shared"
)

// DBTX is the querier surface shared by *pgxpool.Pool and pgx.Tx, so the
// workflow can append audit entries inside its own transaction. An audit
// write failure then rolls the whole transaction back: an action that cannot
// be audited is never committed.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository defines audit persistence.
type Repository interface {
	Record(ctx context.Context, entry Entry) error
	Timeline(ctx context.Context, filters TimelineFilters, limit, offset int) ([]Entry, error)
}

// Store implements Repository against PostgreSQL.
type Store struct {
	db DBTX
}

// NewStore constructs a Store over a pool or an open transaction.
func NewStore(db DBTX) *Store {
	return &Store{db: db}
}

// Record appends an entry to the audit log.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	if entry.ActorID == 0 || entry.Action == "" || entry.EntityType == "" {
		return errors.New("audit: entry requires actor, action and entity type")
	}
	_, err := s.db.Exec(ctx, `INSERT INTO audit_log (actor_id, actor_role, action, entity_type, entity_id, description, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()))`,
		entry.ActorID, string(entry.ActorRole), entry.Action, entry.EntityType, entry.EntityID, entry.Description, nullTime(entry.At))
	if err != nil {
		return fmt.Errorf("audit: record: %w", err)
	}
	return nil
}

// Timeline returns entries matching the filters, newest first.
func (s *Store) Timeline(ctx context.Context, filters TimelineFilters, limit, offset int) ([]Entry, error) {
	rows, err := s.db.Query(ctx, `SELECT id, actor_id, actor_role, action, entity_type, entity_id, description, occurred_at
FROM audit_log
WHERE ($1::timestamptz IS NULL OR occurred_at >= $1)
  AND ($2::timestamptz IS NULL OR occurred_at <= $2)
  AND ($3::bigint = 0 OR actor_id = $3)
  AND ($4::text = '' OR action = $4)
  AND ($5::text = '' OR entity_type = $5)
ORDER BY occurred_at DESC, id DESC
LIMIT $6 OFFSET $7`,
		nullTime(filters.From), nullTime(filters.To), filters.ActorID, filters.Action, filters.Entity, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		var e Entry
		var role string
		if err := rows.Scan(&e.ID, &e.ActorID, &role, &e.Action, &e.EntityType, &e.EntityID, &e.Description, &e.At); err != nil {
			return nil, err
		}
		e.ActorRole = shared.Role(role)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

var _ Repository = (*Store)(nil)

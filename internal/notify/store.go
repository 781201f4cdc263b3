package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/compass-mel/compass-mel/internal/shared"
)

// DBTX is the querier surface shared by *pgxpool.Pool and pgx.Tx. The
// role-request workflow writes notifications inside its own transaction by
// constructing a Store over the transaction handle.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository defines persistence operations for notifications.
type Repository interface {
	Insert(ctx context.Context, in CreateInput) (Notification, error)
	Get(ctx context.Context, id int64) (Notification, error)
	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context, recipientID int64) (int64, error)
	ListUnread(ctx context.Context, recipientID int64, limit int) ([]Notification, error)
	CountUnread(ctx context.Context, recipientID int64) (int, error)
}

const notificationColumns = `id, recipient_id, type, title, message, priority, request_id, is_read, read_at, created_at`

// Store implements Repository against PostgreSQL.
type Store struct {
	db DBTX
}

// NewStore constructs a Store over a pool or an open transaction.
func NewStore(db DBTX) *Store {
	return &Store{db: db}
}

// Insert persists a notification.
func (s *Store) Insert(ctx context.Context, in CreateInput) (Notification, error) {
	row := s.db.QueryRow(ctx, `INSERT INTO notifications (recipient_id, type, title, message, priority, request_id)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING `+notificationColumns,
		in.RecipientID, string(in.Type), in.Title, in.Message, string(in.Priority), in.RequestID)
	return scanNotification(row)
}

// Get fetches a notification by id.
func (s *Store) Get(ctx context.Context, id int64) (Notification, error) {
	row := s.db.QueryRow(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id)
	n, err := scanNotification(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Notification{}, fmt.Errorf("notify: notification %d: %w", id, shared.ErrNotFound)
		}
		return Notification{}, err
	}
	return n, nil
}

// MarkRead flips the read flag. Marking an already-read row is a no-op.
func (s *Store) MarkRead(ctx context.Context, id int64) error {
	_, err := s.db.Exec(ctx, `UPDATE notifications SET is_read = TRUE, read_at = NOW() WHERE id = $1 AND is_read = FALSE`, id)
	return err
}

// MarkAllRead flips every unread notification for the recipient, returning the
// number touched.
func (s *Store) MarkAllRead(ctx context.Context, recipientID int64) (int64, error) {
	tag, err := s.db.Exec(ctx, `UPDATE notifications SET is_read = TRUE, read_at = NOW() WHERE recipient_id = $1 AND is_read = FALSE`, recipientID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListUnread returns unread notifications for the recipient, newest first.
func (s *Store) ListUnread(ctx context.Context, recipientID int64, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, `SELECT `+notificationColumns+` FROM notifications
WHERE recipient_id = $1 AND is_read = FALSE
ORDER BY created_at DESC, id DESC
LIMIT $2`, recipientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

// CountUnread returns the number of unread notifications for the recipient.
func (s *Store) CountUnread(ctx context.Context, recipientID int64) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND is_read = FALSE`, recipientID).Scan(&count)
	return count, err
}

func scanNotification(row pgx.Row) (Notification, error) {
	var n Notification
	var typ, priority string
	if err := row.Scan(&n.ID, &n.RecipientID, &typ, &n.Title, &n.Message, &priority, &n.RequestID, &n.IsRead, &n.ReadAt, &n.CreatedAt); err != nil {
		return Notification{}, err
	}
	n.Type = Type(typ)
	n.Priority = Priority(priority)
	return n, nil
}

var _ Repository = (*Store)(nil)

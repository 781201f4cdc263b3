package rolerequest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/compass-mel/compass-mel/internal/audit"
	"github.com/compass-mel/compass-mel/internal/identity"
	"github.com/compass-mel/compass-mel/internal/notify"
	"github.com/compass-mel/compass-mel/internal/platform/db"
	"github.com/compass-mel/compass-mel/internal/shared"
)

// PendingUniqueConstraint is the partial unique index backing the
// one-pending-request-per-tuple invariant. It is the concurrency backstop for
// two createRequest calls racing on the same tuple.
const PendingUniqueConstraint = "uq_role_requests_pending"

const requestColumns = `id, requester_id, partner_id, center_id, requested_role, status, requested_at, resolved_by, resolved_at, COALESCE(rejection_comment, '')`

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// WithTx executes fn inside a repeatable-read transaction.
func (r *PGRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &pgTxRepository{tx: tx})
	})
}

// Get fetches a request by id.
func (r *PGRepository) Get(ctx context.Context, id uuid.UUID) (RoleRequest, error) {
	return getRequest(ctx, r.pool, id)
}

// ListByRequester returns the requester's own requests, newest first.
func (r *PGRepository) ListByRequester(ctx context.Context, requesterID int64) ([]RoleRequest, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+requestColumns+` FROM role_requests WHERE requester_id = $1 ORDER BY requested_at DESC`, requesterID)
	if err != nil {
		return nil, err
	}
	return collectRequests(rows)
}

// ListPendingForApprover returns pending requests addressed to the approver
// through their APPROVAL_REQUEST notification.
func (r *PGRepository) ListPendingForApprover(ctx context.Context, approverID int64) ([]RoleRequest, error) {
	rows, err := r.pool.Query(ctx, `SELECT r.id, r.requester_id, r.partner_id, r.center_id, r.requested_role, r.status, r.requested_at, r.resolved_by, r.resolved_at, COALESCE(r.rejection_comment, '')
FROM role_requests r
JOIN notifications n ON n.request_id = r.id AND n.type = 'APPROVAL_REQUEST'
WHERE r.status = 'PENDING' AND n.recipient_id = $1
ORDER BY r.requested_at ASC`, approverID)
	if err != nil {
		return nil, err
	}
	return collectRequests(rows)
}

// ListStalePending returns pending requests older than the cutoff together
// with their addressed approver, for the reminder job.
func (r *PGRepository) ListStalePending(ctx context.Context, olderThan time.Time) ([]StalePending, error) {
	rows, err := r.pool.Query(ctx, `SELECT r.id, r.requester_id, r.partner_id, r.center_id, r.requested_role, r.status, r.requested_at, r.resolved_by, r.resolved_at, COALESCE(r.rejection_comment, ''), u.id, u.email
FROM role_requests r
JOIN notifications n ON n.request_id = r.id AND n.type = 'APPROVAL_REQUEST'
JOIN users u ON u.id = n.recipient_id
WHERE r.status = 'PENDING' AND r.requested_at < $1
ORDER BY r.requested_at ASC`, olderThan)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var stale []StalePending
	for rows.Next() {
		var s StalePending
		var role, status string
		if err := rows.Scan(&s.Request.ID, &s.Request.RequesterID, &s.Request.PartnerID, &s.Request.CenterID, &role, &status, &s.Request.RequestedAt, &s.Request.ResolvedBy, &s.Request.ResolvedAt, &s.Request.RejectionComment, &s.ApproverID, &s.ApproverEmail); err != nil {
			return nil, err
		}
		s.Request.RequestedRole = shared.Role(role)
		s.Request.Status = Status(status)
		stale = append(stale, s)
	}
	return stale, rows.Err()
}

var _ Repository = (*PGRepository)(nil)

// pgTxRepository scopes workflow writes to one open transaction. Notification
// and audit writes go through their owning packages' stores bound to the same
// transaction handle, so a failed audit write rolls back the transition.
type pgTxRepository struct {
	tx pgx.Tx
}

func (r *pgTxRepository) GetRequest(ctx context.Context, id uuid.UUID) (RoleRequest, error) {
	return getRequest(ctx, r.tx, id)
}

func (r *pgTxRepository) HasPendingDuplicate(ctx context.Context, requesterID int64, in CreateInput) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (
SELECT 1 FROM role_requests
WHERE requester_id = $1 AND requested_role = $2 AND partner_id = $3 AND center_id IS NOT DISTINCT FROM $4 AND status = 'PENDING')`,
		requesterID, string(in.RequestedRole), in.PartnerID, in.CenterID).Scan(&exists)
	return exists, err
}

func (r *pgTxRepository) InsertRequest(ctx context.Context, req RoleRequest) (RoleRequest, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO role_requests (id, requester_id, partner_id, center_id, requested_role, status)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING `+requestColumns,
		req.ID, req.RequesterID, req.PartnerID, req.CenterID, string(req.RequestedRole), string(req.Status))
	created, err := scanRequest(row)
	if err != nil {
		if db.IsUniqueViolation(err, PendingUniqueConstraint) {
			return RoleRequest{}, fmt.Errorf("rolerequest: pending request for this scope exists: %w", shared.ErrAlreadyExists)
		}
		return RoleRequest{}, err
	}
	return created, nil
}

func (r *pgTxRepository) ResolveIfPending(ctx context.Context, id uuid.UUID, status Status, resolverID int64, comment string) (bool, error) {
	tag, err := r.tx.Exec(ctx, `UPDATE role_requests
SET status = $2, resolved_by = $3, resolved_at = NOW(), rejection_comment = NULLIF($4, '')
WHERE id = $1 AND status = 'PENDING'`,
		id, string(status), resolverID, comment)
	if err != nil {
		return false, resolveConflict(err)
	}
	return tag.RowsAffected() == 1, nil
}

// resolveConflict maps a write conflict on the conditional update to the same
// outcome a zero-row update reports. The transaction reads the request before
// updating it, so at RepeatableRead a concurrent resolver committing in
// between aborts this update with a serialization failure instead of
// reporting zero rows affected.
func resolveConflict(err error) error {
	if db.IsSerializationFailure(err) {
		return fmt.Errorf("rolerequest: request resolved concurrently: %w", shared.ErrInvalidState)
	}
	return err
}

func (r *pgTxRepository) GetUser(ctx context.Context, id int64) (identity.User, error) {
	row := r.tx.QueryRow(ctx, `SELECT id, email, full_name, password_hash, role, partner_id, center_id, is_active, is_verified, created_at, updated_at FROM users WHERE id = $1`, id)
	var u identity.User
	var role string
	if err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &role, &u.PartnerID, &u.CenterID, &u.IsActive, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return identity.User{}, fmt.Errorf("rolerequest: user %d: %w", id, shared.ErrNotFound)
		}
		return identity.User{}, err
	}
	u.Role = shared.Role(role)
	return u, nil
}

func (r *pgTxRepository) AssignUserRole(ctx context.Context, userID int64, role shared.Role, partnerID int64, centerID *int64) error {
	tag, err := r.tx.Exec(ctx, `UPDATE users SET role = $2, partner_id = $3, center_id = $4, updated_at = NOW() WHERE id = $1`,
		userID, string(role), partnerID, centerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("rolerequest: user %d: %w", userID, shared.ErrNotFound)
	}
	return nil
}

func (r *pgTxRepository) FindApprover(ctx context.Context, partnerID int64, roles []shared.Role) (identity.User, error) {
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}
	row := r.tx.QueryRow(ctx, `SELECT id, email, full_name, password_hash, role, partner_id, center_id, is_active, is_verified, created_at, updated_at
FROM users
WHERE is_active = TRUE AND role = ANY($2) AND (role = 'ADMIN' OR partner_id = $1)
ORDER BY array_position($2, role), id
LIMIT 1`, partnerID, names)
	var u identity.User
	var role string
	if err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &role, &u.PartnerID, &u.CenterID, &u.IsActive, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return identity.User{}, ErrNoApprover
		}
		return identity.User{}, err
	}
	u.Role = shared.Role(role)
	return u, nil
}

func (r *pgTxRepository) ApprovalNotification(ctx context.Context, requestID uuid.UUID) (notify.Notification, error) {
	row := r.tx.QueryRow(ctx, `SELECT id, recipient_id, type, title, message, priority, request_id, is_read, read_at, created_at
FROM notifications
WHERE request_id = $1 AND type = 'APPROVAL_REQUEST'
ORDER BY id ASC
LIMIT 1`, requestID)
	var n notify.Notification
	var typ, priority string
	if err := row.Scan(&n.ID, &n.RecipientID, &typ, &n.Title, &n.Message, &priority, &n.RequestID, &n.IsRead, &n.ReadAt, &n.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return notify.Notification{}, fmt.Errorf("rolerequest: approval notification for %s: %w", requestID, shared.ErrNotFound)
		}
		return notify.Notification{}, err
	}
	n.Type = notify.Type(typ)
	n.Priority = notify.Priority(priority)
	return n, nil
}

func (r *pgTxRepository) InsertNotification(ctx context.Context, in notify.CreateInput) (notify.Notification, error) {
	return notify.NewStore(r.tx).Insert(ctx, in)
}

func (r *pgTxRepository) MarkNotificationRead(ctx context.Context, id int64) error {
	return notify.NewStore(r.tx).MarkRead(ctx, id)
}

func (r *pgTxRepository) RecordAudit(ctx context.Context, entry audit.Entry) error {
	return audit.NewStore(r.tx).Record(ctx, entry)
}

var _ TxRepository = (*pgTxRepository)(nil)

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getRequest(ctx context.Context, q querier, id uuid.UUID) (RoleRequest, error) {
	row := q.QueryRow(ctx, `SELECT `+requestColumns+` FROM role_requests WHERE id = $1`, id)
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RoleRequest{}, fmt.Errorf("rolerequest: request %s: %w", id, shared.ErrNotFound)
		}
		return RoleRequest{}, err
	}
	return req, nil
}

func scanRequest(row pgx.Row) (RoleRequest, error) {
	var req RoleRequest
	var role, status string
	if err := row.Scan(&req.ID, &req.RequesterID, &req.PartnerID, &req.CenterID, &role, &status, &req.RequestedAt, &req.ResolvedBy, &req.ResolvedAt, &req.RejectionComment); err != nil {
		return RoleRequest{}, err
	}
	req.RequestedRole = shared.Role(role)
	req.Status = Status(status)
	return req, nil
}

func collectRequests(rows pgx.Rows) ([]RoleRequest, error) {
	defer rows.Close()
	var list []RoleRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, req)
	}
	return list, rows.Err()
}

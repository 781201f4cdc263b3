package rolerequest

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/compass-mel/compass-mel/internal/audit"
	"github.com/compass-mel/compass-mel/internal/identity"
	"github.com/compass-mel/compass-mel/internal/notify"
	"github.com/compass-mel/compass-mel/internal/shared"
)

// Repository is the workflow's persistence boundary.
type Repository interface {
	// WithTx runs fn inside one atomic unit of work. Everything the workflow
	// writes for a single transition goes through the TxRepository handed to
	// fn; if fn returns an error nothing is committed.
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error

	Get(ctx context.Context, id uuid.UUID) (RoleRequest, error)
	ListByRequester(ctx context.Context, requesterID int64) ([]RoleRequest, error)
	ListPendingForApprover(ctx context.Context, approverID int64) ([]RoleRequest, error)
	ListStalePending(ctx context.Context, olderThan time.Time) ([]StalePending, error)
}

// TxRepository exposes the operations available inside a workflow transaction.
type TxRepository interface {
	GetRequest(ctx context.Context, id uuid.UUID) (RoleRequest, error)
	HasPendingDuplicate(ctx context.Context, requesterID int64, in CreateInput) (bool, error)
	InsertRequest(ctx context.Context, req RoleRequest) (RoleRequest, error)

	// ResolveIfPending performs the terminal transition as one conditional
	// update guarded by the PENDING status. It reports false when the request
	// was already resolved, which is how the loser of a resolution race
	// observes the conflict.
	ResolveIfPending(ctx context.Context, id uuid.UUID, status Status, resolverID int64, comment string) (bool, error)

	GetUser(ctx context.Context, id int64) (identity.User, error)
	AssignUserRole(ctx context.Context, userID int64, role shared.Role, partnerID int64, centerID *int64) error

	// FindApprover picks the addressed approver for a partner scope,
	// deterministically: candidate roles in priority order, then lowest user
	// id. Only active accounts qualify.
	FindApprover(ctx context.Context, partnerID int64, roles []shared.Role) (identity.User, error)

	ApprovalNotification(ctx context.Context, requestID uuid.UUID) (notify.Notification, error)
	InsertNotification(ctx context.Context, in notify.CreateInput) (notify.Notification, error)
	MarkNotificationRead(ctx context.Context, id int64) error

	RecordAudit(ctx context.Context, entry audit.Entry) error
}

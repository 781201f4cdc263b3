// Package rolerequest implements the role-request approval workflow: an
// unassigned user asks for a role scoped to a partner (and optionally a
// center), a single addressed approver accepts or rejects the request, and
// the decision is recorded exactly once with its notification and audit
// trail in the same transaction.
package rolerequest

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/compass-mel/compass-mel/internal/shared"
)

// Status enumerates the request lifecycle. PENDING is the only non-terminal
// state; APPROVED and REJECTED have no outgoing transitions.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Terminal reports whether the status permits no further transition.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// RoleRequest is a single request for an effective role.
type RoleRequest struct {
	ID               uuid.UUID
	RequesterID      int64
	PartnerID        int64
	CenterID         *int64
	RequestedRole    shared.Role
	Status           Status
	RequestedAt      time.Time
	ResolvedBy       *int64
	ResolvedAt       *time.Time
	RejectionComment string
}

// CreateInput captures a new role request.
type CreateInput struct {
	PartnerID     int64
	CenterID      *int64
	RequestedRole shared.Role
}

// StalePending pairs an old pending request with its addressed approver, for
// the reminder job.
type StalePending struct {
	Request       RoleRequest
	ApproverID    int64
	ApproverEmail string
}

// ErrNoApprover signals a configuration gap: the partner has nobody entitled
// to resolve the request. Creation fails instead of leaving a pending request
// with no addressed approver.
var ErrNoApprover = errors.New("rolerequest: no eligible approver configured for scope")

package rolerequest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/compass-mel/compass-mel/internal/audit"
	"github.com/compass-mel/compass-mel/internal/notify"
	"github.com/compass-mel/compass-mel/internal/partners"
	"github.com/compass-mel/compass-mel/internal/shared"
	"github.com/compass-mel/compass-mel/internal/tenancy"
)

// PartnerDirectory is the slice of the partners service the workflow needs:
// scope validation on creation and partner codes for notification copy.
type PartnerDirectory interface {
	Get(ctx context.Context, id int64) (partners.Partner, error)
	ValidateScope(ctx context.Context, partnerID int64, centerID *int64) error
}

// Service runs the role-request approval workflow.
type Service struct {
	repo     Repository
	partners PartnerDirectory
	guard    tenancy.Guard
	logger   *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, directory PartnerDirectory, logger *slog.Logger) *Service {
	return &Service{repo: repo, partners: directory, guard: tenancy.NewGuard(), logger: logger}
}

// Create files a new role request for the acting user. Only active users who
// hold no role yet may file one, the requested scope must exist and be
// active, and at most one pending request per (role, partner, center) tuple
// is accepted. The request, the approver's notification and the audit entry
// commit together.
func (s *Service) Create(ctx context.Context, actor shared.Actor, in CreateInput) (RoleRequest, error) {
	if !actor.IsActive {
		return RoleRequest{}, fmt.Errorf("rolerequest: account inactive: %w", shared.ErrAccountInactive)
	}
	if actor.Role != shared.RoleUnassigned {
		return RoleRequest{}, fmt.Errorf("rolerequest: user already holds role %s: %w", actor.Role, shared.ErrPermissionDenied)
	}
	if !in.RequestedRole.Requestable() {
		return RoleRequest{}, fmt.Errorf("rolerequest: role %s cannot be requested: %w", in.RequestedRole, shared.ErrInvalidInput)
	}
	approverRoles, err := tenancy.ApproverRoles(in.RequestedRole)
	if err != nil {
		return RoleRequest{}, err
	}
	if err := s.partners.ValidateScope(ctx, in.PartnerID, in.CenterID); err != nil {
		return RoleRequest{}, err
	}
	partner, err := s.partners.Get(ctx, in.PartnerID)
	if err != nil {
		return RoleRequest{}, err
	}

	var created RoleRequest
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		dup, err := tx.HasPendingDuplicate(ctx, actor.UserID, in)
		if err != nil {
			return err
		}
		if dup {
			return fmt.Errorf("rolerequest: pending request for this scope exists: %w", shared.ErrAlreadyExists)
		}
		requester, err := tx.GetUser(ctx, actor.UserID)
		if err != nil {
			return err
		}
		// The actor snapshot predates the transaction; a request approved
		// in the meantime must not let the user file another one.
		if requester.Role != shared.RoleUnassigned {
			return fmt.Errorf("rolerequest: user already holds role %s: %w", requester.Role, shared.ErrPermissionDenied)
		}
		approver, err := tx.FindApprover(ctx, in.PartnerID, approverRoles)
		if err != nil {
			return err
		}
		created, err = tx.InsertRequest(ctx, RoleRequest{
			ID:            uuid.New(),
			RequesterID:   actor.UserID,
			PartnerID:     in.PartnerID,
			CenterID:      in.CenterID,
			RequestedRole: in.RequestedRole,
			Status:        StatusPending,
		})
		if err != nil {
			return err
		}
		if _, err := tx.InsertNotification(ctx, notify.CreateInput{
			RecipientID: approver.ID,
			Type:        notify.TypeApprovalRequest,
			Title:       approvalRequestTitle(in.RequestedRole),
			Message:     approvalRequestMessage(requester.FullName, in.RequestedRole, partner.Code),
			Priority:    notify.PriorityHigh,
			RequestID:   &created.ID,
		}); err != nil {
			return err
		}
		return tx.RecordAudit(ctx, audit.Entry{
			ActorID:     actor.UserID,
			ActorRole:   actor.Role,
			Action:      audit.ActionRequestRole,
			EntityType:  "role_request",
			EntityID:    created.ID.String(),
			Description: fmt.Sprintf("requested %s role for partner %s", in.RequestedRole, partner.Code),
		})
	})
	if err != nil {
		return RoleRequest{}, err
	}
	s.logger.InfoContext(ctx, "role request created",
		slog.String("request_id", created.ID.String()),
		slog.Int64("requester_id", created.RequesterID),
		slog.String("role", string(created.RequestedRole)))
	return created, nil
}

// Approve resolves a pending request in the requester's favour. Only the
// approver the request was addressed to may approve, the transition happens
// at most once, and the requester's role assignment commits with it.
func (s *Service) Approve(ctx context.Context, actor shared.Actor, id uuid.UUID) (RoleRequest, error) {
	return s.resolve(ctx, actor, id, StatusApproved, "")
}

// Reject resolves a pending request against the requester. A non-blank
// comment explaining the decision is mandatory; the requester keeps the
// UNASSIGNED role.
func (s *Service) Reject(ctx context.Context, actor shared.Actor, id uuid.UUID, comment string) (RoleRequest, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return RoleRequest{}, fmt.Errorf("rolerequest: rejection comment required: %w", shared.ErrInvalidInput)
	}
	return s.resolve(ctx, actor, id, StatusRejected, comment)
}

func (s *Service) resolve(ctx context.Context, actor shared.Actor, id uuid.UUID, status Status, comment string) (RoleRequest, error) {
	var resolved RoleRequest
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		req, err := tx.GetRequest(ctx, id)
		if err != nil {
			return err
		}
		if req.Status.Terminal() {
			return fmt.Errorf("rolerequest: request already %s: %w", req.Status, shared.ErrInvalidState)
		}
		if err := tenancy.CanResolve(actor, req.PartnerID); err != nil {
			return err
		}
		approval, err := tx.ApprovalNotification(ctx, req.ID)
		if err != nil {
			return err
		}
		if approval.RecipientID != actor.UserID {
			return fmt.Errorf("rolerequest: request is not addressed to user %d: %w", actor.UserID, shared.ErrPermissionDenied)
		}

		// Conditional update on the PENDING status. Under a concurrent
		// resolution exactly one of the two transactions flips the row.
		ok, err := tx.ResolveIfPending(ctx, req.ID, status, actor.UserID, comment)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("rolerequest: request already resolved: %w", shared.ErrInvalidState)
		}

		partner, err := s.partners.Get(ctx, req.PartnerID)
		if err != nil {
			return err
		}
		if status == StatusApproved {
			if err := tx.AssignUserRole(ctx, req.RequesterID, req.RequestedRole, req.PartnerID, req.CenterID); err != nil {
				return err
			}
		}
		if err := tx.MarkNotificationRead(ctx, approval.ID); err != nil {
			return err
		}

		title, message := approvedTitle(req.RequestedRole), approvedMessage(req.RequestedRole, partner.Code)
		action := audit.ActionApproveRoleRequest
		if status == StatusRejected {
			title, message = rejectedTitle(req.RequestedRole), rejectedMessage(req.RequestedRole, comment)
			action = audit.ActionRejectRoleRequest
		}
		if _, err := tx.InsertNotification(ctx, notify.CreateInput{
			RecipientID: req.RequesterID,
			Type:        notify.TypeInfo,
			Title:       title,
			Message:     message,
			Priority:    notify.PriorityNormal,
			RequestID:   &req.ID,
		}); err != nil {
			return err
		}
		if err := tx.RecordAudit(ctx, audit.Entry{
			ActorID:     actor.UserID,
			ActorRole:   actor.Role,
			Action:      action,
			EntityType:  "role_request",
			EntityID:    req.ID.String(),
			Description: fmt.Sprintf("%s %s role request of user %d", strings.ToLower(string(status)), req.RequestedRole, req.RequesterID),
		}); err != nil {
			return err
		}

		resolved, err = tx.GetRequest(ctx, req.ID)
		return err
	})
	if err != nil {
		return RoleRequest{}, err
	}
	s.logger.InfoContext(ctx, "role request resolved",
		slog.String("request_id", resolved.ID.String()),
		slog.String("status", string(resolved.Status)),
		slog.Int64("resolver_id", actor.UserID))
	return resolved, nil
}

// Get fetches one request. The requester always sees their own request;
// anyone else must pass the tenant scope guard for the request's partner and
// center.
func (s *Service) Get(ctx context.Context, actor shared.Actor, id uuid.UUID) (RoleRequest, error) {
	req, err := s.repo.Get(ctx, id)
	if err != nil {
		return RoleRequest{}, err
	}
	if req.RequesterID == actor.UserID {
		return req, nil
	}
	if err := s.guard.Authorize(actor, nil, req.PartnerID, req.CenterID); err != nil {
		return RoleRequest{}, err
	}
	return req, nil
}

// ListMine returns the acting user's own requests, newest first.
func (s *Service) ListMine(ctx context.Context, actor shared.Actor) ([]RoleRequest, error) {
	return s.repo.ListByRequester(ctx, actor.UserID)
}

// ListInbox returns the pending requests addressed to the acting user,
// oldest first. Users with nothing to approve get an empty list.
func (s *Service) ListInbox(ctx context.Context, actor shared.Actor) ([]RoleRequest, error) {
	return s.repo.ListPendingForApprover(ctx, actor.UserID)
}

// StalePending lists pending requests filed before the cutoff, with their
// addressed approvers. The reminder job nudges those approvers.
func (s *Service) StalePending(ctx context.Context, olderThan time.Time) ([]StalePending, error) {
	return s.repo.ListStalePending(ctx, olderThan)
}

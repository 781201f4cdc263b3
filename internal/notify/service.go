package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/compass-mel/compass-mel/internal/identity"
	"github.com/compass-mel/compass-mel/internal/shared"
)

// RecipientDirectory looks up accounts so dispatch can refuse inactive or
// unknown recipients.
type RecipientDirectory interface {
	FindByID(ctx context.Context, id int64) (identity.User, error)
}

// Service wraps notification dispatch and read-state rules.
type Service struct {
	repo       Repository
	recipients RecipientDirectory
}

// NewService constructs a Service.
func NewService(repo Repository, recipients RecipientDirectory) *Service {
	return &Service{repo: repo, recipients: recipients}
}

// Notify creates a notification for an existing, active recipient.
func (s *Service) Notify(ctx context.Context, in CreateInput) (Notification, error) {
	if !in.Type.Valid() {
		return Notification{}, fmt.Errorf("notify: unknown type %q: %w", in.Type, shared.ErrInvalidInput)
	}
	if strings.TrimSpace(in.Title) == "" {
		return Notification{}, fmt.Errorf("notify: title required: %w", shared.ErrInvalidInput)
	}
	if in.Priority == "" {
		in.Priority = PriorityNormal
	}
	recipient, err := s.recipients.FindByID(ctx, in.RecipientID)
	if err != nil {
		return Notification{}, err
	}
	if !recipient.IsActive {
		return Notification{}, fmt.Errorf("notify: recipient %d inactive: %w", in.RecipientID, shared.ErrInvalidInput)
	}
	return s.repo.Insert(ctx, in)
}

// MarkRead flips the read flag on one of the actor's own notifications.
// Idempotent: re-marking a read notification succeeds without effect.
func (s *Service) MarkRead(ctx context.Context, actor shared.Actor, id int64) error {
	n, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if n.RecipientID != actor.UserID {
		return fmt.Errorf("notify: notification %d is not addressed to user %d: %w", id, actor.UserID, shared.ErrPermissionDenied)
	}
	if n.IsRead {
		return nil
	}
	return s.repo.MarkRead(ctx, id)
}

// MarkAllRead flips every unread notification addressed to the actor.
func (s *Service) MarkAllRead(ctx context.Context, actor shared.Actor) (int64, error) {
	return s.repo.MarkAllRead(ctx, actor.UserID)
}

// ListUnread returns the actor's unread notifications.
func (s *Service) ListUnread(ctx context.Context, actor shared.Actor, limit int) ([]Notification, error) {
	return s.repo.ListUnread(ctx, actor.UserID, limit)
}

// CountUnread returns the actor's unread notification count.
func (s *Service) CountUnread(ctx context.Context, actor shared.Actor) (int, error) {
	return s.repo.CountUnread(ctx, actor.UserID)
}

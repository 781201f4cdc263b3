package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/compass-mel/compass-mel/internal/notify"
	"github.com/compass-mel/compass-mel/internal/rolerequest"
)

// StaleLister yields pending role requests older than the cutoff.
type StaleLister interface {
	StalePending(ctx context.Context, olderThan time.Time) ([]rolerequest.StalePending, error)
}

// NotificationSink dispatches in-app notifications.
type NotificationSink interface {
	Notify(ctx context.Context, in notify.CreateInput) (notify.Notification, error)
}

// EmailEnqueuer submits email tasks to the queue.
type EmailEnqueuer interface {
	EnqueueSendEmail(ctx context.Context, payload SendEmailPayload) (*asynq.TaskInfo, error)
}

// PendingReminderJob nudges approvers sitting on old pending role requests.
// Each run sends one in-app reminder and one email per stale request.
type PendingReminderJob struct {
	Requests      StaleLister
	Notifications NotificationSink
	Mailer        EmailEnqueuer
	Logger        *slog.Logger
	After         time.Duration
	clock         func() time.Time
}

// NewPendingReminderJob initialises the reminder handler.
func NewPendingReminderJob(requests StaleLister, notifications NotificationSink, mailer EmailEnqueuer, logger *slog.Logger, after time.Duration) *PendingReminderJob {
	if after <= 0 {
		after = 48 * time.Hour
	}
	return &PendingReminderJob{
		Requests:      requests,
		Notifications: notifications,
		Mailer:        mailer,
		Logger:        logger,
		After:         after,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes one reminder sweep.
func (j *PendingReminderJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Requests == nil || j.Notifications == nil {
		return errors.New("pending reminder: handler not configured")
	}
	cutoff := j.clock().Add(-j.After)
	stale, err := j.Requests.StalePending(ctx, cutoff)
	if err != nil {
		j.Logger.Error("reminder sweep failed", slog.Any("error", err))
		return err
	}
	if len(stale) == 0 {
		return nil
	}

	var reminded, failed int
	for _, s := range stale {
		in := rolerequest.ReminderNotification(s)
		if _, err := j.Notifications.Notify(ctx, in); err != nil {
			failed++
			j.Logger.Error("reminder notification failed",
				slog.String("request_id", s.Request.ID.String()),
				slog.Any("error", err))
			continue
		}
		if j.Mailer != nil && s.ApproverEmail != "" {
			if _, err := j.Mailer.EnqueueSendEmail(ctx, SendEmailPayload{
				To:      s.ApproverEmail,
				Subject: in.Title,
				Body:    in.Message,
			}); err != nil {
				j.Logger.Warn("reminder email enqueue failed",
					slog.String("request_id", s.Request.ID.String()),
					slog.Any("error", err))
			}
		}
		reminded++
	}

	j.Logger.Info("reminder sweep finished",
		slog.Int("stale", len(stale)),
		slog.Int("reminded", reminded),
		slog.Int("failed", failed))
	if failed > 0 {
		return fmt.Errorf("pending reminder: %d of %d reminders failed", failed, len(stale))
	}
	return nil
}

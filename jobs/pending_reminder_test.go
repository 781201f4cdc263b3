package jobs

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/compass-mel/compass-mel/internal/notify"
	"github.com/compass-mel/compass-mel/internal/rolerequest"
	"github.com/compass-mel/compass-mel/internal/shared"
)

type staticStaleLister struct {
	cutoff time.Time
	stale  []rolerequest.StalePending
}

func (l *staticStaleLister) StalePending(ctx context.Context, olderThan time.Time) ([]rolerequest.StalePending, error) {
	l.cutoff = olderThan
	return l.stale, nil
}

type recordingSink struct {
	sent []notify.CreateInput
}

func (s *recordingSink) Notify(ctx context.Context, in notify.CreateInput) (notify.Notification, error) {
	s.sent = append(s.sent, in)
	return notify.Notification{ID: int64(len(s.sent)), RecipientID: in.RecipientID}, nil
}

type recordingMailer struct {
	sent []SendEmailPayload
}

func (m *recordingMailer) EnqueueSendEmail(ctx context.Context, payload SendEmailPayload) (*asynq.TaskInfo, error) {
	m.sent = append(m.sent, payload)
	return &asynq.TaskInfo{}, nil
}

func TestPendingReminderSweep(t *testing.T) {
	lister := &staticStaleLister{
		stale: []rolerequest.StalePending{
			{
				Request: rolerequest.RoleRequest{
					ID:            uuid.New(),
					RequesterID:   7,
					PartnerID:     1,
					RequestedRole: shared.RoleFacilitator,
					Status:        "PENDING",
					RequestedAt:   time.Now().Add(-96 * time.Hour),
				},
				ApproverID:    2,
				ApproverEmail: "officer@example.org",
			},
		},
	}
	sink := &recordingSink{}
	mailer := &recordingMailer{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	job := NewPendingReminderJob(lister, sink, mailer, logger, 48*time.Hour)
	err := job.Handle(context.Background(), NewPendingReminderTask())
	require.NoError(t, err)

	require.WithinDuration(t, time.Now().UTC().Add(-48*time.Hour), lister.cutoff, 5*time.Second)
	require.Len(t, sink.sent, 1)
	require.Equal(t, int64(2), sink.sent[0].RecipientID)
	require.Equal(t, notify.TypeReminder, sink.sent[0].Type)
	require.Len(t, mailer.sent, 1)
	require.Equal(t, "officer@example.org", mailer.sent[0].To)
	require.Equal(t, sink.sent[0].Title, mailer.sent[0].Subject)
}

func TestPendingReminderNoStaleRequests(t *testing.T) {
	lister := &staticStaleLister{}
	sink := &recordingSink{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	job := NewPendingReminderJob(lister, sink, nil, logger, 0)
	err := job.Handle(context.Background(), NewPendingReminderTask())
	require.NoError(t, err)
	require.Empty(t, sink.sent)
	require.Equal(t, 48*time.Hour, job.After, "zero cutoff falls back to the default")
}

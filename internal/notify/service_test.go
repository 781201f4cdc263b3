package notify

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/compass-mel/compass-mel/internal/identity"
	"github.com/compass-mel/compass-mel/internal/shared"
)

type memoryNotifyRepo struct {
	rows   map[int64]Notification
	nextID int64
}

func newMemoryNotifyRepo() *memoryNotifyRepo {
	return &memoryNotifyRepo{rows: make(map[int64]Notification)}
}

func (r *memoryNotifyRepo) Insert(ctx context.Context, in CreateInput) (Notification, error) {
	r.nextID++
	n := Notification{
		ID:          r.nextID,
		RecipientID: in.RecipientID,
		Type:        in.Type,
		Title:       in.Title,
		Message:     in.Message,
		Priority:    in.Priority,
		RequestID:   in.RequestID,
		CreatedAt:   time.Now(),
	}
	r.rows[n.ID] = n
	return n, nil
}

func (r *memoryNotifyRepo) Get(ctx context.Context, id int64) (Notification, error) {
	n, ok := r.rows[id]
	if !ok {
		return Notification{}, fmt.Errorf("notify: notification %d: %w", id, shared.ErrNotFound)
	}
	return n, nil
}

func (r *memoryNotifyRepo) MarkRead(ctx context.Context, id int64) error {
	n, ok := r.rows[id]
	if !ok {
		return fmt.Errorf("notify: notification %d: %w", id, shared.ErrNotFound)
	}
	if !n.IsRead {
		now := time.Now()
		n.IsRead = true
		n.ReadAt = &now
		r.rows[id] = n
	}
	return nil
}

func (r *memoryNotifyRepo) MarkAllRead(ctx context.Context, recipientID int64) (int64, error) {
	var touched int64
	now := time.Now()
	for id, n := range r.rows {
		if n.RecipientID == recipientID && !n.IsRead {
			n.IsRead = true
			n.ReadAt = &now
			r.rows[id] = n
			touched++
		}
	}
	return touched, nil
}

func (r *memoryNotifyRepo) ListUnread(ctx context.Context, recipientID int64, limit int) ([]Notification, error) {
	var list []Notification
	for _, n := range r.rows {
		if n.RecipientID == recipientID && !n.IsRead {
			list = append(list, n)
		}
	}
	return list, nil
}

func (r *memoryNotifyRepo) CountUnread(ctx context.Context, recipientID int64) (int, error) {
	list, _ := r.ListUnread(ctx, recipientID, 0)
	return len(list), nil
}

type staticDirectory map[int64]identity.User

func (d staticDirectory) FindByID(ctx context.Context, id int64) (identity.User, error) {
	user, ok := d[id]
	if !ok {
		return identity.User{}, fmt.Errorf("identity: user %d: %w", id, shared.ErrNotFound)
	}
	return user, nil
}

func testActor(id int64) shared.Actor {
	return shared.Actor{UserID: id, Role: shared.RoleMEOfficer, IsActive: true}
}

func TestNotifyValidatesRecipient(t *testing.T) {
	repo := newMemoryNotifyRepo()
	dir := staticDirectory{
		1: {ID: 1, IsActive: true},
		2: {ID: 2, IsActive: false},
	}
	service := NewService(repo, dir)
	ctx := context.Background()

	n, err := service.Notify(ctx, CreateInput{RecipientID: 1, Type: TypeInfo, Title: "Request resolved", Message: "ok"})
	require.NoError(t, err)
	require.Equal(t, PriorityNormal, n.Priority)

	_, err = service.Notify(ctx, CreateInput{RecipientID: 2, Type: TypeInfo, Title: "x"})
	require.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = service.Notify(ctx, CreateInput{RecipientID: 99, Type: TypeInfo, Title: "x"})
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = service.Notify(ctx, CreateInput{RecipientID: 1, Type: Type("BOGUS"), Title: "x"})
	require.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestMarkReadIsIdempotent(t *testing.T) {
	repo := newMemoryNotifyRepo()
	dir := staticDirectory{1: {ID: 1, IsActive: true}}
	service := NewService(repo, dir)
	ctx := context.Background()

	n, err := service.Notify(ctx, CreateInput{RecipientID: 1, Type: TypeApprovalRequest, Title: "Role request"})
	require.NoError(t, err)

	require.NoError(t, service.MarkRead(ctx, testActor(1), n.ID))
	require.NoError(t, service.MarkRead(ctx, testActor(1), n.ID))

	count, err := service.CountUnread(ctx, testActor(1))
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestMarkReadGuardsRecipient(t *testing.T) {
	repo := newMemoryNotifyRepo()
	dir := staticDirectory{1: {ID: 1, IsActive: true}}
	service := NewService(repo, dir)
	ctx := context.Background()

	n, err := service.Notify(ctx, CreateInput{RecipientID: 1, Type: TypeAlert, Title: "hello"})
	require.NoError(t, err)

	err = service.MarkRead(ctx, testActor(2), n.ID)
	require.ErrorIs(t, err, shared.ErrPermissionDenied)
}

func TestMarkAllRead(t *testing.T) {
	repo := newMemoryNotifyRepo()
	dir := staticDirectory{1: {ID: 1, IsActive: true}, 2: {ID: 2, IsActive: true}}
	service := NewService(repo, dir)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := service.Notify(ctx, CreateInput{RecipientID: 1, Type: TypeReminder, Title: "pending"})
		require.NoError(t, err)
	}
	_, err := service.Notify(ctx, CreateInput{RecipientID: 2, Type: TypeReminder, Title: "pending"})
	require.NoError(t, err)

	updated, err := service.MarkAllRead(ctx, testActor(1))
	require.NoError(t, err)
	require.EqualValues(t, 3, updated)

	count, err := service.CountUnread(ctx, testActor(2))
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

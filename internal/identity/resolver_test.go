package identity

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/compass-mel/compass-mel/internal/shared"
)

type memoryUserRepo struct {
	byID    map[int64]User
	byEmail map[string]User
	nextID  int64
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{byID: make(map[int64]User), byEmail: make(map[string]User)}
}

func (r *memoryUserRepo) Create(ctx context.Context, user User) (User, error) {
	if _, ok := r.byEmail[user.Email]; ok {
		return User{}, fmt.Errorf("identity: email %s taken: %w", user.Email, shared.ErrAlreadyExists)
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.byID[user.ID] = user
	r.byEmail[user.Email] = user
	return user, nil
}

func (r *memoryUserRepo) FindByID(ctx context.Context, id int64) (User, error) {
	user, ok := r.byID[id]
	if !ok {
		return User{}, fmt.Errorf("identity: user %d: %w", id, shared.ErrNotFound)
	}
	return user, nil
}

func (r *memoryUserRepo) FindByEmail(ctx context.Context, email string) (User, error) {
	user, ok := r.byEmail[email]
	if !ok {
		return User{}, fmt.Errorf("identity: email: %w", shared.ErrNotFound)
	}
	return user, nil
}

func (r *memoryUserRepo) put(user User) {
	r.byID[user.ID] = user
	r.byEmail[user.Email] = user
}

func TestResolveReturnsFreshActorState(t *testing.T) {
	repo := newMemoryUserRepo()
	issuer := NewTokenIssuer("secret", "compass", time.Hour)
	denylist := newTestDenylist(t)
	resolver := NewResolver(issuer, denylist, repo)
	ctx := context.Background()

	repo.put(User{ID: 7, Email: "amina@example.org", Role: shared.RoleUnassigned, IsActive: true})
	token, _, err := issuer.Issue(7, shared.RoleUnassigned)
	require.NoError(t, err)

	actor, err := resolver.Resolve(ctx, token)
	require.NoError(t, err)
	require.Equal(t, shared.RoleUnassigned, actor.Role)

	// A role granted after issuance is visible without a new token.
	partner := int64(3)
	repo.put(User{ID: 7, Email: "amina@example.org", Role: shared.RoleFacilitator, PartnerID: &partner, IsActive: true})

	actor, err = resolver.Resolve(ctx, token)
	require.NoError(t, err)
	require.Equal(t, shared.RoleFacilitator, actor.Role)
	require.NotNil(t, actor.PartnerID)
	require.Equal(t, partner, *actor.PartnerID)
}

func TestResolveRejectsRevokedToken(t *testing.T) {
	repo := newMemoryUserRepo()
	issuer := NewTokenIssuer("secret", "compass", time.Hour)
	denylist := newTestDenylist(t)
	resolver := NewResolver(issuer, denylist, repo)
	ctx := context.Background()

	repo.put(User{ID: 1, Email: "u@example.org", Role: shared.RoleAdmin, IsActive: true})
	token, claims, err := issuer.Issue(1, shared.RoleAdmin)
	require.NoError(t, err)
	require.NoError(t, denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time))

	_, err = resolver.Resolve(ctx, token)
	require.ErrorIs(t, err, shared.ErrUnauthenticated)
}

func TestResolveRejectsInactiveAccount(t *testing.T) {
	repo := newMemoryUserRepo()
	issuer := NewTokenIssuer("secret", "compass", time.Hour)
	resolver := NewResolver(issuer, newTestDenylist(t), repo)

	repo.put(User{ID: 2, Email: "gone@example.org", Role: shared.RoleDonor, IsActive: false})
	token, _, err := issuer.Issue(2, shared.RoleDonor)
	require.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), token)
	require.ErrorIs(t, err, shared.ErrAccountInactive)
}

func TestResolveRejectsUnknownSubject(t *testing.T) {
	issuer := NewTokenIssuer("secret", "compass", time.Hour)
	resolver := NewResolver(issuer, newTestDenylist(t), newMemoryUserRepo())

	token, _, err := issuer.Issue(99, shared.RoleDonor)
	require.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), token)
	require.ErrorIs(t, err, shared.ErrUnauthenticated)
}

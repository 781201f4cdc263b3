package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/compass-mel/compass-mel/internal/shared"
)

func newTestService(t *testing.T) (*Service, *memoryUserRepo) {
	t.Helper()
	repo := newMemoryUserRepo()
	issuer := NewTokenIssuer("secret", "compass", time.Hour)
	return NewService(repo, issuer, newTestDenylist(t)), repo
}

func TestRegisterStartsUnassigned(t *testing.T) {
	service, _ := newTestService(t)

	user, err := service.Register(context.Background(), RegisterInput{
		Email:    "Fatou@Example.org",
		FullName: "Fatou Diallo",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	require.Equal(t, shared.RoleUnassigned, user.Role)
	require.Equal(t, "fatou@example.org", user.Email)
	require.True(t, user.IsActive)
	require.Nil(t, user.PartnerID)
	require.NotEqual(t, "correct-horse", user.PasswordHash)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.Register(context.Background(), RegisterInput{
		Email:    "x@example.org",
		FullName: "X",
		Password: "short",
	})
	require.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	in := RegisterInput{Email: "dup@example.org", FullName: "Dup", Password: "long-enough"}
	_, err := service.Register(ctx, in)
	require.NoError(t, err)
	_, err = service.Register(ctx, in)
	require.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestLoginAndLogout(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	_, err := service.Register(ctx, RegisterInput{Email: "l@example.org", FullName: "L", Password: "long-enough"})
	require.NoError(t, err)

	result, err := service.Login(ctx, "l@example.org", "long-enough")
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	require.True(t, result.ExpiresAt.After(time.Now()))

	require.NoError(t, service.Logout(ctx, result.Token))
}

func TestLoginWrongPassword(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	_, err := service.Register(ctx, RegisterInput{Email: "w@example.org", FullName: "W", Password: "long-enough"})
	require.NoError(t, err)

	_, err = service.Login(ctx, "w@example.org", "not-it")
	require.ErrorIs(t, err, shared.ErrUnauthenticated)
}

func TestLoginInactiveAccount(t *testing.T) {
	service, repo := newTestService(t)
	ctx := context.Background()

	user, err := service.Register(ctx, RegisterInput{Email: "i@example.org", FullName: "I", Password: "long-enough"})
	require.NoError(t, err)
	user.IsActive = false
	repo.put(user)

	_, err = service.Login(ctx, "i@example.org", "long-enough")
	require.ErrorIs(t, err, shared.ErrAccountInactive)
}

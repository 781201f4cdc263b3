package rolerequest

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/compass-mel/compass-mel/internal/shared"
)

func TestResolveConflictMapsWriteConflict(t *testing.T) {
	conflict := fmt.Errorf("exec: %w", &pgconn.PgError{Code: "40001"})

	err := resolveConflict(conflict)
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestResolveConflictPassesOtherErrorsThrough(t *testing.T) {
	plain := errors.New("connection reset")

	require.Equal(t, plain, resolveConflict(plain))
	require.NotErrorIs(t, resolveConflict(&pgconn.PgError{Code: "23505"}), shared.ErrInvalidState)
}

package audit

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/compass-mel/compass-mel/internal/shared"
)

func TestWriteCSV(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	entries := []Entry{
		{ID: 1, ActorID: 7, ActorRole: shared.RoleMEOfficer, Action: ActionApproveRoleRequest, EntityType: "role_request", EntityID: "abc", Description: "approved facilitator grant", At: at},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, entries))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "Action", records[0][3])
	require.Equal(t, []string{"2026-03-14T09:30:00Z", "7", "ME_OFFICER", "APPROVE_ROLE_REQUEST", "role_request", "abc", "approved facilitator grant"}, records[1])
}

package rolerequest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/compass-mel/compass-mel/internal/shared"
)

type countingDecisions struct {
	outcomes []string
}

func (c *countingDecisions) CountDecision(outcome string) {
	c.outcomes = append(c.outcomes, outcome)
}

func newTestRouter(t *testing.T) (chi.Router, *memoryWorkflowRepo, *countingDecisions) {
	t.Helper()
	svc, repo := newWorkflowFixture(t)
	decisions := &countingDecisions{}
	handler := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc, decisions)
	r := chi.NewRouter()
	handler.MountRoutes(r)
	return r, repo, decisions
}

func doRequest(t *testing.T, router chi.Router, repo *memoryWorkflowRepo, actorID int64, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	ctx := shared.ContextWithActor(context.Background(), actorFor(t, repo, actorID))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req.WithContext(ctx))
	return rr
}

func TestHandlerCreateReturnsCreated(t *testing.T) {
	router, repo, decisions := newTestRouter(t)

	rr := doRequest(t, router, repo, requesterID, http.MethodPost, "/requests",
		`{"requestedRole":"FACILITATOR","partnerId":1,"centerId":10}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var view struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	require.Equal(t, "PENDING", view.Status)
	require.NotEmpty(t, view.ID)
	require.Equal(t, []string{"created"}, decisions.outcomes)
}

func TestHandlerCreateRejectsUnknownRole(t *testing.T) {
	router, repo, _ := newTestRouter(t)

	rr := doRequest(t, router, repo, requesterID, http.MethodPost, "/requests",
		`{"requestedRole":"ADMIN","partnerId":1}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlerApproveFlow(t *testing.T) {
	router, repo, decisions := newTestRouter(t)

	create := doRequest(t, router, repo, requesterID, http.MethodPost, "/requests",
		`{"requestedRole":"FACILITATOR","partnerId":1,"centerId":10}`)
	require.Equal(t, http.StatusCreated, create.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(create.Body.Bytes(), &created))

	approve := doRequest(t, router, repo, officerID, http.MethodPost, "/requests/"+created.ID+"/approve", "")
	require.Equal(t, http.StatusOK, approve.Code, approve.Body.String())
	var resolved struct {
		Status     string `json:"status"`
		ResolvedBy *int64 `json:"resolvedBy"`
	}
	require.NoError(t, json.Unmarshal(approve.Body.Bytes(), &resolved))
	require.Equal(t, "APPROVED", resolved.Status)
	require.NotNil(t, resolved.ResolvedBy)
	require.Equal(t, officerID, *resolved.ResolvedBy)
	require.Equal(t, []string{"created", "approved"}, decisions.outcomes)

	again := doRequest(t, router, repo, officerID, http.MethodPost, "/requests/"+created.ID+"/approve", "")
	require.Equal(t, http.StatusConflict, again.Code)
}

func TestHandlerRejectRequiresComment(t *testing.T) {
	router, repo, _ := newTestRouter(t)

	create := doRequest(t, router, repo, requesterID, http.MethodPost, "/requests",
		`{"requestedRole":"FACILITATOR","partnerId":1,"centerId":10}`)
	require.Equal(t, http.StatusCreated, create.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(create.Body.Bytes(), &created))

	missing := doRequest(t, router, repo, officerID, http.MethodPost, "/requests/"+created.ID+"/reject", `{}`)
	require.Equal(t, http.StatusBadRequest, missing.Code)

	rejected := doRequest(t, router, repo, officerID, http.MethodPost, "/requests/"+created.ID+"/reject",
		`{"comment":"wrong center"}`)
	require.Equal(t, http.StatusOK, rejected.Code, rejected.Body.String())
}

func TestHandlerForeignApproverGetsGenericForbidden(t *testing.T) {
	router, repo, _ := newTestRouter(t)

	create := doRequest(t, router, repo, requesterID, http.MethodPost, "/requests",
		`{"requestedRole":"FACILITATOR","partnerId":1,"centerId":10}`)
	require.Equal(t, http.StatusCreated, create.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(create.Body.Bytes(), &created))

	rr := doRequest(t, router, repo, otherOfficerID, http.MethodPost, "/requests/"+created.ID+"/approve", "")
	require.Equal(t, http.StatusForbidden, rr.Code)
	require.Contains(t, rr.Body.String(), "you do not have access to this resource")
	require.NotContains(t, rr.Body.String(), "partner", "denial must not reveal the owning partner")
}

func TestHandlerListViews(t *testing.T) {
	router, repo, _ := newTestRouter(t)

	create := doRequest(t, router, repo, requesterID, http.MethodPost, "/requests",
		`{"requestedRole":"FACILITATOR","partnerId":1,"centerId":10}`)
	require.Equal(t, http.StatusCreated, create.Code)

	mine := doRequest(t, router, repo, requesterID, http.MethodGet, "/requests", "")
	require.Equal(t, http.StatusOK, mine.Code)
	var mineBody struct {
		Requests []json.RawMessage `json:"requests"`
	}
	require.NoError(t, json.Unmarshal(mine.Body.Bytes(), &mineBody))
	require.Len(t, mineBody.Requests, 1)

	inbox := doRequest(t, router, repo, officerID, http.MethodGet, "/requests?view=inbox", "")
	require.Equal(t, http.StatusOK, inbox.Code)
	var inboxBody struct {
		Requests []json.RawMessage `json:"requests"`
	}
	require.NoError(t, json.Unmarshal(inbox.Body.Bytes(), &inboxBody))
	require.Len(t, inboxBody.Requests, 1)
}

package audithttp

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/compass-mel/compass-mel/internal/audit"
	"github.com/compass-mel/compass-mel/internal/platform/httpx"
	"github.com/compass-mel/compass-mel/internal/shared"
)

// TimelineService defines the business contract for timeline data.
type TimelineService interface {
	Timeline(ctx context.Context, filters audit.TimelineFilters) (audit.Result, error)
	Export(ctx context.Context, filters audit.TimelineFilters) ([]audit.Entry, error)
}

// Handler serves the admin audit timeline.
type Handler struct {
	logger  *slog.Logger
	service TimelineService
	now     func() time.Time
}

// NewHandler constructs an audit HTTP handler.
func NewHandler(logger *slog.Logger, service TimelineService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, now: time.Now}
}

// MountRoutes registers audit routes. The compliance trail is admin-only.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/audit", func(r chi.Router) {
		r.Get("/", h.timeline)
		r.Get("/export.csv", h.exportCSV)
	})
}

type entryView struct {
	ID          int64     `json:"id"`
	ActorID     int64     `json:"actorId"`
	ActorRole   string    `json:"actorRole"`
	Action      string    `json:"action"`
	EntityType  string    `json:"entityType"`
	EntityID    string    `json:"entityId"`
	Description string    `json:"description"`
	At          time.Time `json:"at"`
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok || actor.Role != shared.RoleAdmin {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "you do not have access to this resource")
		return
	}
	filters, err := parseFilters(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	value, err, _ := singleflightTimeline(r.Context(), timelineKey(filters), func(ctx context.Context) (interface{}, error) {
		return h.service.Timeline(ctx, filters)
	})
	if err != nil {
		h.logger.Error("audit timeline", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	result := value.(audit.Result)

	views := make([]entryView, 0, len(result.Rows))
	for _, e := range result.Rows {
		views = append(views, entryView{
			ID:          e.ID,
			ActorID:     e.ActorID,
			ActorRole:   string(e.ActorRole),
			Action:      e.Action,
			EntityType:  e.EntityType,
			EntityID:    e.EntityID,
			Description: e.Description,
			At:          e.At,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"entries": views,
		"paging": map[string]any{
			"page":     result.Paging.Page,
			"pageSize": result.Paging.PageSize,
			"hasNext":  result.Paging.HasNext,
		},
	})
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok || actor.Role != shared.RoleAdmin {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "you do not have access to this resource")
		return
	}
	filters, err := parseFilters(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	entries, err := h.service.Export(r.Context(), filters)
	if err != nil {
		h.logger.Error("audit export", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := audit.WriteCSV(&buf, entries); err != nil {
		h.logger.Error("audit export csv", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	filename := "audit-" + h.now().UTC().Format("20060102-150405") + ".csv"
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = w.Write(buf.Bytes())
}

func parseFilters(r *http.Request) (audit.TimelineFilters, error) {
	q := r.URL.Query()
	filters := audit.TimelineFilters{
		Action: strings.TrimSpace(q.Get("action")),
		Entity: strings.TrimSpace(q.Get("entity")),
	}
	if raw := q.Get("actor"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return audit.TimelineFilters{}, fmt.Errorf("actor must be numeric")
		}
		filters.ActorID = id
	}
	if raw := q.Get("from"); raw != "" {
		t, err := parseTime(raw)
		if err != nil {
			return audit.TimelineFilters{}, err
		}
		filters.From = t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := parseTime(raw)
		if err != nil {
			return audit.TimelineFilters{}, err
		}
		filters.To = t
	}
	if raw := q.Get("page"); raw != "" {
		filters.Page, _ = strconv.Atoi(raw)
	}
	if raw := q.Get("page_size"); raw != "" {
		filters.PageSize, _ = strconv.Atoi(raw)
	}
	return filters, nil
}

func parseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("time %q must be RFC3339 or YYYY-MM-DD", raw)
}

func timelineKey(f audit.TimelineFilters) string {
	return strings.Join([]string{
		f.From.Format(time.RFC3339),
		f.To.Format(time.RFC3339),
		strconv.FormatInt(f.ActorID, 10),
		f.Action,
		f.Entity,
		strconv.Itoa(f.Page),
		strconv.Itoa(f.PageSize),
	}, "|")
}

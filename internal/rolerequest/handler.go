package rolerequest

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/compass-mel/compass-mel/internal/platform/httpx"
	"github.com/compass-mel/compass-mel/internal/shared"
)

// DecisionCounter records workflow outcomes for observability.
type DecisionCounter interface {
	CountDecision(outcome string)
}

// Handler exposes the role-request endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	decisions DecisionCounter
	validate  *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, decisions DecisionCounter) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		decisions: decisions,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

// MountRoutes registers role-request routes. All of them require an actor.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/requests", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Post("/{id}/approve", h.approve)
		r.Post("/{id}/reject", h.reject)
	})
}

type createRequest struct {
	RequestedRole string `json:"requestedRole" validate:"required,oneof=FACILITATOR ME_OFFICER DONOR"`
	PartnerID     int64  `json:"partnerId" validate:"required,gt=0"`
	CenterID      *int64 `json:"centerId" validate:"omitempty,gt=0"`
}

type rejectRequest struct {
	Comment string `json:"comment" validate:"required"`
}

type requestView struct {
	ID               uuid.UUID  `json:"id"`
	RequesterID      int64      `json:"requesterId"`
	PartnerID        int64      `json:"partnerId"`
	CenterID         *int64     `json:"centerId,omitempty"`
	RequestedRole    string     `json:"requestedRole"`
	Status           string     `json:"status"`
	RequestedAt      time.Time  `json:"requestedAt"`
	ResolvedBy       *int64     `json:"resolvedBy,omitempty"`
	ResolvedAt       *time.Time `json:"resolvedAt,omitempty"`
	RejectionComment string     `json:"rejectionComment,omitempty"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.Create(r.Context(), actor, CreateInput{
		PartnerID:     req.PartnerID,
		CenterID:      req.CenterID,
		RequestedRole: shared.Role(req.RequestedRole),
	})
	if err != nil {
		h.logger.Error("create role request", slog.Int64("requester_id", actor.UserID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if h.decisions != nil {
		h.decisions.CountDecision("created")
	}
	httpx.JSON(w, http.StatusCreated, toRequestView(created))
}

// list serves both request views: ?view=inbox shows the pending requests
// addressed to the actor, anything else shows the actor's own requests.
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	var (
		list []RoleRequest
		err  error
	)
	if r.URL.Query().Get("view") == "inbox" {
		list, err = h.service.ListInbox(r.Context(), actor)
	} else {
		list, err = h.service.ListMine(r.Context(), actor)
	}
	if err != nil {
		h.logger.Error("list role requests", slog.Int64("actor_id", actor.UserID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	views := make([]requestView, 0, len(list))
	for _, req := range list {
		views = append(views, toRequestView(req))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"requests": views})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "request id must be a UUID")
		return
	}
	req, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toRequestView(req))
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	h.resolveEndpoint(w, r, StatusApproved)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	h.resolveEndpoint(w, r, StatusRejected)
}

func (h *Handler) resolveEndpoint(w http.ResponseWriter, r *http.Request, status Status) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "request id must be a UUID")
		return
	}

	var resolved RoleRequest
	switch status {
	case StatusApproved:
		resolved, err = h.service.Approve(r.Context(), actor, id)
	case StatusRejected:
		var req rejectRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON payload")
			return
		}
		if err := h.validate.Struct(req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "a rejection comment is required")
			return
		}
		resolved, err = h.service.Reject(r.Context(), actor, id, req.Comment)
	}
	if err != nil {
		h.logger.Error("resolve role request",
			slog.String("request_id", id.String()),
			slog.Int64("resolver_id", actor.UserID),
			slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if h.decisions != nil {
		h.decisions.CountDecision(strings.ToLower(string(resolved.Status)))
	}
	httpx.JSON(w, http.StatusOK, toRequestView(resolved))
}

func toRequestView(req RoleRequest) requestView {
	return requestView{
		ID:               req.ID,
		RequesterID:      req.RequesterID,
		PartnerID:        req.PartnerID,
		CenterID:         req.CenterID,
		RequestedRole:    string(req.RequestedRole),
		Status:           string(req.Status),
		RequestedAt:      req.RequestedAt,
		ResolvedBy:       req.ResolvedBy,
		ResolvedAt:       req.ResolvedAt,
		RejectionComment: req.RejectionComment,
	}
}

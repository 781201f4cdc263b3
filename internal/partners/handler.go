package partners

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/compass-mel/compass-mel/internal/platform/httpx"
	"github.com/compass-mel/compass-mel/internal/shared"
)

// Handler exposes partner reference-data endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers partner routes. Reads are open to any authenticated
// actor (registrants browse partners when requesting a role); writes are
// admin only.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/partners", func(r chi.Router) {
		r.Get("/", h.list)
		r.Get("/{id}/centers", h.listCenters)
		r.Post("/", h.create)
		r.Post("/{id}/centers", h.createCenter)
	})
}

type createPartnerRequest struct {
	Code    string `json:"code" validate:"required,max=20"`
	Name    string `json:"name" validate:"required,max=160"`
	Country string `json:"country" validate:"max=80"`
}

type createCenterRequest struct {
	Name string `json:"name" validate:"required,max=160"`
	City string `json:"city" validate:"max=80"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list partners", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"partners": list})
}

func (h *Handler) listCenters(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "partner id must be numeric")
		return
	}
	centers, err := h.service.ListCenters(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"centers": centers})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	var req createPartnerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	partner, err := h.service.Create(r.Context(), Partner{Code: req.Code, Name: req.Name, Country: req.Country})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, partner)
}

func (h *Handler) createCenter(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	partnerID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "partner id must be numeric")
		return
	}
	var req createCenterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	center, err := h.service.CreateCenter(r.Context(), Center{PartnerID: partnerID, Name: req.Name, City: req.City})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, center)
}

func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok || actor.Role != shared.RoleAdmin {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "you do not have access to this resource")
		return false
	}
	return true
}

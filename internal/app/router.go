package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	audithttp "github.com/compass-mel/compass-mel/internal/audit/http"
	"github.com/compass-mel/compass-mel/internal/identity"
	"github.com/compass-mel/compass-mel/internal/notify"
	"github.com/compass-mel/compass-mel/internal/observability"
	"github.com/compass-mel/compass-mel/internal/partners"
	"github.com/compass-mel/compass-mel/internal/rolerequest"
	"github.com/compass-mel/compass-mel/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	ActorMiddleware    identity.Middleware
	IdentityHandler    *identity.Handler
	PartnersHandler    *partners.Handler
	RoleRequestHandler *rolerequest.Handler
	NotifyHandler      *notify.Handler
	AuditHandler       *audithttp.Handler
	JobsHandler        *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with the Compass defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	params.IdentityHandler.MountRoutes(r)

	r.Group(func(r chi.Router) {
		r.Use(params.ActorMiddleware.RequireActor)
		params.IdentityHandler.MountAuthenticatedRoutes(r)
		params.PartnersHandler.MountRoutes(r)
		params.RoleRequestHandler.MountRoutes(r)
		params.NotifyHandler.MountRoutes(r)
		params.AuditHandler.MountRoutes(r)
		if params.JobsHandler != nil {
			r.Route("/jobs", params.JobsHandler.MountRoutes)
		}
	})

	return r
}

package identity

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/compass-mel/compass-mel/internal/platform/httpx"
	"github.com/compass-mel/compass-mel/internal/shared"
)

// Middleware resolves the actor once per inbound call and passes it to
// handlers through the request context as a plain value object.
type Middleware struct {
	Resolver *Resolver
	Logger   *slog.Logger
}

// RequireActor rejects unauthenticated requests and stashes the resolved actor.
func (m Middleware) RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bearer := bearerToken(r)
		if bearer == "" {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
			return
		}
		actor, err := m.Resolver.Resolve(r.Context(), bearer)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Debug("resolve actor", slog.Any("error", err))
			}
			httpx.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithActor(r.Context(), actor)))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

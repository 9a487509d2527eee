package rbac

import (
	"log/slog"
	"net/http"

	"github.com/vetstock-erp/vetstock/internal/platform/httpx"
	"github.com/vetstock-erp/vetstock/internal/shared"
)

// Middleware wires role checks for HTTP handlers. It assumes the auth
// middleware already placed the actor in the request context.
type Middleware struct {
	Logger *slog.Logger
}

// Require ensures the current actor holds at least the given role.
func (m Middleware) Require(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := shared.ActorFromContext(r.Context())
			if actor == nil {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			if !Allows(actor.Role, role) {
				if m.Logger != nil {
					m.Logger.Warn("role denied",
						slog.Int64("user_id", actor.UserID),
						slog.String("held", actor.Role),
						slog.String("required", role),
					)
				}
				httpx.RespondError(w, httpx.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

package auth

import (
	"net/http"
	"strings"

	"github.com/vetstock-erp/vetstock/internal/platform/httpx"
	"github.com/vetstock-erp/vetstock/internal/shared"
)

// Middleware authenticates requests via the access_token cookie or a Bearer
// Authorization header and attaches the actor to the request context.
func Middleware(service *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := tokenFromRequest(r)
			if raw == "" {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			actor, err := service.Resolve(r.Context(), raw)
			if err != nil {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			ctx := shared.ContextWithActor(r.Context(), actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vetstock-erp/vetstock/internal/platform/httpx"
	"github.com/vetstock-erp/vetstock/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	secure    bool
}

// NewHandler constructs a Handler instance. secure controls the Secure flag on
// the token cookie and should be true in production.
func NewHandler(logger *slog.Logger, service *Service, secure bool) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
		secure:    secure,
	}
}

// MountRoutes registers unauthenticated auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
}

// MountProtectedRoutes registers routes that require an authenticated actor.
func (h *Handler) MountProtectedRoutes(r chi.Router) {
	r.Post("/logout", h.handleLogout)
	r.Get("/me", h.handleMe)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds Credentials
	if err := httpx.DecodeJSON(r, &creds); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON payload")
		return
	}
	if err := h.validator.Struct(creds); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	result, err := h.service.Login(r.Context(), creds)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrInvalidCredentials):
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid email or password")
		case errors.Is(err, shared.ErrAccountDisabled):
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "account is disabled")
		default:
			h.logger.Error("login", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    result.Token,
		Path:     "/",
		Expires:  result.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	if actor != nil {
		if err := h.service.Logout(r.Context(), actor.SessionID); err != nil {
			h.logger.Warn("revoke session", slog.Any("error", err))
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	if actor == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"user_id":    actor.UserID,
		"email":      actor.Email,
		"first_name": actor.FirstName,
		"role":       actor.Role,
	})
}

package audit

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vetstock-erp/vetstock/internal/platform/httpx"
	"github.com/vetstock-erp/vetstock/internal/shared"
)

// ListerPort reads audit entries.
type ListerPort interface {
	List(ctx context.Context, req ListRequest) ([]Entry, int, error)
}

// Handler serves the audit log listing.
type Handler struct {
	logger *slog.Logger
	repo   ListerPort
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, repo ListerPort) *Handler {
	return &Handler{logger: logger, repo: repo}
}

// MountRoutes registers audit routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/logs", h.list)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	req := listRequestFromQuery(r)
	items, total, err := h.repo.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list audit logs", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"data":       items,
		"pagination": shared.NewPagination(req.Page, req.PerPage, total),
	})
}

func listRequestFromQuery(r *http.Request) ListRequest {
	q := r.URL.Query()
	req := ListRequest{Page: 1, PerPage: 50}
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		req.Page = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		req.PerPage = v
	}
	if v := q.Get("actor_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.ActorID = &id
		}
	}
	if v := q.Get("entity"); v != "" {
		req.Entity = &v
	}
	if v := q.Get("action"); v != "" {
		req.Action = &v
	}
	if v := q.Get("date_from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			req.DateFrom = &t
		}
	}
	if v := q.Get("date_to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			t = t.Add(24*time.Hour - time.Second)
			req.DateTo = &t
		}
	}
	return req
}

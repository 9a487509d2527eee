package inventory

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vetstock-erp/vetstock/internal/platform/httpx"
	"github.com/vetstock-erp/vetstock/internal/shared"
)

// Handler serves inventory endpoints.
type Handler struct {
	logger       *slog.Logger
	service      *Service
	expiryWindow time.Duration
}

// NewHandler builds a Handler instance. expiryWindow is the default horizon
// for the expiring-lots listing.
func NewHandler(logger *slog.Logger, service *Service, expiryWindow time.Duration) *Handler {
	return &Handler{logger: logger, service: service, expiryWindow: expiryWindow}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/lots", h.listLots)
	r.Get("/lots/expiring", h.expiringLots)
}

func (h *Handler) listLots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := ListLotsRequest{Page: 1, PerPage: 20}
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		req.Page = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		req.PerPage = v
	}
	if v := q.Get("product_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.ProductID = &id
		}
	}
	if v := q.Get("delivery_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.DeliveryID = &id
		}
	}
	if v := q.Get("expiring_before"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			req.ExpiringBefore = &t
		}
	}

	lots, total, err := h.service.ListLots(r.Context(), req)
	if err != nil {
		h.logger.Error("list lots", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"data":       lots,
		"pagination": shared.NewPagination(req.Page, req.PerPage, total),
	})
}

func (h *Handler) expiringLots(w http.ResponseWriter, r *http.Request) {
	window := h.expiryWindow
	if v := r.URL.Query().Get("days"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			window = time.Duration(days) * 24 * time.Hour
		}
	}
	lots, err := h.service.ExpiringLots(r.Context(), window)
	if err != nil {
		h.logger.Error("expiring lots", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": lots})
}

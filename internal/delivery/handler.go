package delivery

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vetstock-erp/vetstock/internal/platform/httpx"
	"github.com/vetstock-erp/vetstock/internal/shared"
)

// Handler serves delivery endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers delivery routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Get("/{id}/lines", h.lines)
	r.Post("/{id}/dispatch", h.dispatch)
	r.Patch("/{id}/lines/{lineID}", h.reviewLine)
	r.Post("/{id}/deliver", h.deliver)
	r.Post("/{id}/deliver-with-issues", h.deliverWithIssues)
	r.Post("/{id}/post-inventory", h.repostInventory)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	req := listRequestFromQuery(r)
	items, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list deliveries", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"data":       items,
		"pagination": shared.NewPagination(req.Page, req.PerPage, total),
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	d, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) lines(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	lines, err := h.service.GetLines(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": lines})
}

func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	d, err := h.service.Dispatch(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) reviewLine(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	lineID, _ := strconv.ParseInt(chi.URLParam(r, "lineID"), 10, 64)
	var req ReviewLineRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON payload")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	d, err := h.service.ReviewLine(r.Context(), id, lineID, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) deliver(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	d, err := h.service.MarkDelivered(r.Context(), id)
	h.respondCompletion(w, d, err)
}

func (h *Handler) deliverWithIssues(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	d, err := h.service.MarkDeliveredWithIssues(r.Context(), id)
	h.respondCompletion(w, d, err)
}

// respondCompletion maps the pending-inventory case to 202: the status
// change committed but lot posting will be retried in the background.
func (h *Handler) respondCompletion(w http.ResponseWriter, d Delivery, err error) {
	if err != nil {
		if errors.Is(err, ErrInventoryPostFailed) {
			httpx.JSON(w, http.StatusAccepted, map[string]any{
				"delivery": d,
				"warning":  err.Error(),
			})
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) repostInventory(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	d, err := h.service.RepostInventory(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrInventoryPostFailed) {
			httpx.Problem(w, http.StatusBadGateway, "Inventory Post Failed", err.Error())
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func listRequestFromQuery(r *http.Request) ListDeliveriesRequest {
	q := r.URL.Query()
	req := ListDeliveriesRequest{Page: 1, PerPage: 20}
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		req.Page = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		req.PerPage = v
	}
	if v := q.Get("direction"); v != "" {
		dir := Direction(v)
		req.Direction = &dir
	}
	if v := q.Get("status"); v != "" {
		status := Status(v)
		req.Status = &status
	}
	if v := q.Get("order_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.OrderID = &id
		}
	}
	if v := q.Get("date_from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			req.DateFrom = &t
		}
	}
	if v := q.Get("date_to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			req.DateTo = &t
		}
	}
	return req
}

package dispatch

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fleetline-erp/fleetline-erp/internal/observability"
	"github.com/fleetline-erp/fleetline-erp/internal/platform/httpx"
	"github.com/fleetline-erp/fleetline-erp/internal/rbac"
	"github.com/fleetline-erp/fleetline-erp/internal/shared"
)

// Handler wires HTTP endpoints for deliveries.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     rbac.Middleware
	metrics   *observability.Metrics
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard rbac.Middleware, metrics *observability.Metrics) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		guard:     guard,
		metrics:   metrics,
		validator: validator.New(),
	}
}

// MountRoutes registers dispatch routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/deliveries", func(r chi.Router) {
		r.With(h.guard.RequireAny(rbac.PermDeliveryView)).Get("/", h.handleList)
		r.With(h.guard.RequireAny(rbac.PermDeliveryCreate)).Post("/", h.handleCreate)
		r.With(h.guard.RequireAny(rbac.PermDeliveryView)).Get("/{deliveryID}", h.handleGet)
		r.With(h.guard.RequireAny(rbac.PermDeliveryEdit)).Put("/{deliveryID}", h.handleUpdate)
		r.With(h.guard.RequireAny(rbac.PermDeliveryStatus)).Patch("/{deliveryID}/status", h.handleUpdateStatus)
		r.With(h.guard.RequireAny(rbac.PermDeliveryDelete)).Delete("/{deliveryID}", h.handleDelete)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ident := shared.IdentityFromContext(r.Context())

	var in CreateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(in); err != nil {
		httpx.RespondError(w, err)
		return
	}

	delivery, err := h.service.Create(r.Context(), ident, in)
	if err != nil {
		h.logger.Warn("create delivery failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, delivery)
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ident := shared.IdentityFromContext(r.Context())
	id, err := deliveryID(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}

	var in UpdateStatusInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(in); err != nil {
		httpx.RespondError(w, err)
		return
	}

	delivery, err := h.service.UpdateStatus(r.Context(), ident, id, in)
	if err != nil {
		h.logger.Warn("delivery status transition failed", "delivery_id", id, "error", err)
		httpx.RespondError(w, err)
		return
	}
	h.metrics.DeliveryTransition(string(delivery.Status))
	httpx.JSON(w, http.StatusOK, delivery)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ident := shared.IdentityFromContext(r.Context())
	id, err := deliveryID(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}

	var in UpdateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(in); err != nil {
		httpx.RespondError(w, err)
		return
	}

	delivery, err := h.service.Update(r.Context(), ident, id, in)
	if err != nil {
		h.logger.Warn("update delivery failed", "delivery_id", id, "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, delivery)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ident := shared.IdentityFromContext(r.Context())
	id, err := deliveryID(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	delivery, err := h.service.Get(r.Context(), ident, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, delivery)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ident := shared.IdentityFromContext(r.Context())
	deliveries, err := h.service.List(r.Context(), ident, filterFromQuery(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if deliveries == nil {
		deliveries = []Delivery{}
	}
	httpx.JSON(w, http.StatusOK, deliveries)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ident := shared.IdentityFromContext(r.Context())
	id, err := deliveryID(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	if err := h.service.Delete(r.Context(), ident, id); err != nil {
		h.logger.Warn("delete delivery failed", "delivery_id", id, "error", err)
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func deliveryID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "deliveryID"), 10, 64)
}

func filterFromQuery(r *http.Request) ListFilter {
	q := r.URL.Query()
	f := ListFilter{Status: q.Get("status")}
	f.ClientID, _ = strconv.ParseInt(q.Get("clientId"), 10, 64)
	f.DriverID, _ = strconv.ParseInt(q.Get("driverId"), 10, 64)
	f.Limit, _ = strconv.Atoi(q.Get("limit"))
	f.Offset, _ = strconv.Atoi(q.Get("offset"))
	return f
}

package billing

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

// IdempotencyHeader carries the client-supplied key that makes payment
// submission safe to retry.
const IdempotencyHeader = "Idempotency-Key"

// Handler wires HTTP endpoints for invoices and payments.
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

// MountRoutes registers billing routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/payments", func(r chi.Router) {
		r.With(h.guard.RequireAny(rbac.PermPaymentView)).Get("/", h.handleListPayments)
		r.With(h.guard.RequireAny(rbac.PermPaymentRecord)).Post("/", h.handleRecordPayment)
		r.With(h.guard.RequireAny(rbac.PermPaymentView)).Get("/{paymentID}", h.handleGetPayment)
		r.With(h.guard.RequireAny(rbac.PermPaymentUpdate)).Patch("/{paymentID}/status", h.handleUpdatePaymentStatus)
	})
	r.Route("/invoices", func(r chi.Router) {
		r.With(h.guard.RequireAny(rbac.PermInvoiceView)).Get("/", h.handleListInvoices)
		r.With(h.guard.RequireAny(rbac.PermInvoiceCreate)).Post("/", h.handleCreateInvoice)
		r.With(h.guard.RequireAny(rbac.PermInvoiceView)).Get("/{invoiceID}", h.handleGetInvoice)
		r.With(h.guard.RequireAny(rbac.PermInvoiceSend)).Post("/{invoiceID}/send", h.handleSendInvoice)
		r.With(h.guard.RequireAny(rbac.PermInvoiceDelete)).Delete("/{invoiceID}", h.handleDeleteInvoice)
	})
}

func (h *Handler) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	ident := shared.IdentityFromContext(r.Context())

	var in RecordPaymentInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(in); err != nil {
		httpx.RespondError(w, err)
		return
	}

	payment, err := h.service.RecordPayment(r.Context(), ident, in, r.Header.Get(IdempotencyHeader))
	if err != nil {
		h.logger.Warn("record payment failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	h.metrics.PaymentRecorded(string(payment.Method))
	httpx.JSON(w, http.StatusCreated, payment)
}

func (h *Handler) handleUpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	ident := shared.IdentityFromContext(r.Context())
	id, err := pathID(r, "paymentID")
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}

	var in UpdatePaymentStatusInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(in); err != nil {
		httpx.RespondError(w, err)
		return
	}

	payment, err := h.service.UpdatePaymentStatus(r.Context(), ident, id, in)
	if err != nil {
		h.logger.Warn("update payment status failed", "payment_id", id, "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, payment)
}

func (h *Handler) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	ident := shared.IdentityFromContext(r.Context())
	id, err := pathID(r, "paymentID")
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	payment, err := h.service.GetPayment(r.Context(), ident, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, payment)
}

func (h *Handler) handleListPayments(w http.ResponseWriter, r *http.Request) {
	ident := shared.IdentityFromContext(r.Context())
	payments, err := h.service.ListPayments(r.Context(), ident, listFilterFromQuery(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if payments == nil {
		payments = []Payment{}
	}
	httpx.JSON(w, http.StatusOK, payments)
}

func (h *Handler) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	ident := shared.IdentityFromContext(r.Context())

	var in CreateInvoiceInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(in); err != nil {
		httpx.RespondError(w, err)
		return
	}

	invoice, err := h.service.CreateInvoice(r.Context(), ident, in)
	if err != nil {
		h.logger.Warn("create invoice failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, invoice)
}

func (h *Handler) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	ident := shared.IdentityFromContext(r.Context())
	id, err := pathID(r, "invoiceID")
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	invoice, err := h.service.GetInvoice(r.Context(), ident, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoice)
}

func (h *Handler) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	ident := shared.IdentityFromContext(r.Context())
	invoices, err := h.service.ListInvoices(r.Context(), ident, listFilterFromQuery(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if invoices == nil {
		invoices = []Invoice{}
	}
	httpx.JSON(w, http.StatusOK, invoices)
}

func (h *Handler) handleSendInvoice(w http.ResponseWriter, r *http.Request) {
	ident := shared.IdentityFromContext(r.Context())
	id, err := pathID(r, "invoiceID")
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	invoice, err := h.service.SendInvoice(r.Context(), ident, id)
	if err != nil {
		h.logger.Warn("send invoice failed", "invoice_id", id, "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoice)
}

func (h *Handler) handleDeleteInvoice(w http.ResponseWriter, r *http.Request) {
	ident := shared.IdentityFromContext(r.Context())
	id, err := pathID(r, "invoiceID")
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	if err := h.service.DeleteInvoice(r.Context(), ident, id); err != nil {
		h.logger.Warn("delete invoice failed", "invoice_id", id, "error", err)
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func listFilterFromQuery(r *http.Request) ListFilter {
	q := r.URL.Query()
	f := ListFilter{Status: q.Get("status")}
	f.ClientID, _ = strconv.ParseInt(q.Get("clientId"), 10, 64)
	f.InvoiceID, _ = strconv.ParseInt(q.Get("invoiceId"), 10, 64)
	f.Limit, _ = strconv.Atoi(q.Get("limit"))
	f.Offset, _ = strconv.Atoi(q.Get("offset"))
	return f
}

package payment

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/kodipay/kodipay/internal/export"
	"github.com/kodipay/kodipay/internal/mpesa"
	"github.com/kodipay/kodipay/internal/payment"
)

type Handler struct {
	svc      *payment.Service
	exporter *export.Service
	validate *validator.Validate
}

func NewHandler(svc *payment.Service, exporter *export.Service) *Handler {
	return &Handler{svc: svc, exporter: exporter, validate: validator.New()}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.initiate)
	r.Get("/", h.list)
	r.Post("/bank", h.recordBank)
	r.Get("/export", h.exportCSV)
	r.Get("/{id}", h.get)
	r.Post("/{id}/confirm", h.confirm)
}

type initiatePaymentRequest struct {
	TenantID uuid.UUID `json:"tenant_id" validate:"required"`
	UnitID   uuid.UUID `json:"unit_id" validate:"required"`
	Amount   int64     `json:"amount" validate:"required,gt=0"`
	Phone    string    `json:"phone" validate:"required"`
}

func (h *Handler) initiate(w http.ResponseWriter, r *http.Request) {
	var req initiatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.svc.Initiate(r.Context(), payment.InitiateParams{
		TenantID: req.TenantID,
		UnitID:   req.UnitID,
		Amount:   req.Amount,
		Phone:    req.Phone,
	})
	if err != nil {
		var fraudErr *payment.FraudRejectedError
		if errors.As(err, &fraudErr) {
			writeJSON(w, http.StatusForbidden, fraudRejectedResponse{
				Message:   "Payment rejected by fraud screening.",
				RiskScore: fraudErr.Assessment.RiskScore,
				Flags:     fraudErr.Assessment.Flags,
			})

			return
		}

		if errors.Is(err, payment.ErrInvalidPhone) {
			http.Error(w, "invalid phone number", http.StatusBadRequest)
			return
		}

		if errors.Is(err, payment.ErrGatewayUnavailable) {
			// Upstream diagnostics stay out of the response body.
			http.Error(w, "payment service unavailable, please try again", http.StatusBadGateway)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, http.StatusAccepted, toInitiateResponse(result))
}

type recordBankRequest struct {
	TenantID  uuid.UUID `json:"tenant_id" validate:"required"`
	UnitID    uuid.UUID `json:"unit_id" validate:"required"`
	Amount    int64     `json:"amount" validate:"required,gt=0"`
	Reference string    `json:"reference" validate:"required"`
}

// recordBank registers an expected bank transfer so a later statement import
// can settle it by its reference.
func (h *Handler) recordBank(w http.ResponseWriter, r *http.Request) {
	var req recordBankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.svc.RecordBank(r.Context(), payment.RecordBankParams{
		TenantID:  req.TenantID,
		UnitID:    req.UnitID,
		Amount:    req.Amount,
		Reference: req.Reference,
	})
	if err != nil {
		var fraudErr *payment.FraudRejectedError
		if errors.As(err, &fraudErr) {
			writeJSON(w, http.StatusForbidden, fraudRejectedResponse{
				Message:   "Payment rejected by fraud screening.",
				RiskScore: fraudErr.Assessment.RiskScore,
				Flags:     fraudErr.Assessment.Flags,
			})

			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, http.StatusCreated, toResponse(result.Payment))
}

// Callback receives the gateway's asynchronous push. Deliveries that were
// applied, were duplicates, or lost a settle race are acknowledged with 200;
// a correlation key with no record yet is failed so the gateway redelivers.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "unreadable body", http.StatusBadRequest)
		return
	}

	out, err := mpesa.ParseCallback(body)
	if err != nil {
		slog.Error("unparseable gateway callback", "error", err)
		http.Error(w, "bad payload", http.StatusBadRequest)

		return
	}

	if _, err := h.svc.Reconcile(r.Context(), out); err != nil {
		if errors.Is(err, payment.ErrUnknownPayment) {
			// A callback can land before the initiating request has
			// committed its record. Fail the delivery so the gateway's
			// bounded retries re-deliver it once the record exists.
			writeJSON(w, http.StatusInternalServerError, callbackResponse{Result: "error"})
			return
		}

		slog.Error("callback reconciliation failed", "correlation_key", out.CorrelationKey, "error", err)
		writeJSON(w, http.StatusInternalServerError, callbackResponse{Result: "error"})

		return
	}

	writeJSON(w, http.StatusOK, callbackResponse{Result: "success"})
}

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "id")
	if ref == "" {
		http.Error(w, "missing payment reference", http.StatusBadRequest)
		return
	}

	result, err := h.svc.Confirm(r.Context(), ref)
	if err != nil {
		if errors.Is(err, payment.ErrUnknownPayment) {
			http.Error(w, "payment not found", http.StatusNotFound)
			return
		}

		if errors.Is(err, payment.ErrStillProcessing) {
			// Not settled and not an error: the customer may still be
			// approving the push on their handset.
			writeJSON(w, http.StatusAccepted, confirmPendingResponse{
				Message: "Payment still processing. Try again shortly.",
				Status:  payment.StatusPending,
			})

			return
		}

		if errors.Is(err, payment.ErrGatewayUnavailable) {
			http.Error(w, "payment service unavailable, please try again", http.StatusBadGateway)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, http.StatusOK, toReconcileResponse(result))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	p, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, payment.ErrNotFound) {
			http.Error(w, "payment not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, http.StatusOK, toResponse(p))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	payments, err := h.svc.List(r.Context(), filter)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toResponseList(payments))
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="payments.csv"`)

	if err := h.exporter.CSV(r.Context(), filter, w); err != nil {
		slog.Error("payment export failed", "error", err)
	}
}

func parseListFilter(r *http.Request) (payment.ListFilter, error) {
	filter := payment.ListFilter{}

	if s := r.URL.Query().Get("tenant_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return filter, errors.New("invalid tenant_id")
		}

		filter.TenantID = &id
	}

	if s := r.URL.Query().Get("unit_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return filter, errors.New("invalid unit_id")
		}

		filter.UnitID = &id
	}

	if s := r.URL.Query().Get("status"); s != "" {
		status := payment.Status(s)
		filter.Status = &status
	}

	return filter, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

package lease

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/kodipay/kodipay/internal/lease"
)

type Handler struct {
	svc      *lease.Service
	validate *validator.Validate
}

func NewHandler(svc *lease.Service) *Handler {
	return &Handler{svc: svc, validate: validator.New()}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Post("/{id}/sign", h.sign)
	r.Post("/{id}/terminate", h.terminate)
	r.Post("/{id}/reject", h.reject)
	r.Get("/tenant/{userId}", h.listByTenant)
	r.Get("/landlord/{userId}", h.listByLandlord)
}

type createLeaseRequest struct {
	UnitID     uuid.UUID `json:"unit_id" validate:"required"`
	TenantID   uuid.UUID `json:"tenant_id" validate:"required"`
	RentAmount int64     `json:"rent_amount" validate:"required,gt=0"`
	StartDate  string    `json:"start_date" validate:"required"`
	EndDate    string    `json:"end_date" validate:"required"`
	Terms      string    `json:"terms"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createLeaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	start, err := time.Parse(time.DateOnly, req.StartDate)
	if err != nil {
		http.Error(w, "invalid start_date", http.StatusBadRequest)
		return
	}

	end, err := time.Parse(time.DateOnly, req.EndDate)
	if err != nil {
		http.Error(w, "invalid end_date", http.StatusBadRequest)
		return
	}

	l, err := h.svc.Create(r.Context(), lease.CreateParams{
		UnitID:     req.UnitID,
		TenantID:   req.TenantID,
		RentAmount: req.RentAmount,
		StartDate:  start,
		EndDate:    end,
		Terms:      req.Terms,
	})
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, toResponse(l))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	l, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(l))
}

func (h *Handler) sign(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Sign)
}

func (h *Handler) terminate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Terminate)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Reject)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id uuid.UUID) (*lease.Lease, error)) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	l, err := fn(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(l))
}

func (h *Handler) listByTenant(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.svc.ListByTenant)
}

func (h *Handler) listByLandlord(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.svc.ListByLandlord)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id uuid.UUID) ([]*lease.Lease, error)) {
	userID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	leases, err := fn(r.Context(), userID)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toResponseList(leases))
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lease.ErrNotFound):
		http.Error(w, "lease not found", http.StatusNotFound)
	case errors.Is(err, lease.ErrInvalidState):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, lease.ErrUnitOccupied):
		http.Error(w, "unit already has an active lease", http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

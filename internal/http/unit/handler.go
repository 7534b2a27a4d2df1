package unit

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/kodipay/kodipay/internal/unit"
)

type Handler struct {
	svc      *unit.Service
	validate *validator.Validate
}

func NewHandler(svc *unit.Service) *Handler {
	return &Handler{svc: svc, validate: validator.New()}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Get("/property/{propertyId}", h.listByProperty)
}

type createUnitRequest struct {
	PropertyID  uuid.UUID `json:"property_id" validate:"required"`
	UnitNumber  string    `json:"unit_number" validate:"required"`
	FloorNumber int       `json:"floor_number"`
	RoomNumber  string    `json:"room_number"`
	RentAmount  int64     `json:"rent_amount" validate:"required,gt=0"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createUnitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	u, err := h.svc.Create(r.Context(), unit.CreateParams{
		PropertyID:  req.PropertyID,
		UnitNumber:  req.UnitNumber,
		FloorNumber: req.FloorNumber,
		RoomNumber:  req.RoomNumber,
		RentAmount:  req.RentAmount,
	})
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, toResponse(u))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	u, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, unit.ErrNotFound) {
			http.Error(w, "unit not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, http.StatusOK, toResponse(u))
}

func (h *Handler) listByProperty(w http.ResponseWriter, r *http.Request) {
	propertyID, err := uuid.Parse(chi.URLParam(r, "propertyId"))
	if err != nil {
		http.Error(w, "invalid property id", http.StatusBadRequest)
		return
	}

	units, err := h.svc.ListByProperty(r.Context(), propertyID)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toResponseList(units))
}

type unitResponse struct {
	ID          uuid.UUID   `json:"id"`
	PropertyID  uuid.UUID   `json:"property_id"`
	UnitNumber  string      `json:"unit_number"`
	FloorNumber int         `json:"floor_number"`
	RoomNumber  string      `json:"room_number"`
	TenantID    *uuid.UUID  `json:"tenant_id,omitempty"`
	RentAmount  int64       `json:"rent_amount"`
	Status      unit.Status `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   *time.Time  `json:"updated_at,omitempty"`
}

func toResponse(u *unit.Unit) unitResponse {
	return unitResponse{
		ID:          u.ID,
		PropertyID:  u.PropertyID,
		UnitNumber:  u.UnitNumber,
		FloorNumber: u.FloorNumber,
		RoomNumber:  u.RoomNumber,
		TenantID:    u.TenantID,
		RentAmount:  u.RentAmount,
		Status:      u.Status,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func toResponseList(units []*unit.Unit) []unitResponse {
	resp := make([]unitResponse, len(units))
	for i, u := range units {
		resp[i] = toResponse(u)
	}

	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

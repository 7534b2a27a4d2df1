package statement

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/kodipay/kodipay/internal/statement"
)

type Handler struct {
	svc      *statement.Service
	validate *validator.Validate
}

func NewHandler(svc *statement.Service) *Handler {
	return &Handler{svc: svc, validate: validator.New()}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/import", h.importStatement)
	r.Post("/mappings", h.learn)
}

// importStatement accepts a raw CSV statement export in the request body and
// reconciles its credits against tracked payments.
func (h *Handler) importStatement(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Import(r.Context(), r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	writeJSON(w, http.StatusOK, toImportResponse(result))
}

type learnRequest struct {
	Pattern string    `json:"pattern" validate:"required"`
	UnitID  uuid.UUID `json:"unit_id" validate:"required"`
}

func (h *Handler) learn(w http.ResponseWriter, r *http.Request) {
	var req learnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.svc.Learn(r.Context(), req.Pattern, req.UnitID); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

type unmatchedRowResponse struct {
	Date            string     `json:"date"`
	Description     string     `json:"description"`
	Reference       string     `json:"reference,omitempty"`
	Amount          int64      `json:"amount"`
	SuggestedUnitID *uuid.UUID `json:"suggested_unit_id,omitempty"`
}

type importResponse struct {
	Settled        int                    `json:"settled"`
	AlreadySettled int                    `json:"already_settled"`
	Unmatched      []unmatchedRowResponse `json:"unmatched"`
}

func toImportResponse(result *statement.ImportResult) importResponse {
	resp := importResponse{
		Settled:        result.Settled,
		AlreadySettled: result.AlreadySettled,
		Unmatched:      make([]unmatchedRowResponse, 0, len(result.Unmatched)),
	}

	for _, u := range result.Unmatched {
		resp.Unmatched = append(resp.Unmatched, unmatchedRowResponse{
			Date:            u.Row.Date.Format(time.DateOnly),
			Description:     u.Row.Description,
			Reference:       u.Row.Reference,
			Amount:          u.Row.Amount,
			SuggestedUnitID: u.SuggestedUnitID,
		})
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

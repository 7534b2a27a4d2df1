package fraud

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/kodipay/kodipay/internal/fraud"
)

type Handler struct {
	scorer   *fraud.Scorer
	validate *validator.Validate
}

func NewHandler(scorer *fraud.Scorer) *Handler {
	return &Handler{scorer: scorer, validate: validator.New()}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/analyze", h.analyze)
}

type analyzeRequest struct {
	TenantID uuid.UUID `json:"tenant_id" validate:"required"`
	UnitID   uuid.UUID `json:"unit_id" validate:"required"`
	Amount   int64     `json:"amount" validate:"required,gt=0"`
}

type analyzeResponse struct {
	RiskScore int          `json:"risk_score"`
	Flags     []string     `json:"flags"`
	Status    fraud.Status `json:"status"`
}

// analyze exposes the scorer read-only: it never writes a payment record,
// so landlords can pre-screen a request without side effects.
func (h *Handler) analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	assessment, err := h.scorer.Analyze(r.Context(), req.TenantID, req.Amount, req.UnitID)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	resp := analyzeResponse{
		RiskScore: assessment.RiskScore,
		Flags:     assessment.Flags,
		Status:    assessment.Status,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

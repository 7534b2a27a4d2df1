package payment

import (
	"time"

	"github.com/google/uuid"

	"github.com/kodipay/kodipay/internal/fraud"
	"github.com/kodipay/kodipay/internal/payment"
)

type paymentResponse struct {
	ID             uuid.UUID      `json:"id"`
	TenantID       uuid.UUID      `json:"tenant_id"`
	UnitID         uuid.UUID      `json:"unit_id"`
	Amount         int64          `json:"amount"`
	Method         payment.Method `json:"method"`
	Status         payment.Status `json:"status"`
	TransactionRef string         `json:"transaction_ref"`
	FraudStatus    fraud.Status   `json:"fraud_status"`
	FraudScore     int            `json:"fraud_score"`
	FraudFlags     []string       `json:"fraud_flags,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      *time.Time     `json:"updated_at,omitempty"`
}

type initiateResponse struct {
	Message string          `json:"message"`
	Payment paymentResponse `json:"payment"`
}

type reconcileResponse struct {
	Payment        paymentResponse `json:"payment"`
	AlreadySettled bool            `json:"already_settled"`
}

type fraudRejectedResponse struct {
	Message   string   `json:"message"`
	RiskScore int      `json:"risk_score"`
	Flags     []string `json:"flags"`
}

type callbackResponse struct {
	Result string `json:"result"`
}

type confirmPendingResponse struct {
	Message string         `json:"message"`
	Status  payment.Status `json:"status"`
}

func toResponse(p *payment.Payment) paymentResponse {
	return paymentResponse{
		ID:             p.ID,
		TenantID:       p.TenantID,
		UnitID:         p.UnitID,
		Amount:         p.Amount,
		Method:         p.Method,
		Status:         p.Status,
		TransactionRef: p.TransactionRef,
		FraudStatus:    p.FraudStatus,
		FraudScore:     p.FraudScore,
		FraudFlags:     p.FraudFlags,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func toResponseList(payments []*payment.Payment) []paymentResponse {
	resp := make([]paymentResponse, len(payments))
	for i, p := range payments {
		resp[i] = toResponse(p)
	}

	return resp
}

func toInitiateResponse(result *payment.InitiateResult) initiateResponse {
	return initiateResponse{
		Message: "Payment initiated. Please check your phone.",
		Payment: toResponse(result.Payment),
	}
}

func toReconcileResponse(result *payment.ReconcileResult) reconcileResponse {
	return reconcileResponse{
		Payment:        toResponse(result.Payment),
		AlreadySettled: result.AlreadySettled,
	}
}

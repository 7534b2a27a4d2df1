package lease

import (
	"time"

	"github.com/google/uuid"

	"github.com/kodipay/kodipay/internal/lease"
)

type leaseResponse struct {
	ID         uuid.UUID    `json:"id"`
	UnitID     uuid.UUID    `json:"unit_id"`
	TenantID   uuid.UUID    `json:"tenant_id"`
	RentAmount int64        `json:"rent_amount"`
	StartDate  string       `json:"start_date"`
	EndDate    string       `json:"end_date"`
	Terms      string       `json:"terms,omitempty"`
	Status     lease.Status `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  *time.Time   `json:"updated_at,omitempty"`
}

func toResponse(l *lease.Lease) leaseResponse {
	return leaseResponse{
		ID:         l.ID,
		UnitID:     l.UnitID,
		TenantID:   l.TenantID,
		RentAmount: l.RentAmount,
		StartDate:  l.StartDate.Format(time.DateOnly),
		EndDate:    l.EndDate.Format(time.DateOnly),
		Terms:      l.Terms,
		Status:     l.Status,
		CreatedAt:  l.CreatedAt,
		UpdatedAt:  l.UpdatedAt,
	}
}

func toResponseList(leases []*lease.Lease) []leaseResponse {
	resp := make([]leaseResponse, len(leases))
	for i, l := range leases {
		resp[i] = toResponse(l)
	}

	return resp
}

package fraud

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=fraud
type Repository interface {
	// ActiveLeaseRent returns the rent amount of the tenant's active lease.
	// The second return is false when the tenant has no active lease.
	ActiveLeaseRent(ctx context.Context, tenantID uuid.UUID) (int64, bool, error)

	// PaymentCountSince counts payments created by the tenant at or after
	// the given instant.
	PaymentCountSince(ctx context.Context, tenantID uuid.UUID, since time.Time) (int, error)
}

// Scoring weights and thresholds.
const (
	scoreHighValue   = 50
	scoreVelocity    = 40
	scoreRoundNumber = 10

	thresholdReject = 80
	thresholdReview = 40

	velocityWindow = time.Hour
	velocityLimit  = 3

	roundNumberFloor = 10000
)

const (
	FlagHighValue   = "High Value: Transaction exceeds 200% of rent amount."
	FlagVelocity    = "Velocity: High transaction frequency in the last hour."
	FlagRoundNumber = "Pattern: Large round number transaction."
)

// Scorer classifies payment requests by risk. It only reads history; acting
// on a review or rejection is the caller's decision.
type Scorer struct {
	repo Repository
}

func NewScorer(repo Repository) *Scorer {
	return &Scorer{repo: repo}
}

// Analyze scores a payment request against the tenant's recent history.
// Each rule contributes independently and absence of history contributes
// nothing; only repository failures produce an error.
func (s *Scorer) Analyze(ctx context.Context, tenantID uuid.UUID, amount int64, unitID uuid.UUID) (Assessment, error) {
	var a Assessment

	rent, hasLease, err := s.repo.ActiveLeaseRent(ctx, tenantID)
	if err != nil {
		return Assessment{}, fmt.Errorf("fetching active lease rent: %w", err)
	}

	if hasLease && amount > rent*2 {
		a.RiskScore += scoreHighValue
		a.Flags = append(a.Flags, FlagHighValue)
	}

	recent, err := s.repo.PaymentCountSince(ctx, tenantID, time.Now().Add(-velocityWindow))
	if err != nil {
		return Assessment{}, fmt.Errorf("counting recent payments: %w", err)
	}

	if recent >= velocityLimit {
		a.RiskScore += scoreVelocity
		a.Flags = append(a.Flags, FlagVelocity)
	}

	if amount > roundNumberFloor && amount%1000 == 0 {
		a.RiskScore += scoreRoundNumber
		a.Flags = append(a.Flags, FlagRoundNumber)
	}

	switch {
	case a.RiskScore >= thresholdReject:
		a.Status = StatusRejected
	case a.RiskScore >= thresholdReview:
		a.Status = StatusReview
	default:
		a.Status = StatusApproved
	}

	return a, nil
}

package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/kodipay/kodipay/internal/fraud"
)

//go:generate mockgen -source=service.go -destination=service_mock.go -package=payment
type Repository interface {
	CreatePayment(ctx context.Context, p *Payment) error
	GetPayment(ctx context.Context, id uuid.UUID) (*Payment, error)
	GetByTransactionRef(ctx context.Context, ref string) (*Payment, error)
	ListPayments(ctx context.Context, filter ListFilter) ([]*Payment, error)

	// SettleIfPending atomically moves the payment identified by its
	// correlation key out of pending, replacing the key with the final
	// reference. Returns false when no pending row matched, meaning a
	// concurrent writer already settled it or the key is unknown.
	SettleIfPending(ctx context.Context, ref string, status Status, finalRef string) (bool, error)
}

// Gateway is the outbound side of the payment processor.
type Gateway interface {
	STKPush(ctx context.Context, phone string, amount int64, accountRef, description string) (Handle, error)
	Confirm(ctx context.Context, correlationKey string) (Outcome, error)
}

// Scorer classifies a payment request by fraud risk before any money moves.
type Scorer interface {
	Analyze(ctx context.Context, tenantID uuid.UUID, amount int64, unitID uuid.UUID) (fraud.Assessment, error)
}

// Notifier delivers settlement events. Fire-and-forget from the engine's
// perspective: a failed delivery never unwinds a settled payment.
type Notifier interface {
	Notify(ctx context.Context, audienceID uuid.UUID, eventType string, payload map[string]any) error
}

const (
	EventPaymentCompleted = "payment_completed"
	EventPaymentFailed    = "payment_failed"
)

type Service struct {
	repo     Repository
	gateway  Gateway
	scorer   Scorer
	notifier Notifier
}

func NewService(repo Repository, gateway Gateway, scorer Scorer, notifier Notifier) *Service {
	return &Service{repo: repo, gateway: gateway, scorer: scorer, notifier: notifier}
}

type ListFilter struct {
	TenantID *uuid.UUID
	UnitID   *uuid.UUID
	Status   *Status
}

type InitiateParams struct {
	TenantID uuid.UUID
	UnitID   uuid.UUID
	Amount   int64
	Phone    string
}

// InitiateResult carries the provisional payment record and the fraud
// assessment made at creation time.
type InitiateResult struct {
	Payment    *Payment
	Assessment fraud.Assessment
}

// Initiate screens the request, submits an STK push, and records the payment
// as pending under the gateway's correlation key. A fraud rejection or a
// gateway failure leaves no record behind.
func (s *Service) Initiate(ctx context.Context, params InitiateParams) (*InitiateResult, error) {
	assessment, err := s.scorer.Analyze(ctx, params.TenantID, params.Amount, params.UnitID)
	if err != nil {
		return nil, fmt.Errorf("analyzing payment: %w", err)
	}

	if assessment.Status == fraud.StatusRejected {
		slog.Warn("payment rejected by fraud screening",
			"tenant_id", params.TenantID, "amount", params.Amount, "score", assessment.RiskScore)
		return nil, &FraudRejectedError{Assessment: assessment}
	}

	accountRef := fmt.Sprintf("Unit %s", params.UnitID)
	description := fmt.Sprintf("Rent Payment for Unit %s", params.UnitID)

	handle, err := s.gateway.STKPush(ctx, params.Phone, params.Amount, accountRef, description)
	if err != nil {
		return nil, fmt.Errorf("initiating payment: %w", err)
	}

	p := &Payment{
		TenantID:       params.TenantID,
		UnitID:         params.UnitID,
		Amount:         params.Amount,
		Method:         MethodMpesa,
		Status:         StatusPending,
		TransactionRef: handle.CorrelationKey,
		CorrelationKey: handle.CorrelationKey,
		FraudStatus:    assessment.Status,
		FraudScore:     assessment.RiskScore,
		FraudFlags:     assessment.Flags,
	}
	if err := s.repo.CreatePayment(ctx, p); err != nil {
		return nil, fmt.Errorf("recording payment: %w", err)
	}

	return &InitiateResult{Payment: p, Assessment: assessment}, nil
}

type RecordBankParams struct {
	TenantID  uuid.UUID
	UnitID    uuid.UUID
	Amount    int64
	Reference string
}

// RecordBank tracks a rent payment the tenant is expected to make by bank
// transfer. The record is pending under the bank reference issued to the
// tenant, so a statement import settles it when the credit appears. The same
// fraud screening applies as for gateway payments.
func (s *Service) RecordBank(ctx context.Context, params RecordBankParams) (*InitiateResult, error) {
	assessment, err := s.scorer.Analyze(ctx, params.TenantID, params.Amount, params.UnitID)
	if err != nil {
		return nil, fmt.Errorf("analyzing payment: %w", err)
	}

	if assessment.Status == fraud.StatusRejected {
		slog.Warn("bank payment rejected by fraud screening",
			"tenant_id", params.TenantID, "amount", params.Amount, "score", assessment.RiskScore)
		return nil, &FraudRejectedError{Assessment: assessment}
	}

	p := &Payment{
		TenantID:       params.TenantID,
		UnitID:         params.UnitID,
		Amount:         params.Amount,
		Method:         MethodBank,
		Status:         StatusPending,
		TransactionRef: params.Reference,
		CorrelationKey: params.Reference,
		FraudStatus:    assessment.Status,
		FraudScore:     assessment.RiskScore,
		FraudFlags:     assessment.Flags,
	}
	if err := s.repo.CreatePayment(ctx, p); err != nil {
		return nil, fmt.Errorf("recording expected bank payment: %w", err)
	}

	return &InitiateResult{Payment: p, Assessment: assessment}, nil
}

// ReconcileResult reports how an outcome was applied. AlreadySettled means
// the payment was terminal before this delivery, i.e. the outcome was a
// duplicate and nothing was written.
type ReconcileResult struct {
	Payment        *Payment
	AlreadySettled bool
}

// Reconcile applies a gateway outcome to the tracked payment exactly once.
// Duplicate deliveries are no-ops, a lost settle race is resolved by
// re-reading the winner's write, and an unknown correlation key is logged
// and reported without synthesizing a record.
func (s *Service) Reconcile(ctx context.Context, out Outcome) (*ReconcileResult, error) {
	p, err := s.repo.GetByTransactionRef(ctx, out.CorrelationKey)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			slog.Warn("gateway outcome for untracked payment", "correlation_key", out.CorrelationKey)
			return nil, ErrUnknownPayment
		}

		return nil, fmt.Errorf("looking up payment: %w", err)
	}

	if p.Status.Terminal() {
		return &ReconcileResult{Payment: p, AlreadySettled: true}, nil
	}

	status := StatusFailed

	finalRef := p.TransactionRef
	if out.Success {
		status = StatusCompleted

		if out.ReceiptRef != "" {
			finalRef = out.ReceiptRef
		}
	}

	settled, err := s.repo.SettleIfPending(ctx, p.CorrelationKey, status, finalRef)
	if err != nil {
		return nil, fmt.Errorf("settling payment: %w", err)
	}

	if !settled {
		// Lost the race: another delivery settled this payment between
		// our read and write. Re-read by id to report the winner's state.
		p, err = s.repo.GetPayment(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("re-reading settled payment: %w", err)
		}

		return &ReconcileResult{Payment: p, AlreadySettled: true}, nil
	}

	p.Status = status
	p.TransactionRef = finalRef

	if status == StatusCompleted {
		slog.Info("payment completed", "payment_id", p.ID, "receipt", finalRef)
		s.notify(ctx, p.TenantID, EventPaymentCompleted, map[string]any{
			"payment_id": p.ID,
			"amount":     p.Amount,
			"receipt":    finalRef,
		})
	} else {
		slog.Info("payment failed", "payment_id", p.ID, "reason", out.Reason)
		s.notify(ctx, p.TenantID, EventPaymentFailed, map[string]any{
			"payment_id": p.ID,
			"reason":     out.Reason,
		})
	}

	return &ReconcileResult{Payment: p}, nil
}

// Confirm pulls the final status from the gateway and reconciles it, for
// gateways or deployments where the push callback cannot be relied on.
func (s *Service) Confirm(ctx context.Context, correlationKey string) (*ReconcileResult, error) {
	out, err := s.gateway.Confirm(ctx, correlationKey)
	if err != nil {
		return nil, fmt.Errorf("confirming payment: %w", err)
	}

	return s.Reconcile(ctx, out)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Payment, error) {
	return s.repo.GetPayment(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Payment, error) {
	return s.repo.ListPayments(ctx, filter)
}

func (s *Service) notify(ctx context.Context, audienceID uuid.UUID, eventType string, payload map[string]any) {
	if s.notifier == nil {
		return
	}

	// The settle write is authoritative; a notification failure is logged
	// and retried by the delivery channel, never by re-running reconciliation.
	if err := s.notifier.Notify(ctx, audienceID, eventType, payload); err != nil {
		slog.Error("payment notification failed", "event", eventType, "audience", audienceID, "error", err)
	}
}

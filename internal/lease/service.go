package lease

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=lease
type Repository interface {
	CreateLease(ctx context.Context, l *Lease) error
	GetLease(ctx context.Context, id uuid.UUID) (*Lease, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*Lease, error)
	ListByLandlord(ctx context.Context, landlordID uuid.UUID) ([]*Lease, error)
	LandlordForUnit(ctx context.Context, unitID uuid.UUID) (uuid.UUID, error)

	BeginTransition(ctx context.Context) (TransitionTx, error)
}

// TransitionTx is a database transaction scoped to one lease transition. The
// lease row is locked for the duration so concurrent transitions on the same
// lease serialize instead of racing.
type TransitionTx interface {
	GetLeaseForUpdate(ctx context.Context, id uuid.UUID) (*Lease, error)
	ActiveLeaseExists(ctx context.Context, unitID uuid.UUID) (bool, error)
	UpdateLeaseStatus(ctx context.Context, id uuid.UUID, status Status) error
	UnitOccupant(ctx context.Context, unitID uuid.UUID) (*uuid.UUID, error)
	SetUnitOccupant(ctx context.Context, unitID uuid.UUID, tenantID *uuid.UUID) error
	Commit() error
	Rollback() error
}

// Notifier delivers state-change events to interested parties. Delivery is
// fire-and-forget; failures are logged, never surfaced to the transition.
type Notifier interface {
	Notify(ctx context.Context, audienceID uuid.UUID, eventType string, payload map[string]any) error
}

const (
	EventLeaseAssigned   = "lease_assigned"
	EventLeaseSigned     = "lease_signed"
	EventLeaseTerminated = "lease_terminated"
)

type Service struct {
	repo     Repository
	notifier Notifier
}

func NewService(repo Repository, notifier Notifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

type CreateParams struct {
	UnitID     uuid.UUID
	TenantID   uuid.UUID
	RentAmount int64
	StartDate  time.Time
	EndDate    time.Time
	Terms      string
}

// Create produces a pending lease. No pre-check against unit status: a unit
// may carry several pending leases from competing prospective tenants, and
// sign is where exactly one of them wins.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Lease, error) {
	l := &Lease{
		UnitID:     params.UnitID,
		TenantID:   params.TenantID,
		RentAmount: params.RentAmount,
		StartDate:  params.StartDate,
		EndDate:    params.EndDate,
		Terms:      params.Terms,
		Status:     StatusPending,
	}
	if err := s.repo.CreateLease(ctx, l); err != nil {
		return nil, err
	}

	s.notify(ctx, l.TenantID, EventLeaseAssigned, map[string]any{
		"lease_id": l.ID,
		"unit_id":  l.UnitID,
	})

	return l, nil
}

// Sign activates a pending lease and occupies its unit as one logical unit of
// work. It fails with ErrInvalidState unless the lease is pending, and with
// ErrUnitOccupied if another lease on the same unit is already active.
func (s *Service) Sign(ctx context.Context, id uuid.UUID) (*Lease, error) {
	tx, err := s.repo.BeginTransition(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning sign transition: %w", err)
	}
	defer tx.Rollback()

	l, err := tx.GetLeaseForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}

	if l.Status != StatusPending {
		return nil, fmt.Errorf("signing lease %s in status %q: %w", l.ID, l.Status, ErrInvalidState)
	}

	// Lock the unit row before the active-lease check. Concurrent signs of
	// different pending leases on the same unit each lock only their own
	// lease row, so without this both would pass the check and activate.
	if _, err := tx.UnitOccupant(ctx, l.UnitID); err != nil {
		return nil, err
	}

	active, err := tx.ActiveLeaseExists(ctx, l.UnitID)
	if err != nil {
		return nil, err
	}

	if active {
		return nil, fmt.Errorf("signing lease %s: %w", l.ID, ErrUnitOccupied)
	}

	if err := tx.UpdateLeaseStatus(ctx, l.ID, StatusActive); err != nil {
		return nil, err
	}

	if err := tx.SetUnitOccupant(ctx, l.UnitID, &l.TenantID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing sign transition: %w", err)
	}

	l.Status = StatusActive

	if landlordID, err := s.repo.LandlordForUnit(ctx, l.UnitID); err != nil {
		slog.Error("resolving landlord for signed lease", "lease_id", l.ID, "error", err)
	} else {
		s.notify(ctx, landlordID, EventLeaseSigned, map[string]any{
			"lease_id": l.ID,
			"unit_id":  l.UnitID,
		})
	}

	return l, nil
}

// Terminate ends a lease from any non-terminal state. The unit is vacated
// only when this lease's tenant is still its occupant, so terminating a stale
// pending or superseded lease cannot vacate a unit that has since been
// re-leased to someone else.
func (s *Service) Terminate(ctx context.Context, id uuid.UUID) (*Lease, error) {
	tx, err := s.repo.BeginTransition(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning terminate transition: %w", err)
	}
	defer tx.Rollback()

	l, err := tx.GetLeaseForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}

	if l.Status.Terminal() {
		return nil, fmt.Errorf("terminating lease %s in status %q: %w", l.ID, l.Status, ErrInvalidState)
	}

	if err := tx.UpdateLeaseStatus(ctx, l.ID, StatusTerminated); err != nil {
		return nil, err
	}

	occupant, err := tx.UnitOccupant(ctx, l.UnitID)
	if err != nil {
		return nil, err
	}

	if occupant != nil && *occupant == l.TenantID {
		if err := tx.SetUnitOccupant(ctx, l.UnitID, nil); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing terminate transition: %w", err)
	}

	l.Status = StatusTerminated

	s.notify(ctx, l.TenantID, EventLeaseTerminated, map[string]any{
		"lease_id": l.ID,
		"unit_id":  l.UnitID,
	})

	return l, nil
}

// Reject declines a pending lease. Terminal; the unit is untouched because a
// pending lease never occupied it.
func (s *Service) Reject(ctx context.Context, id uuid.UUID) (*Lease, error) {
	tx, err := s.repo.BeginTransition(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning reject transition: %w", err)
	}
	defer tx.Rollback()

	l, err := tx.GetLeaseForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}

	if l.Status != StatusPending {
		return nil, fmt.Errorf("rejecting lease %s in status %q: %w", l.ID, l.Status, ErrInvalidState)
	}

	if err := tx.UpdateLeaseStatus(ctx, l.ID, StatusRejected); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing reject transition: %w", err)
	}

	l.Status = StatusRejected

	return l, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Lease, error) {
	return s.repo.GetLease(ctx, id)
}

func (s *Service) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*Lease, error) {
	return s.repo.ListByTenant(ctx, tenantID)
}

func (s *Service) ListByLandlord(ctx context.Context, landlordID uuid.UUID) ([]*Lease, error) {
	return s.repo.ListByLandlord(ctx, landlordID)
}

func (s *Service) notify(ctx context.Context, audienceID uuid.UUID, eventType string, payload map[string]any) {
	if s.notifier == nil {
		return
	}

	if err := s.notifier.Notify(ctx, audienceID, eventType, payload); err != nil {
		slog.Error("lease notification failed", "event", eventType, "audience", audienceID, "error", err)
	}
}

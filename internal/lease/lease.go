package lease

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a lease.
type Status string

const (
	StatusPending    Status = "pending"
	StatusActive     Status = "active"
	StatusTerminated Status = "terminated"
	StatusRejected   Status = "rejected"
)

// Terminal reports whether no further transition is permitted from the status.
func (s Status) Terminal() bool {
	return s == StatusTerminated || s == StatusRejected
}

var (
	ErrNotFound = errors.New("lease not found")

	// ErrInvalidState means the requested transition is illegal from the
	// lease's current status.
	ErrInvalidState = errors.New("invalid lease state for transition")

	// ErrUnitOccupied means another lease on the same unit is already
	// active, so signing this one would violate single-active-per-unit.
	ErrUnitOccupied = errors.New("unit already has an active lease")
)

// Lease binds a tenant to a unit under agreed terms. Terminated and rejected
// leases are retained for history, never deleted.
type Lease struct {
	ID         uuid.UUID
	UnitID     uuid.UUID
	TenantID   uuid.UUID
	RentAmount int64
	StartDate  time.Time
	EndDate    time.Time
	Terms      string
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}

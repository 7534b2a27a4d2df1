package unit

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status represents whether a unit is let.
type Status string

const (
	StatusVacant   Status = "vacant"
	StatusOccupied Status = "occupied"
)

var ErrNotFound = errors.New("unit not found")

// Unit is a rentable space within a property. TenantID and Status move
// together under the lease state machine: occupied ⇔ tenant non-null.
type Unit struct {
	ID          uuid.UUID
	PropertyID  uuid.UUID
	UnitNumber  string
	FloorNumber int
	RoomNumber  string
	TenantID    *uuid.UUID
	RentAmount  int64
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

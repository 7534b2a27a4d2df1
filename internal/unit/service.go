package unit

import (
	"context"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=unit
type Repository interface {
	CreateUnit(ctx context.Context, u *Unit) error
	GetUnit(ctx context.Context, id uuid.UUID) (*Unit, error)
	ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]*Unit, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	PropertyID  uuid.UUID
	UnitNumber  string
	FloorNumber int
	RoomNumber  string
	RentAmount  int64
}

// Create registers a vacant unit. Occupancy is only ever changed by lease
// transitions, never through unit CRUD.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Unit, error) {
	u := &Unit{
		PropertyID:  params.PropertyID,
		UnitNumber:  params.UnitNumber,
		FloorNumber: params.FloorNumber,
		RoomNumber:  params.RoomNumber,
		RentAmount:  params.RentAmount,
		Status:      StatusVacant,
	}
	if err := s.repo.CreateUnit(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Unit, error) {
	return s.repo.GetUnit(ctx, id)
}

func (s *Service) ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]*Unit, error) {
	return s.repo.ListByProperty(ctx, propertyID)
}

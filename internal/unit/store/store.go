package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/kodipay/kodipay/internal/unit"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

// Expected column order: id, property_id, unit_number, floor_number, room_number, tenant_id, rent_amount, status, created_at, updated_at
func scanUnit(s scanner) (*unit.Unit, error) {
	var u unit.Unit

	var statusStr string

	if err := s.Scan(
		&u.ID, &u.PropertyID, &u.UnitNumber, &u.FloorNumber, &u.RoomNumber,
		&u.TenantID, &u.RentAmount, &statusStr, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}

	u.Status = unit.Status(statusStr)

	return &u, nil
}

const selectUnitColumns = `
	u.id, u.property_id, u.unit_number, u.floor_number, u.room_number,
	u.tenant_id, u.rent_amount, u.status, u.created_at, u.updated_at
`

func (s *Store) CreateUnit(ctx context.Context, u *unit.Unit) error {
	query := `
		INSERT INTO units (property_id, unit_number, floor_number, room_number, rent_amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		u.PropertyID,
		u.UnitNumber,
		u.FloorNumber,
		u.RoomNumber,
		u.RentAmount,
		u.Status,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating unit: %w", err)
	}

	return nil
}

func (s *Store) GetUnit(ctx context.Context, id uuid.UUID) (*unit.Unit, error) {
	query := `SELECT ` + selectUnitColumns + ` FROM units u WHERE u.id = $1`

	u, err := scanUnit(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, unit.ErrNotFound
		}

		return nil, fmt.Errorf("getting unit: %w", err)
	}

	return u, nil
}

func (s *Store) ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]*unit.Unit, error) {
	query := `SELECT ` + selectUnitColumns + `
		FROM units u
		WHERE u.property_id = $1
		ORDER BY u.unit_number ASC`

	rows, err := s.db.QueryContext(ctx, query, propertyID)
	if err != nil {
		return nil, fmt.Errorf("listing units: %w", err)
	}
	defer rows.Close()

	var units []*unit.Unit

	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning unit: %w", err)
		}

		units = append(units, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating unit rows: %w", err)
	}

	return units, nil
}

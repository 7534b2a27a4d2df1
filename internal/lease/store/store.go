package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/kodipay/kodipay/internal/lease"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Expected column order: id, unit_id, tenant_id, rent_amount, start_date, end_date, terms, status, created_at, updated_at
func scanLease(s scanner) (*lease.Lease, error) {
	var l lease.Lease

	var statusStr string

	var terms sql.NullString

	if err := s.Scan(
		&l.ID, &l.UnitID, &l.TenantID, &l.RentAmount, &l.StartDate, &l.EndDate,
		&terms, &statusStr, &l.CreatedAt, &l.UpdatedAt,
	); err != nil {
		return nil, err
	}

	l.Terms = terms.String
	l.Status = lease.Status(statusStr)

	return &l, nil
}

const selectLeaseColumns = `
	l.id, l.unit_id, l.tenant_id, l.rent_amount, l.start_date, l.end_date,
	l.terms, l.status, l.created_at, l.updated_at
`

func (s *Store) CreateLease(ctx context.Context, l *lease.Lease) error {
	query := `
		INSERT INTO leases (unit_id, tenant_id, rent_amount, start_date, end_date, terms, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		l.UnitID,
		l.TenantID,
		l.RentAmount,
		l.StartDate,
		l.EndDate,
		l.Terms,
		l.Status,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating lease: %w", err)
	}

	return nil
}

func (s *Store) GetLease(ctx context.Context, id uuid.UUID) (*lease.Lease, error) {
	query := `SELECT ` + selectLeaseColumns + ` FROM leases l WHERE l.id = $1`

	l, err := scanLease(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, lease.ErrNotFound
		}

		return nil, fmt.Errorf("getting lease: %w", err)
	}

	return l, nil
}

func (s *Store) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*lease.Lease, error) {
	query := `SELECT ` + selectLeaseColumns + `
		FROM leases l
		WHERE l.tenant_id = $1
		ORDER BY l.created_at DESC`

	return s.list(ctx, query, tenantID)
}

func (s *Store) ListByLandlord(ctx context.Context, landlordID uuid.UUID) ([]*lease.Lease, error) {
	query := `SELECT ` + selectLeaseColumns + `
		FROM leases l
		JOIN units u ON l.unit_id = u.id
		JOIN properties p ON u.property_id = p.id
		WHERE p.landlord_id = $1
		ORDER BY l.created_at DESC`

	return s.list(ctx, query, landlordID)
}

func (s *Store) list(ctx context.Context, query string, arg any) ([]*lease.Lease, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("listing leases: %w", err)
	}
	defer rows.Close()

	var leases []*lease.Lease

	for rows.Next() {
		l, err := scanLease(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning lease: %w", err)
		}

		leases = append(leases, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating lease rows: %w", err)
	}

	return leases, nil
}

func (s *Store) LandlordForUnit(ctx context.Context, unitID uuid.UUID) (uuid.UUID, error) {
	query := `
		SELECT p.landlord_id
		FROM units u
		JOIN properties p ON u.property_id = p.id
		WHERE u.id = $1
	`

	var landlordID uuid.UUID

	err := s.db.QueryRowContext(ctx, query, unitID).Scan(&landlordID)
	if err != nil {
		if err == sql.ErrNoRows {
			return uuid.Nil, lease.ErrNotFound
		}

		return uuid.Nil, fmt.Errorf("resolving landlord for unit: %w", err)
	}

	return landlordID, nil
}

type transitionTx struct {
	tx *sql.Tx
}

func (s *Store) BeginTransition(ctx context.Context) (lease.TransitionTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transition tx: %w", err)
	}

	return &transitionTx{tx: dbTx}, nil
}

func (t *transitionTx) Commit() error   { return t.tx.Commit() }
func (t *transitionTx) Rollback() error { return t.tx.Rollback() }

// GetLeaseForUpdate locks the lease row until the transaction ends so
// concurrent transitions on the same lease serialize.
func (t *transitionTx) GetLeaseForUpdate(ctx context.Context, id uuid.UUID) (*lease.Lease, error) {
	query := `SELECT ` + selectLeaseColumns + ` FROM leases l WHERE l.id = $1 FOR UPDATE`

	l, err := scanLease(t.tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, lease.ErrNotFound
		}

		return nil, fmt.Errorf("locking lease: %w", err)
	}

	return l, nil
}

func (t *transitionTx) ActiveLeaseExists(ctx context.Context, unitID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM leases WHERE unit_id = $1 AND status = 'active')`

	var exists bool
	if err := t.tx.QueryRowContext(ctx, query, unitID).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking active lease: %w", err)
	}

	return exists, nil
}

func (t *transitionTx) UpdateLeaseStatus(ctx context.Context, id uuid.UUID, status lease.Status) error {
	query := `
		UPDATE leases
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`

	if _, err := t.tx.ExecContext(ctx, query, status, id); err != nil {
		return fmt.Errorf("updating lease status: %w", err)
	}

	return nil
}

func (t *transitionTx) UnitOccupant(ctx context.Context, unitID uuid.UUID) (*uuid.UUID, error) {
	query := `SELECT tenant_id FROM units WHERE id = $1 FOR UPDATE`

	var occupant *uuid.UUID
	if err := t.tx.QueryRowContext(ctx, query, unitID).Scan(&occupant); err != nil {
		return nil, fmt.Errorf("reading unit occupant: %w", err)
	}

	return occupant, nil
}

// SetUnitOccupant binds or unbinds the unit's tenant. Status and tenant move
// together so occupied ⇔ tenant non-null holds after every write.
func (t *transitionTx) SetUnitOccupant(ctx context.Context, unitID uuid.UUID, tenantID *uuid.UUID) error {
	query := `
		UPDATE units
		SET tenant_id = $1,
		    status = CASE WHEN $1::uuid IS NULL THEN 'vacant' ELSE 'occupied' END,
		    updated_at = NOW()
		WHERE id = $2
	`

	if _, err := t.tx.ExecContext(ctx, query, tenantID, unitID); err != nil {
		return fmt.Errorf("updating unit occupant: %w", err)
	}

	return nil
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) ActiveLeaseRent(ctx context.Context, tenantID uuid.UUID) (int64, bool, error) {
	query := `
		SELECT rent_amount
		FROM leases
		WHERE tenant_id = $1 AND status = 'active'
		ORDER BY created_at DESC
		LIMIT 1
	`

	var rent int64

	err := s.db.QueryRowContext(ctx, query, tenantID).Scan(&rent)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}

		return 0, false, fmt.Errorf("fetching active lease rent: %w", err)
	}

	return rent, true, nil
}

func (s *Store) PaymentCountSince(ctx context.Context, tenantID uuid.UUID, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM payments
		WHERE tenant_id = $1 AND created_at >= $2
	`

	var count int
	if err := s.db.QueryRowContext(ctx, query, tenantID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting recent payments: %w", err)
	}

	return count, nil
}

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// FindUnitMatch resolves a statement narrative to a unit via learned
// substring patterns. Longer patterns win so "JOHN DOE RENT A4" beats "RENT".
func (s *Store) FindUnitMatch(ctx context.Context, narrative string) (*uuid.UUID, error) {
	query := `
		SELECT unit_id
		FROM narrative_mappings
		WHERE $1 ILIKE '%' || raw_pattern || '%'
		ORDER BY LENGTH(raw_pattern) DESC, created_at DESC
		LIMIT 1
	`

	var unitID uuid.UUID

	err := s.db.QueryRowContext(ctx, query, narrative).Scan(&unitID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, fmt.Errorf("finding narrative match: %w", err)
	}

	return &unitID, nil
}

func (s *Store) CreateMapping(ctx context.Context, rawPattern string, unitID uuid.UUID) error {
	query := `
		INSERT INTO narrative_mappings (raw_pattern, unit_id, created_at)
		VALUES ($1, $2, NOW())
	`

	_, err := s.db.ExecContext(ctx, query, rawPattern, unitID)
	if err != nil {
		return fmt.Errorf("creating narrative mapping: %w", err)
	}

	return nil
}

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// Store resolves user contact details for notification delivery.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) PhoneFor(ctx context.Context, userID uuid.UUID) (string, error) {
	query := `SELECT phone FROM users WHERE id = $1`

	var phone sql.NullString

	err := s.db.QueryRowContext(ctx, query, userID).Scan(&phone)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("user %s not found", userID)
		}

		return "", fmt.Errorf("looking up phone: %w", err)
	}

	if !phone.Valid || phone.String == "" {
		return "", fmt.Errorf("user %s has no phone on file", userID)
	}

	return phone.String, nil
}

package statement

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/kodipay/kodipay/internal/payment"
)

//go:generate mockgen -source=service.go -destination=service_mock.go -package=statement
type Repository interface {
	// FindUnitMatch resolves a statement narrative to a unit using learned
	// mappings. Returns nil without error when nothing matches.
	FindUnitMatch(ctx context.Context, narrative string) (*uuid.UUID, error)
	CreateMapping(ctx context.Context, rawPattern string, unitID uuid.UUID) error
}

// Reconciler applies a settlement outcome to a tracked payment. Satisfied by
// the payment service.
type Reconciler interface {
	Reconcile(ctx context.Context, out payment.Outcome) (*payment.ReconcileResult, error)
}

type Service struct {
	parser     *Parser
	repo       Repository
	reconciler Reconciler
}

func NewService(repo Repository, reconciler Reconciler) *Service {
	return &Service{
		parser:     NewParser(),
		repo:       repo,
		reconciler: reconciler,
	}
}

// UnmatchedRow is a credit the import could not tie to a tracked payment,
// with a unit suggestion from learned narrative mappings when one exists.
type UnmatchedRow struct {
	Row             Row
	SuggestedUnitID *uuid.UUID
}

type ImportResult struct {
	Settled        int
	AlreadySettled int
	Unmatched      []UnmatchedRow
}

// Import parses a statement export and reconciles each credit against tracked
// payments by receipt reference. Credits the system never asked for are
// collected as unmatched rather than turned into records; debits are ignored.
func (s *Service) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	rows, err := s.parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing statement: %w", err)
	}

	result := &ImportResult{}

	for _, row := range rows {
		if row.Direction != DirectionCredit {
			continue
		}

		if row.Reference == "" {
			result.Unmatched = append(result.Unmatched, s.unmatched(ctx, row))
			continue
		}

		res, err := s.reconciler.Reconcile(ctx, payment.Outcome{
			CorrelationKey: row.Reference,
			Success:        true,
			ReceiptRef:     row.Reference,
		})
		if err != nil {
			if errors.Is(err, payment.ErrUnknownPayment) {
				result.Unmatched = append(result.Unmatched, s.unmatched(ctx, row))
				continue
			}

			return nil, fmt.Errorf("reconciling statement row %q: %w", row.Reference, err)
		}

		if res.AlreadySettled {
			result.AlreadySettled++
		} else {
			result.Settled++
		}
	}

	slog.Info("statement import finished",
		"settled", result.Settled,
		"already_settled", result.AlreadySettled,
		"unmatched", len(result.Unmatched))

	return result, nil
}

// Learn remembers that narratives containing rawPattern belong to the given
// unit, so future imports can suggest where an unmatched credit came from.
func (s *Service) Learn(ctx context.Context, rawPattern string, unitID uuid.UUID) error {
	return s.repo.CreateMapping(ctx, rawPattern, unitID)
}

func (s *Service) unmatched(ctx context.Context, row Row) UnmatchedRow {
	unitID, err := s.repo.FindUnitMatch(ctx, row.Description)
	if err != nil {
		slog.Error("narrative match lookup failed", "narrative", row.Description, "error", err)
		return UnmatchedRow{Row: row}
	}

	return UnmatchedRow{Row: row, SuggestedUnitID: unitID}
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/kodipay/kodipay/internal/fraud"
	"github.com/kodipay/kodipay/internal/payment"
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

// Expected column order: id, tenant_id, unit_id, amount, payment_method, status,
// transaction_ref, correlation_key, fraud_status, fraud_score, fraud_flags,
// created_at, updated_at
func scanPayment(s scanner) (*payment.Payment, error) {
	var p payment.Payment

	var methodStr, statusStr, fraudStr string

	var flagsRaw []byte

	if err := s.Scan(
		&p.ID, &p.TenantID, &p.UnitID, &p.Amount, &methodStr, &statusStr,
		&p.TransactionRef, &p.CorrelationKey, &fraudStr, &p.FraudScore, &flagsRaw,
		&p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	p.Method = payment.Method(methodStr)
	p.Status = payment.Status(statusStr)
	p.FraudStatus = fraud.Status(fraudStr)

	if len(flagsRaw) > 0 {
		if err := json.Unmarshal(flagsRaw, &p.FraudFlags); err != nil {
			return nil, fmt.Errorf("decoding fraud flags: %w", err)
		}
	}

	return &p, nil
}

const selectPaymentColumns = `
	p.id, p.tenant_id, p.unit_id, p.amount, p.payment_method, p.status,
	p.transaction_ref, p.correlation_key, p.fraud_status, p.fraud_score,
	p.fraud_flags, p.created_at, p.updated_at
`

func (s *Store) CreatePayment(ctx context.Context, p *payment.Payment) error {
	flags, err := json.Marshal(p.FraudFlags)
	if err != nil {
		return fmt.Errorf("encoding fraud flags: %w", err)
	}

	query := `
		INSERT INTO payments (tenant_id, unit_id, amount, payment_method, status, transaction_ref, correlation_key, fraud_status, fraud_score, fraud_flags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err = s.db.QueryRowContext(ctx, query,
		p.TenantID,
		p.UnitID,
		p.Amount,
		p.Method,
		p.Status,
		p.TransactionRef,
		p.CorrelationKey,
		p.FraudStatus,
		p.FraudScore,
		flags,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating payment: %w", err)
	}

	return nil
}

func (s *Store) GetPayment(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	query := `SELECT ` + selectPaymentColumns + ` FROM payments p WHERE p.id = $1`

	p, err := scanPayment(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, payment.ErrNotFound
		}

		return nil, fmt.Errorf("getting payment: %w", err)
	}

	return p, nil
}

// GetByTransactionRef resolves a gateway reference to its payment. Matching
// the immutable correlation key as well keeps redelivered callbacks resolvable
// after settlement rotates transaction_ref to the receipt number.
func (s *Store) GetByTransactionRef(ctx context.Context, ref string) (*payment.Payment, error) {
	query := `SELECT ` + selectPaymentColumns + ` FROM payments p WHERE p.transaction_ref = $1 OR p.correlation_key = $1`

	p, err := scanPayment(s.db.QueryRowContext(ctx, query, ref))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, payment.ErrNotFound
		}

		return nil, fmt.Errorf("getting payment by ref: %w", err)
	}

	return p, nil
}

func (s *Store) ListPayments(ctx context.Context, filter payment.ListFilter) ([]*payment.Payment, error) {
	query := `SELECT ` + selectPaymentColumns + ` FROM payments p WHERE 1=1`

	var args []any

	argIdx := 1

	if filter.TenantID != nil {
		query += fmt.Sprintf(" AND p.tenant_id = $%d", argIdx)

		args = append(args, *filter.TenantID)
		argIdx++
	}

	if filter.UnitID != nil {
		query += fmt.Sprintf(" AND p.unit_id = $%d", argIdx)

		args = append(args, *filter.UnitID)
		argIdx++
	}

	if filter.Status != nil {
		query += fmt.Sprintf(" AND p.status = $%d", argIdx)

		args = append(args, *filter.Status)
		argIdx++
	}

	query += " ORDER BY p.created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}
	defer rows.Close()

	var payments []*payment.Payment

	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning payment: %w", err)
		}

		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating payment rows: %w", err)
	}

	return payments, nil
}

// SettleIfPending is the single terminal write for a payment. The status
// guard in the WHERE clause makes concurrent reconciliation attempts race
// safely: exactly one UPDATE matches, the rest see zero rows.
func (s *Store) SettleIfPending(ctx context.Context, ref string, status payment.Status, finalRef string) (bool, error) {
	query := `
		UPDATE payments
		SET status = $1, transaction_ref = $2, updated_at = NOW()
		WHERE correlation_key = $3 AND status = 'pending'
	`

	res, err := s.db.ExecContext(ctx, query, status, finalRef, ref)
	if err != nil {
		return false, fmt.Errorf("settling payment: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading settle result: %w", err)
	}

	return affected == 1, nil
}

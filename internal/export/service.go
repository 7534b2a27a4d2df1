package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/kodipay/kodipay/internal/payment"
)

// PaymentLister is the slice of the payment service the exporter needs.
type PaymentLister interface {
	List(ctx context.Context, filter payment.ListFilter) ([]*payment.Payment, error)
}

// Service renders payment records as CSV reports for landlords and
// bookkeeping.
type Service struct {
	payments PaymentLister
}

func NewService(payments PaymentLister) *Service {
	return &Service{payments: payments}
}

var csvHeader = []string{
	"date", "payment_id", "tenant_id", "unit_id", "amount_kes",
	"method", "status", "reference", "fraud_status",
}

// CSV writes all payments matching the filter to w, newest first.
func (s *Service) CSV(ctx context.Context, filter payment.ListFilter, w io.Writer) error {
	payments, err := s.payments.List(ctx, filter)
	if err != nil {
		return fmt.Errorf("listing payments: %w", err)
	}

	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, p := range payments {
		record := []string{
			p.CreatedAt.Format("2006-01-02"),
			p.ID.String(),
			p.TenantID.String(),
			p.UnitID.String(),
			strconv.FormatInt(p.Amount, 10),
			string(p.Method),
			string(p.Status),
			p.TransactionRef,
			string(p.FraudStatus),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing payment %s: %w", p.ID, err)
		}
	}

	cw.Flush()

	return cw.Error()
}

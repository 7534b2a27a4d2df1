package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kodipay/kodipay/internal/payment"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *Store) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	return db, mock, New(db)
}

var paymentColumns = []string{
	"id", "tenant_id", "unit_id", "amount", "payment_method", "status",
	"transaction_ref", "correlation_key", "fraud_status", "fraud_score",
	"fraud_flags", "created_at", "updated_at",
}

func TestCreatePayment(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO payments`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), int64(5000), "mpesa", "pending",
			"ws_CO_123", "ws_CO_123", "review", 60, []byte(`["unusually high payment amount"]`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(id.String(), now, now))

	p := &payment.Payment{
		TenantID:       uuid.New(),
		UnitID:         uuid.New(),
		Amount:         5000,
		Method:         payment.MethodMpesa,
		Status:         payment.StatusPending,
		TransactionRef: "ws_CO_123",
		CorrelationKey: "ws_CO_123",
		FraudStatus:    "review",
		FraudScore:     60,
		FraudFlags:     []string{"unusually high payment amount"},
	}
	err := store.CreatePayment(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, id, p.ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByTransactionRef(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		db, mock, store := setupMockDB(t)
		defer db.Close()

		id := uuid.New()
		now := time.Now()

		rows := sqlmock.NewRows(paymentColumns).
			AddRow(id.String(), uuid.NewString(), uuid.NewString(), int64(5000), "mpesa", "completed",
				"QHX12345", "ws_CO_123", "approved", 0, []byte(`[]`), now, now)

		mock.ExpectQuery(`SELECT(.|\n)+FROM payments p WHERE p\.transaction_ref = \$1 OR p\.correlation_key = \$1`).
			WithArgs("ws_CO_123").
			WillReturnRows(rows)

		p, err := store.GetByTransactionRef(context.Background(), "ws_CO_123")
		require.NoError(t, err)
		assert.Equal(t, id, p.ID)
		assert.Equal(t, payment.StatusCompleted, p.Status)
		assert.Equal(t, "QHX12345", p.TransactionRef)
		assert.Equal(t, "ws_CO_123", p.CorrelationKey)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		db, mock, store := setupMockDB(t)
		defer db.Close()

		mock.ExpectQuery(`SELECT(.|\n)+FROM payments p`).
			WithArgs("ws_CO_missing").
			WillReturnError(sql.ErrNoRows)

		p, err := store.GetByTransactionRef(context.Background(), "ws_CO_missing")
		assert.Nil(t, p)
		assert.ErrorIs(t, err, payment.ErrNotFound)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSettleIfPending(t *testing.T) {
	t.Run("PendingRowSettles", func(t *testing.T) {
		db, mock, store := setupMockDB(t)
		defer db.Close()

		mock.ExpectExec(`UPDATE payments`).
			WithArgs("completed", "QHX12345", "ws_CO_123").
			WillReturnResult(sqlmock.NewResult(0, 1))

		settled, err := store.SettleIfPending(context.Background(), "ws_CO_123", payment.StatusCompleted, "QHX12345")
		require.NoError(t, err)
		assert.True(t, settled)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("AlreadySettledMatchesNothing", func(t *testing.T) {
		db, mock, store := setupMockDB(t)
		defer db.Close()

		mock.ExpectExec(`UPDATE payments`).
			WithArgs("completed", "QHX12345", "ws_CO_123").
			WillReturnResult(sqlmock.NewResult(0, 0))

		settled, err := store.SettleIfPending(context.Background(), "ws_CO_123", payment.StatusCompleted, "QHX12345")
		require.NoError(t, err)
		assert.False(t, settled)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListPayments(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	tenantID := uuid.New()
	status := payment.StatusCompleted
	now := time.Now()

	rows := sqlmock.NewRows(paymentColumns).
		AddRow(uuid.NewString(), tenantID.String(), uuid.NewString(), int64(5000), "mpesa", "completed",
			"QHX12345", "ws_CO_123", "approved", 0, []byte(`[]`), now, now)

	mock.ExpectQuery(`SELECT(.|\n)+FROM payments p WHERE 1=1 AND p\.tenant_id = \$1 AND p\.status = \$2`).
		WithArgs(tenantID, status).
		WillReturnRows(rows)

	payments, err := store.ListPayments(context.Background(), payment.ListFilter{
		TenantID: &tenantID,
		Status:   &status,
	})
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, tenantID, payments[0].TenantID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

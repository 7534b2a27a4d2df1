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

	"github.com/kodipay/kodipay/internal/lease"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *Store) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	return db, mock, New(db)
}

var leaseColumns = []string{
	"id", "unit_id", "tenant_id", "rent_amount", "start_date", "end_date",
	"terms", "status", "created_at", "updated_at",
}

func leaseRow(id, unitID, tenantID uuid.UUID, status string) *sqlmock.Rows {
	now := time.Now()

	return sqlmock.NewRows(leaseColumns).
		AddRow(id.String(), unitID.String(), tenantID.String(), int64(5000),
			now, now.AddDate(1, 0, 0), "standard terms", status, now, now)
}

func TestGetLease(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		db, mock, store := setupMockDB(t)
		defer db.Close()

		id := uuid.New()

		mock.ExpectQuery(`SELECT(.|\n)+FROM leases l WHERE l\.id = \$1`).
			WithArgs(id).
			WillReturnRows(leaseRow(id, uuid.New(), uuid.New(), "pending"))

		l, err := store.GetLease(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, id, l.ID)
		assert.Equal(t, lease.StatusPending, l.Status)
		assert.Equal(t, "standard terms", l.Terms)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		db, mock, store := setupMockDB(t)
		defer db.Close()

		id := uuid.New()

		mock.ExpectQuery(`SELECT(.|\n)+FROM leases l`).
			WithArgs(id).
			WillReturnError(sql.ErrNoRows)

		l, err := store.GetLease(context.Background(), id)
		assert.Nil(t, l)
		assert.ErrorIs(t, err, lease.ErrNotFound)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// Exercises the full sign sequence: lock the lease, lock the unit, check for
// a competing active lease, flip lease and unit, commit. The unit lock must
// precede the active check so concurrent signs on the same unit serialize.
func TestTransitionTx_SignSequence(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	leaseID := uuid.New()
	unitID := uuid.New()
	tenantID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT(.|\n)+FROM leases l WHERE l\.id = \$1 FOR UPDATE`).
		WithArgs(leaseID).
		WillReturnRows(leaseRow(leaseID, unitID, tenantID, "pending"))
	mock.ExpectQuery(`SELECT tenant_id FROM units WHERE id = \$1 FOR UPDATE`).
		WithArgs(unitID).
		WillReturnRows(sqlmock.NewRows([]string{"tenant_id"}).AddRow(nil))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(unitID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`UPDATE leases`).
		WithArgs("active", leaseID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE units`).
		WithArgs(&tenantID, unitID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ctx := context.Background()

	tx, err := store.BeginTransition(ctx)
	require.NoError(t, err)

	l, err := tx.GetLeaseForUpdate(ctx, leaseID)
	require.NoError(t, err)
	assert.Equal(t, lease.StatusPending, l.Status)

	occupant, err := tx.UnitOccupant(ctx, unitID)
	require.NoError(t, err)
	assert.Nil(t, occupant)

	active, err := tx.ActiveLeaseExists(ctx, unitID)
	require.NoError(t, err)
	assert.False(t, active)

	require.NoError(t, tx.UpdateLeaseStatus(ctx, leaseID, lease.StatusActive))
	require.NoError(t, tx.SetUnitOccupant(ctx, unitID, &tenantID))
	require.NoError(t, tx.Commit())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionTx_RollbackOnLockedLeaseMissing(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	leaseID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT(.|\n)+FOR UPDATE`).
		WithArgs(leaseID).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	ctx := context.Background()

	tx, err := store.BeginTransition(ctx)
	require.NoError(t, err)

	_, err = tx.GetLeaseForUpdate(ctx, leaseID)
	assert.ErrorIs(t, err, lease.ErrNotFound)

	require.NoError(t, tx.Rollback())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionTx_UnitOccupant(t *testing.T) {
	t.Run("Occupied", func(t *testing.T) {
		db, mock, store := setupMockDB(t)
		defer db.Close()

		unitID := uuid.New()
		tenantID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT tenant_id FROM units WHERE id = \$1 FOR UPDATE`).
			WithArgs(unitID).
			WillReturnRows(sqlmock.NewRows([]string{"tenant_id"}).AddRow(tenantID.String()))
		mock.ExpectRollback()

		ctx := context.Background()

		tx, err := store.BeginTransition(ctx)
		require.NoError(t, err)

		occupant, err := tx.UnitOccupant(ctx, unitID)
		require.NoError(t, err)
		require.NotNil(t, occupant)
		assert.Equal(t, tenantID, *occupant)

		require.NoError(t, tx.Rollback())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Vacant", func(t *testing.T) {
		db, mock, store := setupMockDB(t)
		defer db.Close()

		unitID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT tenant_id FROM units`).
			WithArgs(unitID).
			WillReturnRows(sqlmock.NewRows([]string{"tenant_id"}).AddRow(nil))
		mock.ExpectRollback()

		ctx := context.Background()

		tx, err := store.BeginTransition(ctx)
		require.NoError(t, err)

		occupant, err := tx.UnitOccupant(ctx, unitID)
		require.NoError(t, err)
		assert.Nil(t, occupant)

		require.NoError(t, tx.Rollback())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

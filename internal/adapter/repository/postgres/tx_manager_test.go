package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTxManager_Begin(t *testing.T) {
	ctx := context.Background()

	t.Run("commit then deferred rollback", func(t *testing.T) {
		mockPool := newMockPool(t)
		mockPool.ExpectBeginTx(pgx.TxOptions{})
		mockPool.ExpectCommit()

		tx, err := newTxManagerWithPool(mockPool).Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, tx.Commit(ctx))

		assert.NoError(t, tx.Rollback(ctx), "rollback after commit is a no-op")
		assertExpectations(t, mockPool)
	})

	t.Run("rollback twice reaches the driver once", func(t *testing.T) {
		mockPool := newMockPool(t)
		mockPool.ExpectBeginTx(pgx.TxOptions{})
		mockPool.ExpectRollback()

		tx, err := newTxManagerWithPool(mockPool).Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, tx.Rollback(ctx))
		assert.NoError(t, tx.Rollback(ctx))
		assertExpectations(t, mockPool)
	})

	t.Run("isolation level option", func(t *testing.T) {
		mockPool := newMockPool(t)
		mockPool.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.Serializable})
		mockPool.ExpectRollback()

		manager := newTxManagerWithPool(mockPool, WithIsolationLevel(pgx.Serializable))
		tx, err := manager.Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, tx.Rollback(ctx))

		assertExpectations(t, mockPool)
	})

	t.Run("begin error is wrapped", func(t *testing.T) {
		mockPool := newMockPool(t)
		mockErr := errors.New("begin failed")
		mockPool.ExpectBeginTx(pgx.TxOptions{}).WillReturnError(mockErr)

		tx, err := newTxManagerWithPool(mockPool).Begin(ctx)
		assert.ErrorIs(t, err, mockErr)
		assert.Nil(t, tx)
	})

	t.Run("commit error is wrapped", func(t *testing.T) {
		mockPool := newMockPool(t)
		mockErr := errors.New("serialization failure")
		mockPool.ExpectBeginTx(pgx.TxOptions{})
		mockPool.ExpectCommit().WillReturnError(mockErr)

		tx, err := newTxManagerWithPool(mockPool).Begin(ctx)
		require.NoError(t, err)
		assert.ErrorIs(t, tx.Commit(ctx), mockErr)
		assert.NoError(t, tx.Rollback(ctx))
		assertExpectations(t, mockPool)
	})
}

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	pool, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create pgxmock pool")
	t.Cleanup(pool.Close)
	return pool
}

func assertExpectations(t *testing.T, pool pgxmock.PgxPoolIface) {
	t.Helper()
	assert.NoError(t, pool.ExpectationsWereMet(), "expectations were not met")
}

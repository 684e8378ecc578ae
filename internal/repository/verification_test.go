package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerificationRepository_GetByTokenForUpdate(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewVerificationRepository(db)
	expires := time.Now().Add(time.Minute)

	mock.ExpectQuery(`SELECT \* FROM "email_verifications" WHERE token = \$1 .*FOR UPDATE`).
		WithArgs("tok", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "token", "expires_at", "consumed", "created_at"}).
			AddRow(7, "jane@example.com", "tok", expires, false, time.Now()))

	v, err := repo.GetByTokenForUpdate(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, int64(7), v.ID)
	assert.False(t, v.Consumed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerificationRepository_MarkConsumed(t *testing.T) {
	ctx := context.Background()

	t.Run("Consumes once", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "email_verifications" SET "consumed"=$1 WHERE id = $2 AND consumed = $3`)).
			WithArgs(true, 7, false).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, NewVerificationRepository(db).MarkConsumed(ctx, 7))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Already consumed", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "email_verifications" SET "consumed"=$1`)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		err := NewVerificationRepository(db).MarkConsumed(ctx, 7)
		assert.ErrorIs(t, err, ErrTokenConsumed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStore_WithTx(t *testing.T) {
	ctx := context.Background()

	t.Run("commits", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "email_verifications"`)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := NewStore(db).WithTx(ctx, func(tx Store) error {
			return tx.Verifications().MarkConsumed(ctx, 1)
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		boom := errors.New("boom")
		err := NewStore(db).WithTx(ctx, func(Store) error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on panic", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		assert.Panics(t, func() {
			_ = NewStore(db).WithTx(ctx, func(Store) error { panic("boom") })
		})
		assert.NoError(t, mock.ExpectationsWereMet())
	})

}

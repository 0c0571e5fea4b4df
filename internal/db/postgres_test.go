package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*PostgresDB, pgxmock.PgxPoolIface) {
	t.Helper()
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return NewPostgresDBFromPool(pool), pool
}

func TestWithTransactionCommits(t *testing.T) {
	database, pool := newMockDB(t)

	pool.ExpectBegin()
	pool.ExpectExec("UPDATE feedback_questions").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	pool.ExpectCommit()

	err := database.WithTransaction(context.Background(), func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, "UPDATE feedback_questions SET question_text = 'x'")
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestWithTransactionRollbackKeepsCause(t *testing.T) {
	cause := &pgconn.PgError{Code: "23505", ConstraintName: "feedback_questions_session_number_key"}
	rbErr := errors.New("conn closed")

	testCases := []struct {
		name       string
		rollback   error
		wantRollbackErr bool
	}{
		{name: "rollback succeeds", rollback: nil},
		{name: "rollback fails", rollback: rbErr, wantRollbackErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			database, pool := newMockDB(t)
			pool.ExpectBegin()
			expected := pool.ExpectRollback()
			if tc.rollback != nil {
				expected.WillReturnError(tc.rollback)
			}

			err := database.WithTransaction(context.Background(), func(context.Context, pgx.Tx) error {
				return cause
			})

			var pgErr *pgconn.PgError
			require.ErrorAs(t, err, &pgErr)
			assert.Equal(t, "feedback_questions_session_number_key", pgErr.ConstraintName)
			assert.Equal(t, tc.wantRollbackErr, errors.Is(err, rbErr))
			assert.NoError(t, pool.ExpectationsWereMet())
		})
	}
}

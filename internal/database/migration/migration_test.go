package migration

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propertyapi/internal/logging"
)

func TestEnsureMigrated(t *testing.T) {
	const sentinel = `SELECT to_regclass('public.properties') IS NOT NULL`

	t.Run("skips when table exists", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta(sentinel)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		err = EnsureMigrated(context.Background(), db, logging.Discard(), "localhost")

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("runs every step when table is missing", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta(sentinel)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		for _, step := range steps {
			mock.ExpectExec(regexp.QuoteMeta(step.SQL)).WillReturnResult(sqlmock.NewResult(0, 0))
		}

		err = EnsureMigrated(context.Background(), db, logging.Discard(), "localhost")

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stops at the failing step", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta(sentinel)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec(regexp.QuoteMeta(steps[0].SQL)).WillReturnError(errors.New("permission denied"))

		err = EnsureMigrated(context.Background(), db, logging.Discard(), "localhost")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "migration step create_table_properties failed")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

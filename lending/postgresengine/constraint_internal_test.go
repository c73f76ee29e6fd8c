package postgresengine

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

func Test_SQLState_Is_Extracted_From_Both_Drivers(t *testing.T) {
	assert.Equal(t, sqlStateUniqueViolation, sqlState(&pgconn.PgError{Code: sqlStateUniqueViolation}))
	assert.Equal(t, sqlStateForeignKeyViolation, sqlState(errors.Join(ErrSavingFailed, &pq.Error{Code: sqlStateForeignKeyViolation})))
	assert.Empty(t, sqlState(errors.New("connection reset")))
}

func Test_TranslateWriteError(t *testing.T) {
	uniqueErr := &pgconn.PgError{Code: sqlStateUniqueViolation}
	foreignKeyErr := &pq.Error{Code: sqlStateForeignKeyViolation}
	otherErr := errors.New("connection reset")

	t.Run("unique violation becomes the mapped business error", func(t *testing.T) {
		err := translateWriteError(uniqueErr, loanViolations, ErrSavingFailed)

		assert.ErrorIs(t, err, lending.ErrBookAlreadyLoaned)
		assert.NotErrorIs(t, err, ErrSavingFailed)
	})

	t.Run("foreign key violation keeps the fallback", func(t *testing.T) {
		err := translateWriteError(foreignKeyErr, loanViolations, ErrSavingFailed)

		assert.ErrorIs(t, err, ErrSavingFailed)
		assert.ErrorIs(t, err, ErrReferencedRecordMissing)
	})

	t.Run("unmapped violation only gets the fallback", func(t *testing.T) {
		err := translateWriteError(foreignKeyErr, bookViolations, ErrSavingFailed)

		assert.ErrorIs(t, err, ErrSavingFailed)
		assert.NotErrorIs(t, err, ErrReferencedRecordMissing)
	})

	t.Run("other errors get the fallback", func(t *testing.T) {
		err := translateWriteError(otherErr, bookViolations, ErrDeletingFailed)

		assert.ErrorIs(t, err, ErrDeletingFailed)
		assert.ErrorIs(t, err, otherErr)
	})
}

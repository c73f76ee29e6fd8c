package postgresengine

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/testutil/helper"
)

func Test_BookStore_Save_Inserts_New_Book_And_Assigns_ID(t *testing.T) {
	// arrange
	db := newFakeDB([][]any{{int64(7)}})
	store := newTestEngine(t, db).Books()

	// act
	saved, err := store.Save(context.Background(), lending.BuildBook("As aventuras", "Fulano", "123"))

	// assert
	require.NoError(t, err)
	assert.Equal(t, lending.BookID(7), saved.ID)
	assert.Equal(t, "123", saved.ISBN)
	require.Len(t, db.queries, 1)
	assert.Contains(t, db.queries[0], `INSERT INTO "books"`)
	assert.Contains(t, db.queries[0], `RETURNING "id"`)
}

func Test_BookStore_Save_Updates_Title_And_Author_Only(t *testing.T) {
	// arrange
	db := newFakeDB([][]any{{int64(3), "New Title", "New Author", "123"}})
	store := newTestEngine(t, db).Books()
	book := lending.Book{ID: 3, Title: "New Title", Author: "New Author", ISBN: "999"}

	// act
	updated, err := store.Save(context.Background(), book)

	// assert
	require.NoError(t, err)
	assert.Equal(t, "123", updated.ISBN)
	assert.Contains(t, db.queries[0], `UPDATE "books"`)
	assert.NotContains(t, db.queries[0], "999")
}

func Test_BookStore_Save_Fails_When_Updated_Book_Does_Not_Exist(t *testing.T) {
	// arrange
	store := newTestEngine(t, newFakeDB()).Books()

	// act
	_, err := store.Save(context.Background(), lending.Book{ID: 42, Title: "T", Author: "A"})

	// assert
	assert.ErrorIs(t, err, ErrSavingFailed)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func Test_BookStore_Save_Translates_Unique_Violation_Into_DuplicateIsbn(t *testing.T) {
	// arrange
	db := newFakeDB()
	db.queryErr = &pgconn.PgError{Code: sqlStateUniqueViolation}
	metrics := helper.NewMetricsCollectorSpy(true)
	store := newTestEngine(t, db, WithMetrics(metrics)).Books()

	// act
	_, err := store.Save(context.Background(), lending.BuildBook("T", "A", "123"))

	// assert
	assert.ErrorIs(t, err, lending.ErrDuplicateIsbn)
	assert.True(t, lending.IsBusinessError(err))
	assert.True(t, metrics.HasDurationRecordForMetric(MetricStoreDuration).
		WithOperation(opBookInsert).
		WithStatus(statusRejected).
		Assert())
	assert.Equal(t, 0, metrics.CountCounterRecordsForMetric(MetricStoreErrors))
}

func Test_BookStore_Save_Translates_Unique_Violation_Reported_After_Iteration(t *testing.T) {
	// arrange
	db := newFakeDB()
	db.rowsErr = &pq.Error{Code: sqlStateUniqueViolation}
	store := newTestEngine(t, db).Books()

	// act
	_, err := store.Save(context.Background(), lending.BuildBook("T", "A", "123"))

	// assert
	assert.ErrorIs(t, err, lending.ErrDuplicateIsbn)
}

func Test_BookStore_ExistsByIsbn(t *testing.T) {
	t.Run("book with isbn exists", func(t *testing.T) {
		db := newFakeDB([][]any{{1}})
		exists, err := newTestEngine(t, db).Books().ExistsByIsbn(context.Background(), "123")

		require.NoError(t, err)
		assert.True(t, exists)
		assert.Contains(t, db.queries[0], `"isbn" = '123'`)
	})

	t.Run("no book with isbn", func(t *testing.T) {
		exists, err := newTestEngine(t, newFakeDB()).Books().ExistsByIsbn(context.Background(), "123")

		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func Test_BookStore_FindByID_Reports_Absence_Without_Error(t *testing.T) {
	// arrange
	store := newTestEngine(t, newFakeDB()).Books()

	// act
	_, found, err := store.FindByID(context.Background(), 99)

	// assert
	require.NoError(t, err)
	assert.False(t, found)
}

func Test_BookStore_FindByIsbn_Returns_Book(t *testing.T) {
	// arrange
	db := newFakeDB([][]any{{int64(5), "Dune", "Herbert", "978"}})
	store := newTestEngine(t, db).Books()

	// act
	book, found, err := store.FindByIsbn(context.Background(), "978")

	// assert
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, lending.Book{ID: 5, Title: "Dune", Author: "Herbert", ISBN: "978"}, book)
}

func Test_BookStore_Delete(t *testing.T) {
	t.Run("existing book", func(t *testing.T) {
		db := newFakeDB()
		err := newTestEngine(t, db).Books().Delete(context.Background(), lending.Book{ID: 4})

		require.NoError(t, err)
		require.Len(t, db.execs, 1)
		assert.Contains(t, db.execs[0], `DELETE FROM "books"`)
	})

	t.Run("book does not exist", func(t *testing.T) {
		db := newFakeDB()
		db.rowsAffected = 0
		metrics := helper.NewMetricsCollectorSpy(true)

		err := newTestEngine(t, db, WithMetrics(metrics)).Books().Delete(context.Background(), lending.Book{ID: 4})

		assert.ErrorIs(t, err, ErrDeletingFailed)
		assert.ErrorIs(t, err, ErrRecordNotFound)
		assert.True(t, metrics.HasCounterRecordForMetric(MetricStoreErrors).
			WithOperation(opBookDelete).
			WithErrorType(errorTypeNotFound).
			Assert())
	})

	t.Run("book is still referenced by loans", func(t *testing.T) {
		db := newFakeDB()
		db.execErr = &pgconn.PgError{Code: sqlStateForeignKeyViolation}

		err := newTestEngine(t, db).Books().Delete(context.Background(), lending.Book{ID: 4})

		assert.ErrorIs(t, err, ErrDeletingFailed)
		assert.ErrorIs(t, err, ErrRecordStillReferenced)
	})
}

func Test_BookStore_FindMatching_Returns_Page_With_Total(t *testing.T) {
	// arrange
	db := newFakeDB(
		[][]any{
			{int64(1), "Dune", "Herbert", "978-1"},
			{int64(2), "Dune", "Herbert", "978-2"},
		},
		[][]any{{int64(12)}},
	)
	store := newTestEngine(t, db).Books()

	// act
	page, err := store.FindMatching(
		context.Background(),
		lending.Book{Title: "Dune"},
		lending.BuildPageRequest(2, 5),
	)

	// assert
	require.NoError(t, err)
	assert.Len(t, page.Content, 2)
	assert.Equal(t, int64(12), page.TotalElements)
	require.Len(t, db.queries, 2)
	assert.Contains(t, db.queries[0], `"title" = 'Dune'`)
	assert.Contains(t, db.queries[0], "LIMIT 5 OFFSET 10")
	assert.NotContains(t, db.queries[0], `"author"`+" =")
	assert.Contains(t, db.queries[1], "COUNT(*)")
}

func Test_BookStore_FindMatching_Without_Filter_Has_No_Where_Clause(t *testing.T) {
	// arrange
	db := newFakeDB([][]any{}, [][]any{{int64(0)}})
	store := newTestEngine(t, db).Books()

	// act
	page, err := store.FindMatching(context.Background(), lending.Book{}, lending.BuildPageRequest(0, 10))

	// assert
	require.NoError(t, err)
	assert.Empty(t, page.Content)
	assert.NotContains(t, db.queries[0], "WHERE")
	assert.NotContains(t, db.queries[1], "WHERE")
}

func Test_BookStore_FindMatching_Reads_From_Replica_Under_Eventual_Consistency(t *testing.T) {
	// arrange
	db := newFakeDB([][]any{}, [][]any{{int64(0)}})
	store := newTestEngine(t, db).Books()
	ctx := lending.WithEventualConsistency(context.Background())

	// act
	_, err := store.FindMatching(ctx, lending.Book{}, lending.BuildPageRequest(0, 10))

	// assert
	require.NoError(t, err)
	assert.Empty(t, db.queries)
	assert.Len(t, db.replicaQueries, 2)
}

func Test_BookStore_Uses_Configured_Table_Name(t *testing.T) {
	// arrange
	db := newFakeDB()
	store := newTestEngine(t, db, WithBookTableName("catalog_books")).Books()

	// act
	_, _, err := store.FindByID(context.Background(), 1)

	// assert
	require.NoError(t, err)
	assert.Contains(t, db.queries[0], `FROM "catalog_books"`)
}

func newTestEngine(t *testing.T, db *fakeDB, options ...Option) *Engine {
	t.Helper()

	engine, err := newEngine(db, options...)
	require.NoError(t, err)

	return engine
}

package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/postgresengine/internal/adapters"
)

const (
	actionQuery = "query"
	actionWrite = "write"
)

// Engine owns the database connection and the configuration shared by the book and loan stores.
type Engine struct {
	db               adapters.DBAdapter
	queries          queryBuilder
	logger           lending.Logger
	contextualLogger lending.ContextualLogger
	metricsCollector lending.MetricsCollector
	tracingCollector lending.TracingCollector
}

// NewEngineFromPGXPool creates a new Engine using a pgx Pool with optional configuration.
func NewEngineFromPGXPool(db *pgxpool.Pool, options ...Option) (*Engine, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewPGXAdapter(db), options...)
}

// NewEngineFromPGXPoolAndReplica creates a new Engine using a primary and a replica pgx Pool.
// Eventually consistent reads go to the replica.
func NewEngineFromPGXPoolAndReplica(db *pgxpool.Pool, replica *pgxpool.Pool, options ...Option) (*Engine, error) {
	if db == nil || replica == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewPGXAdapterWithReplica(db, replica), options...)
}

// NewEngineFromSQLDB creates a new Engine using a sql.DB with optional configuration.
func NewEngineFromSQLDB(db *sql.DB, options ...Option) (*Engine, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewSQLAdapter(db), options...)
}

// NewEngineFromSQLX creates a new Engine using a sqlx.DB with optional configuration.
func NewEngineFromSQLX(db *sqlx.DB, options ...Option) (*Engine, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewSQLXAdapter(db), options...)
}

// NewEngineFromSQLXAndReplica creates a new Engine using a primary and a replica sqlx.DB.
func NewEngineFromSQLXAndReplica(db *sqlx.DB, replica *sqlx.DB, options ...Option) (*Engine, error) {
	if db == nil || replica == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewSQLXAdapterWithReplica(db, replica), options...)
}

func newEngine(db adapters.DBAdapter, options ...Option) (*Engine, error) {
	e := &Engine{
		db:      db,
		queries: newQueryBuilder(),
	}

	for _, option := range options {
		if err := option(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Books returns the lending.BookStore backed by this Engine.
func (e *Engine) Books() BookStore {
	return BookStore{engine: e}
}

// Loans returns the lending.LoanStore backed by this Engine.
func (e *Engine) Loans() LoanStore {
	return LoanStore{engine: e}
}

// read runs a select statement on the primary or, under eventual consistency, on the replica.
func (e *Engine) read(ctx context.Context, sqlQuery sqlQueryString) (adapters.DBRows, error) {
	query := e.db.Query
	if lending.GetConsistencyLevel(ctx) == lending.EventualConsistency {
		query = e.db.QueryReplica
	}

	start := time.Now()
	rows, err := query(ctx, sqlQuery)
	e.logQueryWithDuration(ctx, sqlQuery, actionQuery, time.Since(start))

	if err != nil {
		return nil, errors.Join(ErrQueryingFailed, err)
	}

	return rows, nil
}

// writeReturning runs an INSERT/UPDATE ... RETURNING statement on the primary.
// The returned error is unwrapped so that callers can classify constraint violations.
func (e *Engine) writeReturning(ctx context.Context, sqlQuery sqlQueryString) (adapters.DBRows, error) {
	start := time.Now()
	rows, err := e.db.Query(ctx, sqlQuery)
	e.logQueryWithDuration(ctx, sqlQuery, actionWrite, time.Since(start))

	return rows, err
}

// exec runs a statement without result rows on the primary.
func (e *Engine) exec(ctx context.Context, sqlQuery sqlQueryString) (int64, error) {
	start := time.Now()
	result, err := e.db.Exec(ctx, sqlQuery)
	e.logQueryWithDuration(ctx, sqlQuery, actionWrite, time.Since(start))

	if err != nil {
		return 0, err
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		return 0, errors.Join(ErrGettingRowsAffectedFailed, rowsAffectedErr)
	}

	return rowsAffected, nil
}

// closeRows safely closes database rows and logs any errors.
func (e *Engine) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		e.logWarn(ctx, logMsgCloseRowsFailed, closeErr)
	}
}

// collect scans all rows and closes them. Errors reported only after iteration are returned as well.
func collect[T any](
	ctx context.Context,
	e *Engine,
	rows adapters.DBRows,
	scan func(rows adapters.DBRows) (T, error),
) ([]T, error) {

	defer e.closeRows(ctx, rows)

	result := make([]T, 0)

	for rows.Next() {
		item, scanErr := scan(rows)
		if scanErr != nil {
			return nil, errors.Join(ErrScanningDBRowFailed, scanErr)
		}

		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (e *Engine) exists(ctx context.Context, sqlQuery sqlQueryString) (bool, error) {
	rows, err := e.read(ctx, sqlQuery)
	if err != nil {
		return false, err
	}

	found, collectErr := collect(ctx, e, rows, func(rows adapters.DBRows) (int, error) {
		var one int
		err := rows.Scan(&one)

		return one, err
	})
	if collectErr != nil {
		return false, errors.Join(ErrQueryingFailed, collectErr)
	}

	return len(found) > 0, nil
}

func (e *Engine) count(ctx context.Context, sqlQuery sqlQueryString) (int64, error) {
	rows, err := e.read(ctx, sqlQuery)
	if err != nil {
		return 0, err
	}

	counts, collectErr := collect(ctx, e, rows, func(rows adapters.DBRows) (int64, error) {
		var total int64
		err := rows.Scan(&total)

		return total, err
	})
	if collectErr != nil {
		return 0, errors.Join(ErrQueryingFailed, collectErr)
	}

	if len(counts) == 0 {
		return 0, nil
	}

	return counts[0], nil
}

func scanID(rows adapters.DBRows) (int64, error) {
	var id int64
	err := rows.Scan(&id)

	return id, err
}

// writeAndCollect runs a write with RETURNING clause and scans the returned rows.
// Constraint violations are translated according to mapping.
func writeAndCollect[T any](
	ctx context.Context,
	e *Engine,
	sqlQuery sqlQueryString,
	mapping violationMapping,
	scan func(rows adapters.DBRows) (T, error),
) ([]T, error) {

	rows, err := e.writeReturning(ctx, sqlQuery)
	if err != nil {
		return nil, translateWriteError(err, mapping, ErrSavingFailed)
	}

	items, collectErr := collect(ctx, e, rows, scan)
	if collectErr != nil {
		return nil, translateWriteError(collectErr, mapping, ErrSavingFailed)
	}

	return items, nil
}

// readAndCollect runs a select statement and scans all rows.
func readAndCollect[T any](
	ctx context.Context,
	e *Engine,
	sqlQuery sqlQueryString,
	scan func(rows adapters.DBRows) (T, error),
) ([]T, error) {

	rows, err := e.read(ctx, sqlQuery)
	if err != nil {
		return nil, err
	}

	items, collectErr := collect(ctx, e, rows, scan)
	if collectErr != nil {
		return nil, errors.Join(ErrQueryingFailed, collectErr)
	}

	return items, nil
}

// Package postgreswrapper creates lending stores on the test database for integration tests.
//
// The connection type is selected by the ADAPTER_TYPE environment variable (pgxpool, sqldb, sqlx;
// pgxpool by default). Tests are skipped when the test database is not reachable.
package postgreswrapper

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/config"
	"github.com/AntonStoeckl/library-lending-go/lending/postgresengine"
)

// Adapter type constants
const (
	typePGXPool = "pgxpool"
	typeSQLDB   = "sqldb"
	typeSQLX    = "sqlx"

	pingTimeout = 2 * time.Second
)

// Wrapper abstracts over the different connection types.
type Wrapper interface {
	Engine() *postgresengine.Engine
	Exec(ctx context.Context, statement string) error
	Close()
}

// PGXPoolWrapper wraps pgxpool-based testing
type PGXPoolWrapper struct {
	pool   *pgxpool.Pool
	engine *postgresengine.Engine
}

func (w *PGXPoolWrapper) Engine() *postgresengine.Engine {
	return w.engine
}

func (w *PGXPoolWrapper) Exec(ctx context.Context, statement string) error {
	_, err := w.pool.Exec(ctx, statement)
	return err
}

func (w *PGXPoolWrapper) Close() {
	w.pool.Close()
}

// SQLDBWrapper wraps sql.DB-based testing
type SQLDBWrapper struct {
	db     *sql.DB
	engine *postgresengine.Engine
}

func (w *SQLDBWrapper) Engine() *postgresengine.Engine {
	return w.engine
}

func (w *SQLDBWrapper) Exec(ctx context.Context, statement string) error {
	_, err := w.db.ExecContext(ctx, statement)
	return err
}

func (w *SQLDBWrapper) Close() {
	_ = w.db.Close() // ignore error
}

// SQLXWrapper wraps sqlx.DB-based testing
type SQLXWrapper struct {
	db     *sqlx.DB
	engine *postgresengine.Engine
}

func (w *SQLXWrapper) Engine() *postgresengine.Engine {
	return w.engine
}

func (w *SQLXWrapper) Exec(ctx context.Context, statement string) error {
	_, err := w.db.ExecContext(ctx, statement)
	return err
}

func (w *SQLXWrapper) Close() {
	_ = w.db.Close() // ignore error
}

// CreateWrapperWithTestConfig creates the wrapper selected by ADAPTER_TYPE, migrates the schema
// and registers Close as test cleanup.
func CreateWrapperWithTestConfig(t testing.TB, options ...postgresengine.Option) Wrapper {
	t.Helper()

	ctx := context.Background()
	adapterTypeFromEnv := strings.ToLower(os.Getenv("ADAPTER_TYPE"))

	var wrapper Wrapper

	switch adapterTypeFromEnv {
	case typePGXPool, "":
		pool, err := pgxpool.NewWithConfig(ctx, config.PostgresPGXPoolTestConfig())
		require.NoError(t, err, "error connecting to DB pool in test setup")
		skipIfUnreachable(t, func(ctx context.Context) error { return pool.Ping(ctx) }, pool.Close)

		engine, err := postgresengine.NewEngineFromPGXPool(pool, options...)
		require.NoError(t, err, "error creating engine in test setup")
		wrapper = &PGXPoolWrapper{pool: pool, engine: engine}

	case typeSQLDB:
		db, err := config.PostgresSQLDBTestConfig()
		require.NoError(t, err, "error opening DB in test setup")
		skipIfUnreachable(t, db.PingContext, func() { _ = db.Close() })

		engine, err := postgresengine.NewEngineFromSQLDB(db, options...)
		require.NoError(t, err, "error creating engine in test setup")
		wrapper = &SQLDBWrapper{db: db, engine: engine}

	case typeSQLX:
		db, err := config.PostgresSQLXTestConfig()
		require.NoError(t, err, "error opening DB in test setup")
		skipIfUnreachable(t, db.PingContext, func() { _ = db.Close() })

		engine, err := postgresengine.NewEngineFromSQLX(db, options...)
		require.NoError(t, err, "error creating engine in test setup")
		wrapper = &SQLXWrapper{db: db, engine: engine}

	default: // neither one of the known types nor empty
		panic(fmt.Sprintf("unsupported wrapper type from env: %s", adapterTypeFromEnv))
	}

	t.Cleanup(wrapper.Close)

	require.NoError(t, wrapper.Engine().Migrate(ctx), "error migrating the schema in test setup")
	CleanUp(t, wrapper)

	return wrapper
}

// CleanUp empties the lending tables and resets their identities.
func CleanUp(t testing.TB, wrapper Wrapper) {
	t.Helper()

	err := wrapper.Exec(context.Background(), "TRUNCATE TABLE loans, books RESTART IDENTITY")
	require.NoError(t, err, "error cleaning up the lending tables")
}

func skipIfUnreachable(t testing.TB, ping func(ctx context.Context) error, closeFn func()) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := ping(ctx); err != nil {
		closeFn()
		t.Skipf("test database not reachable: %v", err)
	}
}

package postgresengine

import "errors"

var (
	// ErrNilDatabaseConnection is returned when an engine is created without a connection.
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")

	// ErrEmptyTableName is returned when a table name option is empty.
	ErrEmptyTableName = errors.New("empty table name supplied")

	// ErrBuildingQueryFailed is returned when goqu cannot render a statement.
	ErrBuildingQueryFailed = errors.New("building query failed")

	// ErrQueryingFailed is returned when a select statement fails.
	ErrQueryingFailed = errors.New("querying failed")

	// ErrScanningDBRowFailed is returned when a result row cannot be scanned.
	ErrScanningDBRowFailed = errors.New("scanning db row failed")

	// ErrSavingFailed is returned when an insert or update statement fails.
	ErrSavingFailed = errors.New("saving failed")

	// ErrDeletingFailed is returned when a delete statement fails.
	ErrDeletingFailed = errors.New("deleting failed")

	// ErrGettingRowsAffectedFailed is returned when the affected row count is unavailable.
	ErrGettingRowsAffectedFailed = errors.New("getting rows affected failed")

	// ErrRecordNotFound is returned when an update or delete addresses an ID that does not exist.
	ErrRecordNotFound = errors.New("record not found")

	// ErrReferencedRecordMissing is returned when a loan references a book that does not exist.
	ErrReferencedRecordMissing = errors.New("referenced record does not exist")

	// ErrRecordStillReferenced is returned when deleting a book that loans still reference.
	ErrRecordStillReferenced = errors.New("record is still referenced")

	// ErrMigrationFailed is returned when creating the schema fails.
	ErrMigrationFailed = errors.New("schema migration failed")
)

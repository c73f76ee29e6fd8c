package postgresengine

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const (
	sqlStateUniqueViolation     = "23505"
	sqlStateForeignKeyViolation = "23503"
)

// sqlState extracts the SQLSTATE code from pgx and lib/pq errors.
func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}

	return ""
}

func isUniqueViolation(err error) bool {
	return sqlState(err) == sqlStateUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	return sqlState(err) == sqlStateForeignKeyViolation
}

// violationMapping names what a constraint violation means for one kind of write.
// A nil entry leaves the violation unclassified.
type violationMapping struct {
	unique     error
	foreignKey error
}

// translateWriteError joins err with the meaning of its constraint violation, or with fallback.
func translateWriteError(err error, mapping violationMapping, fallback error) error {
	switch {
	case mapping.unique != nil && isUniqueViolation(err):
		return errors.Join(mapping.unique, err)
	case mapping.foreignKey != nil && isForeignKeyViolation(err):
		return errors.Join(fallback, mapping.foreignKey, err)
	default:
		return errors.Join(fallback, err)
	}
}

package postgresengine

import (
	"context"
	"fmt"
	"reflect"

	"github.com/AntonStoeckl/library-lending-go/lending/postgresengine/internal/adapters"
)

// fakeDB answers queries with queued result sets and records every statement it receives.
type fakeDB struct {
	resultSets     [][][]any
	queries        []string
	replicaQueries []string
	execs          []string
	queryErr       error
	rowsErr        error
	execErr        error
	rowsAffected   int64
}

func newFakeDB(resultSets ...[][]any) *fakeDB {
	return &fakeDB{resultSets: resultSets, rowsAffected: 1}
}

func (db *fakeDB) Query(_ context.Context, query string) (adapters.DBRows, error) {
	db.queries = append(db.queries, query)

	return db.nextRows()
}

func (db *fakeDB) QueryReplica(_ context.Context, query string) (adapters.DBRows, error) {
	db.replicaQueries = append(db.replicaQueries, query)

	return db.nextRows()
}

func (db *fakeDB) Exec(_ context.Context, query string) (adapters.DBResult, error) {
	db.execs = append(db.execs, query)
	if db.execErr != nil {
		return nil, db.execErr
	}

	return fakeResult{rowsAffected: db.rowsAffected}, nil
}

func (db *fakeDB) nextRows() (adapters.DBRows, error) {
	if db.queryErr != nil {
		return nil, db.queryErr
	}

	rows := &fakeRows{err: db.rowsErr}
	if len(db.resultSets) > 0 {
		rows.rows = db.resultSets[0]
		db.resultSets = db.resultSets[1:]
	}

	return rows, nil
}

type fakeRows struct {
	rows   [][]any
	pos    int
	err    error
	closed bool
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}

	r.pos++

	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.pos-1]
	if len(dest) != len(row) {
		return fmt.Errorf("expected %d scan targets, got %d", len(row), len(dest))
	}

	for i, value := range row {
		target := reflect.ValueOf(dest[i]).Elem()
		target.Set(reflect.ValueOf(value).Convert(target.Type()))
	}

	return nil
}

func (r *fakeRows) Err() error {
	return r.err
}

func (r *fakeRows) Close() error {
	r.closed = true
	return nil
}

type fakeResult struct {
	rowsAffected int64
}

func (r fakeResult) RowsAffected() (int64, error) {
	return r.rowsAffected, nil
}

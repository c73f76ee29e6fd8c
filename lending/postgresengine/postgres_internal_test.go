package postgresengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_NewEngine_Rejects_Nil_Connections(t *testing.T) {
	_, err := NewEngineFromPGXPool(nil)
	assert.ErrorIs(t, err, ErrNilDatabaseConnection)

	_, err = NewEngineFromPGXPoolAndReplica(nil, nil)
	assert.ErrorIs(t, err, ErrNilDatabaseConnection)

	_, err = NewEngineFromSQLDB(nil)
	assert.ErrorIs(t, err, ErrNilDatabaseConnection)

	_, err = NewEngineFromSQLX(nil)
	assert.ErrorIs(t, err, ErrNilDatabaseConnection)

	_, err = NewEngineFromSQLXAndReplica(nil, nil)
	assert.ErrorIs(t, err, ErrNilDatabaseConnection)
}

func Test_NewEngine_Rejects_Empty_Table_Names(t *testing.T) {
	_, err := newEngine(newFakeDB(), WithBookTableName(""))
	assert.ErrorIs(t, err, ErrEmptyTableName)

	_, err = newEngine(newFakeDB(), WithLoanTableName(""))
	assert.ErrorIs(t, err, ErrEmptyTableName)
}

package repositories

import (
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

type rowsResult int64

func (r rowsResult) LastInsertId() (int64, error) { return 0, errors.New("not supported") }

func (r rowsResult) RowsAffected() (int64, error) { return int64(r), nil }

func TestMapPQError(t *testing.T) {
	err := mapPQError(&pq.Error{Code: "08006", Message: "connection failure"}, "save snapshot cup")
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.Contains(t, err.Error(), "save snapshot cup")

	err = mapPQError(&pq.Error{Code: "57P01", Message: "terminating connection"}, "list snapshots")
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	check := &pq.Error{Code: "23514", Constraint: "tournament_snapshots_decided_check"}
	err = mapPQError(check, "save snapshot cup")
	assert.NotErrorIs(t, err, ErrStorageUnavailable)
	assert.Contains(t, err.Error(), "tournament_snapshots_decided_check")
	var pqErr *pq.Error
	assert.ErrorAs(t, err, &pqErr)

	plain := errors.New("boom")
	assert.ErrorIs(t, mapPQError(plain, "op"), plain)
}

func TestCheckAffectedRows(t *testing.T) {
	assert.NoError(t, checkAffectedRows(rowsResult(1), ErrSnapshotNotFound))
	assert.ErrorIs(t, checkAffectedRows(rowsResult(0), ErrSnapshotNotFound), ErrSnapshotNotFound)
}

package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/bracket-engine/models"
)

var snapshotColumns = []string{"key", "name", "document", "decided", "complete", "updated_at"}

func newMockRepository(t *testing.T) (SnapshotRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewPostgresSnapshotRepository(db), mock
}

func TestSnapshotRepository_EnsureSchema(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS tournament_snapshots`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, repo.EnsureSchema(context.Background()))
}

func TestSnapshotRepository_Save(t *testing.T) {
	repo, mock := newMockRepository(t)
	updated := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO tournament_snapshots .+ ON CONFLICT \(key\) DO UPDATE SET .+ RETURNING updated_at`).
		WithArgs("cup", "Cup", []byte("doc"), 3, true).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(updated))

	snap := &models.TournamentSnapshot{Key: "cup", Name: "Cup", Document: []byte("doc"), Decided: 3, Complete: true}
	require.NoError(t, repo.Save(context.Background(), nil, snap))
	assert.Equal(t, updated, snap.UpdatedAt)
}

func TestSnapshotRepository_GetByKey(t *testing.T) {
	ctx := context.Background()
	query := `SELECT key, name, document, decided, complete, updated_at FROM tournament_snapshots WHERE key = \$1`

	t.Run("found", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		updated := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
		mock.ExpectQuery(query).WithArgs("cup").
			WillReturnRows(sqlmock.NewRows(snapshotColumns).AddRow("cup", "Cup", []byte("doc"), 2, false, updated))

		snap, err := repo.GetByKey(ctx, "cup")
		require.NoError(t, err)
		assert.Equal(t, "Cup", snap.Name)
		assert.Equal(t, []byte("doc"), snap.Document)
		assert.Equal(t, 2, snap.Decided)
		assert.Equal(t, updated, snap.UpdatedAt)
	})

	t.Run("no rows", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		mock.ExpectQuery(query).WithArgs("gone").WillReturnRows(sqlmock.NewRows(snapshotColumns))

		snap, err := repo.GetByKey(ctx, "gone")
		assert.ErrorIs(t, err, ErrSnapshotNotFound)
		assert.Nil(t, snap)
	})

	t.Run("connection lost", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		mock.ExpectQuery(query).WithArgs("cup").WillReturnError(&pq.Error{Code: "08006"})

		_, err := repo.GetByKey(ctx, "cup")
		assert.ErrorIs(t, err, ErrStorageUnavailable)
	})
}

func TestSnapshotRepository_List(t *testing.T) {
	repo, mock := newMockRepository(t)
	newer := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)
	mock.ExpectQuery(`SELECT key, name, decided, complete, updated_at FROM tournament_snapshots ORDER BY updated_at DESC, key ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"key", "name", "decided", "complete", "updated_at"}).
			AddRow("spring", "Spring", 7, true, newer).
			AddRow("cup", "Cup", 1, false, older))

	snaps, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "spring", snaps[0].Key)
	assert.True(t, snaps[0].Complete)
	assert.Equal(t, "cup", snaps[1].Key)
	assert.Nil(t, snaps[1].Document)
}

func TestSnapshotRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo, mock := newMockRepository(t)
	query := `DELETE FROM tournament_snapshots WHERE key = \$1`
	mock.ExpectExec(query).WithArgs("cup").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(query).WithArgs("cup").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(ctx, "cup"))
	assert.ErrorIs(t, repo.Delete(ctx, "cup"), ErrSnapshotNotFound)
}

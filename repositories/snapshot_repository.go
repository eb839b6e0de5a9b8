package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/bracket-engine/models"
)

var ErrSnapshotNotFound = errors.New("tournament snapshot not found")

type SnapshotRepository interface {
	EnsureSchema(ctx context.Context) error
	Save(ctx context.Context, exec SQLExecutor, snapshot *models.TournamentSnapshot) error
	GetByKey(ctx context.Context, key string) (*models.TournamentSnapshot, error)
	List(ctx context.Context) ([]models.TournamentSnapshot, error)
	Delete(ctx context.Context, key string) error
}

type postgresSnapshotRepository struct {
	db *sql.DB
}

func NewPostgresSnapshotRepository(db *sql.DB) SnapshotRepository {
	return &postgresSnapshotRepository{db: db}
}

func (r *postgresSnapshotRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const snapshotSchema = `
	CREATE TABLE IF NOT EXISTS tournament_snapshots (
		key        TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		document   BYTEA NOT NULL,
		decided    INTEGER NOT NULL DEFAULT 0 CHECK (decided >= 0),
		complete   BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

func (r *postgresSnapshotRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, snapshotSchema); err != nil {
		return mapPQError(err, "create tournament_snapshots")
	}
	return nil
}

// Save upserts by key and refreshes snapshot.UpdatedAt from the database clock.
func (r *postgresSnapshotRepository) Save(ctx context.Context, exec SQLExecutor, snapshot *models.TournamentSnapshot) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournament_snapshots (key, name, document, decided, complete, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (key) DO UPDATE SET
			name = EXCLUDED.name,
			document = EXCLUDED.document,
			decided = EXCLUDED.decided,
			complete = EXCLUDED.complete,
			updated_at = NOW()
		RETURNING updated_at`
	err := executor.QueryRowContext(ctx, query,
		snapshot.Key,
		snapshot.Name,
		snapshot.Document,
		snapshot.Decided,
		snapshot.Complete,
	).Scan(&snapshot.UpdatedAt)
	if err != nil {
		return mapPQError(err, "save snapshot "+snapshot.Key)
	}
	return nil
}

func (r *postgresSnapshotRepository) GetByKey(ctx context.Context, key string) (*models.TournamentSnapshot, error) {
	query := `
		SELECT key, name, document, decided, complete, updated_at
		FROM tournament_snapshots
		WHERE key = $1`
	s := &models.TournamentSnapshot{}
	err := r.db.QueryRowContext(ctx, query, key).Scan(
		&s.Key,
		&s.Name,
		&s.Document,
		&s.Decided,
		&s.Complete,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSnapshotNotFound
		}
		return nil, mapPQError(err, "get snapshot "+key)
	}
	return s, nil
}

// List returns snapshot metadata without documents, most recently updated first.
func (r *postgresSnapshotRepository) List(ctx context.Context) ([]models.TournamentSnapshot, error) {
	query := `
		SELECT key, name, decided, complete, updated_at
		FROM tournament_snapshots
		ORDER BY updated_at DESC, key ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapPQError(err, "list snapshots")
	}
	defer rows.Close()

	snapshots := make([]models.TournamentSnapshot, 0)
	for rows.Next() {
		var s models.TournamentSnapshot
		if scanErr := rows.Scan(&s.Key, &s.Name, &s.Decided, &s.Complete, &s.UpdatedAt); scanErr != nil {
			return nil, scanErr
		}
		snapshots = append(snapshots, s)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return snapshots, nil
}

func (r *postgresSnapshotRepository) Delete(ctx context.Context, key string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tournament_snapshots WHERE key = $1`, key)
	if err != nil {
		return mapPQError(err, "delete snapshot "+key)
	}
	return checkAffectedRows(result, ErrSnapshotNotFound)
}

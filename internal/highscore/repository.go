package highscore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"intel-server/internal/shared/database"
)

type Repository struct {
	db     *database.DB
	logger *slog.Logger
}

func NewRepository(db *database.DB, logger *slog.Logger) *Repository {
	logger.Debug("Initializing highscore repository")

	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) getExecutor(tx *database.Tx) database.Executor {
	if tx != nil {
		return tx
	}
	return r.db
}

// LatestSnapshotTime returns the newest stored snapshot timestamp, or nil
// when no snapshot exists yet.
func (r *Repository) LatestSnapshotTime(ctx context.Context) (*time.Time, error) {
	logger := r.logger.With("component", "highscore_repository", "operation", "latest_snapshot_time")
	logger.Debug("Getting latest snapshot time")

	var latest sql.NullTime
	err := r.db.QueryRowContext(ctx, `SELECT MAX(created_at) FROM highscores`).Scan(&latest)
	if err != nil {
		logger.Error("Failed to get latest snapshot time", "error", err)
		return nil, fmt.Errorf("failed to get latest snapshot time: %w", err)
	}

	if !latest.Valid {
		return nil, nil
	}
	t := latest.Time
	return &t, nil
}

func (r *Repository) Insert(ctx context.Context, snapshot *Snapshot, tx *database.Tx) error {
	exec := r.getExecutor(tx)

	logger := r.logger.With(
		"component", "highscore_repository",
		"operation", "insert",
		"player_id", snapshot.PlayerID,
	)
	logger.Debug("Inserting highscore snapshot")

	query := `
		INSERT INTO highscores (player_id, created_at, total_points, total_rank, military_points, military_rank, military_built_points)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := exec.ExecContext(ctx, query,
		snapshot.PlayerID,
		snapshot.CreatedAt,
		snapshot.TotalPoints,
		snapshot.TotalRank,
		snapshot.MilitaryPoints,
		snapshot.MilitaryRank,
		snapshot.MilitaryBuiltPoints,
	)
	if err != nil {
		logger.Error("Failed to insert highscore snapshot", "error", err)
		return fmt.Errorf("failed to insert highscore snapshot: %w", err)
	}

	return nil
}

// LatestTwoByPlayer returns up to two most recent snapshots for a player,
// newest first, for rank-movement display.
func (r *Repository) LatestTwoByPlayer(ctx context.Context, playerID int) ([]Snapshot, error) {
	logger := r.logger.With(
		"component", "highscore_repository",
		"operation", "latest_two_by_player",
		"player_id", playerID,
	)
	logger.Debug("Getting latest snapshots for player")

	query := `
		SELECT player_id, created_at, total_points, total_rank, military_points, military_rank, military_built_points
		FROM highscores
		WHERE player_id = $1
		ORDER BY created_at DESC
		LIMIT 2
	`

	rows, err := r.db.QueryContext(ctx, query, playerID)
	if err != nil {
		logger.Error("Failed to query highscore snapshots", "error", err)
		return nil, fmt.Errorf("failed to query highscore snapshots: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("Failed to close rows", "error", err)
		}
	}()

	var snapshots []Snapshot
	for rows.Next() {
		var snapshot Snapshot
		err := rows.Scan(
			&snapshot.PlayerID,
			&snapshot.CreatedAt,
			&snapshot.TotalPoints,
			&snapshot.TotalRank,
			&snapshot.MilitaryPoints,
			&snapshot.MilitaryRank,
			&snapshot.MilitaryBuiltPoints,
		)
		if err != nil {
			logger.Error("Failed to scan highscore row", "error", err)
			return nil, fmt.Errorf("failed to scan highscore snapshot: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Error during rows iteration", "error", err)
		return nil, fmt.Errorf("error iterating highscore snapshots: %w", err)
	}

	return snapshots, nil
}

package player

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"intel-server/internal/shared/database"
	"intel-server/internal/shared/errors"
)

type Repository struct {
	db     *database.DB
	logger *slog.Logger
}

func NewRepository(db *database.DB, logger *slog.Logger) *Repository {
	logger.Debug("Initializing player repository")

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

// Upsert creates or updates a player row. An empty incoming name never erases
// a name learned from an earlier roster sync. The updated row stays locked for
// the remainder of the transaction, which is what serializes concurrent writes
// for the same player.
func (r *Repository) Upsert(ctx context.Context, id int, name string, tx *database.Tx) (*Player, error) {
	exec := r.getExecutor(tx)

	logger := r.logger.With(
		"component", "player_repository",
		"operation", "upsert",
		"player_id", id,
	)
	logger.Debug("Upserting player")

	query := `
		INSERT INTO players (id, name)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE
		SET name = CASE WHEN EXCLUDED.name = '' THEN players.name ELSE EXCLUDED.name END,
		    updated_at = NOW()
		RETURNING id, name, created_at, updated_at
	`

	var player Player
	err := exec.QueryRowContext(ctx, query, id, name).Scan(
		&player.ID,
		&player.Name,
		&player.CreatedAt,
		&player.UpdatedAt,
	)

	if err != nil {
		logger.Error("Failed to upsert player", "error", err)
		return nil, fmt.Errorf("failed to upsert player: %w", err)
	}

	logger.Debug("Player upserted", "name", player.Name)
	return &player, nil
}

func (r *Repository) GetByID(ctx context.Context, id int) (*Player, error) {
	logger := r.logger.With(
		"component", "player_repository",
		"operation", "get_by_id",
		"player_id", id,
	)
	logger.Debug("Getting player by ID")

	query := `
		SELECT id, name, created_at, updated_at
		FROM players
		WHERE id = $1
	`

	var player Player
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&player.ID,
		&player.Name,
		&player.CreatedAt,
		&player.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			logger.Debug("No player found with ID")
			return nil, errors.NotFoundf("player %d not found", id)
		}
		logger.Error("Database error getting player by ID", "error", err)
		return nil, fmt.Errorf("database error: %w", err)
	}

	logger.Debug("Found player by ID", "name", player.Name)
	return &player, nil
}

// FindByName looks a player up by case-insensitive exact name match.
func (r *Repository) FindByName(ctx context.Context, name string) (*Player, error) {
	logger := r.logger.With(
		"component", "player_repository",
		"operation", "find_by_name",
		"name", name,
	)
	logger.Debug("Finding player by name")

	query := `
		SELECT id, name, created_at, updated_at
		FROM players
		WHERE LOWER(name) = LOWER($1)
	`

	var player Player
	err := r.db.QueryRowContext(ctx, query, name).Scan(
		&player.ID,
		&player.Name,
		&player.CreatedAt,
		&player.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			logger.Debug("No player found with name")
			return nil, errors.NotFoundf("player %q not found", name)
		}
		logger.Error("Database error finding player by name", "error", err)
		return nil, fmt.Errorf("database error: %w", err)
	}

	logger.Debug("Found player by name", "player_id", player.ID)
	return &player, nil
}

func (r *Repository) List(ctx context.Context) ([]Player, error) {
	logger := r.logger.With("component", "player_repository", "operation", "list")
	logger.Debug("Listing players")

	query := `
		SELECT id, name, created_at, updated_at
		FROM players
		ORDER BY LOWER(name)
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		logger.Error("Failed to query players", "error", err)
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("Failed to close rows", "error", err)
		}
	}()

	var players []Player
	for rows.Next() {
		var player Player
		err := rows.Scan(
			&player.ID,
			&player.Name,
			&player.CreatedAt,
			&player.UpdatedAt,
		)
		if err != nil {
			logger.Error("Failed to scan player row", "error", err)
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, player)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Error during rows iteration", "error", err)
		return nil, fmt.Errorf("error iterating players: %w", err)
	}

	logger.Debug("Players retrieved", "count", len(players))
	return players, nil
}

package planet

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
	logger.Debug("Initializing planet repository")

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

func (r *Repository) Get(ctx context.Context, playerID int, coords Coords, tx *database.Tx) (*Planet, error) {
	exec := r.getExecutor(tx)

	logger := r.logger.With(
		"component", "planet_repository",
		"operation", "get",
		"player_id", playerID,
		"coords", coords.String(),
	)
	logger.Debug("Getting planet")

	query := `
		SELECT player_id, galaxy, system, position, name, has_moon, destroyed, manual_edit_at, created_at, updated_at
		FROM planets
		WHERE player_id = $1 AND galaxy = $2 AND system = $3 AND position = $4
	`

	var planet Planet
	err := exec.QueryRowContext(ctx, query, playerID, coords.Galaxy, coords.System, coords.Position).Scan(
		&planet.PlayerID,
		&planet.Galaxy,
		&planet.System,
		&planet.Position,
		&planet.Name,
		&planet.HasMoon,
		&planet.Destroyed,
		&planet.ManualEditAt,
		&planet.CreatedAt,
		&planet.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			logger.Debug("No planet at coordinates")
			return nil, errors.NotFoundf("no planet of player %d at %s", playerID, coords)
		}
		logger.Error("Database error getting planet", "error", err)
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &planet, nil
}

// Save inserts the planet or updates the full mutable state of an existing
// row at the same composite key.
func (r *Repository) Save(ctx context.Context, planet *Planet, tx *database.Tx) error {
	exec := r.getExecutor(tx)

	logger := r.logger.With(
		"component", "planet_repository",
		"operation", "save",
		"player_id", planet.PlayerID,
		"coords", planet.Coords.String(),
	)
	logger.Debug("Saving planet")

	query := `
		INSERT INTO planets (player_id, galaxy, system, position, name, has_moon, destroyed, manual_edit_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (player_id, galaxy, system, position) DO UPDATE
		SET name = EXCLUDED.name,
		    has_moon = EXCLUDED.has_moon,
		    destroyed = EXCLUDED.destroyed,
		    manual_edit_at = EXCLUDED.manual_edit_at,
		    updated_at = NOW()
	`

	_, err := exec.ExecContext(ctx, query,
		planet.PlayerID,
		planet.Galaxy,
		planet.System,
		planet.Position,
		planet.Name,
		planet.HasMoon,
		planet.Destroyed,
		planet.ManualEditAt,
	)

	if err != nil {
		logger.Error("Failed to save planet", "error", err)
		return fmt.Errorf("failed to save planet: %w", err)
	}

	logger.Debug("Planet saved")
	return nil
}

func (r *Repository) ListByPlayer(ctx context.Context, playerID int, tx *database.Tx) ([]Planet, error) {
	exec := r.getExecutor(tx)

	logger := r.logger.With(
		"component", "planet_repository",
		"operation", "list_by_player",
		"player_id", playerID,
	)
	logger.Debug("Listing planets for player")

	query := `
		SELECT player_id, galaxy, system, position, name, has_moon, destroyed, manual_edit_at, created_at, updated_at
		FROM planets
		WHERE player_id = $1
		ORDER BY galaxy, system, position
	`

	rows, err := exec.QueryContext(ctx, query, playerID)
	if err != nil {
		logger.Error("Failed to query planets", "error", err)
		return nil, fmt.Errorf("failed to query planets: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("Failed to close rows", "error", err)
		}
	}()

	var planets []Planet
	for rows.Next() {
		var planet Planet
		err := rows.Scan(
			&planet.PlayerID,
			&planet.Galaxy,
			&planet.System,
			&planet.Position,
			&planet.Name,
			&planet.HasMoon,
			&planet.Destroyed,
			&planet.ManualEditAt,
			&planet.CreatedAt,
			&planet.UpdatedAt,
		)
		if err != nil {
			logger.Error("Failed to scan planet row", "error", err)
			return nil, fmt.Errorf("failed to scan planet: %w", err)
		}
		planets = append(planets, planet)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Error during rows iteration", "error", err)
		return nil, fmt.Errorf("error iterating planets: %w", err)
	}

	logger.Debug("Planets retrieved", "count", len(planets))
	return planets, nil
}

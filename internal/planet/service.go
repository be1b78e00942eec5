package planet

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"intel-server/internal/player"
	"intel-server/internal/shared/database"
	"intel-server/internal/shared/errors"
)

type Service struct {
	db      *database.DB
	repo    *Repository
	players *player.Repository
	logger  *slog.Logger
}

func NewService(db *database.DB, repo *Repository, players *player.Repository, logger *slog.Logger) *Service {
	logger.Debug("Initializing planet service")

	return &Service{
		db:      db,
		repo:    repo,
		players: players,
		logger:  logger,
	}
}

func (s *Service) ListByPlayer(ctx context.Context, playerID int) ([]Planet, error) {
	return s.repo.ListByPlayer(ctx, playerID, nil)
}

// Reconcile merges one pass of primary (bulk scan) and secondary (intel feed)
// observations into the stored planet set of a player. Secondary observations
// may be absent. Stored planets that neither feed observed are marked
// destroyed unless their manual-edit protection is still active.
func (s *Service) Reconcile(ctx context.Context, playerID int, primary []PrimaryObservation, secondary []SecondaryObservation) error {
	logger := s.logger.With(
		"component", "planet_service",
		"operation", "reconcile",
		"player_id", playerID,
		"primary_count", len(primary),
		"secondary_count", len(secondary),
	)
	logger.Debug("Reconciling planet observations")

	now := time.Now().UTC()
	merged := mergeObservations(primary, secondary)

	tx, err := s.db.BeginTxContext(ctx)
	if err != nil {
		logger.Error("Failed to begin transaction", "error", err)
		return fmt.Errorf("failed to begin reconcile transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err.Error() != "sql: transaction has already been committed or rolled back" {
			logger.Error("Failed to rollback transaction", "error", err)
		}
	}()

	// The upsert holds the player row lock for the rest of the transaction,
	// serializing reconcile and ingest for the same player.
	if _, err := s.players.Upsert(ctx, playerID, "", tx); err != nil {
		return fmt.Errorf("failed to lock player %d: %w", playerID, err)
	}

	created := 0
	for coords, obs := range merged {
		stored, err := s.repo.Get(ctx, playerID, coords, tx)
		if err != nil {
			if errors.GetType(err) != errors.ErrorTypeNotFound {
				return err
			}
			newPlanet := &Planet{
				PlayerID:     playerID,
				Coords:       coords,
				Name:         obs.name,
				HasMoon:      obs.hasMoon,
				Destroyed:    false,
				ManualEditAt: obs.manualEditAt,
			}
			if err := s.repo.Save(ctx, newPlanet, tx); err != nil {
				return err
			}
			created++
			continue
		}

		applyToStored(stored, obs, now)
		if err := s.repo.Save(ctx, stored, tx); err != nil {
			return err
		}
	}

	stored, err := s.repo.ListByPlayer(ctx, playerID, tx)
	if err != nil {
		return err
	}

	missing := markMissing(stored, merged, now)
	for _, planet := range missing {
		if err := s.repo.Save(ctx, planet, tx); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		logger.Error("Failed to commit reconcile transaction", "error", err)
		return fmt.Errorf("failed to commit reconcile: %w", err)
	}

	logger.Info("Planets reconciled",
		"observed", len(merged),
		"created", created,
		"destroyed", len(missing),
	)
	return nil
}

package player

import (
	"context"
	"fmt"
	"log/slog"

	"intel-server/internal/shared/errors"
)

// RosterFeed is the bulk player-roster feed collaborator.
type RosterFeed interface {
	FetchRoster(ctx context.Context) ([]RosterEntry, error)
}

type Service struct {
	repo   *Repository
	roster RosterFeed
	logger *slog.Logger
}

func NewService(repo *Repository, roster RosterFeed, logger *slog.Logger) *Service {
	logger.Debug("Initializing player service")

	return &Service{
		repo:   repo,
		roster: roster,
		logger: logger,
	}
}

func (s *Service) GetByID(ctx context.Context, id int) (*Player, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Player, error) {
	return s.repo.List(ctx)
}

// SyncRoster pulls the bulk roster feed and upserts every (id, name) pair.
// Returns the number of roster entries processed.
func (s *Service) SyncRoster(ctx context.Context) (int, error) {
	logger := s.logger.With("component", "player_service", "operation", "sync_roster")
	logger.Debug("Syncing player roster")

	entries, err := s.roster.FetchRoster(ctx)
	if err != nil {
		logger.Error("Failed to fetch roster feed", "error", err)
		return 0, fmt.Errorf("failed to fetch roster: %w", err)
	}

	for _, entry := range entries {
		if _, err := s.repo.Upsert(ctx, entry.ID, entry.Name, nil); err != nil {
			logger.Error("Failed to upsert roster entry", "error", err, "player_id", entry.ID)
			return 0, fmt.Errorf("failed to upsert player %d: %w", entry.ID, err)
		}
	}

	logger.Info("Roster synced", "count", len(entries))
	return len(entries), nil
}

// ResolveByName finds a player by name, refreshing the roster once on a miss
// so newly renamed or newly created players are still resolvable.
func (s *Service) ResolveByName(ctx context.Context, name string) (*Player, error) {
	logger := s.logger.With("component", "player_service", "operation", "resolve_by_name", "name", name)
	logger.Debug("Resolving player by name")

	player, err := s.repo.FindByName(ctx, name)
	if err == nil {
		return player, nil
	}
	if errors.GetType(err) != errors.ErrorTypeNotFound {
		return nil, err
	}

	logger.Debug("Player not found locally, refreshing roster")
	if _, err := s.SyncRoster(ctx); err != nil {
		return nil, err
	}

	return s.repo.FindByName(ctx, name)
}

package highscore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"intel-server/internal/player"
	"intel-server/internal/shared/database"
)

// Feed is the highscore feed collaborator: one pass returns the board's
// publication time and the per-player score entries.
type Feed interface {
	FetchHighscores(ctx context.Context) (time.Time, map[int]Entry, error)
}

type Service struct {
	db      *database.DB
	repo    *Repository
	players *player.Service
	feed    Feed
	logger  *slog.Logger
}

func NewService(db *database.DB, repo *Repository, players *player.Service, feed Feed, logger *slog.Logger) *Service {
	logger.Debug("Initializing highscore service")

	return &Service{
		db:      db,
		repo:    repo,
		players: players,
		feed:    feed,
		logger:  logger,
	}
}

func (s *Service) LatestTwoByPlayer(ctx context.Context, playerID int) ([]Snapshot, error) {
	return s.repo.LatestTwoByPlayer(ctx, playerID)
}

// Sync fetches the current highscore board and stores one snapshot row per
// player, unless the board's publication time is not meaningfully newer than
// the last stored snapshot. Returns the number of snapshots written.
func (s *Service) Sync(ctx context.Context) (int, error) {
	logger := s.logger.With("component", "highscore_service", "operation", "sync")
	logger.Debug("Syncing highscore snapshots")

	feedTime, entries, err := s.feed.FetchHighscores(ctx)
	if err != nil {
		logger.Error("Failed to fetch highscore feed", "error", err)
		return 0, fmt.Errorf("failed to fetch highscores: %w", err)
	}

	latest, err := s.repo.LatestSnapshotTime(ctx)
	if err != nil {
		return 0, err
	}
	if !shouldSnapshot(feedTime, latest) {
		logger.Info("Highscore board unchanged, skipping snapshot", "feed_time", feedTime)
		return 0, nil
	}

	// Scores can reference players the roster sync has not seen yet.
	if _, err := s.players.SyncRoster(ctx); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTxContext(ctx)
	if err != nil {
		logger.Error("Failed to begin transaction", "error", err)
		return 0, fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err.Error() != "sql: transaction has already been committed or rolled back" {
			logger.Error("Failed to rollback transaction", "error", err)
		}
	}()

	for playerID, entry := range entries {
		snapshot := &Snapshot{
			PlayerID:            playerID,
			CreatedAt:           feedTime,
			TotalPoints:         entry.TotalPoints,
			TotalRank:           entry.TotalRank,
			MilitaryPoints:      entry.MilitaryPoints,
			MilitaryRank:        entry.MilitaryRank,
			MilitaryBuiltPoints: entry.MilitaryBuiltPoints,
		}
		if err := s.repo.Insert(ctx, snapshot, tx); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		logger.Error("Failed to commit snapshot transaction", "error", err)
		return 0, fmt.Errorf("failed to commit snapshot: %w", err)
	}

	logger.Info("Highscore snapshot stored", "feed_time", feedTime, "players", len(entries))
	return len(entries), nil
}

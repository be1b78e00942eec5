package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"intel-server/internal/planet"
	"intel-server/internal/player"
	"intel-server/internal/shared/database"
	"intel-server/internal/shared/errors"
)

// IngestInput is the normalized shape both feed adapters produce: raw ship
// and technology maps plus report identity. Ships still contain peaceful
// types at this point; the ingestor filters them.
type IngestInput struct {
	Token           string
	PlayerID        int
	Ships           map[int]int64
	Techs           map[int]int64
	Source          SourceKind
	CreatedAt       time.Time
	Coords          *planet.Coords
	FromMoon        bool
	Resources       *Resources
	AllowRegression bool
}

type Service struct {
	db      *database.DB
	repo    *Repository
	players *player.Repository
	planets *planet.Repository
	logger  *slog.Logger
}

func NewService(db *database.DB, repo *Repository, players *player.Repository, planets *planet.Repository, logger *slog.Logger) *Service {
	logger.Debug("Initializing report service")

	return &Service{
		db:      db,
		repo:    repo,
		players: players,
		planets: planets,
		logger:  logger,
	}
}

// Ingest validates and stores one intelligence report. Duplicate tokens are
// rejected permanently; a report weaker than the current best is rejected
// unless the caller explicitly allows the regression. When coordinates are
// known the report is linked to the planet there, creating it as a manual
// assertion if necessary. The whole operation is one transaction.
func (s *Service) Ingest(ctx context.Context, in IngestInput) (*Report, error) {
	logger := s.logger.With(
		"component", "report_service",
		"operation", "ingest",
		"token", in.Token,
		"player_id", in.PlayerID,
		"source", in.Source,
	)
	logger.Debug("Ingesting report")

	now := time.Now().UTC()
	military := FilterMilitary(in.Ships)

	tx, err := s.db.BeginTxContext(ctx)
	if err != nil {
		logger.Error("Failed to begin transaction", "error", err)
		return nil, fmt.Errorf("failed to begin ingest transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err.Error() != "sql: transaction has already been committed or rolled back" {
			logger.Error("Failed to rollback transaction", "error", err)
		}
	}()

	// The upsert holds the player row lock for the rest of the transaction,
	// making the duplicate and regression checks atomic per player.
	if _, err := s.players.Upsert(ctx, in.PlayerID, "", tx); err != nil {
		return nil, fmt.Errorf("failed to lock player %d: %w", in.PlayerID, err)
	}

	var duplicate *Report
	if existing, err := s.repo.GetByToken(ctx, in.Token, tx); err == nil {
		duplicate = existing
	} else if errors.GetType(err) != errors.ErrorTypeNotFound {
		return nil, err
	}

	stored, err := s.repo.ListByPlayer(ctx, in.PlayerID, nil, tx)
	if err != nil {
		return nil, err
	}

	if err := admitReport(in, military, duplicate, stored, now); err != nil {
		logger.Info("Report rejected", "reason", errors.GetType(err))
		return nil, err
	}

	report := &Report{
		Token:     in.Token,
		PlayerID:  in.PlayerID,
		Source:    in.Source,
		CreatedAt: in.CreatedAt,
		Coords:    in.Coords,
		FromMoon:  in.FromMoon,
		Resources: in.Resources,
	}
	for shipType, count := range military {
		report.Ships = append(report.Ships, ShipCount{ShipType: shipType, Count: count})
	}
	for techType, level := range in.Techs {
		if level == 0 {
			continue
		}
		report.Techs = append(report.Techs, TechLevel{TechType: techType, Level: int(level)})
	}

	if err := s.repo.Insert(ctx, report, tx); err != nil {
		return nil, err
	}

	if in.Coords != nil {
		if err := s.linkPlanet(ctx, in, tx); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		logger.Error("Failed to commit ingest transaction", "error", err)
		return nil, fmt.Errorf("failed to commit ingest: %w", err)
	}

	logger.Info("Report ingested",
		"strength", report.MilitaryStrength(),
		"ships", len(report.Ships),
		"techs", len(report.Techs),
	)
	return report, nil
}

// admitReport is the admission decision for one incoming report, given the
// already stored report under the same token (if any) and the player's stored
// reports. A duplicate token is rejected permanently regardless of flags;
// unless the caller allows the regression, the incoming military strength
// must not fall below the player's current best report.
//
// Pure function; the transaction around it supplies the atomicity.
func admitReport(in IngestInput, military map[int]int64, duplicate *Report, stored []Report, now time.Time) error {
	if duplicate != nil {
		return errors.Conflictf("report %q already stored", in.Token)
	}
	if in.AllowRegression {
		return nil
	}

	best := Best(stored, now)
	if best == nil {
		return nil
	}
	if MilitaryStrength(military) < best.MilitaryStrength() {
		return errors.Regressionf(
			"report %q has fewer military ships than best report %q", in.Token, best.Token)
	}
	return nil
}

// linkPlanet associates the report with the planet at its coordinates. An
// unknown planet is created as a manual assertion, protected for the trust
// window; a known planet only ever gains the moon flag.
func (s *Service) linkPlanet(ctx context.Context, in IngestInput, tx *database.Tx) error {
	stored, err := s.planets.Get(ctx, in.PlayerID, *in.Coords, tx)
	if err != nil {
		if errors.GetType(err) != errors.ErrorTypeNotFound {
			return err
		}
		manualEdit := in.CreatedAt
		return s.planets.Save(ctx, &planet.Planet{
			PlayerID:     in.PlayerID,
			Coords:       *in.Coords,
			HasMoon:      in.FromMoon,
			Destroyed:    false,
			ManualEditAt: &manualEdit,
		}, tx)
	}

	if in.FromMoon && !stored.HasMoon {
		stored.HasMoon = true
		return s.planets.Save(ctx, stored, tx)
	}
	return nil
}

// Delete removes a report. When detachPlanet is set and the linked planet is
// still inside its manual-edit trust window, the protection is detached so
// the next bulk pass owns the planet's fate again. Returns the coordinates of
// the detached planet, if any.
func (s *Service) Delete(ctx context.Context, token string, detachPlanet bool) (*planet.Coords, error) {
	logger := s.logger.With(
		"component", "report_service",
		"operation", "delete",
		"token", token,
		"detach_planet", detachPlanet,
	)
	logger.Debug("Deleting report")

	now := time.Now().UTC()

	tx, err := s.db.BeginTxContext(ctx)
	if err != nil {
		logger.Error("Failed to begin transaction", "error", err)
		return nil, fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err.Error() != "sql: transaction has already been committed or rolled back" {
			logger.Error("Failed to rollback transaction", "error", err)
		}
	}()

	report, err := s.repo.GetByToken(ctx, token, tx)
	if err != nil {
		return nil, err
	}

	var detached *planet.Coords
	if detachPlanet && report.Coords != nil {
		stored, err := s.planets.Get(ctx, report.PlayerID, *report.Coords, tx)
		if err != nil {
			if errors.GetType(err) != errors.ErrorTypeNotFound {
				return nil, err
			}
		} else if stored.EditProtected(now) {
			stored.ManualEditAt = nil
			if err := s.planets.Save(ctx, stored, tx); err != nil {
				return nil, err
			}
			coords := stored.Coords
			detached = &coords
			logger.Info("Planet manual-edit protection detached", "coords", coords.String())
		}
	}

	if err := s.repo.Delete(ctx, token, tx); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		logger.Error("Failed to commit delete transaction", "error", err)
		return nil, fmt.Errorf("failed to commit delete: %w", err)
	}

	return detached, nil
}

// BestReport returns the report treated as current truth for the player, or
// nil when none is stored.
func (s *Service) BestReport(ctx context.Context, playerID int) (*Report, error) {
	reports, err := s.repo.ListByPlayer(ctx, playerID, nil, nil)
	if err != nil {
		return nil, err
	}
	return Best(reports, time.Now().UTC()), nil
}

// WithDelta loads a report and computes its per-category deltas against the
// most recent comparable scouted report. The previous report is nil, and the
// deltas empty, when no baseline exists.
func (s *Service) WithDelta(ctx context.Context, token string) (*Report, *Report, Delta, error) {
	report, err := s.repo.GetByToken(ctx, token, nil)
	if err != nil {
		return nil, nil, Delta{}, err
	}

	var previous *Report
	if report.Source == SourceScout {
		scout := SourceScout
		siblings, err := s.repo.ListByPlayer(ctx, report.PlayerID, &scout, nil)
		if err != nil {
			return nil, nil, Delta{}, err
		}
		previous = PreviousReport(siblings, report)
	}

	return report, previous, ComputeDelta(report, previous), nil
}

// GetByToken returns a stored report with line items.
func (s *Service) GetByToken(ctx context.Context, token string) (*Report, error) {
	return s.repo.GetByToken(ctx, token, nil)
}

// PlayerNameByToken resolves the owning player's display name for a report.
func (s *Service) PlayerNameByToken(ctx context.Context, token string) (string, error) {
	return s.repo.PlayerNameByToken(ctx, token)
}

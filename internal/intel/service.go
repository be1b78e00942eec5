package intel

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"intel-server/internal/feed/battlesim"
	"intel-server/internal/feed/ogame"
	"intel-server/internal/planet"
	"intel-server/internal/player"
	"intel-server/internal/report"
	"intel-server/internal/shared/errors"
)

// PrimaryFeed is the authoritative bulk feed collaborator.
type PrimaryFeed interface {
	FetchPlayerData(ctx context.Context, playerID int) (*ogame.PlayerData, error)
}

// SecondaryFeed is the supplementary intel network collaborator. It may be
// disabled entirely when no team key is configured.
type SecondaryFeed interface {
	Enabled() bool
	FetchGalaxyObservations(ctx context.Context, playerID int) ([]planet.SecondaryObservation, error)
	FetchTopReportToken(ctx context.Context, playerID int) (string, error)
}

// ReportFeed resolves scouting report tokens into ingestable reports.
type ReportFeed interface {
	FetchReport(ctx context.Context, token string) (*report.IngestInput, error)
}

// PlayerIntel is the assembled intelligence view for one player: identity,
// current planet picture, and the report treated as current truth with its
// movement against the previous comparable scouting.
type PlayerIntel struct {
	Player           player.Player   `json:"player"`
	Alliance         string          `json:"alliance,omitempty"`
	Planets          []planet.Planet `json:"planets"`
	BestReport       *report.Report  `json:"best_report,omitempty"`
	Delta            report.Delta    `json:"delta"`
	PreviousReportAt *time.Time      `json:"previous_report_at,omitempty"`
}

// Service orchestrates the feeds: one intel request refreshes the planet
// picture from both observation sources, pulls the newest tracked scouting
// report, and assembles the read model.
type Service struct {
	players   *player.Service
	planets   *planet.Service
	reports   *report.Service
	primary   PrimaryFeed
	secondary SecondaryFeed
	reportAPI ReportFeed
	logger    *slog.Logger
}

func NewService(
	players *player.Service,
	planets *planet.Service,
	reports *report.Service,
	primary PrimaryFeed,
	secondary SecondaryFeed,
	reportAPI ReportFeed,
	logger *slog.Logger,
) *Service {
	logger.Debug("Initializing intel service")

	return &Service{
		players:   players,
		planets:   planets,
		reports:   reports,
		primary:   primary,
		secondary: secondary,
		reportAPI: reportAPI,
		logger:    logger,
	}
}

// PlayerIntel refreshes and assembles the intelligence view for one player.
// The supplementary feed degrades gracefully: a sighting or report-tracking
// failure is logged and skipped, never fatal to the view.
func (s *Service) PlayerIntel(ctx context.Context, playerID int) (*PlayerIntel, error) {
	logger := s.logger.With(
		"component", "intel_service",
		"operation", "player_intel",
		"player_id", playerID,
	)
	logger.Debug("Assembling player intel")

	stored, err := s.players.GetByID(ctx, playerID)
	if err != nil {
		return nil, err
	}

	data, err := s.primary.FetchPlayerData(ctx, playerID)
	if err != nil {
		return nil, err
	}

	var secondary []planet.SecondaryObservation
	if s.secondary.Enabled() {
		secondary, err = s.secondary.FetchGalaxyObservations(ctx, playerID)
		if err != nil {
			logger.Warn("Skipping galaxy observations", "error", err)
			secondary = nil
		}
	}

	if err := s.planets.Reconcile(ctx, playerID, data.Planets, secondary); err != nil {
		return nil, err
	}

	if s.secondary.Enabled() {
		s.ingestTrackedReport(ctx, playerID, logger)
	}

	planets, err := s.planets.ListByPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}

	view := &PlayerIntel{
		Player:   *stored,
		Alliance: data.Alliance,
		Planets:  planets,
		Delta:    report.ComputeDelta(nil, nil),
	}

	best, err := s.reports.BestReport(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if best != nil {
		current, previous, delta, err := s.reports.WithDelta(ctx, best.Token)
		if err != nil {
			return nil, err
		}
		view.BestReport = current
		view.Delta = delta
		if previous != nil {
			view.PreviousReportAt = &previous.CreatedAt
		}
	}

	logger.Info("Player intel assembled",
		"planets", len(view.Planets),
		"has_best_report", view.BestReport != nil,
	)
	return view, nil
}

// ingestTrackedReport pulls the newest scouting report the intel network
// tracks for the player. Duplicates and weaker reports are expected here and
// are not errors: the network keeps serving the same top report between scans.
func (s *Service) ingestTrackedReport(ctx context.Context, playerID int, logger *slog.Logger) {
	token, err := s.secondary.FetchTopReportToken(ctx, playerID)
	if err != nil {
		if errors.GetType(err) != errors.ErrorTypeNotFound {
			logger.Warn("Skipping tracked report lookup", "error", err)
		}
		return
	}

	in, err := s.reportAPI.FetchReport(ctx, token)
	if err != nil {
		logger.Warn("Skipping tracked report", "token", token, "error", err)
		return
	}

	if _, err := s.reports.Ingest(ctx, *in); err != nil {
		switch errors.GetType(err) {
		case errors.ErrorTypeConflict, errors.ErrorTypeRegression:
			logger.Debug("Tracked report not stored", "token", token, "reason", errors.GetType(err))
		default:
			logger.Warn("Failed to ingest tracked report", "token", token, "error", err)
		}
	}
}

// AddReportKeyInput is one manual report submission: either a scouting report
// token or a raw simulator key pasted by a user.
type AddReportKeyInput struct {
	Key             string
	PlayerID        int
	AllowRegression bool
}

const reportTokenPrefix = "sr-"

// AddReportKey stores a manually submitted report. Scouting report tokens are
// resolved against the report API and carry their own player identity;
// simulator keys require the caller to name the player.
func (s *Service) AddReportKey(ctx context.Context, in AddReportKeyInput) (*report.Report, error) {
	key := normalizeKey(in.Key)

	logger := s.logger.With(
		"component", "intel_service",
		"operation", "add_report_key",
		"player_id", in.PlayerID,
	)
	logger.Debug("Adding report key")

	if key == "" {
		return nil, errors.Validation("report key is required")
	}

	if strings.HasPrefix(key, reportTokenPrefix) {
		fetched, err := s.reportAPI.FetchReport(ctx, key)
		if err != nil {
			return nil, err
		}
		fetched.AllowRegression = in.AllowRegression
		return s.reports.Ingest(ctx, *fetched)
	}

	if in.PlayerID == 0 {
		return nil, errors.Validation("simulator keys require a player id")
	}

	parsed, err := battlesim.Parse(key)
	if err != nil {
		return nil, err
	}

	return s.reports.Ingest(ctx, report.IngestInput{
		Token:           key,
		PlayerID:        in.PlayerID,
		Ships:           parsed.Ships,
		Techs:           parsed.Techs,
		Source:          report.SourceSimulated,
		CreatedAt:       time.Now().UTC(),
		Coords:          parsed.Coords,
		AllowRegression: in.AllowRegression,
	})
}

// normalizeKey undoes chat-client mangling: the "100" token renders as an
// emoji shortcode when keys travel through chat.
func normalizeKey(key string) string {
	key = strings.TrimSpace(key)
	key = strings.ReplaceAll(key, "\U0001F4AF", ":100:")
	return key
}

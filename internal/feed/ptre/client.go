package ptre

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"intel-server/internal/planet"
	"intel-server/internal/shared/config"
	"intel-server/internal/shared/errors"
)

// Client talks to the community intel network: crowd-sourced galaxy sightings
// and the newest scouting report per tracked player. Every call carries the
// team key; without one the network refuses service.
type Client struct {
	baseURL  string
	teamKey  string
	tool     string
	universe string
	country  string
	http     *http.Client
	limiter  *rate.Limiter
	logger   *slog.Logger
}

func NewClient(cfg config.FeedsConfig, logger *slog.Logger) *Client {
	logger.Debug("Initializing intel network client", "base_url", cfg.IntelBaseURL)

	return &Client{
		baseURL:  cfg.IntelBaseURL,
		teamKey:  cfg.IntelTeamKey,
		tool:     cfg.IntelTool,
		universe: cfg.Universe,
		country:  cfg.Country,
		http:     &http.Client{Timeout: cfg.FetchTimeout},
		limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		logger:   logger,
	}
}

// Enabled reports whether a team key is configured. Callers skip the
// supplementary feed entirely when it is not.
func (c *Client) Enabled() bool {
	return c.teamKey != ""
}

func (c *Client) get(ctx context.Context, script string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.WrapExternal("rate limiter interrupted", err)
	}

	query.Set("team_key", c.teamKey)
	query.Set("tool", c.tool)
	endpoint := fmt.Sprintf("%s/%s?%s", c.baseURL, script, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.WrapExternal("failed to build intel network request", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.WrapExternal(fmt.Sprintf("intel network request to %s failed", script), err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("Failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return errors.Externalf("intel network returned status %d for %s", resp.StatusCode, script)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WrapExternal("failed to read intel network response", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.WrapExternal("failed to decode intel network response", err)
	}
	return nil
}

// The network serializes every galaxy field as a string. A moon id of "-1"
// means no moon.
type galaxyEntry struct {
	Galaxy      string `json:"galaxy"`
	System      string `json:"system"`
	Position    string `json:"position"`
	TimestampIG string `json:"timestamp_ig"`
	Moon        struct {
		ID string `json:"id"`
	} `json:"moon"`
}

// FetchGalaxyObservations returns the network's recorded galaxy sightings for
// one player. Sighting times arrive as in-game millisecond epochs.
func (c *Client) FetchGalaxyObservations(ctx context.Context, playerID int) ([]planet.SecondaryObservation, error) {
	logger := c.logger.With(
		"component", "intel_network",
		"operation", "fetch_galaxy_observations",
		"player_id", playerID,
	)
	logger.Debug("Fetching galaxy observations")

	var payload struct {
		GalaxyArray []galaxyEntry `json:"galaxy_array"`
	}
	query := url.Values{
		"player_id": {strconv.Itoa(playerID)},
		"country":   {c.country},
		"universe":  {c.universe},
	}
	if err := c.get(ctx, "api_galaxy_get_infos.php", query, &payload); err != nil {
		return nil, err
	}

	observations := make([]planet.SecondaryObservation, 0, len(payload.GalaxyArray))
	for _, entry := range payload.GalaxyArray {
		coords, err := parseGalaxyCoords(entry)
		if err != nil {
			return nil, err
		}

		observation := planet.SecondaryObservation{
			Coords:  coords,
			HasMoon: entry.Moon.ID != "" && entry.Moon.ID != "-1",
		}
		if millis, err := strconv.ParseInt(entry.TimestampIG, 10, 64); err == nil && millis > 0 {
			observedAt := time.Unix(millis/1000, 0).UTC()
			observation.ObservedAt = &observedAt
		}
		observations = append(observations, observation)
	}

	logger.Debug("Galaxy observations fetched", "observations", len(observations))
	return observations, nil
}

// FetchTopReportToken returns the token of the newest scouting report the
// network holds for a player, or a not-found error when it holds none. The
// player-infos call only yields a web link to the report; the in-game report
// id behind it comes from a second lookup by the link's iid. Note the
// upstream spells the universe parameter "univers".
func (c *Client) FetchTopReportToken(ctx context.Context, playerID int) (string, error) {
	logger := c.logger.With(
		"component", "intel_network",
		"operation", "fetch_top_report_token",
		"player_id", playerID,
	)
	logger.Debug("Fetching top report token")

	var infos struct {
		TopSRLink string `json:"top_sr_link"`
	}
	query := url.Values{
		"player_id": {strconv.Itoa(playerID)},
		"univers":   {c.universe},
		"country":   {c.country},
		"noacti":    {"yes"},
	}
	if err := c.get(ctx, "oglight_get_player_infos.php", query, &infos); err != nil {
		return "", err
	}

	if infos.TopSRLink == "" {
		return "", errors.NotFoundf("no scouting report tracked for player %d", playerID)
	}
	_, iid, ok := strings.Cut(infos.TopSRLink, "?iid=")
	if !ok {
		return "", errors.Externalf("intel network returned malformed report link %q", infos.TopSRLink)
	}

	var lookup struct {
		Report struct {
			ResultData struct {
				Generic struct {
					SRID json.Number `json:"sr_id"`
				} `json:"generic"`
			} `json:"RESULT_DATA"`
		} `json:"report"`
	}
	if err := c.get(ctx, "api_get_report.php", url.Values{"iid": {iid}}, &lookup); err != nil {
		return "", err
	}

	srID := lookup.Report.ResultData.Generic.SRID.String()
	if srID == "" {
		return "", errors.Externalf("intel network returned no report id for link %q", infos.TopSRLink)
	}

	token := fmt.Sprintf("sr-%s-%s-%s", c.country, c.universe, srID)
	logger.Debug("Top report token fetched", "token", token)
	return token, nil
}

func parseGalaxyCoords(entry galaxyEntry) (planet.Coords, error) {
	galaxy, err := strconv.Atoi(entry.Galaxy)
	if err != nil {
		return planet.Coords{}, errors.Externalf("intel network returned malformed galaxy %q", entry.Galaxy)
	}
	system, err := strconv.Atoi(entry.System)
	if err != nil {
		return planet.Coords{}, errors.Externalf("intel network returned malformed system %q", entry.System)
	}
	position, err := strconv.Atoi(entry.Position)
	if err != nil {
		return planet.Coords{}, errors.Externalf("intel network returned malformed position %q", entry.Position)
	}
	return planet.Coords{Galaxy: galaxy, System: system, Position: position}, nil
}

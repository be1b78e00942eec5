package ogame

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"intel-server/internal/highscore"
	"intel-server/internal/planet"
	"intel-server/internal/player"
	"intel-server/internal/shared/config"
	"intel-server/internal/shared/errors"
)

// Client talks to the game's public universe API: the weekly roster, per-player
// planet lists, highscore boards, and the unit localization table. All calls go
// through a shared rate limiter because the upstream bans greedy consumers.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

func NewClient(cfg config.FeedsConfig, logger *slog.Logger) *Client {
	logger.Debug("Initializing game API client", "base_url", cfg.GameAPIBaseURL)

	return &Client{
		baseURL: cfg.GameAPIBaseURL,
		http:    &http.Client{Timeout: cfg.FetchTimeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		logger:  logger,
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.WrapExternal("rate limiter interrupted", err)
	}

	endpoint := fmt.Sprintf("%s/%s", c.baseURL, path)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.WrapExternal("failed to build game API request", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.WrapExternal(fmt.Sprintf("game API request to %s failed", path), err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("Failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Externalf("game API returned status %d for %s", resp.StatusCode, path)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WrapExternal("failed to read game API response", err)
	}
	return body, nil
}

// listOrSingle absorbs the API's toJson quirk: a collection with one element
// is serialized as a bare object instead of a one-element array.
func listOrSingle[T any](raw json.RawMessage) ([]T, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var list []T
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var single T
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, err
	}
	return []T{single}, nil
}

type rosterPlayer struct {
	Attributes struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"@attributes"`
}

// FetchRoster returns the full universe player roster.
func (c *Client) FetchRoster(ctx context.Context) ([]player.RosterEntry, error) {
	logger := c.logger.With("component", "game_api", "operation", "fetch_roster")
	logger.Debug("Fetching player roster")

	body, err := c.get(ctx, "players.xml", url.Values{"toJson": {"1"}})
	if err != nil {
		return nil, err
	}

	var document struct {
		Player json.RawMessage `json:"player"`
	}
	if err := json.Unmarshal(body, &document); err != nil {
		return nil, errors.WrapExternal("failed to decode roster feed", err)
	}

	players, err := listOrSingle[rosterPlayer](document.Player)
	if err != nil {
		return nil, errors.WrapExternal("failed to decode roster players", err)
	}

	entries := make([]player.RosterEntry, 0, len(players))
	for _, p := range players {
		id, err := strconv.Atoi(p.Attributes.ID)
		if err != nil {
			return nil, errors.Validationf("roster feed carries non-numeric player id %q", p.Attributes.ID)
		}
		entries = append(entries, player.RosterEntry{ID: id, Name: p.Attributes.Name})
	}

	logger.Info("Roster fetched", "players", len(entries))
	return entries, nil
}

type playerDataPlanet struct {
	Attributes struct {
		Name   string `json:"name"`
		Coords string `json:"coords"`
	} `json:"@attributes"`
	Moon json.RawMessage `json:"moon"`
}

// PlayerData is the authoritative per-player slice of the bulk feed: the
// current planet list plus alliance membership.
type PlayerData struct {
	Alliance string
	Planets  []planet.PrimaryObservation
}

// FetchPlayerData returns the authoritative planet list for one player.
func (c *Client) FetchPlayerData(ctx context.Context, playerID int) (*PlayerData, error) {
	logger := c.logger.With(
		"component", "game_api",
		"operation", "fetch_player_data",
		"player_id", playerID,
	)
	logger.Debug("Fetching player data")

	body, err := c.get(ctx, "playerData.xml", url.Values{
		"id":     {strconv.Itoa(playerID)},
		"toJson": {"1"},
	})
	if err != nil {
		return nil, err
	}

	var document struct {
		Planets struct {
			Planet json.RawMessage `json:"planet"`
		} `json:"planets"`
		Alliance struct {
			Name string `json:"name"`
		} `json:"alliance"`
	}
	if err := json.Unmarshal(body, &document); err != nil {
		return nil, errors.WrapExternal("failed to decode player data feed", err)
	}

	planets, err := listOrSingle[playerDataPlanet](document.Planets.Planet)
	if err != nil {
		return nil, errors.WrapExternal("failed to decode player planets", err)
	}

	data := &PlayerData{Alliance: document.Alliance.Name}
	for _, p := range planets {
		coords, err := planet.ParseCoords(p.Attributes.Coords)
		if err != nil {
			return nil, err
		}
		data.Planets = append(data.Planets, planet.PrimaryObservation{
			Coords:  coords,
			Name:    p.Attributes.Name,
			HasMoon: len(p.Moon) > 0,
		})
	}

	logger.Debug("Player data fetched", "planets", len(data.Planets))
	return data, nil
}

// Highscore board types served by the upstream.
const (
	highscoreTypeTotal         = "0"
	highscoreTypeMilitary      = "3"
	highscoreTypeMilitaryBuilt = "5"
)

type highscoreRow struct {
	Attributes struct {
		ID       string `json:"id"`
		Position string `json:"position"`
		Score    string `json:"score"`
	} `json:"@attributes"`
}

func (c *Client) fetchHighscoreBoard(ctx context.Context, boardType string) (time.Time, []highscoreRow, error) {
	body, err := c.get(ctx, "highscore.xml", url.Values{
		"category": {"1"},
		"type":     {boardType},
		"toJson":   {"1"},
	})
	if err != nil {
		return time.Time{}, nil, err
	}

	var document struct {
		Attributes struct {
			Timestamp string `json:"timestamp"`
		} `json:"@attributes"`
		Player json.RawMessage `json:"player"`
	}
	if err := json.Unmarshal(body, &document); err != nil {
		return time.Time{}, nil, errors.WrapExternal("failed to decode highscore feed", err)
	}

	epoch, err := strconv.ParseInt(document.Attributes.Timestamp, 10, 64)
	if err != nil {
		return time.Time{}, nil, errors.Externalf("highscore feed carries bad timestamp %q", document.Attributes.Timestamp)
	}

	rows, err := listOrSingle[highscoreRow](document.Player)
	if err != nil {
		return time.Time{}, nil, errors.WrapExternal("failed to decode highscore rows", err)
	}

	return time.Unix(epoch, 0).UTC(), rows, nil
}

// FetchHighscores merges the total, military, and military-built boards into
// one entry per player. The total board's publication time stamps the pass.
func (c *Client) FetchHighscores(ctx context.Context) (time.Time, map[int]highscore.Entry, error) {
	logger := c.logger.With("component", "game_api", "operation", "fetch_highscores")
	logger.Debug("Fetching highscore boards")

	feedTime, totalRows, err := c.fetchHighscoreBoard(ctx, highscoreTypeTotal)
	if err != nil {
		return time.Time{}, nil, err
	}
	_, militaryRows, err := c.fetchHighscoreBoard(ctx, highscoreTypeMilitary)
	if err != nil {
		return time.Time{}, nil, err
	}
	_, builtRows, err := c.fetchHighscoreBoard(ctx, highscoreTypeMilitaryBuilt)
	if err != nil {
		return time.Time{}, nil, err
	}

	entries := make(map[int]highscore.Entry, len(totalRows))
	for _, row := range totalRows {
		id, rank, score, err := parseHighscoreRow(row)
		if err != nil {
			return time.Time{}, nil, err
		}
		entry := entries[id]
		entry.TotalPoints = score
		entry.TotalRank = rank
		entries[id] = entry
	}
	for _, row := range militaryRows {
		id, rank, score, err := parseHighscoreRow(row)
		if err != nil {
			return time.Time{}, nil, err
		}
		entry := entries[id]
		entry.MilitaryPoints = score
		entry.MilitaryRank = rank
		entries[id] = entry
	}
	for _, row := range builtRows {
		id, _, score, err := parseHighscoreRow(row)
		if err != nil {
			return time.Time{}, nil, err
		}
		entry := entries[id]
		entry.MilitaryBuiltPoints = score
		entries[id] = entry
	}

	logger.Info("Highscore boards fetched", "feed_time", feedTime, "players", len(entries))
	return feedTime, entries, nil
}

func parseHighscoreRow(row highscoreRow) (id, rank int, score int64, err error) {
	id, err = strconv.Atoi(row.Attributes.ID)
	if err != nil {
		return 0, 0, 0, errors.Externalf("highscore feed carries bad player id %q", row.Attributes.ID)
	}
	rank, err = strconv.Atoi(row.Attributes.Position)
	if err != nil {
		return 0, 0, 0, errors.Externalf("highscore feed carries bad rank %q", row.Attributes.Position)
	}
	score, err = strconv.ParseInt(row.Attributes.Score, 10, 64)
	if err != nil {
		return 0, 0, 0, errors.Externalf("highscore feed carries bad score %q", row.Attributes.Score)
	}
	return id, rank, score, nil
}

type localizationDocument struct {
	XMLName xml.Name `xml:"localization"`
	Techs   struct {
		Names []struct {
			ID   int    `xml:"id,attr"`
			Name string `xml:",chardata"`
		} `xml:"name"`
	} `xml:"techs"`
}

// FetchUnitNames returns the id-to-display-name table for ships and
// technologies. The localization endpoint has no JSON variant.
func (c *Client) FetchUnitNames(ctx context.Context) (map[int]string, error) {
	logger := c.logger.With("component", "game_api", "operation", "fetch_unit_names")
	logger.Debug("Fetching unit localization")

	body, err := c.get(ctx, "localization.xml", nil)
	if err != nil {
		return nil, err
	}

	var document localizationDocument
	if err := xml.Unmarshal(body, &document); err != nil {
		return nil, errors.WrapExternal("failed to decode localization feed", err)
	}

	names := make(map[int]string, len(document.Techs.Names))
	for _, n := range document.Techs.Names {
		names[n.ID] = n.Name
	}

	logger.Info("Unit localization fetched", "units", len(names))
	return names, nil
}

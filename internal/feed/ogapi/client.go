package ogapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"intel-server/internal/planet"
	"intel-server/internal/report"
	"intel-server/internal/shared/config"
	"intel-server/internal/shared/errors"
)

// Planet types the report API distinguishes on the defender side.
const planetTypeMoon = 3

// Client resolves scouting report tokens against the community report API.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

func NewClient(cfg config.FeedsConfig, logger *slog.Logger) *Client {
	logger.Debug("Initializing report API client", "base_url", cfg.ReportAPIBaseURL)

	return &Client{
		baseURL: cfg.ReportAPIBaseURL,
		http:    &http.Client{Timeout: cfg.FetchTimeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		logger:  logger,
	}
}

// The report API nests its payload under RESULT_DATA: identity and timing in
// "generic", line items in "details" with ships and research as object lists.
type reportDocument struct {
	ResultData *reportResultData `json:"RESULT_DATA"`
}

type reportResultData struct {
	Generic reportGeneric `json:"generic"`
	Details reportDetails `json:"details"`
}

type reportGeneric struct {
	DefenderUserID            int    `json:"defender_user_id"`
	DefenderPlanetCoordinates string `json:"defender_planet_coordinates"`
	DefenderPlanetType        int    `json:"defender_planet_type"`
	EventTimestamp            int64  `json:"event_timestamp"`
}

type reportDetails struct {
	Ships     []reportShipLine     `json:"ships"`
	Research  []reportResearchLine `json:"research"`
	Resources map[string]int64     `json:"resources"`
}

type reportShipLine struct {
	ShipType int   `json:"ship_type"`
	Count    int64 `json:"count"`
}

type reportResearchLine struct {
	ResearchType int   `json:"research_type"`
	Level        int64 `json:"level"`
}

// FetchReport resolves a scouting report token into a normalized ingest input.
// Unknown tokens map to a not-found error so callers can distinguish an
// expired report from an upstream outage.
func (c *Client) FetchReport(ctx context.Context, token string) (*report.IngestInput, error) {
	logger := c.logger.With(
		"component", "report_api",
		"operation", "fetch_report",
		"token", token,
	)
	logger.Debug("Fetching scouting report")

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.WrapExternal("rate limiter interrupted", err)
	}

	endpoint := fmt.Sprintf("%s/report/%s", c.baseURL, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.WrapExternal("failed to build report API request", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.WrapExternal("report API request failed", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("Failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.NotFoundf("report %q not known to the report API", token)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Externalf("report API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WrapExternal("failed to read report API response", err)
	}

	var document reportDocument
	if err := json.Unmarshal(body, &document); err != nil {
		return nil, errors.WrapExternal("failed to decode report API response", err)
	}
	if document.ResultData == nil {
		return nil, errors.Externalf("report API returned no result data for %q", token)
	}

	generic := document.ResultData.Generic
	details := document.ResultData.Details
	if generic.DefenderUserID == 0 {
		return nil, errors.Externalf("report API returned no defender for %q", token)
	}

	ships := make(map[int]int64, len(details.Ships))
	for _, line := range details.Ships {
		ships[line.ShipType] = line.Count
	}
	techs := make(map[int]int64, len(details.Research))
	for _, line := range details.Research {
		techs[line.ResearchType] = line.Level
	}

	in := &report.IngestInput{
		Token:     token,
		PlayerID:  generic.DefenderUserID,
		Ships:     ships,
		Techs:     techs,
		Source:    report.SourceScout,
		CreatedAt: time.Unix(generic.EventTimestamp, 0).UTC(),
		FromMoon:  generic.DefenderPlanetType == planetTypeMoon,
	}

	if generic.DefenderPlanetCoordinates != "" {
		coords, err := planet.ParseCoords(generic.DefenderPlanetCoordinates)
		if err != nil {
			return nil, err
		}
		in.Coords = &coords
	}

	if len(details.Resources) > 0 {
		in.Resources = &report.Resources{
			Metal:     details.Resources["metal"],
			Crystal:   details.Resources["crystal"],
			Deuterium: details.Resources["deuterium"],
		}
	}

	logger.Info("Scouting report fetched",
		"player_id", in.PlayerID,
		"ships", len(in.Ships),
		"techs", len(in.Techs),
	)
	return in, nil
}

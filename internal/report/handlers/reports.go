package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"intel-server/internal/catalog"
	"intel-server/internal/intel"
	"intel-server/internal/planet"
	"intel-server/internal/report"
	"intel-server/internal/shared/errors"
	"intel-server/internal/shared/response"
)

type ReportsHandler struct {
	reports *report.Service
	intel   *intel.Service
	catalog *catalog.Catalog
}

func NewReportsHandler(reports *report.Service, intelService *intel.Service, unitCatalog *catalog.Catalog) *ReportsHandler {
	return &ReportsHandler{
		reports: reports,
		intel:   intelService,
		catalog: unitCatalog,
	}
}

type createRequest struct {
	Key             string `json:"key"`
	PlayerID        int    `json:"player_id"`
	AllowRegression bool   `json:"allow_regression"`
}

// Create ingests a manually submitted report key: a scouting report token or a
// simulator export.
func (h *ReportsHandler) Create(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "reports")

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, logger, errors.WrapValidation("invalid request body", err))
		return
	}

	stored, err := h.intel.AddReportKey(r.Context(), intel.AddReportKeyInput{
		Key:             req.Key,
		PlayerID:        req.PlayerID,
		AllowRegression: req.AllowRegression,
	})
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusCreated, stored)
}

type reportView struct {
	Report           *report.Report `json:"report"`
	PlayerName       string         `json:"player_name"`
	Delta            report.Delta   `json:"delta"`
	PreviousReportAt *time.Time     `json:"previous_report_at,omitempty"`
	UnitNames        map[int]string `json:"unit_names,omitempty"`
}

// Get serves one report with its delta against the previous comparable
// scouting and display names for the units it mentions.
func (h *ReportsHandler) Get(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "reports")
	token := r.PathValue("token")

	stored, previous, delta, err := h.reports.WithDelta(r.Context(), token)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	playerName, err := h.reports.PlayerNameByToken(r.Context(), token)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	view := reportView{
		Report:     stored,
		PlayerName: playerName,
		Delta:      delta,
		UnitNames:  h.unitNames(r, stored),
	}
	if previous != nil {
		view.PreviousReportAt = &previous.CreatedAt
	}

	response.Success(w, http.StatusOK, view)
}

// unitNames resolves display names for the unit ids a report mentions. Name
// resolution is cosmetic; a catalog failure degrades to ids only.
func (h *ReportsHandler) unitNames(r *http.Request, stored *report.Report) map[int]string {
	names, err := h.catalog.Names(r.Context())
	if err != nil {
		slog.Warn("Skipping unit name resolution", "error", err)
		return nil
	}

	resolved := make(map[int]string)
	for _, ship := range stored.Ships {
		if name, ok := names[ship.ShipType]; ok {
			resolved[ship.ShipType] = name
		}
	}
	for _, tech := range stored.Techs {
		if name, ok := names[tech.TechType]; ok {
			resolved[tech.TechType] = name
		}
	}
	return resolved
}

type deleteResponse struct {
	Deleted        string         `json:"deleted"`
	DetachedPlanet *planet.Coords `json:"detached_planet,omitempty"`
}

// Delete removes a report. With ?detach_planet=1 the linked planet's
// manual-edit protection is released when still active.
func (h *ReportsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "reports")
	token := r.PathValue("token")

	detach := r.URL.Query().Get("detach_planet") == "1"
	detached, err := h.reports.Delete(r.Context(), token, detach)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, deleteResponse{Deleted: token, DetachedPlanet: detached})
}

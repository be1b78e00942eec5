package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"intel-server/internal/planet"
	"intel-server/internal/shared/errors"
	"intel-server/internal/shared/response"
)

type PlanetsHandler struct {
	service *planet.Service
}

func NewPlanetsHandler(service *planet.Service) *PlanetsHandler {
	return &PlanetsHandler{service: service}
}

// ListByPlayer serves the stored planet picture for one player.
func (h *PlanetsHandler) ListByPlayer(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "planets")

	playerID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		response.Error(w, r, logger, errors.Validationf("invalid player id %q", r.PathValue("id")))
		return
	}

	planets, err := h.service.ListByPlayer(r.Context(), playerID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	if planets == nil {
		planets = []planet.Planet{}
	}

	response.Success(w, http.StatusOK, planets)
}

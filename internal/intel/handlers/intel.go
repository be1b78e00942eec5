package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"intel-server/internal/intel"
	"intel-server/internal/shared/errors"
	"intel-server/internal/shared/response"
)

type IntelHandler struct {
	service *intel.Service
}

func NewIntelHandler(service *intel.Service) *IntelHandler {
	return &IntelHandler{service: service}
}

// PlayerIntel refreshes the feeds for one player and serves the assembled
// intelligence view.
func (h *IntelHandler) PlayerIntel(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "intel")

	playerID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		response.Error(w, r, logger, errors.Validationf("invalid player id %q", r.PathValue("id")))
		return
	}

	view, err := h.service.PlayerIntel(r.Context(), playerID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, view)
}

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"intel-server/internal/highscore"
	"intel-server/internal/shared/errors"
	"intel-server/internal/shared/response"
)

type HighscoresHandler struct {
	service *highscore.Service
}

func NewHighscoresHandler(service *highscore.Service) *HighscoresHandler {
	return &HighscoresHandler{service: service}
}

// LatestByPlayer serves up to two most recent snapshots, newest first, so the
// presentation layer can show rank movement.
func (h *HighscoresHandler) LatestByPlayer(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "highscores")

	playerID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		response.Error(w, r, logger, errors.Validationf("invalid player id %q", r.PathValue("id")))
		return
	}

	snapshots, err := h.service.LatestTwoByPlayer(r.Context(), playerID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	if snapshots == nil {
		snapshots = []highscore.Snapshot{}
	}

	response.Success(w, http.StatusOK, snapshots)
}

type syncResponse struct {
	Snapshots int `json:"snapshots"`
}

// Sync pulls the highscore boards and stores one snapshot per player unless
// the feed has not republished since the last stored pass.
func (h *HighscoresHandler) Sync(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "highscore_sync")

	count, err := h.service.Sync(r.Context())
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, syncResponse{Snapshots: count})
}

package handlers

import (
	"log/slog"
	"net/http"

	"intel-server/internal/player"
	"intel-server/internal/shared/response"
)

type SyncHandler struct {
	service *player.Service
}

func NewSyncHandler(service *player.Service) *SyncHandler {
	return &SyncHandler{service: service}
}

type syncResponse struct {
	Synced int `json:"synced"`
}

// Sync pulls the bulk roster feed and upserts every player.
func (h *SyncHandler) Sync(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "player_sync")

	count, err := h.service.SyncRoster(r.Context())
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, syncResponse{Synced: count})
}

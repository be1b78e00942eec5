package handlers

import (
	"log/slog"
	"net/http"

	"intel-server/internal/player"
	"intel-server/internal/shared/response"
)

type PlayersHandler struct {
	service *player.Service
}

func NewPlayersHandler(service *player.Service) *PlayersHandler {
	return &PlayersHandler{service: service}
}

// List serves the stored roster. With a ?name= query it resolves a single
// player by display name instead, refreshing the roster once on a miss.
func (h *PlayersHandler) List(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "players")

	if name := r.URL.Query().Get("name"); name != "" {
		resolved, err := h.service.ResolveByName(r.Context(), name)
		if err != nil {
			response.Error(w, r, logger, err)
			return
		}
		response.Success(w, http.StatusOK, resolved)
		return
	}

	players, err := h.service.List(r.Context())
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	if players == nil {
		players = []player.Player{}
	}

	response.Success(w, http.StatusOK, players)
}

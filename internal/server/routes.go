package server

import (
	"log/slog"
	"net/http"

	"intel-server/internal/catalog"
	"intel-server/internal/highscore"
	highscoreHandlers "intel-server/internal/highscore/handlers"
	"intel-server/internal/intel"
	intelHandlers "intel-server/internal/intel/handlers"
	"intel-server/internal/middleware"
	"intel-server/internal/planet"
	planetHandlers "intel-server/internal/planet/handlers"
	"intel-server/internal/player"
	playerHandlers "intel-server/internal/player/handlers"
	"intel-server/internal/report"
	reportHandlers "intel-server/internal/report/handlers"
	serverHandlers "intel-server/internal/server/handlers"
	"intel-server/internal/shared/database"
)

type Routes struct {
	db               *database.DB
	playerService    *player.Service
	planetService    *planet.Service
	reportService    *report.Service
	highscoreService *highscore.Service
	intelService     *intel.Service
	unitCatalog      *catalog.Catalog
	logger           *slog.Logger
}

func NewRoutes(
	db *database.DB,
	playerService *player.Service,
	planetService *planet.Service,
	reportService *report.Service,
	highscoreService *highscore.Service,
	intelService *intel.Service,
	unitCatalog *catalog.Catalog,
	logger *slog.Logger,
) *Routes {
	return &Routes{
		db:               db,
		playerService:    playerService,
		planetService:    planetService,
		reportService:    reportService,
		highscoreService: highscoreService,
		intelService:     intelService,
		unitCatalog:      unitCatalog,
		logger:           logger,
	}
}

func (r *Routes) Setup() *http.ServeMux {
	logger := slog.With("component", "routes", "operation", "setup")
	logger.Debug("Setting up application routes")

	mux := http.NewServeMux()

	healthHandler := serverHandlers.NewHealthHandler(r.db)
	playersHandler := playerHandlers.NewPlayersHandler(r.playerService)
	playerSyncHandler := playerHandlers.NewSyncHandler(r.playerService)
	planetsHandler := planetHandlers.NewPlanetsHandler(r.planetService)
	highscoresHandler := highscoreHandlers.NewHighscoresHandler(r.highscoreService)
	intelHandler := intelHandlers.NewIntelHandler(r.intelService)
	reportsHandler := reportHandlers.NewReportsHandler(r.reportService, r.intelService, r.unitCatalog)

	// Public read endpoints
	mux.Handle("GET /api/server/health", healthHandler)
	mux.HandleFunc("GET /api/players", playersHandler.List)
	mux.HandleFunc("GET /api/players/{id}/intel", intelHandler.PlayerIntel)
	mux.HandleFunc("GET /api/players/{id}/planets", planetsHandler.ListByPlayer)
	mux.HandleFunc("GET /api/players/{id}/highscores", highscoresHandler.LatestByPlayer)
	mux.HandleFunc("GET /api/reports/{token}", reportsHandler.Get)

	// Mutating endpoints (service token required)
	mux.Handle("POST /api/reports", middleware.JWTMiddleware(http.HandlerFunc(reportsHandler.Create)))
	mux.Handle("DELETE /api/reports/{token}", middleware.JWTMiddleware(http.HandlerFunc(reportsHandler.Delete)))
	mux.Handle("POST /api/sync/players", middleware.JWTMiddleware(http.HandlerFunc(playerSyncHandler.Sync)))
	mux.Handle("POST /api/sync/highscores", middleware.JWTMiddleware(http.HandlerFunc(highscoresHandler.Sync)))

	logger.Info("Routes configured successfully",
		"public_endpoints", []string{
			"/api/server/health",
			"/api/players",
			"/api/players/{id}/intel",
			"/api/players/{id}/planets",
			"/api/players/{id}/highscores",
			"/api/reports/{token}",
		},
		"protected_endpoints", []string{
			"/api/reports",
			"/api/sync/players",
			"/api/sync/highscores",
		},
	)

	return mux
}

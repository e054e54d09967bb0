package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/hageshiame/light-heart/internal/config"
	"github.com/hageshiame/light-heart/internal/handler"
	"github.com/hageshiame/light-heart/internal/logger"
	"github.com/hageshiame/light-heart/internal/middleware"
	"github.com/hageshiame/light-heart/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter wires the full route table. Authenticated routes stack the
// auth middleware and the per-player limiter; score submission adds the
// tighter critical-write limiter on top.
func SetupRouter(h *handler.Handler, accounts *service.AccountService, cfg *config.Config) http.Handler {
	ipLimiter := middleware.NewLimiter("ip", cfg.IPRateLimit, cfg.IPRateWindow)
	playerLimiter := middleware.NewLimiter("player", cfg.PlayerRateLimit, cfg.PlayerRateWindow)
	criticalLimiter := middleware.NewLimiter("critical", cfg.CriticalRateLimit, cfg.CriticalRateWin)

	r := mux.NewRouter()
	r.Use(middleware.CORS(cfg.CORSOrigin))
	r.Use(middleware.Logger)
	r.Use(ipLimiter.ByIP)

	auth := middleware.Auth(accounts)

	authed := r.PathPrefix("/api").Subrouter()
	authed.Use(auth)
	authed.Use(playerLimiter.ByPlayer)

	critical := r.PathPrefix("/api").Subrouter()
	critical.Use(auth)
	critical.Use(playerLimiter.ByPlayer)
	critical.Use(criticalLimiter.ByPlayer)

	// Root + operational endpoints
	r.HandleFunc("/", h.Root).Methods(http.MethodGet)
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// Auth
	r.HandleFunc("/api/auth/wechat-login", h.WechatLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/refresh-token", h.RefreshToken).Methods(http.MethodPost)

	// Leaderboard
	critical.HandleFunc("/leaderboard/submit-score", h.SubmitScore).Methods(http.MethodPost)
	r.HandleFunc("/api/leaderboard/get-rankings", h.GetRankings).Methods(http.MethodGet)
	authed.HandleFunc("/leaderboard/personal-history", h.GetPersonalHistory).Methods(http.MethodGet)
	r.HandleFunc("/api/leaderboard/players/{playerId}/rank", h.GetPlayerRank).Methods(http.MethodGet)

	// Rescue
	authed.HandleFunc("/rescue/create-request", h.CreateRescueRequest).Methods(http.MethodPost)
	r.HandleFunc("/api/rescue/get-task", h.GetRescueTask).Methods(http.MethodGet)
	critical.HandleFunc("/rescue/complete-task", h.CompleteRescueTask).Methods(http.MethodPost)
	authed.HandleFunc("/rescue/cancel-request", h.CancelRescueRequest).Methods(http.MethodPost)
	authed.HandleFunc("/rescue/pending", h.GetPendingRescues).Methods(http.MethodGet)
	authed.HandleFunc("/rescue/stats", h.GetRescueStats).Methods(http.MethodGet)

	// Sync
	authed.HandleFunc("/sync/batch-data", h.BatchSync).Methods(http.MethodPost)
	authed.HandleFunc("/sync/pull-latest", h.PullLatest).Methods(http.MethodGet)

	// Anti-cheat
	authed.HandleFunc("/anticheat/report-anomaly", h.ReportAnomaly).Methods(http.MethodPost)

	// Account
	authed.HandleFunc("/account/me", h.Me).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Warning("404 Not Found: %s %s", r.Method, r.URL.Path)
		http.Error(w, "Route not found", http.StatusNotFound)
	})

	return r
}

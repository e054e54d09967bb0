package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hageshiame/light-heart/internal/api"
	"github.com/hageshiame/light-heart/internal/cache"
	"github.com/hageshiame/light-heart/internal/config"
	"github.com/hageshiame/light-heart/internal/database"
	"github.com/hageshiame/light-heart/internal/handler"
	"github.com/hageshiame/light-heart/internal/jobs"
	"github.com/hageshiame/light-heart/internal/logger"
	model "github.com/hageshiame/light-heart/internal/models"
	"github.com/hageshiame/light-heart/internal/repository"
	"github.com/hageshiame/light-heart/internal/service"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Could not load config: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL
	pool, err := database.ConnectPostgres(ctx, cfg)
	if err != nil {
		logger.Error("Database connection failed: %v", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.InitSchema(ctx, pool); err != nil {
		logger.Error("Schema init failed: %v", err)
		os.Exit(1)
	}

	// Cache backend: Redis when configured, in-process otherwise.
	var backend cache.Backend
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Error("Redis connection failed: %v", err)
			os.Exit(1)
		}
		logger.Success("Connected to Redis at %s", cfg.RedisAddr)
		backend = cache.NewRedis(rdb)
	} else {
		logger.Warning("REDIS_ADDR empty, using in-memory cache (single node only)")
		backend = cache.NewMemory(time.Minute)
	}
	defer backend.Close()
	strategy := cache.NewStrategy(backend)

	// Repositories
	accountRepo := repository.NewAccountPG(pool)
	battleRepo := repository.NewBattlePG(pool)
	rescueRepo := repository.NewRescuePG(pool)
	syncRepo := repository.NewSyncPG(pool)

	// Background jobs need Redis; without it deferred work is disabled.
	var scheduler *jobs.Scheduler
	if rdb != nil {
		scheduler = jobs.NewScheduler(rdb)
	}

	// Services
	accountSvc := service.NewAccountService(
		accountRepo, strategy,
		cfg.JWTSecret, cfg.JWTExpire,
		cfg.WechatAppID, cfg.WechatSecret,
	)
	battleSvc := service.NewBattleService(accountRepo, battleRepo, strategy, cfg.ScoreSecret)
	rescueSvc := service.NewRescueService(accountRepo, rescueRepo, strategy, cfg.ShareBaseURL)
	var syncSvc *service.SyncService
	if scheduler != nil {
		syncSvc = service.NewSyncService(accountRepo, syncRepo, scheduler)
		scheduler.Register(service.JobAnomaly, syncSvc.AnomalyHandler)
		go scheduler.Run(ctx)
	} else {
		syncSvc = service.NewSyncService(accountRepo, syncRepo, directEnqueuer{syncRepo})
	}

	var jobStats handler.JobStatser
	if scheduler != nil {
		jobStats = scheduler
	}
	h := handler.New(accountSvc, battleSvc, rescueSvc, syncSvc, jobStats)

	router := api.SetupRouter(h, accountSvc, cfg)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Shutdown failed: %v", err)
		}
	}()

	// Start server
	logger.Success("Server starting on port %s", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server failed: %v", err)
		os.Exit(1)
	}
}

// directEnqueuer runs anomaly persistence inline when no Redis is
// available, keeping the development stack functional.
type directEnqueuer struct {
	syncs repository.SyncRepo
}

func (d directEnqueuer) Enqueue(ctx context.Context, jobType string, payload any) (string, error) {
	if jobType != service.JobAnomaly {
		return "", nil
	}
	report, ok := payload.(*model.AnomalyReport)
	if !ok {
		return "", nil
	}
	return "inline", d.syncs.InsertAnomaly(ctx, report)
}

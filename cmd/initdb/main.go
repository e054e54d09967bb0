// Command initdb applies the database schema and exits. Useful in CI and
// for provisioning a fresh environment without starting the server.
package main

import (
	"context"
	"os"
	"time"

	"github.com/hageshiame/light-heart/internal/config"
	"github.com/hageshiame/light-heart/internal/database"
	"github.com/hageshiame/light-heart/internal/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Could not load config: %v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

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
	logger.Success("Database initialized")
}

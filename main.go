package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"portfoliotracker/src/autoportfolio"
	"portfoliotracker/src/cache"
	"portfoliotracker/src/database"
	"portfoliotracker/src/logging"
	"portfoliotracker/src/server"

	"github.com/joho/godotenv"
	logger "github.com/sirupsen/logrus"
)

var APP_NAME = os.Getenv("APP_NAME")

func main() {
	// a missing .env is fine, the environment wins anyway
	_ = godotenv.Load()
	logging.Setup()
	defer handlePanic()

	// Initialize main (read/write) database
	if err := database.InitMainDB(); err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	// Initialize read-only database
	if err := database.InitReadOnlyDB(); err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	cacheCfg := cache.GetConfig()
	rdb, err := cache.NewClient(context.Background(), cacheCfg)
	if err != nil {
		logger.WithError(err).Warn("Redis unavailable, membership cache disabled")
		rdb = nil
	}

	cfg := server.GetConfig()
	deps := server.Wire(server.DefaultRepositories(), rdb, cacheCfg, autoportfolio.GetConfig())

	server.StartServer(cfg.Port, server.NewRouter(cfg, deps))

	if rdb != nil {
		_ = rdb.Close()
	}
}

func handlePanic() {
	if r := recover(); r != nil {
		logger.WithError(fmt.Errorf("%+v", r)).Error(fmt.Sprintf("Application %s panic", APP_NAME))
		//nolint
		time.Sleep(time.Second * 5)
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"portfoliotracker/src/autoportfolio"
	"portfoliotracker/src/cache"
	"portfoliotracker/src/database"
	"portfoliotracker/src/logging"
	"portfoliotracker/src/repository"
	"portfoliotracker/src/scheduler"
	"portfoliotracker/src/server"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

var Version string

func main() {
	_ = godotenv.Load()
	logging.Setup()

	app := cli.NewApp()
	app.Name = "Portfolio Tracker CMD"
	app.Usage = "The portfolio tracker command line interface"
	app.Version = Version

	app.Commands = []cli.Command{
		serveCMD,
		migrateCMD,
		autoPortfolioCMD,
		schedulerCMD,
		createUserCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	serveCMD = cli.Command{
		Name:        "serve",
		Usage:       "run the HTTP API",
		Action:      serveAction,
		Description: `Serve the portfolio API on SERVER_PORT`,
	}
	migrateCMD = cli.Command{
		Name:        "migrate",
		Usage:       "run schema and data migrations",
		Action:      migrateAction,
		Description: `Create the tables and seed the default KCEX symbols`,
	}
	autoPortfolioCMD = cli.Command{
		Name:   "auto_portfolio",
		Usage:  "build one momentum portfolio",
		Action: autoPortfolioAction,
		Flags: []cli.Flag{
			cli.UintFlag{Name: "user", Usage: "owner user id"},
			cli.IntFlag{Name: "offset", Usage: "minutes between now and the end of the window"},
			cli.StringFlag{Name: "name", Usage: "portfolio name, generated when empty"},
			cli.StringFlag{Name: "investment", Usage: "dollar amount per position (default AUTO_INVESTMENT)"},
			cli.IntFlag{Name: "positions", Usage: "positions per side (default AUTO_POSITIONS_PER_TYPE)"},
		},
		Description: `Rank symbols by summed price change over the window and store the long/short portfolio`,
	}
	schedulerCMD = cli.Command{
		Name:        "scheduler",
		Usage:       "run auto-portfolio builds on SCHEDULE_CRON",
		Action:      schedulerAction,
		Description: `Build one portfolio per SCHEDULE_OFFSETS entry for SCHEDULE_USER_ID on every tick`,
	}
	createUserCMD = cli.Command{
		Name:   "create_user",
		Usage:  "create a user for device access",
		Action: createUserAction,
		Flags: []cli.Flag{
			cli.StringFlag{Name: "username"},
			cli.StringFlag{Name: "password"},
			cli.StringFlag{Name: "email"},
		},
	}
)

func initDatabases() error {
	if err := database.InitMainDB(); err != nil {
		return err
	}
	return database.InitReadOnlyDB()
}

func serveAction(_ *cli.Context) error {
	log := logrus.WithField("cmd", "serve")
	log.Info("Starting serve CMD")

	if err := initDatabases(); err != nil {
		log.WithError(err).Error("Failed to connect to database")
		return err
	}

	cacheCfg := cache.GetConfig()
	rdb, err := cache.NewClient(context.Background(), cacheCfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, membership cache disabled")
		rdb = nil
	}
	if rdb != nil {
		defer rdb.Close()
	}

	cfg := server.GetConfig()
	deps := server.Wire(server.DefaultRepositories(), rdb, cacheCfg, autoportfolio.GetConfig())
	server.StartServer(cfg.Port, server.NewRouter(cfg, deps))
	return nil
}

func migrateAction(_ *cli.Context) error {
	logrus.WithField("cmd", "migrate").Info("Starting migrate CMD")
	// InitMainDB migrates on connect
	return database.InitMainDB()
}

func newConstructor() *autoportfolio.Constructor {
	deps := server.Wire(server.DefaultRepositories(), nil, cache.GetConfig(), autoportfolio.GetConfig())
	return deps.Builder
}

func autoPortfolioAction(c *cli.Context) error {
	log := logrus.WithField("cmd", "auto_portfolio")
	log.Info("Starting auto_portfolio CMD")

	if err := initDatabases(); err != nil {
		log.WithError(err).Error("Failed to connect to database")
		return err
	}

	cfg := autoportfolio.GetConfig()
	req := autoportfolio.NewRequest(cfg, c.Uint("user"), c.Int("offset"))
	req.PortfolioName = c.String("name")
	if raw := c.String("investment"); raw != "" {
		investment, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("invalid investment %q: %w", raw, err)
		}
		req.Investment = investment
	}
	if c.IsSet("positions") {
		req.PositionsPerType = c.Int("positions")
	}

	res, err := newConstructor().Build(context.Background(), req)
	if err != nil {
		log.WithError(err).Error("auto-portfolio build failed")
		return err
	}

	log.WithFields(logrus.Fields{
		"portfolio": res.PortfolioName,
		"positions": res.TotalPositions,
		"total_pnl": res.TotalPNL,
	}).Info("auto-portfolio created")
	return nil
}

func schedulerAction(_ *cli.Context) error {
	log := logrus.WithField("cmd", "scheduler")
	log.Info("Starting scheduler CMD")

	cfg := scheduler.GetConfig()
	if cfg.UserID == 0 {
		return fmt.Errorf("SCHEDULE_USER_ID is required")
	}

	if err := initDatabases(); err != nil {
		log.WithError(err).Error("Failed to connect to database")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := scheduler.New(ctx)
	job := scheduler.NewAutoPortfolioJob(newConstructor(), autoportfolio.GetConfig(), cfg.UserID, cfg.Offsets)
	if err := s.AddJob(cfg.Cron, job); err != nil {
		return fmt.Errorf("invalid SCHEDULE_CRON %q: %w", cfg.Cron, err)
	}

	s.Start()
	<-ctx.Done()
	s.Stop()
	return nil
}

func createUserAction(c *cli.Context) error {
	log := logrus.WithField("cmd", "create_user")

	username, password := c.String("username"), c.String("password")
	if username == "" || password == "" {
		return fmt.Errorf("--username and --password are required")
	}

	if err := database.InitMainDB(); err != nil {
		log.WithError(err).Error("Failed to connect to database")
		return err
	}

	u, err := repository.NewUserRepository().CreateUser(context.Background(), username, password, c.String("email"))
	if err != nil {
		return err
	}
	log.WithField("user_id", u.ID).Info("user created")
	return nil
}

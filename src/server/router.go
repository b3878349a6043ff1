package server

import (
	"net/http"

	"portfoliotracker/src/analysis"
	"portfoliotracker/src/auth"
	"portfoliotracker/src/autoportfolio"
	"portfoliotracker/src/handler"
	"portfoliotracker/src/metrics"
	"portfoliotracker/src/portfolio"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	logger "github.com/sirupsen/logrus"
)

// Dependencies are the services the HTTP surface is built on.
type Dependencies struct {
	Portfolios *portfolio.Service
	Analyzer   *analysis.Analyzer
	Builder    *autoportfolio.Constructor
	Users      auth.UserFinder
	AutoConfig autoportfolio.Config
}

func NewRouter(cfg *Config, deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// === Global Middleware ===
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// Public routes
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error("healthcheck write error")
		}
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/symbols", handler.SymbolsHandler(deps.Portfolios))
		r.Get("/kcex/symbols", handler.KcexSymbolsHandler(deps.Portfolios))
		r.Get("/kcex/check/{symbol}", handler.KcexCheckHandler(deps.Portfolios))

		r.Route("/portfolio", func(r chi.Router) {
			r.Get("/analyze/{userID}", handler.AnalyzePortfolioHandler(deps.Analyzer))
			r.Get("/rank/{userID}", handler.RankPortfolioHandler(deps.Analyzer, cfg.RankDefaultLimit))

			r.Get("/{userID}", handler.GetPortfolioHandler(deps.Portfolios))
			r.Post("/{userID}", handler.SavePortfolioHandler(deps.Portfolios))
			r.Delete("/{userID}", handler.DeletePortfolioHandler(deps.Portfolios))
			r.Post("/{userID}/add_to_main", handler.AddToMainHandler(deps.Portfolios))
			r.Post("/{userID}/remove_from_main", handler.RemoveFromMainHandler(deps.Portfolios))
			r.Post("/{userID}/copy_to_device", handler.CopyToDeviceHandler(deps.Portfolios))
		})

		r.Get("/user/portfolios/{userID}", handler.ListPortfoliosHandler(deps.Portfolios))

		r.With(auth.BasicAuth(deps.Users, "device")).
			Get("/device/portfolio/{username}", handler.DevicePortfolioHandler(deps.Analyzer, cfg.RankDefaultLimit))

		r.Route("/auto-portfolio", func(r chi.Router) {
			r.Post("/create", handler.AutoPortfolioHandler(deps.Builder, deps.AutoConfig, -1))
			r.Post("/create_30min", handler.AutoPortfolioHandler(deps.Builder, deps.AutoConfig, 30))
			r.Post("/create_60min", handler.AutoPortfolioHandler(deps.Builder, deps.AutoConfig, 60))
		})
	})

	return r
}

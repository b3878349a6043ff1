package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"portfoliotracker/src/analysis"
	"portfoliotracker/src/auth"
	"portfoliotracker/src/model"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"
)

type portfolioAnalyzer interface {
	Analyze(ctx context.Context, userID uint, name string) (*model.Analysis, error)
	Rank(ctx context.Context, userID uint, name string, limit int) (*model.Analysis, error)
}

type analysisResponse struct {
	Success bool `json:"success"`
	*model.Analysis
}

func AnalyzePortfolioHandler(analyzer portfolioAnalyzer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid user id")
			return
		}
		name := portfolioNameParam(r, model.MainPortfolioName)

		res, err := analyzer.Analyze(r.Context(), userID, name)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, analysisResponse{Success: true, Analysis: res})
	}
}

func RankPortfolioHandler(analyzer portfolioAnalyzer, defaultLimit int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid user id")
			return
		}
		limit, ok := limitParam(r, defaultLimit)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		name := portfolioNameParam(r, model.MainPortfolioName)

		res, err := analyzer.Rank(r.Context(), userID, name, limit)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, analysisResponse{Success: true, Analysis: res})
	}
}

// DevicePortfolioHandler serves the ranked view to display devices. It must
// run behind auth.BasicAuth; the authenticated user must own the path.
// A missing or empty portfolio is an empty, successful response.
func DevicePortfolioHandler(analyzer portfolioAnalyzer, defaultLimit int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.GetUserFromContext(r.Context())
		if !ok || user == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if user.UserName != chi.URLParam(r, "username") {
			logger.WithField("user_id", user.ID).Warn("device portfolio requested for another user")
			writeError(w, http.StatusForbidden, "access denied")
			return
		}

		limit, ok := limitParam(r, defaultLimit)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		name := portfolioNameParam(r, model.MainPortfolioName)

		res, err := analyzer.Rank(r.Context(), user.ID, name, limit)
		if errors.Is(err, analysis.ErrPortfolioNotFound) || errors.Is(err, analysis.ErrPortfolioEmpty) {
			res = &model.Analysis{
				PortfolioName: name,
				Positions:     []model.ValuedPosition{},
				Summary: model.Summary{
					Timestamp:    time.Now().UTC(),
					Verification: model.Verification{Status: model.VerificationOK},
				},
			}
			err = nil
		}
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, analysisResponse{Success: true, Analysis: res})
	}
}

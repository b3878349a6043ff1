package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"portfoliotracker/src/analysis"
	"portfoliotracker/src/autoportfolio"
	"portfoliotracker/src/portfolio"
	"portfoliotracker/src/repository"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.WithError(err).Error("failed to encode response")
	}
}

func writeOK(w http.ResponseWriter, fields map[string]interface{}) {
	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields["success"] = true
	writeJSON(w, http.StatusOK, fields)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   msg,
	})
}

// writeDomainError maps domain errors to a status. Anything unknown is a
// 500 with a generic message; the cause is only logged.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrPortfolioNotFound),
		errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, portfolio.ErrSymbolNotInPortfolio):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, analysis.ErrPortfolioEmpty),
		errors.Is(err, portfolio.ErrSourceEmpty),
		errors.Is(err, portfolio.ErrNothingToCopy):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, portfolio.ErrMainPortfolioProtected),
		errors.Is(err, portfolio.ErrInvalidCopyType),
		errors.Is(err, portfolio.ErrInvalidSource),
		errors.Is(err, portfolio.ErrInvalidPosition),
		errors.Is(err, autoportfolio.ErrInvalidUser),
		errors.Is(err, autoportfolio.ErrInvalidInvestment),
		errors.Is(err, autoportfolio.ErrInvalidPositionsPerType),
		errors.Is(err, autoportfolio.ErrInvalidOffset):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, autoportfolio.ErrBuildFailed):
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		logger.WithError(err).Error("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func userIDParam(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func portfolioNameParam(r *http.Request, fallback string) string {
	if name := r.URL.Query().Get("portfolio_name"); name != "" {
		return name
	}
	return fallback
}

// limitParam returns fallback when absent and false when malformed.
func limitParam(r *http.Request, fallback int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, false
	}
	return limit, true
}

func decodeBody(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	return json.NewDecoder(r.Body).Decode(dst)
}

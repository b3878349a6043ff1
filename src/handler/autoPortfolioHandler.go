package handler

import (
	"context"
	"io"
	"net/http"

	"portfoliotracker/src/autoportfolio"
	"portfoliotracker/src/model"

	"github.com/shopspring/decimal"
)

type portfolioBuilder interface {
	Build(ctx context.Context, req model.AutoPortfolioRequest) (*model.AutoPortfolioResult, error)
}

type autoPortfolioPayload struct {
	UserID           uint             `json:"user_id"`
	PortfolioName    string           `json:"portfolio_name"`
	Investment       *decimal.Decimal `json:"investment"`
	PositionsPerType *int             `json:"positions_per_type"`
	MinutesOffset    *int             `json:"minutes_offset"`
}

// AutoPortfolioHandler builds a momentum portfolio. A fixedOffset >= 0 pins
// the window offset; otherwise minutes_offset is read from the body.
func AutoPortfolioHandler(builder portfolioBuilder, cfg autoportfolio.Config, fixedOffset int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload autoPortfolioPayload
		if err := decodeBody(r, &payload); err != nil && err != io.EOF {
			writeError(w, http.StatusBadRequest, "invalid payload")
			return
		}

		offset := 0
		switch {
		case fixedOffset >= 0:
			offset = fixedOffset
		case payload.MinutesOffset != nil:
			offset = *payload.MinutesOffset
		}

		req := autoportfolio.NewRequest(cfg, payload.UserID, offset)
		req.PortfolioName = payload.PortfolioName
		if payload.Investment != nil {
			req.Investment = *payload.Investment
		}
		if payload.PositionsPerType != nil {
			req.PositionsPerType = *payload.PositionsPerType
		}

		res, err := builder.Build(r.Context(), req)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, struct {
			Success bool `json:"success"`
			*model.AutoPortfolioResult
		}{Success: true, AutoPortfolioResult: res})
	}
}

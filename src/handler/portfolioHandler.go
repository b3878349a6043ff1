package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"portfoliotracker/src/model"
	"portfoliotracker/src/portfolio"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
)

type portfolioService interface {
	Get(ctx context.Context, userID uint, name string) ([]model.Position, error)
	Replace(ctx context.Context, userID uint, name string, positions []model.Position) error
	Delete(ctx context.Context, userID uint, name string) error
	List(ctx context.Context, userID uint) ([]model.PortfolioInfo, error)
	AddToMain(ctx context.Context, userID uint, req portfolio.AddRequest) (model.Position, error)
	RemoveFromMain(ctx context.Context, userID uint, symbol string) (removed, remaining int, err error)
	CopyToDevice(ctx context.Context, userID uint, source, copyType string) (*portfolio.CopyResult, error)
}

func GetPortfolioHandler(svc portfolioService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid user id")
			return
		}
		name := portfolioNameParam(r, model.MainPortfolioName)

		positions, err := svc.Get(r.Context(), userID, name)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeOK(w, map[string]interface{}{
			"portfolio_name": name,
			"portfolio":      positions,
		})
	}
}

type savePortfolioPayload struct {
	PortfolioName string          `json:"portfolio_name"`
	Portfolio     json.RawMessage `json:"portfolio"`
}

func SavePortfolioHandler(svc portfolioService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid user id")
			return
		}

		var payload savePortfolioPayload
		if err := decodeBody(r, &payload); err != nil {
			logger.WithError(err).Warn("invalid portfolio payload")
			writeError(w, http.StatusBadRequest, "invalid payload")
			return
		}
		if payload.PortfolioName == "" {
			payload.PortfolioName = model.MainPortfolioName
		}

		positions := []model.Position{}
		if len(payload.Portfolio) > 0 && string(payload.Portfolio) != "null" {
			if err := json.Unmarshal(payload.Portfolio, &positions); err != nil {
				writeError(w, http.StatusBadRequest, "portfolio must be a list of positions")
				return
			}
		}

		if err := svc.Replace(r.Context(), userID, payload.PortfolioName, positions); err != nil {
			writeDomainError(w, err)
			return
		}

		writeOK(w, map[string]interface{}{
			"message":        "portfolio saved",
			"portfolio_name": payload.PortfolioName,
			"positions":      len(positions),
		})
	}
}

func DeletePortfolioHandler(svc portfolioService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid user id")
			return
		}
		name := portfolioNameParam(r, "")
		if name == "" {
			writeError(w, http.StatusBadRequest, "portfolio_name is required")
			return
		}

		if err := svc.Delete(r.Context(), userID, name); err != nil {
			writeDomainError(w, err)
			return
		}

		writeOK(w, map[string]interface{}{
			"message":        "portfolio deleted",
			"portfolio_name": name,
		})
	}
}

func ListPortfoliosHandler(svc portfolioService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid user id")
			return
		}

		infos, err := svc.List(r.Context(), userID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeOK(w, map[string]interface{}{
			"portfolios": infos,
		})
	}
}

type addToMainPayload struct {
	Symbol     string           `json:"symbol"`
	Position   string           `json:"position"`
	EntryPrice decimal.Decimal  `json:"entry_price"`
	Quantity   *decimal.Decimal `json:"quantity"`
}

func AddToMainHandler(svc portfolioService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid user id")
			return
		}

		var payload addToMainPayload
		if err := decodeBody(r, &payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid payload")
			return
		}

		req := portfolio.AddRequest{
			Symbol:     payload.Symbol,
			Side:       model.Side(payload.Position),
			EntryPrice: payload.EntryPrice,
		}
		if payload.Quantity != nil {
			req.Quantity = *payload.Quantity
		}

		added, err := svc.AddToMain(r.Context(), userID, req)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeOK(w, map[string]interface{}{
			"message":  "position added to Main",
			"position": added,
		})
	}
}

type removeFromMainPayload struct {
	Symbol string `json:"symbol"`
}

func RemoveFromMainHandler(svc portfolioService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid user id")
			return
		}

		var payload removeFromMainPayload
		if err := decodeBody(r, &payload); err != nil || payload.Symbol == "" {
			writeError(w, http.StatusBadRequest, "symbol is required")
			return
		}

		removed, remaining, err := svc.RemoveFromMain(r.Context(), userID, payload.Symbol)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeOK(w, map[string]interface{}{
			"removed_count":   removed,
			"remaining_count": remaining,
		})
	}
}

type copyToDevicePayload struct {
	SourcePortfolio string `json:"source_portfolio"`
	CopyType        string `json:"copy_type"`
}

func CopyToDeviceHandler(svc portfolioService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid user id")
			return
		}

		var payload copyToDevicePayload
		if err := decodeBody(r, &payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid payload")
			return
		}
		if payload.CopyType == "" {
			payload.CopyType = portfolio.CopyKcexOnly
		}

		res, err := svc.CopyToDevice(r.Context(), userID, payload.SourcePortfolio, payload.CopyType)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeOK(w, map[string]interface{}{
			"message": "portfolio copied to " + model.DevicePortfolioName,
			"result":  res,
		})
	}
}

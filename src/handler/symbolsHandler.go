package handler

import (
	"context"
	"net/http"

	"portfoliotracker/src/model"

	"github.com/go-chi/chi/v5"
)

type symbolService interface {
	Symbols(ctx context.Context) ([]model.SymbolStatus, error)
	KcexCheck(ctx context.Context, symbol string) (model.SymbolStatus, error)
	KcexSymbols(ctx context.Context) ([]string, error)
}

func SymbolsHandler(svc symbolService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		symbols, err := svc.Symbols(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeOK(w, map[string]interface{}{
			"symbols": symbols,
			"count":   len(symbols),
		})
	}
}

func KcexSymbolsHandler(svc symbolService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		symbols, err := svc.KcexSymbols(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeOK(w, map[string]interface{}{
			"symbols": symbols,
			"count":   len(symbols),
		})
	}
}

func KcexCheckHandler(svc symbolService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := svc.KcexCheck(r.Context(), chi.URLParam(r, "symbol"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeOK(w, map[string]interface{}{
			"symbol":  status.Symbol,
			"in_kcex": status.InKcex,
		})
	}
}

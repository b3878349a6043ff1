// Package analysis values whole portfolios and summarizes them.
package analysis

import (
	"context"
	"errors"
	"time"

	"portfoliotracker/src/metrics"
	"portfoliotracker/src/model"
	"portfoliotracker/src/pricing"
	"portfoliotracker/src/repository"
	"portfoliotracker/src/valuation"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
)

var (
	ErrPortfolioNotFound = repository.ErrPortfolioNotFound
	ErrPortfolioEmpty    = errors.New("portfolio is empty")
)

type PortfolioStore interface {
	Get(ctx context.Context, userID uint, name string) ([]model.Position, error)
}

// PriceStore serves both price paths: per-position lookups and the batch
// query behind the difference method.
type PriceStore interface {
	pricing.Source
	LatestPricesAtOrBefore(ctx context.Context, symbols []string, at time.Time) (map[string]decimal.Decimal, error)
}

type Membership interface {
	InKcex(ctx context.Context, symbol string) (bool, error)
}

type Analyzer struct {
	portfolios PortfolioStore
	prices     PriceStore
	membership Membership
	now        func() time.Time
}

func NewAnalyzer(portfolios PortfolioStore, prices PriceStore, membership Membership) *Analyzer {
	return &Analyzer{
		portfolios: portfolios,
		prices:     prices,
		membership: membership,
		now:        time.Now,
	}
}

// WithClock replaces the clock that defines "now" for price lookups.
func (a *Analyzer) WithClock(now func() time.Time) *Analyzer {
	a.now = now
	return a
}

// Analyze values every position of the portfolio against the latest prices.
func (a *Analyzer) Analyze(ctx context.Context, userID uint, name string) (*model.Analysis, error) {
	res, err := a.analyze(ctx, userID, name)
	if err != nil {
		metrics.AnalysesTotal.WithLabelValues("analyze", outcome(err)).Inc()
		return nil, err
	}
	metrics.AnalysesTotal.WithLabelValues("analyze", "ok").Inc()
	return res, nil
}

// Rank is Analyze with the position list sorted worst-first and truncated
// to limit. The summary still covers every valued position.
func (a *Analyzer) Rank(ctx context.Context, userID uint, name string, limit int) (*model.Analysis, error) {
	res, err := a.analyze(ctx, userID, name)
	if err != nil {
		metrics.AnalysesTotal.WithLabelValues("rank", outcome(err)).Inc()
		return nil, err
	}

	res.Positions = RankAndLimit(res.Positions, limit)
	res.Summary.SortedCount = len(res.Positions)

	metrics.AnalysesTotal.WithLabelValues("rank", "ok").Inc()
	return res, nil
}

func (a *Analyzer) analyze(ctx context.Context, userID uint, name string) (*model.Analysis, error) {
	log := logger.WithFields(logger.Fields{
		"component": "Analyzer",
		"user_id":   userID,
		"portfolio": name,
	})

	positions, err := a.portfolios.Get(ctx, userID, name)
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		return nil, ErrPortfolioEmpty
	}

	lookup := pricing.NewLookup(a.prices, a.now().UTC())
	kcex := make(map[string]bool)

	valued := make([]model.ValuedPosition, 0, len(positions))
	symbols := make([]string, 0, len(positions))
	for _, p := range positions {
		price, err := lookup.Latest(ctx, p.Symbol)
		if err != nil && !repository.IsPriceNotFound(err) {
			return nil, err
		}

		vp, err := valuation.Value(p, price)
		if err != nil {
			metrics.SkippedPositions.WithLabelValues(skipReason(err)).Inc()
			log.WithError(err).WithField("symbol", p.Symbol).Warn("skipping position")
			continue
		}

		in, seen := kcex[p.Symbol]
		if !seen {
			in = a.inKcex(ctx, p.Symbol)
			kcex[p.Symbol] = in
			symbols = append(symbols, p.Symbol)
		}
		vp.InKcex = in

		valued = append(valued, vp)
	}

	reference, err := a.prices.LatestPricesAtOrBefore(ctx, symbols, lookup.AsOf())
	if err != nil {
		log.WithError(err).Warn("batch price query failed, difference method uses position prices")
		reference = nil
	}

	summary := Summarize(valued, reference, len(positions), lookup.AsOf())
	if summary.Verification.Status == model.VerificationWarning {
		metrics.PNLDiscrepancies.Inc()
		log.WithFields(logger.Fields{
			"items_sum":         summary.Verification.ItemsSum,
			"difference_method": summary.Verification.DifferenceMethod,
			"discrepancy":       summary.Verification.Discrepancy,
		}).Warn("PNL discrepancy, using difference method")
	}

	return &model.Analysis{
		PortfolioName: name,
		Positions:     valued,
		Summary:       summary,
	}, nil
}

func (a *Analyzer) inKcex(ctx context.Context, symbol string) bool {
	if a.membership == nil {
		return false
	}
	in, err := a.membership.InKcex(ctx, symbol)
	if err != nil {
		logger.WithError(err).WithField("symbol", symbol).Warn("KCEX membership lookup failed")
		return false
	}
	return in
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, valuation.ErrInvalidEntryPrice):
		return "entry_price"
	case errors.Is(err, valuation.ErrInvalidQuantity):
		return "quantity"
	default:
		return "price"
	}
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrPortfolioNotFound):
		return "not_found"
	case errors.Is(err, ErrPortfolioEmpty):
		return "empty"
	default:
		return "error"
	}
}

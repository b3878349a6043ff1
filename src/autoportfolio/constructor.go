// Package autoportfolio builds momentum portfolios from the price feed.
package autoportfolio

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"portfoliotracker/src/analysis"
	"portfoliotracker/src/metrics"
	"portfoliotracker/src/model"
	"portfoliotracker/src/repository"
	"portfoliotracker/src/valuation"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
)

const (
	MinPositionsPerType = 5
	MaxPositionsPerType = 100
)

var (
	ErrInvalidUser             = errors.New("user id is required")
	ErrInvalidInvestment       = errors.New("investment must be greater than zero")
	ErrInvalidPositionsPerType = fmt.Errorf("positions_per_type must be between %d and %d", MinPositionsPerType, MaxPositionsPerType)
	ErrInvalidOffset           = errors.New("minutes_offset must not be negative")
	ErrBuildFailed             = errors.New("auto-portfolio build failed")
)

// Store runs a build inside one transaction.
type Store interface {
	WithinTransaction(ctx context.Context, fn func(tx repository.BuildTx) error) error
}

type ExceptionRecorder interface {
	Record(ctx context.Context, exc *model.Exception) error
}

type Constructor struct {
	store      Store
	exceptions ExceptionRecorder
	window     time.Duration
	now        func() time.Time
}

func NewConstructor(store Store, exceptions ExceptionRecorder, window time.Duration) *Constructor {
	if window <= 0 {
		window = 4 * time.Hour
	}
	return &Constructor{
		store:      store,
		exceptions: exceptions,
		window:     window,
		now:        time.Now,
	}
}

func (c *Constructor) WithClock(now func() time.Time) *Constructor {
	c.now = now
	return c
}

// Validate rejects a request before any store access.
func Validate(req model.AutoPortfolioRequest) error {
	switch {
	case req.UserID == 0:
		return ErrInvalidUser
	case !req.Investment.IsPositive():
		return ErrInvalidInvestment
	case req.PositionsPerType < MinPositionsPerType || req.PositionsPerType > MaxPositionsPerType:
		return ErrInvalidPositionsPerType
	case req.MinutesOffset < 0:
		return ErrInvalidOffset
	}
	return nil
}

// DefaultName is auto_YYYYMMDD_HHMMSS, with the offset as auto_{N}min_ when
// the window is shifted.
func DefaultName(minutesOffset int, now time.Time) string {
	if minutesOffset == 0 {
		return "auto_" + now.Format("20060102_150405")
	}
	return fmt.Sprintf("auto_%dmin_%s", minutesOffset, now.Format("20060102_150405"))
}

// Build ranks symbols by summed price_diff_pct over the window ending
// MinutesOffset minutes ago, shorts the weakest and longs the strongest at
// the price of the window end, and stores the result under the portfolio
// name. Either the whole portfolio is written or nothing is.
func (c *Constructor) Build(ctx context.Context, req model.AutoPortfolioRequest) (*model.AutoPortfolioResult, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	now := c.now().UTC()
	if req.PortfolioName == "" {
		req.PortfolioName = DefaultName(req.MinutesOffset, now)
	}

	log := logger.WithFields(logger.Fields{
		"component": "AutoPortfolio",
		"user_id":   req.UserID,
		"portfolio": req.PortfolioName,
		"offset":    req.MinutesOffset,
	})

	offsetLabel := strconv.Itoa(req.MinutesOffset)
	start := time.Now()

	var result *model.AutoPortfolioResult
	err := c.store.WithinTransaction(ctx, func(tx repository.BuildTx) error {
		var err error
		result, err = c.build(ctx, tx, req, now)
		return err
	})
	metrics.AutoBuildDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.AutoBuildsTotal.WithLabelValues(offsetLabel, "failed").Inc()
		log.WithError(err).Error("auto-portfolio build rolled back")
		c.recordFailure(ctx, req, err)
		return nil, ErrBuildFailed
	}

	metrics.AutoBuildsTotal.WithLabelValues(offsetLabel, "ok").Inc()
	log.WithFields(logger.Fields{
		"positions": result.TotalPositions,
		"longs":     result.LongCount,
		"shorts":    result.ShortCount,
	}).Info("auto-portfolio created")

	return result, nil
}

func (c *Constructor) build(
	ctx context.Context,
	tx repository.BuildTx,
	req model.AutoPortfolioRequest,
	now time.Time,
) (*model.AutoPortfolioResult, error) {

	end := now.Add(-time.Duration(req.MinutesOffset) * time.Minute)
	begin := end.Add(-c.window)

	if err := tx.ClearWindow(ctx); err != nil {
		return nil, err
	}
	records, err := tx.FillWindow(ctx, begin, end)
	if err != nil {
		return nil, err
	}

	weakest, err := tx.RankMomentum(ctx, true, 2*req.PositionsPerType)
	if err != nil {
		return nil, err
	}
	strongest, err := tx.RankMomentum(ctx, false, 2*req.PositionsPerType)
	if err != nil {
		return nil, err
	}

	b := &builder{
		tx:     tx,
		req:    req,
		now:    now,
		end:    end,
		stamp:  now.Format("20060102150405"),
		offset: fmt.Sprintf("%dmin", req.MinutesOffset),
	}
	if err := b.take(ctx, weakest, model.SideShort); err != nil {
		return nil, err
	}
	if err := b.take(ctx, strongest, model.SideLong); err != nil {
		return nil, err
	}

	if len(b.positions) > 0 {
		if err := tx.Upsert(ctx, req.UserID, req.PortfolioName, b.positions); err != nil {
			return nil, err
		}
	}

	summary := analysis.Summarize(b.valued, nil, len(b.valued), now)
	result := &model.AutoPortfolioResult{
		PortfolioName:     req.PortfolioName,
		TotalPositions:    len(b.valued),
		LongCount:         summary.LongPositions,
		ShortCount:        summary.ShortPositions,
		TotalInvestment:   summary.TotalInvestment,
		TotalCurrentValue: summary.TotalCurrentValue,
		TotalPNL:          summary.TotalPNL,
		TotalPNLPercent:   summary.TotalPNLPercent,
		RecordsProcessed:  records,
		IsHistorical:      req.MinutesOffset > 0,
		TimeOffset:        b.offset,
		MinutesOffset:     req.MinutesOffset,
		Positions:         b.valued,
	}
	for _, vp := range b.valued {
		if vp.InKcex {
			result.KcexCount++
		}
	}
	return result, nil
}

type builder struct {
	tx     repository.BuildTx
	req    model.AutoPortfolioRequest
	now    time.Time
	end    time.Time
	stamp  string
	offset string

	positions []model.Position
	valued    []model.ValuedPosition
}

// take adds up to PositionsPerType candidates on side, in rank order.
// Candidates without a price at the window end are dropped.
func (b *builder) take(ctx context.Context, candidates []model.SymbolMomentum, side model.Side) error {
	taken := 0
	for _, cand := range candidates {
		if taken >= b.req.PositionsPerType {
			break
		}

		entry, err := b.tx.PriceAtOrBefore(ctx, cand.Symbol, b.end)
		if err != nil {
			if repository.IsPriceNotFound(err) {
				logger.WithFields(logger.Fields{
					"symbol": cand.Symbol,
					"at":     b.end,
				}).Warn("no entry price at window end, skipping")
				continue
			}
			return err
		}

		current := entry
		if b.req.MinutesOffset > 0 {
			current, err = b.tx.PriceAtOrBefore(ctx, cand.Symbol, b.now)
			if err != nil {
				if !repository.IsPriceNotFound(err) {
					return err
				}
				current = entry
			}
		}

		inKcex, err := b.tx.InKcex(ctx, cand.Symbol)
		if err != nil {
			return err
		}

		p := model.Position{
			ID:         fmt.Sprintf("auto_%s_%s_%s", b.offset, cand.Symbol, b.stamp),
			Symbol:     cand.Symbol,
			Side:       side,
			EntryPrice: entry,
			Quantity:   b.req.Investment.Div(entry),
			AddedAt:    b.now.Format("2006-01-02T15:04:05.000Z"),
			TimeOffset: b.offset,
		}
		if err := p.SetExtra("price_diff_pct", cand.Momentum.Round(4).InexactFloat64()); err != nil {
			return err
		}
		if err := p.SetExtra("in_kcex", inKcex); err != nil {
			return err
		}
		if err := p.SetExtra("is_historical", b.req.MinutesOffset > 0); err != nil {
			return err
		}

		vp, err := valuation.Value(p, current)
		if err != nil {
			return fmt.Errorf("value %s: %w", cand.Symbol, err)
		}
		vp.InKcex = inKcex

		b.positions = append(b.positions, p)
		b.valued = append(b.valued, vp)
		taken++
	}
	return nil
}

func (c *Constructor) recordFailure(ctx context.Context, req model.AutoPortfolioRequest, cause error) {
	if c.exceptions == nil {
		return
	}

	exc := model.NewException("autoportfolio", "Build", cause, map[string]interface{}{
		"user_id":            req.UserID,
		"portfolio_name":     req.PortfolioName,
		"investment":         req.Investment.String(),
		"positions_per_type": req.PositionsPerType,
		"minutes_offset":     req.MinutesOffset,
	})
	if err := c.exceptions.Record(context.WithoutCancel(ctx), exc); err != nil {
		logger.WithError(err).Error("failed to persist auto-portfolio exception")
	}
}

// NewRequest fills a request from the configured defaults.
func NewRequest(cfg Config, userID uint, minutesOffset int) model.AutoPortfolioRequest {
	return model.AutoPortfolioRequest{
		UserID:           userID,
		Investment:       decimal.NewFromFloat(cfg.Investment),
		PositionsPerType: cfg.PositionsPerType,
		MinutesOffset:    minutesOffset,
	}
}

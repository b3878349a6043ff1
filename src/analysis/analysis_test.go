package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"portfoliotracker/src/model"
	"portfoliotracker/src/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var fixedNow = time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

type fakePortfolios map[string][]model.Position

func (f fakePortfolios) Get(_ context.Context, _ uint, name string) ([]model.Position, error) {
	p, ok := f[name]
	if !ok {
		return nil, repository.ErrPortfolioNotFound
	}
	return p, nil
}

// fakePrices serves per-position lookups from item and the batch query from
// batch, falling back to item.
type fakePrices struct {
	item  map[string]decimal.Decimal
	batch map[string]decimal.Decimal
	at    []time.Time
}

func (f *fakePrices) PriceAtOrBefore(_ context.Context, symbol string, at time.Time) (decimal.Decimal, error) {
	f.at = append(f.at, at)
	p, ok := f.item[symbol]
	if !ok {
		return decimal.Zero, repository.ErrPriceNotFound
	}
	return p, nil
}

func (f *fakePrices) LatestPricesAtOrBefore(_ context.Context, symbols []string, _ time.Time) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal)
	for _, s := range symbols {
		if p, ok := f.batch[s]; ok {
			out[s] = p
		} else if p, ok := f.item[s]; ok {
			out[s] = p
		}
	}
	return out, nil
}

type fakeMembership map[string]bool

func (f fakeMembership) InKcex(_ context.Context, symbol string) (bool, error) {
	return f[symbol], nil
}

func position(symbol string, side model.Side, entry, qty string) model.Position {
	return model.Position{Symbol: symbol, Side: side, EntryPrice: d(entry), Quantity: d(qty)}
}

func newAnalyzer(portfolios fakePortfolios, prices *fakePrices) *Analyzer {
	return NewAnalyzer(portfolios, prices, fakeMembership{"BTC_USDT": true}).
		WithClock(func() time.Time { return fixedNow })
}

func TestAnalyze_SingleLong(t *testing.T) {
	a := newAnalyzer(
		fakePortfolios{"Main": {position("BTC_USDT", model.SideLong, "100", "2")}},
		&fakePrices{item: map[string]decimal.Decimal{"BTC_USDT": d("110")}},
	)

	res, err := a.Analyze(context.Background(), 1, "Main")
	require.NoError(t, err)
	require.Len(t, res.Positions, 1)

	vp := res.Positions[0]
	assert.True(t, vp.PNL.Equal(d("20")))
	assert.True(t, vp.PNLPercent.Equal(d("10")))
	assert.True(t, vp.InKcex)

	s := res.Summary
	assert.Equal(t, 200.0, s.TotalInvestment)
	assert.Equal(t, 220.0, s.TotalCurrentValue)
	assert.Equal(t, 20.0, s.TotalPNL)
	assert.Equal(t, 10.0, s.TotalPNLPercent)
	assert.Equal(t, 1, s.LongPositions)
	assert.Equal(t, model.VerificationOK, s.Verification.Status)
	assert.Equal(t, fixedNow, s.Timestamp)
}

func TestAnalyze_SingleShortUsesLiteralDifference(t *testing.T) {
	a := newAnalyzer(
		fakePortfolios{"Main": {position("ETH_USDT", model.SideShort, "100", "2")}},
		&fakePrices{item: map[string]decimal.Decimal{"ETH_USDT": d("90")}},
	)

	res, err := a.Analyze(context.Background(), 1, "Main")
	require.NoError(t, err)
	require.Len(t, res.Positions, 1)
	assert.True(t, res.Positions[0].PNL.Equal(d("20")))
	assert.False(t, res.Positions[0].InKcex)

	s := res.Summary
	assert.Equal(t, 200.0, s.TotalInvestment)
	assert.Equal(t, 180.0, s.TotalCurrentValue)
	assert.Equal(t, 20.0, s.ShortTotalPNL)
	assert.Equal(t, 10.0, s.ShortPNLPercent)

	v := s.Verification
	assert.Equal(t, 20.0, v.ItemsSum)
	assert.Equal(t, s.TotalCurrentValue-s.TotalInvestment, v.DifferenceMethod)
	assert.Equal(t, -20.0, v.DifferenceMethod)
	assert.Equal(t, 40.0, v.Discrepancy)
	assert.Equal(t, model.VerificationWarning, v.Status)
	assert.Equal(t, -20.0, s.TotalPNL)
	assert.Equal(t, -10.0, s.TotalPNLPercent)
}

func TestAnalyze_StalePriceReconciledToDifferenceMethod(t *testing.T) {
	a := newAnalyzer(
		fakePortfolios{"Main": {
			position("BTC_USDT", model.SideLong, "100", "1"),
			position("ETH_USDT", model.SideLong, "50", "2"),
		}},
		&fakePrices{
			item:  map[string]decimal.Decimal{"BTC_USDT": d("100"), "ETH_USDT": d("60")},
			batch: map[string]decimal.Decimal{"BTC_USDT": d("110")},
		},
	)

	res, err := a.Analyze(context.Background(), 1, "Main")
	require.NoError(t, err)

	s := res.Summary
	assert.Equal(t, 200.0, s.TotalInvestment)
	assert.Equal(t, 230.0, s.TotalCurrentValue)

	v := s.Verification
	assert.Equal(t, 20.0, v.ItemsSum)
	assert.Equal(t, 30.0, v.DifferenceMethod)
	assert.Equal(t, 10.0, v.Discrepancy)
	assert.Equal(t, model.VerificationWarning, v.Status)
	assert.Equal(t, 30.0, s.TotalPNL)
	assert.Equal(t, 15.0, s.AvgPNLPerPosition)
}

func TestAnalyze_SubCentDiscrepancyKeepsFourPlaces(t *testing.T) {
	a := newAnalyzer(
		fakePortfolios{"Main": {position("BTC_USDT", model.SideLong, "100", "1")}},
		&fakePrices{
			item:  map[string]decimal.Decimal{"BTC_USDT": d("100")},
			batch: map[string]decimal.Decimal{"BTC_USDT": d("100.0042")},
		},
	)

	res, err := a.Analyze(context.Background(), 1, "Main")
	require.NoError(t, err)

	v := res.Summary.Verification
	assert.Equal(t, 0.0042, v.Discrepancy)
	assert.Equal(t, model.VerificationOK, v.Status)
	assert.Equal(t, 0.0, res.Summary.TotalPNL)
}

func TestAnalyze_SkipsInvalidPositions(t *testing.T) {
	a := newAnalyzer(
		fakePortfolios{"Main": {
			position("BTC_USDT", model.SideLong, "0", "1"),
			position("ETH_USDT", model.SideLong, "10", "0"),
			position("DOGE_USDT", model.SideLong, "1", "1"),
			position("SOL_USDT", model.SideShort, "10", "1"),
		}},
		&fakePrices{item: map[string]decimal.Decimal{
			"BTC_USDT": d("10"), "ETH_USDT": d("10"), "SOL_USDT": d("12"),
		}},
	)

	res, err := a.Analyze(context.Background(), 1, "Main")
	require.NoError(t, err)
	require.Len(t, res.Positions, 1)
	assert.Equal(t, "SOL_USDT", res.Positions[0].Position.Symbol)
	assert.Equal(t, 4, res.Summary.TotalPositions)
	assert.Equal(t, 1, res.Summary.ValidPositions)
	// the short lost 2, the difference method reports value minus investment
	assert.Equal(t, 2.0, res.Summary.TotalPNL)
	assert.Equal(t, model.VerificationWarning, res.Summary.Verification.Status)
}

func TestAnalyze_NotFoundAndEmpty(t *testing.T) {
	a := newAnalyzer(fakePortfolios{"Empty": {}}, &fakePrices{})

	_, err := a.Analyze(context.Background(), 1, "Main")
	require.ErrorIs(t, err, ErrPortfolioNotFound)

	_, err = a.Analyze(context.Background(), 1, "Empty")
	require.ErrorIs(t, err, ErrPortfolioEmpty)
}

func TestAnalyze_IdempotentExceptTimestamp(t *testing.T) {
	prices := &fakePrices{item: map[string]decimal.Decimal{"BTC_USDT": d("123.456"), "ETH_USDT": d("7.89")}}
	clock := fixedNow
	a := NewAnalyzer(fakePortfolios{"Main": {
		position("BTC_USDT", model.SideLong, "100", "0.3"),
		position("ETH_USDT", model.SideShort, "8", "11"),
	}}, prices, fakeMembership{}).WithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	})

	first, err := a.Analyze(context.Background(), 1, "Main")
	require.NoError(t, err)
	second, err := a.Analyze(context.Background(), 1, "Main")
	require.NoError(t, err)

	assert.True(t, second.Summary.Timestamp.After(first.Summary.Timestamp))
	first.Summary.Timestamp = time.Time{}
	second.Summary.Timestamp = time.Time{}

	b1, err := json.Marshal(first)
	require.NoError(t, err)
	b2, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(b1), string(b2))

	// every lookup of one analysis uses that analysis' instant
	require.Len(t, prices.at, 4)
	assert.Equal(t, prices.at[0], prices.at[1])
	assert.Equal(t, prices.at[2], prices.at[3])
}

func TestRank_TruncatesButKeepsFullTotals(t *testing.T) {
	positions := make([]model.Position, 0, 100)
	item := make(map[string]decimal.Decimal, 100)
	for i := 0; i < 100; i++ {
		sym := fmt.Sprintf("S%03d_USDT", i)
		positions = append(positions, position(sym, model.SideLong, "100", "1"))
		// ten distinct prices so there are many ties
		item[sym] = decimal.NewFromInt(int64(95 + (i*7)%10))
	}
	a := newAnalyzer(fakePortfolios{"Main": positions}, &fakePrices{item: item})

	full, err := a.Analyze(context.Background(), 1, "Main")
	require.NoError(t, err)

	ranked, err := a.Rank(context.Background(), 1, "Main", 70)
	require.NoError(t, err)
	require.Len(t, ranked.Positions, 70)
	assert.Equal(t, 70, ranked.Summary.SortedCount)
	assert.Equal(t, full.Summary.TotalPNL, ranked.Summary.TotalPNL)
	assert.Equal(t, 100, ranked.Summary.ValidPositions)
}

package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"portfoliotracker/src/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowRepository_FillAndRank(t *testing.T) {
	db := newTestDB(t)
	repo := NewWindowRepositoryWithDB(db)
	ctx := context.Background()

	to := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	from := to.Add(-4 * time.Hour)

	seedTicks(t, db,
		// outside the window on both ends
		tick{symbol: "BTC_USDT", price: "100", pct: "50", at: from},
		tick{symbol: "BTC_USDT", price: "100", pct: "50", at: to.Add(time.Minute)},

		tick{symbol: "BTC_USDT", price: "101", pct: "1", at: from.Add(time.Minute)},
		tick{symbol: "BTC_USDT", price: "102", pct: "1", at: to},
		tick{symbol: "ETH_USDT", price: "20", pct: "-3", at: to.Add(-time.Hour)},
		tick{symbol: "SOL_USDT", price: "5", pct: "2", at: to.Add(-time.Hour)},
		tick{symbol: "ADA_USDT", price: "1", pct: "2", at: to.Add(-time.Hour)},
	)

	require.NoError(t, repo.ClearWindow(ctx))
	n, err := repo.FillWindow(ctx, from, to)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	top, err := repo.RankMomentum(ctx, false, 3)
	require.NoError(t, err)
	require.Len(t, top, 3)
	// ties on 2 are broken by symbol
	assert.Equal(t, "ADA_USDT", top[0].Symbol)
	assert.Equal(t, "BTC_USDT", top[1].Symbol)
	assert.Equal(t, "SOL_USDT", top[2].Symbol)
	assert.True(t, top[1].Momentum.Equal(d("2")))

	bottom, err := repo.RankMomentum(ctx, true, 1)
	require.NoError(t, err)
	require.Len(t, bottom, 1)
	assert.Equal(t, "ETH_USDT", bottom[0].Symbol)
	assert.True(t, bottom[0].Momentum.Equal(d("-3")))

	require.NoError(t, repo.ClearWindow(ctx))
	var count int64
	require.NoError(t, db.Model(&model.FuturesPriceWindow{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAutoPortfolioRepository_RollsBackOnLockFailure(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAutoPortfolioRepositoryWithDB(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("LOCK TABLE futures_prices_4h IN EXCLUSIVE MODE")).
		WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()

	err := repo.WithinTransaction(context.Background(), func(tx BuildTx) error {
		return tx.ClearWindow(context.Background())
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lock timeout")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAutoPortfolioRepository_RollsBackEveryWrite(t *testing.T) {
	db := newTestDB(t)
	repo := NewAutoPortfolioRepositoryWithDB(db)
	ctx := context.Background()

	to := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	seedTicks(t, db, tick{symbol: "BTC_USDT", price: "100", pct: "1", at: to})

	boom := errors.New("boom")
	err := repo.WithinTransaction(ctx, func(tx BuildTx) error {
		if err := tx.ClearWindow(ctx); err != nil {
			return err
		}
		if _, err := tx.FillWindow(ctx, to.Add(-time.Hour), to); err != nil {
			return err
		}
		if err := tx.Upsert(ctx, 1, "auto", []model.Position{
			{Symbol: "BTC_USDT", Side: model.SideLong, EntryPrice: d("100"), Quantity: d("0.1")},
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var windowRows, portfolios int64
	require.NoError(t, db.Model(&model.FuturesPriceWindow{}).Count(&windowRows).Error)
	require.NoError(t, db.Model(&model.UserPortfolio{}).Count(&portfolios).Error)
	assert.Zero(t, windowRows)
	assert.Zero(t, portfolios)
}

package repository

import (
	"context"
	"fmt"
	"time"

	"portfoliotracker/src/model"

	"gorm.io/gorm"
)

// WindowRepository manages the futures_prices_4h staging table. It is only
// meant to be used inside the auto-portfolio transaction, since ClearWindow
// wipes rows other builds may be reading.
type WindowRepository struct {
	db *gorm.DB
}

func NewWindowRepositoryWithDB(db *gorm.DB) *WindowRepository {
	return &WindowRepository{
		db: db,
	}
}

// ClearWindow empties the staging table. On PostgreSQL the table is locked
// first so concurrent builds serialize on it until commit.
func (r *WindowRepository) ClearWindow(ctx context.Context) error {
	db := r.db.WithContext(ctx)

	if db.Dialector.Name() == "postgres" {
		if err := db.Exec("LOCK TABLE futures_prices_4h IN EXCLUSIVE MODE").Error; err != nil {
			return fmt.Errorf("lock futures_prices_4h: %w", err)
		}
	}

	if err := db.Exec("DELETE FROM futures_prices_4h").Error; err != nil {
		return fmt.Errorf("clear futures_prices_4h: %w", err)
	}
	return nil
}

// FillWindow copies the feed ticks with from < timestamp <= to into the
// staging table and returns how many were copied.
func (r *WindowRepository) FillWindow(ctx context.Context, from, to time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Exec(
		`INSERT INTO futures_prices_4h (symbol, price, "timestamp", previous_price, price_diff, price_diff_pct)
		SELECT symbol, price, "timestamp", base_price, price_change, price_change_percent
		FROM futures_prices
		WHERE "timestamp" > ? AND "timestamp" <= ?`,
		from, to,
	)
	if res.Error != nil {
		return 0, fmt.Errorf("fill futures_prices_4h: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// RankMomentum sums price_diff_pct per symbol over the staged window and
// returns the first limit symbols, lowest sum first when ascending.
// Ties are broken by symbol so results are deterministic.
func (r *WindowRepository) RankMomentum(ctx context.Context, ascending bool, limit int) ([]model.SymbolMomentum, error) {
	direction := "DESC"
	if ascending {
		direction = "ASC"
	}

	var rows []model.SymbolMomentum
	err := r.db.WithContext(ctx).
		Model(&model.FuturesPriceWindow{}).
		Select("symbol, COALESCE(SUM(price_diff_pct), 0) AS momentum").
		Group("symbol").
		Order(fmt.Sprintf("momentum %s, symbol ASC", direction)).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("rank momentum: %w", err)
	}
	return rows, nil
}

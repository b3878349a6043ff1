package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"portfoliotracker/src/database"
	"portfoliotracker/src/model"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// PriceRepository reads the append-only futures_prices feed.
type PriceRepository struct {
	db *gorm.DB
}

// NewPriceRepository reads from the read-only connection.
func NewPriceRepository() *PriceRepository {
	logger.WithField("component", "PriceRepository").
		Info("Creating new PriceRepository with ReadOnlyDB")

	return &PriceRepository{
		db: database.ReadOnlyDB,
	}
}

func NewPriceRepositoryWithDB(db *gorm.DB) *PriceRepository {
	return &PriceRepository{
		db: db,
	}
}

// PriceAtOrBefore returns the price of the newest tick with timestamp <= at.
// Ticks after at are never considered.
func (r *PriceRepository) PriceAtOrBefore(
	ctx context.Context,
	symbol string,
	at time.Time,
) (decimal.Decimal, error) {

	var rows []model.FuturesPrice
	err := r.db.WithContext(ctx).
		Where(`symbol = ? AND "timestamp" <= ?`, symbol, at).
		Order(`"timestamp" DESC, id DESC`).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return decimal.Zero, err
	}

	if len(rows) == 0 || !rows[0].Price.IsPositive() {
		return decimal.Zero, ErrPriceNotFound
	}

	return rows[0].Price, nil
}

type symbolPrice struct {
	Symbol string
	Price  decimal.Decimal
}

// LatestPricesAtOrBefore resolves the newest price <= at for every symbol in
// one query. Symbols without data are absent from the result.
func (r *PriceRepository) LatestPricesAtOrBefore(
	ctx context.Context,
	symbols []string,
	at time.Time,
) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal, len(symbols))
	if len(symbols) == 0 {
		return prices, nil
	}

	latest := r.db.
		Model(&model.FuturesPrice{}).
		Select(`symbol, MAX("timestamp") AS ts`).
		Where(`symbol IN ? AND "timestamp" <= ?`, symbols, at).
		Group("symbol")

	var rows []symbolPrice
	err := r.db.WithContext(ctx).
		Table("futures_prices AS fp").
		Select("fp.symbol, fp.price").
		Joins(`JOIN (?) AS latest ON latest.symbol = fp.symbol AND latest.ts = fp."timestamp"`, latest).
		Order("fp.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		if _, seen := prices[row.Symbol]; seen || !row.Price.IsPositive() {
			continue
		}
		prices[row.Symbol] = row.Price
	}

	return prices, nil
}

// FeedSymbols lists the distinct symbols of the feed quoted in the given
// currency, e.g. "USDT".
func (r *PriceRepository) FeedSymbols(ctx context.Context, quote string) ([]string, error) {
	var symbols []string
	err := r.db.WithContext(ctx).
		Model(&model.FuturesPrice{}).
		Distinct("symbol").
		Order("symbol").
		Pluck("symbol", &symbols).Error
	if err != nil {
		return nil, err
	}

	suffix := "_" + quote
	out := symbols[:0]
	for _, s := range symbols {
		if strings.HasSuffix(s, suffix) {
			out = append(out, s)
		}
	}
	return out, nil
}

// IsPriceNotFound reports whether err means the symbol has no usable tick.
func IsPriceNotFound(err error) bool {
	return errors.Is(err, ErrPriceNotFound)
}

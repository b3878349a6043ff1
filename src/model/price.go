package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// FuturesPrice is one tick of the external price feed. The collector owns
// the table; this service only reads it.
type FuturesPrice struct {
	ID                 uint            `gorm:"primaryKey"`
	Symbol             string          `json:"symbol" gorm:"type:varchar(50);not null;index:idx_futures_prices_symbol_ts,priority:1"`
	Price              decimal.Decimal `json:"price" gorm:"type:numeric(20,8)"`
	Timestamp          time.Time       `json:"timestamp" gorm:"column:timestamp;not null;index:idx_futures_prices_symbol_ts,priority:2;index:idx_futures_prices_ts"`
	BasePrice          decimal.Decimal `json:"base_price" gorm:"type:numeric(20,8)"`
	PriceChange        decimal.Decimal `json:"price_change" gorm:"type:numeric(20,8)"`
	PriceChangePercent decimal.Decimal `json:"price_change_percent" gorm:"type:numeric(10,4)"`
}

func (FuturesPrice) TableName() string {
	return "futures_prices"
}

// FuturesPriceWindow is the staging copy of the feed used while an
// auto-portfolio is being built.
type FuturesPriceWindow struct {
	ID            uint            `gorm:"primaryKey"`
	Symbol        string          `json:"symbol" gorm:"type:varchar(50);not null;index:idx_futures_prices_4h_symbol"`
	Price         decimal.Decimal `json:"price" gorm:"type:numeric(20,8)"`
	Timestamp     time.Time       `json:"timestamp" gorm:"column:timestamp;index:idx_futures_prices_4h_ts"`
	PreviousPrice decimal.Decimal `json:"previous_price" gorm:"type:numeric(20,8)"`
	PriceDiff     decimal.Decimal `json:"price_diff" gorm:"type:numeric(20,8)"`
	PriceDiffPct  decimal.Decimal `json:"price_diff_pct" gorm:"type:numeric(10,4)"`
}

func (FuturesPriceWindow) TableName() string {
	return "futures_prices_4h"
}

// KcexFuture marks a symbol as listed on KCEX. Display annotation only.
type KcexFuture struct {
	ID        uint      `gorm:"primaryKey"`
	Symbol    string    `json:"symbol" gorm:"type:varchar(50);not null;uniqueIndex:ux_kcex_futures_symbol"`
	Timestamp time.Time `json:"timestamp" gorm:"column:timestamp;autoCreateTime"`
}

func (KcexFuture) TableName() string {
	return "kcex_futures"
}

// SymbolMomentum is the summed percent change of a symbol over a window.
type SymbolMomentum struct {
	Symbol   string          `json:"symbol"`
	Momentum decimal.Decimal `json:"momentum"`
}

// SymbolStatus is a feed symbol annotated with its KCEX membership.
type SymbolStatus struct {
	Symbol string `json:"symbol"`
	InKcex bool   `json:"in_kcex"`
}

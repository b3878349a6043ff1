package migrations

import (
	"fmt"

	"portfoliotracker/src/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultKcexSymbols are inserted once so a fresh database has a populated
// membership set.
var DefaultKcexSymbols = []string{
	"BTC_USDT", "ETH_USDT", "ADA_USDT", "LINK_USDT",
	"LTC_USDT", "BCH_USDT", "XRP_USDT", "DOT_USDT",
}

func seedKcexSymbols(db *gorm.DB) error {
	rows := make([]model.KcexFuture, 0, len(DefaultKcexSymbols))
	for _, s := range DefaultKcexSymbols {
		rows = append(rows, model.KcexFuture{Symbol: s})
	}

	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		return fmt.Errorf("insert kcex symbols: %w", err)
	}
	return nil
}

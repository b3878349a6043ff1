package database

import (
	"fmt"

	"portfoliotracker/src/model"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ReadOnlyDB serves price feed reads for analysis requests. The feed is
// written by an external collector; the database user for this connection
// only needs SELECT permissions.
var ReadOnlyDB *gorm.DB

// InitReadOnlyDB initializes the read-only connection. Without a dedicated
// URL it falls back to MainDB, so InitMainDB must run first.
func InitReadOnlyDB() error {
	config := GetConfig()

	if config.DatabaseURLReadOnly == "" {
		if MainDB == nil {
			return fmt.Errorf("read-only database falls back to MainDB, which is not initialized")
		}
		ReadOnlyDB = MainDB
		logrus.Info("[ReadOnlyDB] no dedicated URL, reusing MainDB")
		return nil
	}

	db, err := open(config.DatabaseURLReadOnly, config, true)
	if err != nil {
		return fmt.Errorf("failed to connect to read-only database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB from ReadOnlyDB: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to ping ReadOnlyDB: %w", err)
	}

	var count int64
	if err := db.Model(&model.FuturesPrice{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to access futures_prices: %w", err)
	}

	logrus.WithField("count", count).Info("[ReadOnlyDB] futures_prices reachable")

	ReadOnlyDB = db

	return nil
}

package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"portfoliotracker/src/database"
	"portfoliotracker/src/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	dialector := postgres.New(postgres.Config{
		DSN:                  "sqlmock_db_0",
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	})

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		sqlDB.Close()
		t.Fatalf("failed to open gorm DB with sqlmock: %v", err)
	}

	return gdb, mock
}

// newTestDB opens a migrated in memory sqlite database private to the test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type tick struct {
	symbol string
	price  string
	pct    string
	at     time.Time
}

func seedTicks(t *testing.T, db *gorm.DB, ticks ...tick) {
	t.Helper()
	for _, tk := range ticks {
		pct := decimal.Zero
		if tk.pct != "" {
			pct = d(tk.pct)
		}
		row := model.FuturesPrice{
			Symbol:             tk.symbol,
			Price:              d(tk.price),
			Timestamp:          tk.at.UTC(),
			PriceChangePercent: pct,
		}
		require.NoError(t, db.Create(&row).Error)
	}
}

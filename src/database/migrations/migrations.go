// Package migrations holds the data changes that AutoMigrate cannot express:
// seeding the KCEX membership set and repairing legacy portfolio rows.
package migrations

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DataMigration is one applied entry of the data_migrations ledger.
type DataMigration struct {
	ID        string    `gorm:"primaryKey;size:200;column:id"`
	AppliedAt time.Time `gorm:"not null;column:applied_at"`
}

func (DataMigration) TableName() string { return "data_migrations" }

// step is one ledger entry. Ids are applied in slice order and never reused.
type step struct {
	id string
	fn func(*gorm.DB) error
}

var steps = []step{
	{"00001_seed_kcex_symbols", seedKcexSymbols},
	{"00002_backfill_empty_portfolio_data", backfillEmptyPortfolioData},
}

// Run applies every step missing from the ledger.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	for _, s := range steps {
		if err := RunOnce(db, s.id, s.fn); err != nil {
			return err
		}
	}
	return nil
}

// RunOnce applies fn and records id in the same transaction, so a failed
// step is retried on the next start.
func RunOnce(db *gorm.DB, id string, fn func(*gorm.DB) error) error {
	if db == nil {
		return nil
	}
	if id == "" {
		return errors.New("data migration id is empty")
	}
	if fn == nil {
		return fmt.Errorf("data migration %q has no step", id)
	}

	if err := db.AutoMigrate(&DataMigration{}); err != nil {
		return fmt.Errorf("create data_migrations: %w", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		applied, err := isApplied(tx, id)
		if err != nil || applied {
			return err
		}

		if err := fn(tx); err != nil {
			return fmt.Errorf("data migration %q: %w", id, err)
		}

		if err := tx.Create(&DataMigration{ID: id, AppliedAt: time.Now().UTC()}).Error; err != nil {
			return fmt.Errorf("record data migration %q: %w", id, err)
		}
		logrus.WithField("migration", id).Info("[migrations] applied")
		return nil
	})
}

func isApplied(tx *gorm.DB, id string) (bool, error) {
	var n int64
	if err := tx.Model(&DataMigration{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, fmt.Errorf("check data migration %q: %w", id, err)
	}
	return n > 0, nil
}

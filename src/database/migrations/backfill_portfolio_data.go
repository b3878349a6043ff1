package migrations

import (
	"fmt"

	"portfoliotracker/src/model"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// backfillEmptyPortfolioData replaces NULL blobs left by older writers with an
// empty array so every stored portfolio decodes.
func backfillEmptyPortfolioData(db *gorm.DB) error {
	res := db.Model(&model.UserPortfolio{}).
		Where("portfolio_data IS NULL").
		Update("portfolio_data", "[]")
	if res.Error != nil {
		return fmt.Errorf("backfill portfolio_data: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		logrus.WithField("rows", res.RowsAffected).Info("[migrations] backfilled empty portfolio data")
	}
	return nil
}

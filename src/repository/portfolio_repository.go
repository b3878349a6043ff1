package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"portfoliotracker/src/database"
	"portfoliotracker/src/model"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PortfolioRepository stores portfolios as whole JSON blobs. Concurrent
// writers to the same (user, name) race with last-writer-wins semantics;
// there is no merge or optimistic locking.
type PortfolioRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewPortfolioRepository() *PortfolioRepository {
	logger.WithField("component", "PortfolioRepository").
		Info("Creating new PortfolioRepository with MainDB")

	return NewPortfolioRepositoryWithDB(database.MainDB)
}

func NewPortfolioRepositoryWithDB(db *gorm.DB) *PortfolioRepository {
	return &PortfolioRepository{
		db:  db,
		now: time.Now,
	}
}

// Get returns the decoded positions of a portfolio or ErrPortfolioNotFound.
func (r *PortfolioRepository) Get(ctx context.Context, userID uint, name string) ([]model.Position, error) {
	var p model.UserPortfolio
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND portfolio_name = ?", userID, name).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPortfolioNotFound
		}
		return nil, err
	}

	return p.Positions(), nil
}

// Upsert replaces the whole portfolio blob, creating the row if needed.
func (r *PortfolioRepository) Upsert(ctx context.Context, userID uint, name string, positions []model.Position) error {
	blob, err := model.EncodePositions(positions)
	if err != nil {
		return err
	}

	now := r.now().UTC()
	row := model.UserPortfolio{
		UserID:        userID,
		PortfolioName: name,
		PortfolioData: blob,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "portfolio_name"}},
			DoUpdates: clause.AssignmentColumns([]string{"portfolio_data", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert portfolio %q: %w", name, err)
	}

	logger.WithFields(logger.Fields{
		"user_id":   userID,
		"portfolio": name,
		"positions": len(positions),
	}).Info("portfolio stored")

	return nil
}

// Delete removes a portfolio; ErrPortfolioNotFound when nothing matched.
func (r *PortfolioRepository) Delete(ctx context.Context, userID uint, name string) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND portfolio_name = ?", userID, name).
		Delete(&model.UserPortfolio{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPortfolioNotFound
	}
	return nil
}

// List returns every portfolio of a user, Main first, then most recently
// updated first.
func (r *PortfolioRepository) List(ctx context.Context, userID uint) ([]model.PortfolioInfo, error) {
	var rows []model.UserPortfolio
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]model.PortfolioInfo, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.PortfolioInfo{
			PortfolioName: row.PortfolioName,
			PositionCount: len(row.Positions()),
			UpdatedAt:     row.UpdatedAt,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		iMain := out[i].PortfolioName == model.MainPortfolioName
		jMain := out[j].PortfolioName == model.MainPortfolioName
		if iMain != jMain {
			return iMain
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})

	return out, nil
}

package repository

import (
	"context"

	"portfoliotracker/src/database"
	"portfoliotracker/src/model"

	"gorm.io/gorm"
)

// MembershipRepository answers whether a symbol is listed on KCEX.
type MembershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository() *MembershipRepository {
	return &MembershipRepository{
		db: database.ReadOnlyDB,
	}
}

func NewMembershipRepositoryWithDB(db *gorm.DB) *MembershipRepository {
	return &MembershipRepository{
		db: db,
	}
}

func (r *MembershipRepository) InKcex(ctx context.Context, symbol string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.KcexFuture{}).
		Where("symbol = ?", symbol).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// KcexSymbols lists every listed symbol in alphabetical order.
func (r *MembershipRepository) KcexSymbols(ctx context.Context) ([]string, error) {
	var symbols []string
	err := r.db.WithContext(ctx).
		Model(&model.KcexFuture{}).
		Distinct("symbol").
		Order("symbol").
		Pluck("symbol", &symbols).Error
	if err != nil {
		return nil, err
	}
	return symbols, nil
}

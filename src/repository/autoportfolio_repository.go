package repository

import (
	"context"
	"time"

	"portfoliotracker/src/database"
	"portfoliotracker/src/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BuildTx is the set of store operations an auto-portfolio build performs
// inside its transaction.
type BuildTx interface {
	ClearWindow(ctx context.Context) error
	FillWindow(ctx context.Context, from, to time.Time) (int64, error)
	RankMomentum(ctx context.Context, ascending bool, limit int) ([]model.SymbolMomentum, error)
	PriceAtOrBefore(ctx context.Context, symbol string, at time.Time) (decimal.Decimal, error)
	InKcex(ctx context.Context, symbol string) (bool, error)
	Upsert(ctx context.Context, userID uint, name string, positions []model.Position) error
}

type buildTx struct {
	*WindowRepository
	*PriceRepository
	*MembershipRepository
	*PortfolioRepository
}

// AutoPortfolioRepository runs builds against the main database so the
// staging table, the feed reads and the portfolio write share one transaction.
type AutoPortfolioRepository struct {
	db *gorm.DB
}

func NewAutoPortfolioRepository() *AutoPortfolioRepository {
	return &AutoPortfolioRepository{
		db: database.MainDB,
	}
}

func NewAutoPortfolioRepositoryWithDB(db *gorm.DB) *AutoPortfolioRepository {
	return &AutoPortfolioRepository{
		db: db,
	}
}

// WithinTransaction runs fn in one transaction. Any error returned by fn, or
// a panic inside it, rolls back every statement fn issued.
func (r *AutoPortfolioRepository) WithinTransaction(ctx context.Context, fn func(tx BuildTx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&buildTx{
			WindowRepository:     NewWindowRepositoryWithDB(tx),
			PriceRepository:      NewPriceRepositoryWithDB(tx),
			MembershipRepository: NewMembershipRepositoryWithDB(tx),
			PortfolioRepository:  NewPortfolioRepositoryWithDB(tx),
		})
	})
}

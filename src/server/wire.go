package server

import (
	"portfoliotracker/src/analysis"
	"portfoliotracker/src/autoportfolio"
	"portfoliotracker/src/cache"
	"portfoliotracker/src/portfolio"
	"portfoliotracker/src/repository"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Repositories struct {
	Prices        *repository.PriceRepository
	Membership    *repository.MembershipRepository
	Portfolios    *repository.PortfolioRepository
	Users         *repository.GormUserRepository
	AutoPortfolio *repository.AutoPortfolioRepository
	Exceptions    *repository.ExceptionRepository
}

// DefaultRepositories uses the process wide database connections; feed and
// membership reads go to the read-only connection.
func DefaultRepositories() Repositories {
	return Repositories{
		Prices:        repository.NewPriceRepository(),
		Membership:    repository.NewMembershipRepository(),
		Portfolios:    repository.NewPortfolioRepository(),
		Users:         repository.NewUserRepository(),
		AutoPortfolio: repository.NewAutoPortfolioRepository(),
		Exceptions:    repository.NewExceptionRepository(),
	}
}

func RepositoriesWithDB(mainDB, readDB *gorm.DB) Repositories {
	return Repositories{
		Prices:        repository.NewPriceRepositoryWithDB(readDB),
		Membership:    repository.NewMembershipRepositoryWithDB(readDB),
		Portfolios:    repository.NewPortfolioRepositoryWithDB(mainDB),
		Users:         repository.NewUserRepositoryWithDB(mainDB),
		AutoPortfolio: repository.NewAutoPortfolioRepositoryWithDB(mainDB),
		Exceptions:    repository.NewExceptionRepositoryWithDB(mainDB),
	}
}

// Wire builds the services. rdb may be nil, which disables the membership cache.
func Wire(repos Repositories, rdb *redis.Client, cacheCfg cache.Config, autoCfg autoportfolio.Config) Dependencies {
	membership := cache.WrapMembership(repos.Membership, rdb, cacheCfg.TTL)

	return Dependencies{
		Portfolios: portfolio.NewService(repos.Portfolios, membership, repos.Prices),
		Analyzer:   analysis.NewAnalyzer(repos.Portfolios, repos.Prices, membership),
		Builder:    autoportfolio.NewConstructor(repos.AutoPortfolio, repos.Exceptions, autoCfg.Window),
		Users:      repos.Users,
		AutoConfig: autoCfg,
	}
}

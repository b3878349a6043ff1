package scheduler

import (
	"context"
	"errors"
	"fmt"

	"portfoliotracker/src/autoportfolio"
	"portfoliotracker/src/model"

	logger "github.com/sirupsen/logrus"
)

type Builder interface {
	Build(ctx context.Context, req model.AutoPortfolioRequest) (*model.AutoPortfolioResult, error)
}

// AutoPortfolioJob builds one auto-portfolio per configured offset. Each
// offset is an independent build; a failed one does not stop the others.
type AutoPortfolioJob struct {
	builder Builder
	cfg     autoportfolio.Config
	userID  uint
	offsets []int
}

func NewAutoPortfolioJob(builder Builder, cfg autoportfolio.Config, userID uint, offsets []int) *AutoPortfolioJob {
	return &AutoPortfolioJob{
		builder: builder,
		cfg:     cfg,
		userID:  userID,
		offsets: offsets,
	}
}

func (j *AutoPortfolioJob) Name() string {
	return "auto_portfolio"
}

func (j *AutoPortfolioJob) Run(ctx context.Context) error {
	var errs []error
	for _, offset := range j.offsets {
		res, err := j.builder.Build(ctx, autoportfolio.NewRequest(j.cfg, j.userID, offset))
		if err != nil {
			errs = append(errs, fmt.Errorf("offset %d: %w", offset, err))
			continue
		}
		logger.WithFields(logger.Fields{
			"job":       j.Name(),
			"portfolio": res.PortfolioName,
			"positions": res.TotalPositions,
		}).Info("scheduled auto-portfolio built")
	}
	return errors.Join(errs...)
}

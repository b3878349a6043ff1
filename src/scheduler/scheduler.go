// Package scheduler runs periodic jobs on a cron schedule.
package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	logger "github.com/sirupsen/logrus"
)

// Job is a unit of scheduled work.
type Job interface {
	Run(ctx context.Context) error
	Name() string
}

type Scheduler struct {
	cron *cron.Cron
	ctx  context.Context
	log  *logger.Entry
}

// New creates a scheduler whose jobs run with ctx. Overlapping runs of the
// same job are skipped.
func New(ctx context.Context) *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		ctx: ctx,
		log: logger.WithField("component", "scheduler"),
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("Scheduler started")
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	done := s.cron.Stop()
	<-done.Done()
	s.log.Info("Scheduler stopped")
}

// AddJob registers job on schedule, e.g. "0 */30 * * * *" or "@every 1h".
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		if err := s.RunNow(job); err != nil {
			s.log.WithError(err).WithField("job", job.Name()).Error("Job failed")
		}
	})
	if err != nil {
		return err
	}

	s.log.WithFields(logger.Fields{
		"schedule": schedule,
		"job":      job.Name(),
	}).Info("Job registered")
	return nil
}

// RunNow executes a job immediately, outside its schedule.
func (s *Scheduler) RunNow(job Job) error {
	s.log.WithField("job", job.Name()).Debug("Running job")
	if err := job.Run(s.ctx); err != nil {
		return err
	}
	s.log.WithField("job", job.Name()).Debug("Job completed")
	return nil
}

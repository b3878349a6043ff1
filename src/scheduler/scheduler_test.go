package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"portfoliotracker/src/autoportfolio"
	"portfoliotracker/src/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBuilder struct {
	mu      sync.Mutex
	offsets []int
	failOn  int
}

func (b *recordingBuilder) Build(_ context.Context, req model.AutoPortfolioRequest) (*model.AutoPortfolioResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.offsets = append(b.offsets, req.MinutesOffset)
	if req.MinutesOffset == b.failOn {
		return nil, errors.New("boom")
	}
	return &model.AutoPortfolioResult{PortfolioName: "auto"}, nil
}

func (b *recordingBuilder) calls() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]int(nil), b.offsets...)
}

func TestAutoPortfolioJob_RunsEveryOffset(t *testing.T) {
	b := &recordingBuilder{failOn: 30}
	job := NewAutoPortfolioJob(b, autoportfolio.Config{Investment: 10, PositionsPerType: 25}, 1, []int{0, 30, 60})

	err := New(context.Background()).RunNow(job)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "offset 30")
	assert.Equal(t, []int{0, 30, 60}, b.calls())
}

func TestScheduler_RunsRegisteredJob(t *testing.T) {
	b := &recordingBuilder{failOn: -1}
	s := New(context.Background())
	require.NoError(t, s.AddJob("@every 1s", NewAutoPortfolioJob(b, autoportfolio.Config{}, 1, []int{0})))
	require.Error(t, s.AddJob("not a schedule", NewAutoPortfolioJob(b, autoportfolio.Config{}, 1, nil)))

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return len(b.calls()) > 0 }, 3*time.Second, 50*time.Millisecond)
}

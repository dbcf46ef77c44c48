package schedule

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// Job is a named unit of maintenance work, such as the session retention
// sweep. Jobs must tolerate being invoked repeatedly.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler drives jobs off standard 5-field cron specs. A run of a job
// that is still in flight when its next tick fires is skipped, not queued.
type Scheduler struct {
	cron    *cron.Cron
	runners []*jobRunner
	ctx     atomic.Pointer[context.Context]
}

func New() *Scheduler {
	return &Scheduler{cron: cron.New()}
}

// Add registers job under spec. Registration must happen before Start.
func (s *Scheduler) Add(spec string, job Job) error {
	r := &jobRunner{job: job, ctx: s.runContext}
	if _, err := s.cron.AddFunc(spec, r.invoke); err != nil {
		return fmt.Errorf("bad cron spec %q for job %s: %w", spec, job.Name(), err)
	}
	s.runners = append(s.runners, r)
	logutil.GetLogger(context.Background()).Info("job registered",
		zap.String("job", job.Name()), zap.String("spec", spec))
	return nil
}

// Start begins ticking. ctx is handed to every job run.
func (s *Scheduler) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.ctx.Store(&ctx)
	s.cron.Start()
}

// Stop halts the ticker and waits for in-flight runs to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runContext() context.Context {
	if p := s.ctx.Load(); p != nil {
		return *p
	}
	return context.Background()
}

type jobRunner struct {
	job    Job
	ctx    func() context.Context
	active atomic.Bool
}

func (r *jobRunner) invoke() {
	if !r.active.CompareAndSwap(false, true) {
		logutil.GetLogger(r.ctx()).Warn("previous run still active, skipping tick",
			zap.String("job", r.job.Name()))
		return
	}
	defer r.active.Store(false)

	ctx := r.ctx()
	logger := logutil.GetLogger(ctx).With(zap.String("job", r.job.Name()))
	start := time.Now()
	if err := r.job.Run(ctx); err != nil {
		logger.Error("job run failed", zap.Duration("cost", time.Since(start)), zap.Error(err))
		return
	}
	logger.Info("job run done", zap.Duration("cost", time.Since(start)))
}

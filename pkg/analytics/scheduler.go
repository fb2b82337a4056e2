package analytics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/goliatone/go-consentform/internal/log"
)

// DefaultSchedule refreshes the report every five minutes.
const DefaultSchedule = "@every 5m"

// Refresher is what the scheduler drives.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler runs periodic refreshes on a cron schedule. Refresh clears the
// mount before rendering, so overlapping ticks cannot duplicate content.
type Scheduler struct {
	target  Refresher
	spec    string
	timeout time.Duration
	logger  *log.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	entryID cron.EntryID
	ctx     context.Context
	cancel  context.CancelFunc
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithTimeout bounds each refresh. Zero means no bound.
func WithTimeout(timeout time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		s.timeout = timeout
	}
}

func WithSchedulerLogger(logger *log.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewScheduler validates spec (five-field cron or a descriptor such as
// "@every 1m") and prepares a stopped scheduler.
func NewScheduler(target Refresher, spec string, options ...SchedulerOption) (*Scheduler, error) {
	if target == nil {
		return nil, errors.New("analytics: scheduler target is required")
	}
	spec = strings.TrimSpace(spec)
	if spec == "" {
		spec = DefaultSchedule
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(spec); err != nil {
		return nil, fmt.Errorf("analytics: invalid refresh schedule %q: %w", spec, err)
	}

	s := &Scheduler{
		target: target,
		spec:   spec,
		logger: log.Default().WithComponent("analytics.scheduler"),
		cron:   cron.New(cron.WithParser(parser)),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Spec returns the schedule in use.
func (s *Scheduler) Spec() string { return s.spec }

// Start registers the refresh job and starts the cron loop. Calling Start on
// a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	s.ctx, s.cancel = context.WithCancel(ctx)

	id, err := s.cron.AddFunc(s.spec, s.tick)
	if err != nil {
		s.cancel()
		s.cancel = nil
		return fmt.Errorf("analytics: schedule refresh: %w", err)
	}
	s.entryID = id
	s.cron.Start()
	s.logger.Info("analytics refresh scheduled", log.String("schedule", s.spec))
	return nil
}

// Stop halts the schedule and waits for a running refresh to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancel == nil {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.cancel = nil
	s.cron.Remove(s.entryID)
	done := s.cron.Stop()
	s.mu.Unlock()
	<-done.Done()
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if err := s.target.Refresh(ctx); err != nil {
		s.logger.Warn("scheduled analytics refresh failed", log.Error(err))
	}
}

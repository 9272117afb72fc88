package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-booking-api/pkg/jobs"
)

const expirySweepJob = "expiry_sweep"

type requestExpirer interface {
	ExpirePending(ctx context.Context, now time.Time) ([]string, error)
}

// ExpiryScannerConfig controls the periodic sweep.
type ExpiryScannerConfig struct {
	Interval time.Duration
	Retries  int
}

// ExpiryScanner moves overdue pending booking requests to expired. It is never invoked from read paths.
type ExpiryScanner struct {
	repo    requestExpirer
	metrics *MetricsService
	cfg     ExpiryScannerConfig
	logger  *zap.Logger
	clock   Clock

	mu     sync.Mutex
	queue  *jobs.Queue
	cancel context.CancelFunc
	done   chan struct{}
}

// NewExpiryScanner constructs the scanner.
func NewExpiryScanner(repo requestExpirer, metrics *MetricsService, cfg ExpiryScannerConfig, logger *zap.Logger, clock Clock) *ExpiryScanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = systemClock
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.Retries <= 0 {
		cfg.Retries = 3
	}
	return &ExpiryScanner{repo: repo, metrics: metrics, cfg: cfg, logger: logger, clock: clock}
}

// Sweep expires every pending request whose expiry_at is at or before now and returns how many changed.
// A second sweep over unchanged data returns zero.
func (s *ExpiryScanner) Sweep(ctx context.Context, now time.Time) (int, error) {
	started := time.Now()
	ids, err := s.repo.ExpirePending(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("expiry sweep: %w", err)
	}
	s.metrics.ObserveExpirySweep(len(ids), time.Since(started))
	for range ids {
		s.metrics.RecordTransition(entityBookingRequest, "expired")
	}
	if len(ids) > 0 {
		s.logger.Info("booking requests expired", zap.Int("count", len(ids)), zap.Strings("request_ids", ids))
	}
	return len(ids), nil
}

// Start runs a sweep on every tick until ctx is cancelled or Stop is called. Failed sweeps are
// retried by the job queue.
func (s *ExpiryScanner) Start(ctx context.Context) {
	s.mu.Lock()
	if s.queue != nil {
		s.mu.Unlock()
		return
	}
	queue := jobs.NewQueue(expirySweepJob, s.handle, jobs.QueueConfig{
		Workers:       1,
		BufferSize:    1,
		MaxRetries:    s.cfg.Retries,
		RetryDelay:    s.cfg.Interval / 10,
		MaxRetryDelay: s.cfg.Interval / 2,
		JobTimeout:    s.cfg.Interval,
		Logger:        s.logger,
	})
	queue.Start(ctx)
	tickCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.queue = queue
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	ticker := time.NewTicker(s.cfg.Interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-tickCtx.Done():
				return
			case <-ticker.C:
				s.enqueue()
			}
		}
	}()
	s.logger.Info("expiry scanner started", zap.Duration("interval", s.cfg.Interval))
}

// Stop ends the ticker and halts the worker queue. The scanner can be started again afterwards.
func (s *ExpiryScanner) Stop() {
	s.mu.Lock()
	queue, cancel, done := s.queue, s.cancel, s.done
	s.queue, s.cancel, s.done = nil, nil, nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
	if queue != nil {
		queue.Stop()
	}
}

func (s *ExpiryScanner) enqueue() {
	s.mu.Lock()
	queue := s.queue
	s.mu.Unlock()
	if queue == nil {
		return
	}
	err := queue.TryEnqueue(jobs.Job{ID: uuid.NewString(), Type: expirySweepJob})
	switch {
	case errors.Is(err, jobs.ErrQueueFull):
		s.logger.Debug("expiry sweep already pending, tick skipped")
	case err != nil:
		s.logger.Warn("expiry sweep not enqueued", zap.Error(err))
	}
}

func (s *ExpiryScanner) handle(ctx context.Context, job jobs.Job) error {
	_, err := s.Sweep(ctx, s.clock())
	return err
}

package sweeper

import (
	"context"
	"log/slog"
	"time"
)

// ExpiredSweeper moves pending rate update requests past their deadline
// to the expired status.
type ExpiredSweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

// Retrier retries an operation on transient failures.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// Sweeper periodically expires stale rate update requests.
type Sweeper struct {
	sync     ExpiredSweeper
	retrier  Retrier
	logger   *slog.Logger
	interval time.Duration
}

// Config for Sweeper.
type Config struct {
	Sync     ExpiredSweeper
	Retrier  Retrier // Optional retry on transient database errors
	Logger   *slog.Logger
	Interval time.Duration // Polling interval
}

// New creates a new Sweeper.
func New(cfg Config) *Sweeper {
	if cfg.Interval == 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Sweeper{
		sync:     cfg.Sync,
		retrier:  cfg.Retrier,
		logger:   cfg.Logger,
		interval: cfg.Interval,
	}
}

// Start begins the sweeping worker.
// It runs continuously until the context is cancelled.
func (s *Sweeper) Start(ctx context.Context) error {
	s.logger.Info("expired request sweeper started",
		slog.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Sweep immediately on start
	s.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("expired request sweeper shutting down")
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	var moved int
	run := func() error {
		var err error
		moved, err = s.sync.SweepExpired(ctx)
		return err
	}

	var err error
	if s.retrier != nil {
		err = s.retrier.Retry(ctx, run)
	} else {
		err = run()
	}
	if err != nil {
		s.logger.Error("error sweeping expired requests", slog.String("error", err.Error()))
		return
	}
	if moved > 0 {
		s.logger.Info("expired rate update requests", slog.Int("count", moved))
	}
}

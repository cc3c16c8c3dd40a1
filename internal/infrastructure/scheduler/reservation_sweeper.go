package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	appinv "github.com/kardexhq/backend/internal/application/inventory"
)

// ReservationSweeper periodically expires pending reservations whose TTL
// has elapsed. Running more than one sweeper is safe: each expiry saves
// with a version check, so a hold already swept elsewhere is skipped.
type ReservationSweeper struct {
	service   *appinv.ReservationService
	logger    *zap.Logger
	config    ReservationSweeperConfig
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// ReservationSweeperConfig holds configuration for the reservation sweeper
type ReservationSweeperConfig struct {
	// Enabled determines if the sweeper is active
	Enabled bool

	// Interval is how often the sweeper looks for expired holds
	Interval time.Duration

	// SweepTimeout is the maximum time for a single sweep pass
	SweepTimeout time.Duration
}

// DefaultReservationSweeperConfig returns default configuration
func DefaultReservationSweeperConfig() ReservationSweeperConfig {
	return ReservationSweeperConfig{
		Enabled:      true,
		Interval:     30 * time.Second,
		SweepTimeout: 1 * time.Minute,
	}
}

// NewReservationSweeper creates a new reservation sweeper
func NewReservationSweeper(
	service *appinv.ReservationService,
	logger *zap.Logger,
	config ReservationSweeperConfig,
) *ReservationSweeper {
	if config.Interval <= 0 {
		config.Interval = 30 * time.Second
	}
	if config.SweepTimeout <= 0 {
		config.SweepTimeout = 1 * time.Minute
	}
	return &ReservationSweeper{
		service: service,
		logger:  logger,
		config:  config,
	}
}

// Start starts the background sweep loop
func (s *ReservationSweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Reservation sweeper is disabled")
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("Reservation sweeper started",
		zap.Duration("interval", s.config.Interval),
	)

	return nil
}

// Stop gracefully stops the sweeper
func (s *ReservationSweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Reservation sweeper stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Reservation sweeper stop timed out")
		return ctx.Err()
	}
}

func (s *ReservationSweeper) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Reservation sweep loop stopping")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *ReservationSweeper) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, s.config.SweepTimeout)
	defer cancel()

	start := time.Now()
	count, err := s.service.SweepExpired(sweepCtx, start)
	if err != nil {
		s.logger.Error("Reservation sweep failed",
			zap.Error(err),
			zap.Duration("elapsed", time.Since(start)),
		)
		return
	}

	if count > 0 {
		s.logger.Info("Expired reservations swept",
			zap.Int("count", count),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

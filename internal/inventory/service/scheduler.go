package service

import (
	"context"
	"time"

	"github.com/GabrielSchiavo/smartstock-sub002/pkg/logger"
)

// AlertScheduler runs alert scans periodically.
type AlertScheduler struct {
	scanner  *AlertScanner
	interval time.Duration
	logger   *logger.Logger
	cancel   context.CancelFunc
}

// NewAlertScheduler creates a new alert scheduler.
func NewAlertScheduler(scanner *AlertScanner, interval time.Duration, log *logger.Logger) *AlertScheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &AlertScheduler{
		scanner:  scanner,
		interval: interval,
		logger:   log.WithComponent("inventory.alert_scheduler"),
	}
}

// Start starts the scheduler in a background goroutine. An initial
// scan runs immediately, then one per interval until Stop or context
// cancellation.
func (s *AlertScheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	go func() {
		s.logger.Info().Dur("interval", s.interval).Msg("alert scheduler started")

		s.runScan(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info().Msg("alert scheduler stopped")
				return
			case <-ticker.C:
				s.runScan(ctx)
			}
		}
	}()
}

// Stop stops the scheduler goroutine.
func (s *AlertScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *AlertScheduler) runScan(ctx context.Context) {
	if err := s.scanner.ScanAll(ctx); err != nil {
		s.logger.Error().Err(err).Msg("alert scan cycle completed with errors")
	}
}

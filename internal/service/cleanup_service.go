package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/visionaihq/visionai-api/internal/config"
)

// CleanupService periodically cancels stale pending payments. A pending
// record whose intent was abandoned client-side would otherwise sit in the
// reconcilable state forever.
type CleanupService struct {
	cfg        *config.Config
	paymentSvc *PaymentService
	logger     *slog.Logger
}

// NewCleanupService creates a new cleanup service.
func NewCleanupService(cfg *config.Config, paymentSvc *PaymentService, logger *slog.Logger) *CleanupService {
	return &CleanupService{
		cfg:        cfg,
		paymentSvc: paymentSvc,
		logger:     logger.With("component", "cleanup"),
	}
}

// Run executes cleanup on the configured interval until ctx is canceled.
// One pass runs immediately on start.
func (s *CleanupService) Run(ctx context.Context) {
	if !s.cfg.CleanupEnabled {
		s.logger.Info("payment cleanup disabled")
		return
	}

	s.logger.Info("payment cleanup started",
		"interval", s.cfg.CleanupInterval.String(),
		"max_age", s.cfg.CleanupMaxAge.String(),
	)

	s.runOnce(ctx)

	ticker := time.NewTicker(s.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("payment cleanup stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *CleanupService) runOnce(ctx context.Context) {
	n, err := s.paymentSvc.CancelStale(ctx, s.cfg.CleanupMaxAge)
	if err != nil {
		s.logger.Error("failed to cancel stale payments", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("canceled stale pending payments", "count", n)
	}
}

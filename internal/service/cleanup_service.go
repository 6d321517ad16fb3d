package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/andressep95/rbac-auth/internal/repository"
	"github.com/andressep95/rbac-auth/pkg/metrics"
)

const cleanupTimeout = time.Minute

// CleanupService purges refresh records past their expiry and audit entries
// older than the retention window.
type CleanupService struct {
	refresh   repository.RefreshTokenRepository
	audit     *AuditService
	metrics   *metrics.Metrics
	logger    logrus.FieldLogger
	retention time.Duration
	now       func() time.Time
}

func NewCleanupService(
	refresh repository.RefreshTokenRepository,
	audit *AuditService,
	m *metrics.Metrics,
	logger logrus.FieldLogger,
	retention time.Duration,
) *CleanupService {
	return &CleanupService{
		refresh:   refresh,
		audit:     audit,
		metrics:   m,
		logger:    logger,
		retention: retention,
		now:       time.Now,
	}
}

// Run performs one purge pass. A zero retention keeps audit entries forever.
func (s *CleanupService) Run(ctx context.Context) error {
	now := s.now()

	removed, err := s.refresh.DeleteExpired(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to purge refresh tokens: %w", err)
	}
	s.metrics.CleanupRemoved(metrics.CleanupRefreshTokens, removed)

	var purged int64
	if s.retention > 0 {
		purged, err = s.audit.PurgeBefore(ctx, now.Add(-s.retention))
		if err != nil {
			return err
		}
		s.metrics.CleanupRemoved(metrics.CleanupAuditLogs, purged)
	}

	s.logger.WithFields(logrus.Fields{
		"refresh_tokens": removed,
		"audit_logs":     purged,
	}).Info("cleanup completed")
	return nil
}

// Schedule registers Run on a new cron scheduler. The caller starts and stops it.
func (s *CleanupService) Schedule(spec string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
		defer cancel()

		if err := s.Run(ctx); err != nil {
			s.logger.WithError(err).Error("cleanup failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule cleanup %q: %w", spec, err)
	}
	return c, nil
}

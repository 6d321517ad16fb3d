package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/andressep95/rbac-auth/internal/domain"
	"github.com/andressep95/rbac-auth/internal/repository"
)

const auditWriteTimeout = 5 * time.Second

type AuditService struct {
	repo   repository.AuditLogRepository
	logger logrus.FieldLogger
	now    func() time.Time
	wg     sync.WaitGroup
}

func NewAuditService(repo repository.AuditLogRepository, logger logrus.FieldLogger) *AuditService {
	return &AuditService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Record writes the entry in the background; failures are logged only.
func (s *AuditService) Record(actor string, action domain.AuditAction) {
	entry := &domain.AuditLog{Username: actor, Action: action, Timestamp: s.now()}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
		defer cancel()

		if err := s.repo.Create(ctx, entry); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"actor":  actor,
				"action": action,
			}).Error("failed to write audit log")
		}
	}()
}

// Wait blocks until every pending Record has finished.
func (s *AuditService) Wait() {
	s.wg.Wait()
}

func (s *AuditService) List(ctx context.Context, filter domain.AuditFilter, page domain.PageRequest) (domain.Page[*domain.AuditLog], error) {
	entries, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return domain.Page[*domain.AuditLog]{}, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return domain.NewPage(entries, total, page), nil
}

// PurgeBefore removes entries older than the cutoff.
func (s *AuditService) PurgeBefore(ctx context.Context, before time.Time) (int64, error) {
	n, err := s.repo.DeleteBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("failed to purge audit logs: %w", err)
	}
	return n, nil
}

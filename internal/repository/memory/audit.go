package memory

import (
	"context"
	"strings"
	"time"

	"github.com/andressep95/rbac-auth/internal/domain"
)

type AuditLogRepository struct {
	s *Store
}

func (r *AuditLogRepository) Create(_ context.Context, entry *domain.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextAuditID++
	entry.ID = r.s.nextAuditID
	cp := *entry
	r.s.audit = append(r.s.audit, &cp)
	return nil
}

func (r *AuditLogRepository) List(_ context.Context, filter domain.AuditFilter, page domain.PageRequest) ([]*domain.AuditLog, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := []*domain.AuditLog{}
	for i := len(r.s.audit) - 1; i >= 0; i-- {
		e := r.s.audit[i]
		if filter.Username != "" && !strings.EqualFold(e.Username, filter.Username) {
			continue
		}
		if filter.Action != "" && !strings.EqualFold(string(e.Action), filter.Action) {
			continue
		}
		cp := *e
		matched = append(matched, &cp)
	}
	return window(matched, page), len(matched), nil
}

func (r *AuditLogRepository) DeleteBefore(_ context.Context, before time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	kept := r.s.audit[:0]
	var n int64
	for _, e := range r.s.audit {
		if e.Timestamp.Before(before) {
			n++
			continue
		}
		kept = append(kept, e)
	}
	r.s.audit = kept
	return n, nil
}

package repositories

import (
	"context"
	"errors"
	"sync"

	"smartip-service/internal/domain"
)

// In-memory VisitRepository used in tests and provider-less local runs.
type MemoryVisitRepository struct {
	mu     sync.RWMutex
	visits []*domain.Visit
}

func NewMemoryVisitRepository() *MemoryVisitRepository {
	return &MemoryVisitRepository{}
}

func (m *MemoryVisitRepository) SaveVisit(_ context.Context, v *domain.Visit) error {
	if v == nil {
		return errors.New("save visit: visit is nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *v
	m.visits = append(m.visits, &cp)
	return nil
}

func (m *MemoryVisitRepository) ListVisits(_ context.Context, limit int) ([]*domain.Visit, error) {
	if limit <= 0 {
		limit = 50
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.Visit, 0, limit)
	// newest first
	for i := len(m.visits) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *m.visits[i]
		out = append(out, &cp)
	}
	return out, nil
}

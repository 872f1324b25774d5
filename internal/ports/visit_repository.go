package ports

import (
	"context"
	"smartip-service/internal/domain"
)

// Port: a boundary for persisting and retrieving annotated visits.
type VisitRepository interface {
	// Record one annotated visit.
	SaveVisit(ctx context.Context, v *domain.Visit) error
	// Retrieve the most recent visits, newest first.
	ListVisits(ctx context.Context, limit int) ([]*domain.Visit, error)
}

package usecase

import (
	"context"
	"time"

	"github.com/iho/mutledger/internal/domain"
)

// DashboardUseCase aggregates an actor's own entries.
type DashboardUseCase struct {
	entryRepo EntryRepository
}

// NewDashboardUseCase creates a new DashboardUseCase.
func NewDashboardUseCase(entryRepo EntryRepository) *DashboardUseCase {
	return &DashboardUseCase{entryRepo: entryRepo}
}

// Stats summarises the entries owned by actor, optionally limited to the
// calendar days start through end. Both bounds must be set to filter.
func (uc *DashboardUseCase) Stats(ctx context.Context, actor *domain.Actor, start, end *time.Time) (domain.Dashboard, error) {
	if actor == nil {
		return domain.Dashboard{}, domain.ErrMissingActor
	}

	filter := domain.EntryFilter{StartDate: start, EndDate: end}
	if err := domain.ValidateEntryFilter(filter); err != nil {
		return domain.Dashboard{}, err
	}

	// Every role is confined to its own entries here, admins included.
	owner := actor.ID
	scope := domain.EntryScope{OwnerID: &owner}
	if start != nil && end != nil {
		from, before := domain.DayRange(*start, *end)
		scope.CreatedFrom = &from
		scope.CreatedBefore = &before
	}

	entries, err := uc.entryRepo.List(ctx, scope)
	if err != nil {
		return domain.Dashboard{}, err
	}

	return domain.Summarise(entries), nil
}

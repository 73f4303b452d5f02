package domain

import "time"

// EntryFilter holds the optional list parameters supplied by a caller.
type EntryFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Status    *EntryStatus
	OwnerID   string
}

// EntryScope is the read predicate an actor is allowed to list with.
// Nil fields are unrestricted.
type EntryScope struct {
	OwnerID     *string
	CreatedFrom   *time.Time
	CreatedBefore *time.Time
	Status        *EntryStatus
}

// ScopeFor computes the read predicate for actor. A USER is always confined to
// its own entries; an ADMIN is narrowed to an owner only when asked.
func ScopeFor(actor *Actor, filter EntryFilter) (EntryScope, error) {
	if actor == nil {
		return EntryScope{}, ErrMissingActor
	}

	var scope EntryScope
	switch actor.Role {
	case RoleUser:
		owner := actor.ID
		scope.OwnerID = &owner
	case RoleAdmin:
		if filter.OwnerID != "" {
			owner := filter.OwnerID
			scope.OwnerID = &owner
		}
	default:
		return EntryScope{}, ErrUnknownRole
	}

	if filter.StartDate != nil && filter.EndDate != nil {
		from, before := DayRange(*filter.StartDate, *filter.EndDate)
		scope.CreatedFrom = &from
		scope.CreatedBefore = &before
	}

	if filter.Status != nil {
		status := *filter.Status
		scope.Status = &status
	}

	return scope, nil
}

// Permits reports whether e falls inside the scope.
func (s EntryScope) Permits(e *Entry) bool {
	if s.OwnerID != nil && e.OwnerID != *s.OwnerID {
		return false
	}
	if s.Status != nil && e.Status != *s.Status {
		return false
	}
	if s.CreatedFrom != nil && e.CreatedAt.Before(*s.CreatedFrom) {
		return false
	}
	if s.CreatedBefore != nil && !e.CreatedAt.Before(*s.CreatedBefore) {
		return false
	}
	return true
}

// DayRange returns the half-open interval [from, before) covering the
// calendar days start through end in UTC. before is midnight after end.
func DayRange(start, end time.Time) (time.Time, time.Time) {
	return startOfDay(start), startOfDay(end).AddDate(0, 0, 1)
}

// DateLayout is the calendar date format accepted in query parameters.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar date in UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

package domain

import (
	"errors"
	"testing"
	"time"
)

func TestScopeFor_Roles(t *testing.T) {
	user := &Actor{ID: "u1", Role: RoleUser}
	admin := &Actor{ID: "a1", Role: RoleAdmin}

	t.Run("user ignores owner filter", func(t *testing.T) {
		scope, err := ScopeFor(user, EntryFilter{OwnerID: "someone-else"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if scope.OwnerID == nil || *scope.OwnerID != "u1" {
			t.Fatalf("expected scope confined to u1, got %v", scope.OwnerID)
		}
	})

	t.Run("admin without filter is unrestricted", func(t *testing.T) {
		scope, err := ScopeFor(admin, EntryFilter{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if scope.OwnerID != nil || scope.Status != nil || scope.CreatedFrom != nil {
			t.Fatalf("expected broadest scope, got %+v", scope)
		}
	})

	t.Run("admin honors owner filter", func(t *testing.T) {
		scope, err := ScopeFor(admin, EntryFilter{OwnerID: "u2"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if scope.OwnerID == nil || *scope.OwnerID != "u2" {
			t.Fatalf("expected owner u2, got %v", scope.OwnerID)
		}
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		_, err := ScopeFor(&Actor{ID: "x", Role: "AUDITOR"}, EntryFilter{})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected unauthorized, got %v", err)
		}
	})

	t.Run("missing actor", func(t *testing.T) {
		_, err := ScopeFor(nil, EntryFilter{})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected unauthorized, got %v", err)
		}
	})
}

func TestScopeFor_DateRange(t *testing.T) {
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	user := &Actor{ID: "u1", Role: RoleUser}

	scope, err := ScopeFor(user, EntryFilter{StartDate: &day, EndDate: &day})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name      string
		createdAt time.Time
		want      bool
	}{
		{"start of day", day, true},
		{"midday", day.Add(12 * time.Hour), true},
		{"last millisecond", day.Add(24*time.Hour - time.Millisecond), true},
		{"last nanosecond", day.Add(24*time.Hour - time.Nanosecond), true},
		{"sub-millisecond before midnight", day.Add(24*time.Hour - 500*time.Microsecond), true},
		{"next midnight", day.Add(24 * time.Hour), false},
		{"previous day", day.Add(-time.Millisecond), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Entry{OwnerID: "u1", CreatedAt: tt.createdAt}
			if got := scope.Permits(e); got != tt.want {
				t.Fatalf("Permits(%s) = %v, want %v", tt.createdAt, got, tt.want)
			}
		})
	}
}

func TestScopeFor_SingleBoundIgnored(t *testing.T) {
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	scope, err := ScopeFor(&Actor{ID: "a", Role: RoleAdmin}, EntryFilter{StartDate: &day})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scope.CreatedFrom != nil || scope.CreatedBefore != nil {
		t.Fatalf("expected no date bounds, got %+v", scope)
	}
}

func TestEntryScope_Permits(t *testing.T) {
	owner := "u1"
	pending := StatusPending
	scope := EntryScope{OwnerID: &owner, Status: &pending}

	if !scope.Permits(&Entry{OwnerID: "u1", Status: StatusPending}) {
		t.Error("expected matching entry to be permitted")
	}
	if scope.Permits(&Entry{OwnerID: "u2", Status: StatusPending}) {
		t.Error("expected other owner to be excluded")
	}
	if scope.Permits(&Entry{OwnerID: "u1", Status: StatusApproved}) {
		t.Error("expected other status to be excluded")
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2024-02-29")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Location() != time.UTC || got.Day() != 29 {
		t.Fatalf("unexpected date %v", got)
	}

	if _, err := ParseDate("29/02/2024"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

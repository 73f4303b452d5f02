package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseDecision(t *testing.T) {
	tests := []struct {
		in      string
		want    Decision
		wantErr bool
	}{
		{"approve", DecisionApprove, false},
		{"REJECT", DecisionReject, false},
		{"maybe", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDecision(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("got (%q, %v), want %q", got, err, tt.want)
			}
		})
	}
}

func TestDecision_TargetStatus(t *testing.T) {
	if DecisionApprove.TargetStatus() != StatusApproved {
		t.Error("approve should lead to APPROVED")
	}
	if DecisionReject.TargetStatus() != StatusRejected {
		t.Error("reject should lead to REJECTED")
	}
}

func TestInitialApproval(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

	t.Run("admin self-approves", func(t *testing.T) {
		var e Entry
		if err := InitialApproval(&e, &Actor{ID: "a1", Role: RoleAdmin}, now); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if e.Status != StatusApproved {
			t.Fatalf("expected APPROVED, got %s", e.Status)
		}
		if e.ApprovedByID == nil || *e.ApprovedByID != "a1" {
			t.Fatalf("expected approver a1, got %v", e.ApprovedByID)
		}
		if e.ApprovedAt == nil || !e.ApprovedAt.Equal(e.CreatedAt) {
			t.Fatalf("expected approvedAt == createdAt, got %v vs %v", e.ApprovedAt, e.CreatedAt)
		}
	})

	t.Run("user waits for approval", func(t *testing.T) {
		var e Entry
		if err := InitialApproval(&e, &Actor{ID: "u1", Role: RoleUser}, now); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if e.Status != StatusPending || e.ApprovedByID != nil || e.ApprovedAt != nil {
			t.Fatalf("expected clean PENDING entry, got %+v", e)
		}
		if e.OwnerID != "u1" {
			t.Fatalf("expected owner u1, got %s", e.OwnerID)
		}
	})

	t.Run("unknown role", func(t *testing.T) {
		var e Entry
		err := InitialApproval(&e, &Actor{ID: "x", Role: "GUEST"}, now)
		if !errors.Is(err, ErrUnknownRole) {
			t.Fatalf("expected ErrUnknownRole, got %v", err)
		}
	})
}

func TestRequireAdmin(t *testing.T) {
	if err := RequireAdmin(&Actor{Role: RoleAdmin}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := RequireAdmin(&Actor{Role: RoleUser}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if err := RequireAdmin(nil); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized for nil actor, got %v", err)
	}
}

func TestNewResolution(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("X", 3*3600))

	r := NewResolution("e1", &Actor{ID: "a1"}, DecisionReject, now)

	if r.Status != StatusRejected || r.ApproverID != "a1" || r.EntryID != "e1" {
		t.Fatalf("unexpected resolution %+v", r)
	}
	if r.ApprovedAt.Location() != time.UTC {
		t.Fatalf("expected UTC timestamp, got %v", r.ApprovedAt.Location())
	}
}

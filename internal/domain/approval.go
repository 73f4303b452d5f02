package domain

import (
	"strings"
	"time"
)

// Decision is the admin's verdict on a pending entry.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// ParseDecision accepts "approve" or "reject".
func ParseDecision(s string) (Decision, error) {
	switch Decision(strings.ToLower(strings.TrimSpace(s))) {
	case DecisionApprove:
		return DecisionApprove, nil
	case DecisionReject:
		return DecisionReject, nil
	default:
		return "", ErrInvalidDecision
	}
}

// TargetStatus returns the terminal status d leads to.
func (d Decision) TargetStatus() EntryStatus {
	if d == DecisionApprove {
		return StatusApproved
	}
	return StatusRejected
}

// Resolution is the conditional transition applied to a PENDING entry.
type Resolution struct {
	EntryID    string
	Status     EntryStatus
	ApproverID string
	ApprovedAt time.Time
}

// NewResolution builds the transition of entryID by admin at now.
func NewResolution(entryID string, admin *Actor, d Decision, now time.Time) Resolution {
	return Resolution{
		EntryID:    entryID,
		Status:     d.TargetStatus(),
		ApproverID: admin.ID,
		ApprovedAt: now.UTC(),
	}
}

// InitialApproval sets the lifecycle fields of a fresh entry created by actor
// at now. ADMIN submissions are self-approved; USER submissions wait.
func InitialApproval(e *Entry, actor *Actor, now time.Time) error {
	if actor == nil {
		return ErrMissingActor
	}

	now = now.UTC()
	e.OwnerID = actor.ID
	e.CreatedAt = now

	switch actor.Role {
	case RoleAdmin:
		approver := actor.ID
		approvedAt := now
		e.Status = StatusApproved
		e.ApprovedByID = &approver
		e.ApprovedAt = &approvedAt
	case RoleUser:
		e.Status = StatusPending
		e.ApprovedByID = nil
		e.ApprovedAt = nil
	default:
		return ErrUnknownRole
	}
	return nil
}

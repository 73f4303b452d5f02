package domain

import (
	"fmt"
	"strings"
	"time"
)

// NotificationType is an open set of tags; these are the ones produced here.
type NotificationType string

const (
	NotificationEntryApproved NotificationType = "ENTRY_APPROVED"
	NotificationEntryRejected NotificationType = "ENTRY_REJECTED"
	NotificationActorCreated  NotificationType = "ACTOR_CREATED"
)

// NotificationListLimit caps how many notifications a listing returns.
const NotificationListLimit = 50

// fallbackActorName is used when the acting admin has no display name.
const fallbackActorName = "Admin"

// Notification is a message addressed to a single recipient.
type Notification struct {
	CreatedAt   time.Time
	EntryID     *string
	ID          string
	RecipientID string
	Message     string
	Type        NotificationType
	Read        bool
}

// DecisionNotification builds the message sent to an entry owner after d.
func DecisionNotification(recipientID, entryID string, d Decision, actorName string) Notification {
	name := nameOrFallback(actorName)
	n := Notification{
		RecipientID: recipientID,
		EntryID:     &entryID,
	}
	switch d {
	case DecisionApprove:
		n.Type = NotificationEntryApproved
		n.Message = fmt.Sprintf("%s approved your ledger entry.", name)
	default:
		n.Type = NotificationEntryRejected
		n.Message = fmt.Sprintf("%s rejected your ledger entry.", name)
	}
	return n
}

// ActorCreatedNotification builds the welcome message for a new actor.
func ActorCreatedNotification(recipientID, creatorName string) Notification {
	return Notification{
		RecipientID: recipientID,
		Type:        NotificationActorCreated,
		Message:     fmt.Sprintf("%s created your account.", nameOrFallback(creatorName)),
	}
}

func nameOrFallback(name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return fallbackActorName
}

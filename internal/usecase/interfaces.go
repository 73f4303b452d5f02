package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/iho/mutledger/internal/domain"
)

//go:generate mockgen -source=interfaces.go -destination=gomocks/mock_interfaces.go -package=gomocks

// EntryRepository defines data access for ledger entries and their manual lines.
type EntryRepository interface {
	// Create inserts the entry together with its manual adjustment lines.
	Create(ctx context.Context, tx Transaction, entry *domain.Entry) error
	// GetByID returns the entry with owner, approver and manual lines populated.
	GetByID(ctx context.Context, id string) (*domain.Entry, error)
	// GetByIDForUpdate locks the entry row for the rest of tx.
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Entry, error)
	// List returns the entries inside scope ordered by creation time, newest first.
	List(ctx context.Context, scope domain.EntryScope) ([]*domain.Entry, error)
	UpdateFigures(ctx context.Context, tx Transaction, entry *domain.Entry) error
	// ReplaceAdjustments discards every manual line of the entry and stores lines instead.
	ReplaceAdjustments(ctx context.Context, tx Transaction, entryID string, lines []domain.Adjustment) error
	Delete(ctx context.Context, tx Transaction, id string) error
	// Resolve applies r only if the entry is still PENDING and returns the owner id.
	// It fails with domain.ErrEntryNotFound or domain.ErrEntryAlreadyHandled.
	Resolve(ctx context.Context, tx Transaction, r domain.Resolution) (string, error)
}

// NotificationRepository defines data access for notifications.
type NotificationRepository interface {
	Create(ctx context.Context, tx Transaction, n *domain.Notification) error
	ListByRecipient(ctx context.Context, recipientID string, limit int) ([]*domain.Notification, error)
	CountUnread(ctx context.Context, recipientID string) (int, error)
	// MarkRead flags ids as read, ignoring ids that belong to other recipients.
	MarkRead(ctx context.Context, recipientID string, ids []string) (int64, error)
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
}

// ActorRepository defines data access for actors and groups.
type ActorRepository interface {
	Create(ctx context.Context, tx Transaction, actor *domain.Actor) error
	GetByID(ctx context.Context, id string) (*domain.Actor, error)
	GetByUsername(ctx context.Context, username string) (*domain.Actor, error)
	// EnsureGroup returns the group called name, creating it when absent.
	EnsureGroup(ctx context.Context, tx Transaction, name string) (*domain.Group, error)
}

// NotificationEmitter records notifications inside the caller's transaction.
type NotificationEmitter interface {
	Notify(ctx context.Context, tx Transaction, recipientID, entryID string, d domain.Decision, actorName string) (*domain.Notification, error)
	NotifyActorCreated(ctx context.Context, tx Transaction, recipientID, creatorName string) (*domain.Notification, error)
	// Invalidate drops cached state for recipientID once tx has committed.
	Invalidate(ctx context.Context, recipientID string)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient store failures.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// ErrCacheMiss is returned by Cache.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// Cache defines caching operations. Delete invalidates a key: it drops the
// value and advances the key's version.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Version returns the current version of key.
	Version(ctx context.Context, key string) (int64, error)
	// SetIfVersion stores value only while key is still at version and
	// reports whether it did.
	SetIfVersion(ctx context.Context, key string, value []byte, version int64, ttl time.Duration) (bool, error)
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

package usecase

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/iho/mutledger/internal/domain"
	"github.com/iho/mutledger/internal/infrastructure/metrics"
)

const unreadCacheKeyPrefix = "notifications:unread:"

// NotificationUseCase emits notifications and serves them to recipients.
type NotificationUseCase struct {
	notificationRepo NotificationRepository
	cache            Cache
	idGen            IDGenerator
	cacheTTL         time.Duration
	metrics          *metrics.Metrics
}

// NewNotificationUseCase creates a new NotificationUseCase. cache may be nil.
func NewNotificationUseCase(
	notificationRepo NotificationRepository,
	cache Cache,
	idGen IDGenerator,
	cacheTTL time.Duration,
	metrics *metrics.Metrics,
) *NotificationUseCase {
	if cacheTTL <= 0 {
		cacheTTL = DefaultUnreadCacheTTL
	}
	return &NotificationUseCase{
		notificationRepo: notificationRepo,
		cache:            cache,
		idGen:            idGen,
		cacheTTL:         cacheTTL,
		metrics:          metrics,
	}
}

// NotificationList is what a recipient sees when polling.
type NotificationList struct {
	Notifications []*domain.Notification
	UnreadCount   int
}

// Notify records the outcome of a decision on entryID for its owner.
func (uc *NotificationUseCase) Notify(ctx context.Context, tx Transaction, recipientID, entryID string, d domain.Decision, actorName string) (*domain.Notification, error) {
	n := domain.DecisionNotification(recipientID, entryID, d, actorName)
	return uc.emit(ctx, tx, &n)
}

// NotifyActorCreated records the welcome notification for a new actor.
func (uc *NotificationUseCase) NotifyActorCreated(ctx context.Context, tx Transaction, recipientID, creatorName string) (*domain.Notification, error) {
	n := domain.ActorCreatedNotification(recipientID, creatorName)
	return uc.emit(ctx, tx, &n)
}

func (uc *NotificationUseCase) emit(ctx context.Context, tx Transaction, n *domain.Notification) (*domain.Notification, error) {
	n.ID = uc.idGen.Generate()
	n.CreatedAt = time.Now().UTC()

	if err := uc.notificationRepo.Create(ctx, tx, n); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.NotificationsCreated.WithLabelValues(string(n.Type)).Inc()
	}

	return n, nil
}

// Invalidate drops the cached unread count of recipientID. Cache failures are
// ignored; the TTL bounds staleness.
func (uc *NotificationUseCase) Invalidate(ctx context.Context, recipientID string) {
	if uc.cache == nil {
		return
	}
	_ = uc.cache.Delete(ctx, unreadCacheKeyPrefix+recipientID)
}

// List returns the most recent notifications of actor and its unread count.
func (uc *NotificationUseCase) List(ctx context.Context, actor *domain.Actor) (*NotificationList, error) {
	if actor == nil {
		return nil, domain.ErrMissingActor
	}

	notifications, err := uc.notificationRepo.ListByRecipient(ctx, actor.ID, domain.NotificationListLimit)
	if err != nil {
		return nil, err
	}

	unread, err := uc.unreadCount(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	return &NotificationList{Notifications: notifications, UnreadCount: unread}, nil
}

// MarkRead flags the given notifications of actor as read. Ids belonging to
// other recipients are ignored.
func (uc *NotificationUseCase) MarkRead(ctx context.Context, actor *domain.Actor, ids []string) (int64, error) {
	if actor == nil {
		return 0, domain.ErrMissingActor
	}
	if len(ids) == 0 {
		return 0, nil
	}

	n, err := uc.notificationRepo.MarkRead(ctx, actor.ID, ids)
	if err != nil {
		return 0, err
	}

	uc.afterMark(ctx, actor.ID, n)
	return n, nil
}

// MarkAllRead flags every unread notification of actor as read.
func (uc *NotificationUseCase) MarkAllRead(ctx context.Context, actor *domain.Actor) (int64, error) {
	if actor == nil {
		return 0, domain.ErrMissingActor
	}

	n, err := uc.notificationRepo.MarkAllRead(ctx, actor.ID)
	if err != nil {
		return 0, err
	}

	uc.afterMark(ctx, actor.ID, n)
	return n, nil
}

func (uc *NotificationUseCase) afterMark(ctx context.Context, recipientID string, n int64) {
	uc.Invalidate(ctx, recipientID)
	if uc.metrics != nil && n > 0 {
		uc.metrics.NotificationsMarkedRead.Add(float64(n))
	}
}

func (uc *NotificationUseCase) unreadCount(ctx context.Context, recipientID string) (int, error) {
	key := unreadCacheKeyPrefix + recipientID

	if uc.cache == nil {
		return uc.notificationRepo.CountUnread(ctx, recipientID)
	}

	raw, err := uc.cache.Get(ctx, key)
	if err == nil {
		if count, convErr := strconv.Atoi(string(raw)); convErr == nil {
			uc.recordLookup("hit")
			return count, nil
		}
	} else if !errors.Is(err, ErrCacheMiss) {
		uc.recordLookup("error")
	}

	// The version is read before counting so that an Invalidate landing in
	// between makes the write below a no-op.
	version, verErr := uc.cache.Version(ctx, key)

	count, err := uc.notificationRepo.CountUnread(ctx, recipientID)
	if err != nil {
		return 0, err
	}
	uc.recordLookup("miss")

	if verErr == nil {
		_, _ = uc.cache.SetIfVersion(ctx, key, []byte(strconv.Itoa(count)), version, uc.cacheTTL)
	}

	return count, nil
}

func (uc *NotificationUseCase) recordLookup(result string) {
	if uc.metrics != nil {
		uc.metrics.UnreadCacheLookups.WithLabelValues(result).Inc()
	}
}

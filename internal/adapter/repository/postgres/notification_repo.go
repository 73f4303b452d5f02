package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/mutledger/internal/domain"
	"github.com/iho/mutledger/internal/usecase"
)

// NotificationRepository implements usecase.NotificationRepository.
type NotificationRepository struct {
	db dbtx
}

// NewNotificationRepository creates a new notification repository.
func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return newNotificationRepositoryWithDB(pool)
}

func newNotificationRepositoryWithDB(db dbtx) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts n. With a nil tx the insert runs on the pool.
func (r *NotificationRepository) Create(ctx context.Context, tx usecase.Transaction, n *domain.Notification) error {
	var db dbtx = r.db
	if tx != nil {
		ptx, err := pgxTx(tx)
		if err != nil {
			return err
		}
		db = ptx
	}

	query := `
		INSERT INTO notifications (id, recipient_id, entry_id, message, type, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := db.Exec(ctx, query,
		n.ID,
		n.RecipientID,
		n.EntryID,
		n.Message,
		string(n.Type),
		n.Read,
		timeToPgTimestamptz(n.CreatedAt),
	)

	return wrap("insert notification", err)
}

// ListByRecipient returns the newest limit notifications of a recipient.
func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID string, limit int) ([]*domain.Notification, error) {
	query := `
		SELECT id, recipient_id, entry_id, message, type, read, created_at
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, recipientID, limit)
	if err != nil {
		return nil, wrap("list notifications", err)
	}
	defer rows.Close()

	var out []*domain.Notification
	for rows.Next() {
		var (
			n   domain.Notification
			typ string
		)
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.EntryID, &n.Message, &typ, &n.Read, &n.CreatedAt); err != nil {
			return nil, wrap("scan notification", err)
		}
		n.Type = domain.NotificationType(typ)
		out = append(out, &n)
	}

	return out, wrap("read notifications", rows.Err())
}

// CountUnread counts the unread notifications of a recipient.
func (r *NotificationRepository) CountUnread(ctx context.Context, recipientID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND NOT read`,
		recipientID,
	).Scan(&count)
	if err != nil {
		return 0, wrap("count unread", err)
	}

	return count, nil
}

// MarkRead flags the unread notifications among ids that belong to recipientID.
func (r *NotificationRepository) MarkRead(ctx context.Context, recipientID string, ids []string) (int64, error) {
	query := `
		UPDATE notifications
		SET read = true
		WHERE recipient_id = $1 AND id = ANY($2) AND NOT read
	`

	tag, err := r.db.Exec(ctx, query, recipientID, ids)
	if err != nil {
		return 0, wrap("mark read", err)
	}

	return tag.RowsAffected(), nil
}

// MarkAllRead flags every unread notification of recipientID.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE notifications SET read = true WHERE recipient_id = $1 AND NOT read`,
		recipientID,
	)
	if err != nil {
		return 0, wrap("mark all read", err)
	}

	return tag.RowsAffected(), nil
}

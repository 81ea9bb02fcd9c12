package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/fieldtrack/paperflow/internal/application/port"
	"github.com/fieldtrack/paperflow/internal/domain/entity"
)

// NotificationRepository implements port.NotificationRepository
type NotificationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sql.DB, logger *zap.Logger) port.NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a new notification
func (r *NotificationRepository) Create(ctx context.Context, notification *entity.Notification) error {
	_, err := getExecutor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO notifications (id, recipient_id, kind, title, body, link, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		notification.ID,
		notification.RecipientID,
		notification.Kind,
		notification.Title,
		notification.Body,
		notification.Link,
		notification.IsRead,
		notification.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create notification",
			zap.String("recipient_id", notification.RecipientID),
			zap.String("kind", string(notification.Kind)),
			zap.Error(err))
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// ListUnread retrieves a recipient's unread notifications, newest first
func (r *NotificationRepository) ListUnread(ctx context.Context, recipientID string) ([]*entity.Notification, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, `
		SELECT id, recipient_id, kind, title, body, link, is_read, created_at
		FROM notifications
		WHERE recipient_id = ? AND is_read = 0
		ORDER BY created_at DESC
	`, recipientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*entity.Notification
	for rows.Next() {
		var notification entity.Notification
		if err := rows.Scan(
			&notification.ID,
			&notification.RecipientID,
			&notification.Kind,
			&notification.Title,
			&notification.Body,
			&notification.Link,
			&notification.IsRead,
			&notification.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, &notification)
	}
	return notifications, rows.Err()
}

// MarkRead flags a notification as read
func (r *NotificationRepository) MarkRead(ctx context.Context, id string) error {
	result, err := getExecutor(ctx, r.db).ExecContext(ctx, `
		UPDATE notifications SET is_read = 1 WHERE id = ?
	`, id)
	if err != nil {
		r.logger.Error("Failed to mark notification read",
			zap.String("id", id),
			zap.Error(err))
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("notification not found: %s", id)
	}
	return nil
}

// Verify interface compliance
var _ port.NotificationRepository = (*NotificationRepository)(nil)

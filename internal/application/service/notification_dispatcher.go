package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fieldtrack/paperflow/internal/application/port"
	"github.com/fieldtrack/paperflow/internal/domain/entity"
)

// NotificationDispatcher fans a directive out to concrete recipients.
// Role references are expanded through the identity resolver before
// storage; one inbox row is written per resolved user. Recipients are
// de-duplicated within a single directive.
type NotificationDispatcher interface {
	// Dispatch resolves and delivers one directive
	Dispatch(ctx context.Context, directive Directive) error

	// DispatchAll delivers a batch, logging failures instead of returning
	// them. Delivery is fire-and-forget relative to the state change,
	// which is always committed first.
	DispatchAll(ctx context.Context, directives []Directive)

	// ListUnread returns a user's unread inbox entries
	ListUnread(ctx context.Context, recipientID string) ([]*entity.Notification, error)

	// MarkRead marks one inbox entry as read
	MarkRead(ctx context.Context, id string) error
}

type notificationDispatcher struct {
	notificationRepo port.NotificationRepository
	resolver         IdentityResolver
	logger           Logger
}

// NewNotificationDispatcher creates a new NotificationDispatcher
func NewNotificationDispatcher(
	notificationRepo port.NotificationRepository,
	resolver IdentityResolver,
	logger Logger,
) NotificationDispatcher {
	return &notificationDispatcher{
		notificationRepo: notificationRepo,
		resolver:         resolver,
		logger:           logger,
	}
}

// Dispatch resolves the directive's references and appends one inbox row
// per recipient
func (d *notificationDispatcher) Dispatch(ctx context.Context, directive Directive) error {
	recipients, err := d.resolver.ResolveApprovers(ctx, directive.Refs, directive.LevelType)
	if err != nil {
		return fmt.Errorf("resolve recipients: %w", err)
	}

	for _, recipientID := range recipients {
		notification := &entity.Notification{
			ID:          uuid.NewString(),
			RecipientID: recipientID,
			Kind:        directive.Kind,
			Title:       directive.Title,
			Body:        directive.Body,
			Link:        directive.Link,
			CreatedAt:   time.Now(),
		}
		if err := d.notificationRepo.Create(ctx, notification); err != nil {
			return fmt.Errorf("append notification for %s: %w", recipientID, err)
		}
	}

	d.logger.Info("Notifications dispatched",
		"kind", directive.Kind, "recipients", len(recipients))
	return nil
}

// DispatchAll delivers a batch, swallowing failures. A lost notification
// never rolls back the state transition that produced it.
func (d *notificationDispatcher) DispatchAll(ctx context.Context, directives []Directive) {
	for _, directive := range directives {
		if err := d.Dispatch(ctx, directive); err != nil {
			d.logger.Error("Notification delivery failed",
				"error", err, "kind", directive.Kind, "title", directive.Title)
		}
	}
}

// ListUnread returns a user's unread inbox entries
func (d *notificationDispatcher) ListUnread(ctx context.Context, recipientID string) ([]*entity.Notification, error) {
	return d.notificationRepo.ListUnread(ctx, recipientID)
}

// MarkRead marks one inbox entry as read
func (d *notificationDispatcher) MarkRead(ctx context.Context, id string) error {
	return d.notificationRepo.MarkRead(ctx, id)
}

var _ NotificationDispatcher = (*notificationDispatcher)(nil)

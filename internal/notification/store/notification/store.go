// Package notification provides the durable stores for notification records.
package notification

import (
	"context"

	"nagrik/internal/notification/models"
	id "nagrik/pkg/domain"
)

// Store is the persistence contract for notifications.
type Store interface {
	// Create persists a new notification. The store assigns ID and CreatedAt.
	Create(ctx context.Context, n *models.Notification) error

	// ListByRecipient returns a user's notifications, newest first.
	ListByRecipient(ctx context.Context, recipientID id.UserID) ([]*models.Notification, error)

	// MarkRead flips the read flag. Returns sentinel.ErrNotFound for unknown
	// IDs. Only the recipient may mark their own notification.
	MarkRead(ctx context.Context, notificationID id.NotificationID, recipientID id.UserID) error
}

package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("not found")

// NotificationRepository defines the port for notification persistence.
// Implementations live in infrastructure/postgres.
type NotificationRepository interface {
	// Create stores a new notification and returns the saved entity.
	Create(ctx context.Context, input CreateNotificationInput) (*Notification, error)

	// List fetches notifications matching the given filter.
	List(ctx context.Context, filter NotificationFilter) ([]*Notification, error)

	// GetByID fetches a single notification by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*Notification, error)

	// MarkRead marks a single notification as read.
	MarkRead(ctx context.Context, id uuid.UUID, recipientID string) error

	// MarkAllRead marks all unread notifications for a recipient as read.
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)

	// Delete removes a notification belonging to the recipient.
	Delete(ctx context.Context, id uuid.UUID, recipientID string) error

	// CountUnread returns the number of unread notifications for a recipient.
	CountUnread(ctx context.Context, recipientID string) (int64, error)

	// PurgeOlderThan deletes notifications older than the specified number of days.
	PurgeOlderThan(ctx context.Context, days int) (int64, error)
}

// Directory reads marketplace reference rows (profiles, threads). All reads
// are by primary key; a missing row surfaces as ErrNotFound.
type Directory interface {
	ProfileByID(ctx context.Context, id string) (*Profile, error)
	ThreadByID(ctx context.Context, id string) (*MessageThread, error)
}

// BookingUpdater records a completed charge against a booking row. The only
// booking mutation this service performs.
type BookingUpdater interface {
	SetBookingCharged(ctx context.Context, t BookingType, bookingID, paymentRef string) error
}

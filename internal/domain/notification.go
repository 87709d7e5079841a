package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType represents the domain event a notification originated from.
type NotificationType string

const (
	TypeMessage        NotificationType = "message"
	TypeBookingRequest NotificationType = "booking_request"
	TypeBookingStatus  NotificationType = "booking_status"
	TypeReview         NotificationType = "review"
)

// Notification is the core domain entity. Rows are created exclusively by the
// notification writer; clients only ever toggle the read flag. Data carries
// the identifiers (thread/booking/review id) the mobile client needs to
// deep-link without a further lookup.
type Notification struct {
	ID          uuid.UUID        `json:"id"`
	RecipientID string           `json:"recipient_id"`
	Type        NotificationType `json:"type"`
	Title       string           `json:"title"`
	Body        string           `json:"body"`
	Data        map[string]any   `json:"data,omitempty"`
	IsRead      bool             `json:"is_read"`
	ReadAt      *time.Time       `json:"read_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// NotificationFilter holds query parameters for listing notifications.
type NotificationFilter struct {
	RecipientID string
	IsRead      *bool
	Type        NotificationType
	Limit       int
	Offset      int
}

// CreateNotificationInput is the writer's input — always a single concrete recipient.
type CreateNotificationInput struct {
	RecipientID string
	Type        NotificationType
	Title       string
	Body        string
	Data        map[string]any
}

// PushStatus classifies what happened to the best-effort push for a written row.
type PushStatus string

const (
	PushDelivered PushStatus = "delivered"
	PushSkipped   PushStatus = "skipped"
	PushFailed    PushStatus = "failed"
)

// PushOutcome carries the push phase result. Reason is set for skipped/failed.
type PushOutcome struct {
	Status PushStatus
	Reason string
}

// DeliveryResult is the writer's two-phase outcome: the notification row is
// always present (it is the source of truth), the push is best-effort.
type DeliveryResult struct {
	Notification *Notification
	Push         PushOutcome
}

package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tailmates/notification/internal/dispatch/registry"
	"github.com/tailmates/notification/internal/domain"

	// Blank import triggers init() in each handler file,
	// registering all table handlers into the registry.
	_ "github.com/tailmates/notification/internal/dispatch/handlers"
)

// DefaultEventTimeout bounds the remote calls of a single event invocation.
const DefaultEventTimeout = 10 * time.Second

// Service holds the event-dispatch and notification use-cases.
type Service struct {
	repo      domain.NotificationRepository
	directory domain.Directory
	pusher    Pusher
	hub       SSEHub
	timeout   time.Duration
}

// SSEHub is the interface for broadcasting to connected in-app stream clients.
// Implementation lives in transport/http/sse_hub.go.
type SSEHub interface {
	Broadcast(recipientID string, notification *domain.Notification)
}

// NewService creates a new application Service. A non-positive timeout falls
// back to DefaultEventTimeout.
func NewService(repo domain.NotificationRepository, directory domain.Directory, pusher Pusher, hub SSEHub, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultEventTimeout
	}
	return &Service{repo: repo, directory: directory, pusher: pusher, hub: hub, timeout: timeout}
}

// HandleEvent routes one change event to its table handler. Per event there
// is exactly zero or one notification write. Handler errors are logged here
// at the router boundary and returned as the failure result of this single
// attempt — there is no internal retry. An unknown table tag is a logged
// no-op, not an error.
func (s *Service) HandleEvent(ctx context.Context, ev domain.ChangeEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	h, ok := registry.Lookup(ev.Table)
	if !ok {
		log.Debug().Str("table", ev.Table).Str("event_type", ev.Type).Msg("no handler for table, dropping event")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	env := &registry.Env{Directory: s.directory, Writer: s}
	if err := h(ctx, env, ev); err != nil {
		log.Error().Err(err).
			Str("table", ev.Table).
			Str("event_type", ev.Type).
			Msg("event handler failed")
		return fmt.Errorf("handle %s event: %w", ev.Table, err)
	}
	return nil
}

// Notify is the notification writer: it persists one row, then attempts one
// best-effort push. The row is the source of truth — a push without a row
// would be undiscoverable in-app, so an insert failure aborts before any push
// attempt, while a push failure never fails the overall operation.
func (s *Service) Notify(ctx context.Context, input domain.CreateNotificationInput) (*domain.DeliveryResult, error) {
	n, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}

	// Non-blocking in-app stream broadcast.
	go s.hub.Broadcast(n.RecipientID, n)

	res := &domain.DeliveryResult{Notification: n, Push: s.push(ctx, n)}

	log.Info().
		Str("id", n.ID.String()).
		Str("recipient", n.RecipientID).
		Str("type", string(n.Type)).
		Str("push", string(res.Push.Status)).
		Msg("notification written")

	return res, nil
}

// push looks up the recipient's delivery token and attempts one outbound push.
// Every failure path degrades to skipped/failed without touching the row.
func (s *Service) push(ctx context.Context, n *domain.Notification) domain.PushOutcome {
	recipient, err := s.directory.ProfileByID(ctx, n.RecipientID)
	if err != nil {
		log.Warn().Err(err).Str("recipient", n.RecipientID).Msg("push skipped: recipient profile lookup failed")
		return domain.PushOutcome{Status: domain.PushSkipped, Reason: "recipient profile lookup failed"}
	}
	if recipient.PushToken == "" {
		return domain.PushOutcome{Status: domain.PushSkipped, Reason: "no push token"}
	}

	msg := PushMessage{
		To:       recipient.PushToken,
		Title:    n.Title,
		Body:     n.Body,
		Data:     n.Data,
		Sound:    "default",
		Priority: "high",
	}
	if err := s.pusher.Send(ctx, msg); err != nil {
		log.Warn().Err(err).
			Str("id", n.ID.String()).
			Str("recipient", n.RecipientID).
			Msg("push delivery failed")
		return domain.PushOutcome{Status: domain.PushFailed, Reason: err.Error()}
	}
	return domain.PushOutcome{Status: domain.PushDelivered}
}

// List returns paginated notifications for a recipient.
func (s *Service) List(ctx context.Context, filter domain.NotificationFilter) ([]*domain.Notification, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	return s.repo.List(ctx, filter)
}

// CountUnread returns the unread badge count for a recipient.
func (s *Service) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	return s.repo.CountUnread(ctx, recipientID)
}

// MarkRead marks a single notification as read.
func (s *Service) MarkRead(ctx context.Context, idStr, recipientID string) error {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return fmt.Errorf("invalid notification id: %w", err)
	}
	return s.repo.MarkRead(ctx, id, recipientID)
}

// MarkAllRead marks all notifications for a recipient as read.
func (s *Service) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	return s.repo.MarkAllRead(ctx, recipientID)
}

// Delete removes a notification (must belong to the requesting recipient).
func (s *Service) Delete(ctx context.Context, idStr, recipientID string) error {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return fmt.Errorf("invalid notification id: %w", err)
	}
	return s.repo.Delete(ctx, id, recipientID)
}

// PurgeTTL deletes old notifications. Called by a background scheduler.
func (s *Service) PurgeTTL(ctx context.Context, days int) {
	count, err := s.repo.PurgeOlderThan(ctx, days)
	if err != nil {
		log.Error().Err(err).Msg("notification TTL purge failed")
		return
	}
	log.Info().Int64("deleted", count).Int("older_than_days", days).Msg("notification TTL purge completed")
}

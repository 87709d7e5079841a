package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tailmates/notification/internal/domain"
)

// Repository is the PostgreSQL implementation of domain.NotificationRepository,
// domain.Directory, and domain.BookingUpdater.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new postgres Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new notification record with is_read=false.
func (r *Repository) Create(ctx context.Context, input domain.CreateNotificationInput) (*domain.Notification, error) {
	dataJSON, _ := json.Marshal(input.Data)

	row := r.pool.QueryRow(ctx, `
		INSERT INTO notifications (recipient_id, type, title, body, data)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, recipient_id, type, title, body, data, is_read, read_at, created_at
	`, input.RecipientID, string(input.Type), input.Title, input.Body, dataJSON)

	n, err := scanNotification(row)
	if err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}
	return n, nil
}

// List fetches paginated notifications for a recipient.
func (r *Repository) List(ctx context.Context, f domain.NotificationFilter) ([]*domain.Notification, error) {
	query := `
		SELECT id, recipient_id, type, title, body, data, is_read, read_at, created_at
		FROM notifications
		WHERE recipient_id = $1
	`
	args := []any{f.RecipientID}
	paramIdx := 2

	if f.IsRead != nil {
		query += fmt.Sprintf(" AND is_read = $%d", paramIdx)
		args = append(args, *f.IsRead)
		paramIdx++
	}
	if f.Type != "" {
		query += fmt.Sprintf(" AND type = $%d", paramIdx)
		args = append(args, string(f.Type))
		paramIdx++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", paramIdx, paramIdx+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var results []*domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, n)
	}
	return results, nil
}

// GetByID fetches a single notification.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, recipient_id, type, title, body, data, is_read, read_at, created_at
		FROM notifications WHERE id = $1
	`, id)
	return scanNotification(row)
}

// MarkRead marks a single notification as read.
func (r *Repository) MarkRead(ctx context.Context, id uuid.UUID, recipientID string) error {
	now := time.Now()
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications SET is_read = TRUE, read_at = $1
		WHERE id = $2 AND recipient_id = $3 AND is_read = FALSE
	`, now, id, recipientID)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("notification not found or already read")
	}
	return nil
}

// MarkAllRead marks all unread notifications for a recipient as read.
func (r *Repository) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	now := time.Now()
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications SET is_read = TRUE, read_at = $1
		WHERE recipient_id = $2 AND is_read = FALSE
	`, now, recipientID)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Delete removes a notification belonging to the recipient.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID, recipientID string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM notifications WHERE id = $1 AND recipient_id = $2
	`, id, recipientID)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("notification %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// CountUnread returns the count of unread notifications for a recipient.
func (r *Repository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND is_read = FALSE`,
		recipientID,
	).Scan(&count)
	return count, err
}

// PurgeOlderThan deletes notifications older than the given number of days.
func (r *Repository) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -days)
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM notifications WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge notifications: %w", err)
	}
	return tag.RowsAffected(), nil
}

// scanNotification is a helper to scan a row into a Notification struct.
type scannable interface {
	Scan(dest ...any) error
}

func scanNotification(row scannable) (*domain.Notification, error) {
	var n domain.Notification
	var dataJSON []byte

	err := row.Scan(
		&n.ID, &n.RecipientID, &n.Type, &n.Title, &n.Body,
		&dataJSON, &n.IsRead, &n.ReadAt, &n.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan notification: %w", err)
	}
	if len(dataJSON) > 0 {
		_ = json.Unmarshal(dataJSON, &n.Data)
	}
	return &n, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tailmates/notification/internal/domain"
)

// ProfileByID fetches a profile row by primary key.
func (r *Repository) ProfileByID(ctx context.Context, id string) (*domain.Profile, error) {
	var p domain.Profile
	var pushToken, stripeAccountID *string

	err := r.pool.QueryRow(ctx, `
		SELECT id, full_name, push_token, stripe_account_id
		FROM profiles WHERE id = $1
	`, id).Scan(&p.ID, &p.FullName, &pushToken, &stripeAccountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get profile %s: %w", id, err)
	}

	if pushToken != nil {
		p.PushToken = *pushToken
	}
	if stripeAccountID != nil {
		p.StripeAccountID = *stripeAccountID
	}
	return &p, nil
}

// ThreadByID fetches a message thread row by primary key.
func (r *Repository) ThreadByID(ctx context.Context, id string) (*domain.MessageThread, error) {
	var t domain.MessageThread
	var bookingRef *string

	err := r.pool.QueryRow(ctx, `
		SELECT id, owner_id, sitter_id, booking_ref
		FROM message_threads WHERE id = $1
	`, id).Scan(&t.ID, &t.OwnerID, &t.SitterID, &bookingRef)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("thread %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get thread %s: %w", id, err)
	}

	if bookingRef != nil {
		t.BookingRef = *bookingRef
	}
	return &t, nil
}

// SetBookingCharged records the payment reference on a booking row and moves
// it to confirmed. The table is resolved through the service-type mapping, so
// the name is never interpolated from request input.
func (r *Repository) SetBookingCharged(ctx context.Context, t domain.BookingType, bookingID, paymentRef string) error {
	table := t.Table()
	if table == "" {
		return fmt.Errorf("unknown booking type %q", t)
	}

	query := fmt.Sprintf(`
		UPDATE %s SET stripe_payment_intent_id = $1, status = 'confirmed'
		WHERE id = $2
	`, table)

	tag, err := r.pool.Exec(ctx, query, paymentRef, bookingID)
	if err != nil {
		return fmt.Errorf("update %s %s: %w", table, bookingID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("booking %s: %w", bookingID, domain.ErrNotFound)
	}
	return nil
}

package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/tailmates/notification/internal/dispatch/registry"
	"github.com/tailmates/notification/internal/domain"
	"github.com/tailmates/notification/internal/messages"
)

func init() {
	Register(domain.TableWalkingBookings, handleBooking)
	Register(domain.TableBoardingBookings, handleBooking)
}

type bookingRecord struct {
	ID       string `json:"id"`
	OwnerID  string `json:"owner_id"`
	SitterID string `json:"sitter_id"`
	Status   string `json:"status"`
}

// handleBooking covers both booking tables; the table tag encodes the service
// type. A creation event (no old record) notifies the sitter of the request;
// a status transition notifies the owner. The two branches are mutually
// exclusive per invocation.
func handleBooking(ctx context.Context, env *registry.Env, ev domain.ChangeEvent) error {
	var rec bookingRecord
	if err := json.Unmarshal(ev.Record, &rec); err != nil {
		return fmt.Errorf("%w: booking record: %v", domain.ErrMalformedEvent, err)
	}

	serviceType, ok := domain.BookingTypeForTable(ev.Table)
	if !ok {
		return fmt.Errorf("no booking type for table %q", ev.Table)
	}

	// The two profile reads are independent; fetch both before branching.
	// Either one missing aborts the whole handler.
	var owner, sitter *domain.Profile
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := env.Directory.ProfileByID(gctx, rec.OwnerID)
		if err != nil {
			return fmt.Errorf("resolve owner %s: %w", rec.OwnerID, err)
		}
		owner = p
		return nil
	})
	g.Go(func() error {
		p, err := env.Directory.ProfileByID(gctx, rec.SitterID)
		if err != nil {
			return fmt.Errorf("resolve sitter %s: %w", rec.SitterID, err)
		}
		sitter = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if len(ev.OldRecord) == 0 {
		title, body := messages.BookingRequest(owner.FullName, string(serviceType))
		_, err := env.Writer.Notify(ctx, domain.CreateNotificationInput{
			RecipientID: rec.SitterID,
			Type:        domain.TypeBookingRequest,
			Title:       title,
			Body:        body,
			Data:        map[string]any{"bookingId": rec.ID, "bookingType": string(serviceType)},
		})
		return err
	}

	var old bookingRecord
	if err := json.Unmarshal(ev.OldRecord, &old); err != nil {
		return fmt.Errorf("%w: old booking record: %v", domain.ErrMalformedEvent, err)
	}
	if old.Status == rec.Status {
		// Update touched something other than status — nothing notification-worthy.
		return nil
	}

	title, body := messages.BookingStatus(sitter.FullName, rec.Status)
	_, err := env.Writer.Notify(ctx, domain.CreateNotificationInput{
		RecipientID: rec.OwnerID,
		Type:        domain.TypeBookingStatus,
		Title:       title,
		Body:        body,
		Data:        map[string]any{"bookingId": rec.ID, "status": rec.Status},
	})
	return err
}

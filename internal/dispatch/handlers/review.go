package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tailmates/notification/internal/dispatch/registry"
	"github.com/tailmates/notification/internal/domain"
	"github.com/tailmates/notification/internal/messages"
)

func init() {
	Register(domain.TableReviews, handleReview)
}

type reviewRecord struct {
	ID         string `json:"id"`
	ReviewerID string `json:"reviewer_id"`
	RevieweeID string `json:"reviewee_id"`
}

// handleReview notifies the reviewee. Reviews are created exactly once, so
// every event here produces exactly one notification.
func handleReview(ctx context.Context, env *registry.Env, ev domain.ChangeEvent) error {
	var rec reviewRecord
	if err := json.Unmarshal(ev.Record, &rec); err != nil {
		return fmt.Errorf("%w: review record: %v", domain.ErrMalformedEvent, err)
	}

	reviewer, err := env.Directory.ProfileByID(ctx, rec.ReviewerID)
	if err != nil {
		return fmt.Errorf("resolve reviewer %s: %w", rec.ReviewerID, err)
	}

	title, body := messages.NewReview(reviewer.FullName)

	_, err = env.Writer.Notify(ctx, domain.CreateNotificationInput{
		RecipientID: rec.RevieweeID,
		Type:        domain.TypeReview,
		Title:       title,
		Body:        body,
		Data:        map[string]any{"reviewId": rec.ID},
	})
	return err
}

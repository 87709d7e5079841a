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
	Register(domain.TableMessages, handleMessage)
}

type messageRecord struct {
	ID       string `json:"id"`
	ThreadID string `json:"thread_id"`
	SenderID string `json:"sender_id"`
	Content  string `json:"content"`
}

// handleMessage notifies the thread participant who did not send the message.
// A missing thread or sender profile is not recoverable locally and aborts
// the invocation.
func handleMessage(ctx context.Context, env *registry.Env, ev domain.ChangeEvent) error {
	var rec messageRecord
	if err := json.Unmarshal(ev.Record, &rec); err != nil {
		return fmt.Errorf("%w: message record: %v", domain.ErrMalformedEvent, err)
	}

	thread, err := env.Directory.ThreadByID(ctx, rec.ThreadID)
	if err != nil {
		return fmt.Errorf("resolve thread %s: %w", rec.ThreadID, err)
	}
	sender, err := env.Directory.ProfileByID(ctx, rec.SenderID)
	if err != nil {
		return fmt.Errorf("resolve sender %s: %w", rec.SenderID, err)
	}

	// Body is the message content verbatim; sanitation is the client's concern.
	title, body := messages.NewMessage(sender.FullName, rec.Content)

	_, err = env.Writer.Notify(ctx, domain.CreateNotificationInput{
		RecipientID: thread.OtherParticipant(rec.SenderID),
		Type:        domain.TypeMessage,
		Title:       title,
		Body:        body,
		Data:        map[string]any{"threadId": rec.ThreadID, "messageId": rec.ID},
	})
	return err
}

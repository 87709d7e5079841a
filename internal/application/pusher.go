package application

import "context"

// PushMessage is the payload the push delivery endpoint accepts.
type PushMessage struct {
	To       string         `json:"to"`
	Title    string         `json:"title"`
	Body     string         `json:"body"`
	Data     map[string]any `json:"data,omitempty"`
	Sound    string         `json:"sound"`
	Priority string         `json:"priority"`
}

// Pusher delivers one push message to a single device token. Delivery is
// best-effort: callers log and swallow errors. The default implementation
// calls the Expo push API; a no-op implementation can be used for testing.
type Pusher interface {
	Send(ctx context.Context, msg PushMessage) error
}

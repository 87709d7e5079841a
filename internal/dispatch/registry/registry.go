// Package registry provides a lightweight handler registry for change-data-
// capture events, keyed by source table tag. Each domain handler registers
// itself via init(), eliminating the need to modify the router when a new
// table becomes notification-worthy.
package registry

import (
	"context"

	"github.com/tailmates/notification/internal/domain"
)

// Writer is the single side effect available to handlers: persist one
// notification row and best-effort push it. Implemented by application.Service.
type Writer interface {
	Notify(ctx context.Context, input domain.CreateNotificationInput) (*domain.DeliveryResult, error)
}

// Env carries the collaborators a handler may use. Handlers perform at most a
// few Directory reads and exactly zero or one Writer call.
type Env struct {
	Directory domain.Directory
	Writer    Writer
}

// Handler processes one change event for its registered table. Returning an
// error aborts the invocation; the router logs it at the boundary.
type Handler func(ctx context.Context, env *Env, ev domain.ChangeEvent) error

var handlers = map[string]Handler{}

// Register binds a handler to a table tag. Should be called from each domain
// handler's init() function. Panics on duplicate registration to catch wiring
// mistakes early.
func Register(table string, h Handler) {
	if _, exists := handlers[table]; exists {
		panic("registry: duplicate handler registered for table: " + table)
	}
	handlers[table] = h
}

// Lookup returns the handler for a table tag. A missing handler is not an
// error — the router drops the event as a logged no-op.
func Lookup(table string) (Handler, bool) {
	h, ok := handlers[table]
	return h, ok
}

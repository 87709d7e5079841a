package handlers

import (
	"github.com/tailmates/notification/internal/dispatch/registry"
)

// Register is a convenience alias so each domain file calls Register(...)
// instead of registry.Register(...), keeping imports minimal.
func Register(table string, h registry.Handler) {
	registry.Register(table, h)
}

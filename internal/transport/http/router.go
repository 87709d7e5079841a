package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/tailmates/notification/internal/transport/mw"
)

// NewRouter sets up all Echo routes and middleware.
func NewRouter(h *Handler, jwtSecret, webhookSecret string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Global middleware. The preflight is answered here with a bare 200 and
	// permissive headers — clients of the old edge functions expect 200, not
	// echo CORS's 204 — so the mobile webview and dashboard can call us
	// directly; CORS below handles the actual-request headers.
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(preflight)
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Webhook-Secret"},
		AllowMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
	}))

	// Health (no auth required)
	e.GET("/health", h.Health)

	// CDC webhook — authenticated with the pipeline's shared secret, not JWT.
	hooks := e.Group("/hooks")
	hooks.Use(mw.WebhookAuth(webhookSecret))
	hooks.POST("/events", h.HandleChangeEvent)

	// Client API — requires authentication
	v1 := e.Group("")
	v1.Use(mw.JWTAuth(jwtSecret))

	// REST endpoints
	v1.GET("/notifications", h.ListNotifications)
	v1.GET("/notifications/unread-count", h.GetUnreadCount)
	v1.PATCH("/notifications/:id/read", h.MarkRead)
	v1.POST("/notifications/read-all", h.MarkAllRead)
	v1.DELETE("/notifications/:id", h.Delete)

	// Payments
	v1.POST("/payments/charge", h.ChargeBooking)

	// SSE endpoint
	v1.GET("/notifications/stream", h.Stream)

	return e
}

// preflight short-circuits OPTIONS requests with a bare 200 and permissive
// cross-origin headers.
func preflight(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Request().Method != http.MethodOptions {
			return next(c)
		}
		h := c.Response().Header()
		h.Set(echo.HeaderAccessControlAllowOrigin, "*")
		h.Set(echo.HeaderAccessControlAllowHeaders, "Authorization, Content-Type, X-Webhook-Secret")
		h.Set(echo.HeaderAccessControlAllowMethods, "GET, POST, PATCH, DELETE, OPTIONS")
		return c.NoContent(http.StatusOK)
	}
}

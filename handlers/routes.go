package handlers

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes mounts the room API, health, metrics and the WebSocket endpoint.
// The room routes are also served under /api for existing clients.
func RegisterRoutes(app *fiber.App, rooms *RoomHandler, gw *Gateway, gatherer prometheus.Gatherer) {
	app.Get("/health", rooms.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	for _, r := range []fiber.Router{app, app.Group("/api")} {
		r.Get("/rooms", rooms.List)
		r.Post("/rooms", rooms.Create)
		r.Delete("/rooms/:roomName", rooms.Delete)
	}

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(gw.HandleWebSocket))
}

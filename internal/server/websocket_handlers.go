package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"inkwell/internal/middleware"
)

// WebsocketHandler upgrades GET /api/ws connections. The route sits behind
// AuthRequired, which accepts the single-use ticket from /api/ws/ticket
// because browsers cannot set headers on upgrade requests.
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, ok := conn.Locals("userID").(uint)
		if !ok || userID == 0 {
			conn.Close()
			return
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			middleware.WebSocketDrops.WithLabelValues("limit").Inc()
			conn.Close()
			return
		}
		middleware.ActiveWebSockets.Inc()
		defer middleware.ActiveWebSockets.Dec()

		go client.WritePump()
		client.ReadPump()
	})
}

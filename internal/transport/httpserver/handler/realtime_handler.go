package handler

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"watchlist-service/internal/realtime"
)

// writeTimeout bounds a single notification write to a socket.
const writeTimeout = 10 * time.Second

// Subscriber hands out channel subscriptions.
// Implementations: realtime.Hub
type Subscriber interface {
	Subscribe(channel string) *realtime.Subscription
}

// RealtimeHandler streams channel notifications over WebSocket.
type RealtimeHandler struct {
	hub    Subscriber
	logger *zap.Logger
}

// NewRealtimeHandler creates a new RealtimeHandler.
func NewRealtimeHandler(hub Subscriber, logger *zap.Logger) *RealtimeHandler {
	return &RealtimeHandler{
		hub:    hub,
		logger: logger,
	}
}

// RequireUpgrade rejects plain HTTP requests to socket routes.
func (h *RealtimeHandler) RequireUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	return c.Next()
}

// Stream returns the WebSocket handler for channel.
// Client frames are read only to detect disconnects; their content is ignored.
func (h *RealtimeHandler) Stream(channel string) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		sub := h.hub.Subscribe(channel)
		defer sub.Close()

		log := h.logger.With(
			zap.String("channel", channel),
			zap.String("subscriber_id", sub.ID()),
		)
		log.Debug("socket connected")

		gone := make(chan struct{})
		go func() {
			defer close(gone)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-gone:
				log.Debug("socket disconnected")
				return

			case msg, ok := <-sub.Messages():
				if !ok {
					log.Debug("subscription ended by hub")
					return
				}

				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					log.Debug("socket write failed", zap.Error(err))
					return
				}
			}
		}
	})
}

package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/mauromolina/mmovienight-sub000/internal/handlers/ws"
	"github.com/mauromolina/mmovienight-sub000/internal/logger"
	"github.com/sirupsen/logrus"
)

type WebSocketHandler struct {
	hub *ws.Hub
}

func NewWebSocketHandler(hub *ws.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// Upgrade rejects plain HTTP requests to the websocket route. It runs after
// AuthRequired so the user id is already in Locals.
func (h *WebSocketHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return c.Next()
}

func (h *WebSocketHandler) HandleWebSocket(c *websocket.Conn) {
	userID, ok := c.Locals("userID").(uint)
	if !ok || userID == 0 {
		_ = c.Close()
		return
	}
	log := logger.Get().WithField("user_id", userID)

	supportsGzip := c.Query("gzip") == "1" || c.Headers("X-Supports-Gzip") == "1"
	client := h.hub.Register(userID, c, supportsGzip)
	defer h.hub.Unregister(userID, c)

	log.Info("websocket connected")
	ctx := &ws.MessageContext{UserID: userID, Client: client, Hub: h.hub}

	for {
		frameType, data, err := c.ReadMessage()
		if err != nil {
			log.WithError(err).Debug("websocket read ended")
			break
		}

		if frameType == websocket.BinaryMessage {
			data, err = ws.DecompressMessage(data)
			if err != nil {
				_ = ws.SendError(ctx, "decompression_failed", "Failed to decompress message", err.Error())
				continue
			}
		}

		msg, err := ws.Deserialize(data)
		if err != nil {
			_ = ws.SendError(ctx, "invalid_message", "Invalid message format", err.Error())
			continue
		}

		if err := msg.Process(ctx); err != nil {
			log.WithFields(logrus.Fields{"type": msg.GetType()}).WithError(err).Warn("websocket message failed")
			_ = ws.SendError(ctx, "processing_failed", "Failed to process message", err.Error())
		}
	}

	log.Info("websocket disconnected")
}

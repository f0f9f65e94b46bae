package handler

import (
	"strangerchat/backend/internal/chathub"
	"strangerchat/backend/internal/logger"
	"strangerchat/backend/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ServeWebSocket оновлює HTTP-з'єднання до WebSocket і реєструє
// нове анонімне з'єднання в хабі.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade вже записав HTTP-помилку.
		logger.Warn("websocket upgrade failed", zap.String("addr", c.ClientIP()), zap.Error(err))
		return
	}

	lang := h.Languages.Match(c.GetHeader("Accept-Language"))
	meta := models.NewClientMeta(c.ClientIP(), c.Request.UserAgent(), lang)

	registry := h.Hub.Registry
	id := registry.Register(meta)
	client := chathub.NewWebSocketClient(id, conn, h.Hub, 3*h.Config.SweepInterval)

	if !h.Hub.Register(client) {
		registry.Unregister(id)
		conn.Close()
		return
	}
	logger.Debug("websocket attached", zap.String("conn", id), zap.String("client", meta.Summary()))

	client.Run()
}

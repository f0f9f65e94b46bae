// Package handler exposes the hub, the audit log and process health over HTTP.
package handler

import (
	"net/http"
	"time"

	"strangerchat/backend/internal/chathub"
	"strangerchat/backend/internal/config"
	"strangerchat/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// LanguageMatcher обирає підтримувану мову за заголовком Accept-Language.
type LanguageMatcher interface {
	Match(acceptLanguage string) string
}

// Handler містить посилання на ChatHub, сховище та конфігурацію.
type Handler struct {
	Hub       *chathub.ManagerService
	Storage   storage.Storage
	Languages LanguageMatcher
	Config    *config.Config

	upgrader websocket.Upgrader
}

func NewHandler(hub *chathub.ManagerService, store storage.Storage, langs LanguageMatcher, cfg *config.Config) *Handler {
	h := &Handler{
		Hub:       hub,
		Storage:   store,
		Languages: langs,
		Config:    cfg,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Routes реєструє всі маршрути на r.
func (h *Handler) Routes(r gin.IRouter) {
	r.GET("/ws", h.ServeWebSocket)
	r.GET("/healthz", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.GET("/audit/recent", h.RecentAudit)
}

// Health повертає останні лічильники хаба.
func (h *Handler) Health(c *gin.Context) {
	select {
	case <-h.Hub.Done():
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "stopped"})
		return
	default:
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC(),
		"stats":  h.Hub.Stats(),
	})
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return h.Config.OriginAllowed(origin)
}

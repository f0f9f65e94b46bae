package chathub

import (
	"sync"
	"time"

	"strangerchat/backend/internal/logger"
	"strangerchat/backend/internal/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait        = 10 * time.Second
	defaultReadWait  = 90 * time.Second
	maxMessageSize   = 64 * 1024 // SDP-пропозиції бувають великими
	sendBufferLength = 256
)

// WebSocketClient реалізує Client поверх з'єднання gorilla/websocket.
type WebSocketClient struct {
	ID   string
	Conn *websocket.Conn
	Hub  *ManagerService
	Send chan models.OutboundEvent

	// ReadTimeout обмежує тишу в сокеті; pong і кадри його продовжують.
	ReadTimeout time.Duration

	ping      chan struct{}
	closeOnce sync.Once
}

// NewWebSocketClient обгортає conn для з'єднання id.
func NewWebSocketClient(id string, conn *websocket.Conn, hub *ManagerService, readTimeout time.Duration) *WebSocketClient {
	if readTimeout <= 0 {
		readTimeout = defaultReadWait
	}
	return &WebSocketClient{
		ID:          id,
		Conn:        conn,
		Hub:         hub,
		Send:        make(chan models.OutboundEvent, sendBufferLength),
		ReadTimeout: readTimeout,
		ping:        make(chan struct{}, 1),
	}
}

// GetID повертає ідентифікатор з'єднання.
func (c *WebSocketClient) GetID() string {
	return c.ID
}

// GetSendChannel повертає вихідний буфер, який спорожнює writePump.
func (c *WebSocketClient) GetSendChannel() chan<- models.OutboundEvent {
	return c.Send
}

// Ping ставить у чергу ping-кадр; вже запланований ping не дублюється.
func (c *WebSocketClient) Ping() {
	select {
	case c.ping <- struct{}{}:
	default:
	}
}

// Run запускає обидві помпи.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close закриває Send: writePump надсилає close-кадр і завершується.
func (c *WebSocketClient) Close() {
	c.closeOnce.Do(func() { close(c.Send) })
}

func (c *WebSocketClient) readPump() {
	defer func() {
		c.Hub.Unregister(c.ID)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Hub.Registry.MarkAlive(c.ID)
		return c.Conn.SetReadDeadline(time.Now().Add(c.ReadTimeout))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket read failed", zap.String("conn", c.ID), zap.Error(err))
			}
			return
		}
		c.Conn.SetReadDeadline(time.Now().Add(c.ReadTimeout))

		if !c.Hub.Incoming(c.ID, message) {
			return
		}
	}
}

func (c *WebSocketClient) writePump() {
	defer c.Conn.Close()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Канал закрито хабом.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteJSON(message); err != nil {
				logger.Debug("websocket write failed", zap.String("conn", c.ID), zap.Error(err))
				return
			}

		case <-c.ping:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.Hub.Done():
			return
		}
	}
}

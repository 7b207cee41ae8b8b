package ws

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// MessageProcessor handles raw frames from a gate controller.
type MessageProcessor interface {
	Process(ctx context.Context, lotID int64, raw []byte)
}

// Connection represents an active gate controller WebSocket connection.
type Connection struct {
	lotID        int64
	ws           *websocket.Conn
	send         chan []byte
	logger       *zap.Logger
	processor    MessageProcessor
	writeTimeout time.Duration
	onClose      func(lotID int64)
}

// NewConnection builds connection wrapper.
func NewConnection(lotID int64, ws *websocket.Conn, processor MessageProcessor, writeTimeout time.Duration, logger *zap.Logger, onClose func(int64)) *Connection {
	return &Connection{
		lotID:        lotID,
		ws:           ws,
		send:         make(chan []byte, 16),
		logger:       logger,
		processor:    processor,
		writeTimeout: writeTimeout,
		onClose:      onClose,
	}
}

// LotID returns identifier.
func (c *Connection) LotID() int64 {
	return c.lotID
}

// Start launches read/write pumps.
func (c *Connection) Start(ctx context.Context) {
	go c.writePump(ctx)
	c.readPump(ctx)
}

func (c *Connection) readPump(ctx context.Context) {
	defer c.cleanup()
	c.ws.SetReadLimit(64 * 1024)
	c.ws.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, message, err := c.ws.ReadMessage()
		if err != nil {
			c.logger.Info("connection read closed", zap.Int64("lot_id", c.lotID), zap.Error(err))
			return
		}

		c.processor.Process(ctx, c.lotID, message)
	}
}

func (c *Connection) writePump(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.send:
			if !ok {
				_ = c.write(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, []byte("ping")); err != nil {
				return
			}
		}
	}
}

// Send enqueues a message for writing.
func (c *Connection) Send(msg []byte) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("attempted to send on closed channel", zap.Int64("lot_id", c.lotID))
		}
	}()
	select {
	case c.send <- msg:
	default:
		c.logger.Warn("dropping outgoing message, buffer full", zap.Int64("lot_id", c.lotID))
	}
}

// Ping sends ping.
func (c *Connection) Ping() error {
	return c.write(websocket.PingMessage, []byte("ping"))
}

func (c *Connection) write(messageType int, data []byte) error {
	c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.ws.WriteMessage(messageType, data)
}

func (c *Connection) cleanup() {
	close(c.send)
	_ = c.ws.Close()
	if c.onClose != nil {
		c.onClose(c.lotID)
	}
}

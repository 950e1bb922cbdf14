package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"projectmate/internal/metrics"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
	// 必須小於 pongWait
	pingPeriod = (pongWait * 9) / 10
	// 筆記內容整份送出，上限需容納完整文件
	maxMessageSize = 1 << 20
)

// EventHandler 處理單一連線送來的事件
type EventHandler interface {
	HandleEvent(ctx context.Context, client *Client, env Envelope)
}

// Client 代表一個 WebSocket 客戶端連接
type Client struct {
	id     string
	hub    *Hub
	conn   *websocket.Conn
	userID uint
	send   chan []byte   // 發送佇列，只由 writePump 讀取，永不關閉
	done   chan struct{} // 關閉時 writePump 結束
	once   sync.Once
}

func newClient(hub *Hub, conn *websocket.Conn, userID uint, buffer int) *Client {
	return &Client{
		id:     uuid.NewString(),
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, buffer),
		done:   make(chan struct{}),
	}
}

// UserID 連線所屬的用戶
func (c *Client) UserID() uint { return c.userID }

func (c *Client) close() { c.once.Do(func() { close(c.done) }) }

func (c *Client) log() *logrus.Entry {
	return logrus.WithFields(logrus.Fields{"conn_id": c.id, "user_id": c.userID})
}

// Serve 接管已升級的 WebSocket 連線直到其關閉。
// 同一連線的事件依序交給 handler 處理，處理完才讀取下一個事件。
func (h *Hub) Serve(ctx context.Context, conn *websocket.Conn, userID uint, handler EventHandler) {
	client := newClient(h, conn, userID, h.sendBuffer)
	metrics.ConnectedClients.Inc()
	client.log().Info("WebSocket client connected")

	defer func() {
		h.LeaveAll(client)
		client.close()
		conn.Close()
		metrics.ConnectedClients.Dec()
		client.log().Info("WebSocket client disconnected")
	}()

	go client.writePump()
	client.readPump(ctx, handler)
}

// readPump 持續讀取並處理客戶端送來的事件
func (c *Client) readPump(ctx context.Context, handler EventHandler) {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log().WithError(err).Warn("WebSocket unexpected close")
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(message, &env); err != nil || env.Event == "" {
			c.log().WithError(err).Debug("Malformed event ignored")
			continue
		}

		handler.HandleEvent(ctx, c, env)
	}
}

// writePump 將發送佇列中的事件寫入連線，並定期送出 ping
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

package service

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"

	"projectmate/internal/metrics"
)

// Hub 管理所有房間的 WebSocket 連線並負責事件廣播
type Hub struct {
	rooms      map[uint]map[*Client]bool // roomID -> client -> bool
	joined     map[*Client]map[uint]bool // client -> roomID -> bool
	mu         sync.RWMutex
	sendBuffer int
}

// NewHub 創建並初始化新的 Hub，sendBuffer 為每條連線的發送佇列長度
func NewHub(sendBuffer int) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	return &Hub{
		rooms:      make(map[uint]map[*Client]bool),
		joined:     make(map[*Client]map[uint]bool),
		sendBuffer: sendBuffer,
	}
}

// Join 將連線加入房間的廣播名單
func (h *Hub) Join(client *Client, roomID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][client] = true

	if h.joined[client] == nil {
		h.joined[client] = make(map[uint]bool)
	}
	h.joined[client][roomID] = true
}

// Leave 將連線移出房間的廣播名單
func (h *Hub) Leave(client *Client, roomID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(client, roomID)
}

// LeaveAll 將連線移出所有已加入的房間，連線中斷時呼叫
func (h *Hub) LeaveAll(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for roomID := range h.joined[client] {
		h.leaveLocked(client, roomID)
	}
	delete(h.joined, client)
}

func (h *Hub) leaveLocked(client *Client, roomID uint) {
	if clients, ok := h.rooms[roomID]; ok {
		delete(clients, client)
		// 房間空了就刪除
		if len(clients) == 0 {
			delete(h.rooms, roomID)
		}
	}
	if rooms, ok := h.joined[client]; ok {
		delete(rooms, roomID)
	}
}

// Publish 將事件送給房間內除 exclude 以外的所有連線，回傳成功排入佇列的數量。
// 發送佇列已滿的連線會略過此事件。
func (h *Hub) Publish(roomID uint, event string, data interface{}, exclude *Client) int {
	payload, err := json.Marshal(data)
	if err != nil {
		logrus.WithField("event", event).WithError(err).Error("Failed to encode event payload")
		return 0
	}
	message, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		logrus.WithField("event", event).WithError(err).Error("Failed to encode event")
		return 0
	}

	h.mu.RLock()
	recipients := make([]*Client, 0, len(h.rooms[roomID]))
	for client := range h.rooms[roomID] {
		if client != exclude {
			recipients = append(recipients, client)
		}
	}
	h.mu.RUnlock()

	delivered := 0
	for _, client := range recipients {
		select {
		case client.send <- message:
			delivered++
		default:
			metrics.EventsDropped.WithLabelValues(event).Inc()
			logrus.WithFields(logrus.Fields{
				"room_id": roomID,
				"user_id": client.UserID(),
				"event":   event,
			}).Warn("Client send queue full, event dropped")
		}
	}
	metrics.EventsPublished.WithLabelValues(event).Add(float64(delivered))
	return delivered
}

// RoomSize 回傳房間內的連線數
func (h *Hub) RoomSize(roomID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

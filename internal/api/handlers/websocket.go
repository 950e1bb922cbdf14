package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"projectmate/internal/service"
)

// WebSocketHandler 處理 WebSocket 連接
type WebSocketHandler struct {
	hub      *service.Hub
	collab   *service.CollabService
	upgrader websocket.Upgrader
}

// NewWebSocketHandler 創建一個新的 WebSocketHandler 實例。
// allowedOrigins 為空或包含 "*" 時接受任何來源。
func NewWebSocketHandler(hub *service.Hub, collab *service.CollabService, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		hub:    hub,
		collab: collab,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// 非瀏覽器用戶端不帶 Origin
		if origin == "" || len(set) == 0 {
			return true
		}
		return set[origin]
	}
}

// HandleWebSocket 將已驗證的請求升級為 WebSocket，並在連線期間處理房間事件
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 失敗時已自行回應錯誤
		logrus.WithField("user_id", userID).WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	h.hub.Serve(c.Request.Context(), conn, userID, h.collab)
}

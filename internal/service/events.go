package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// 用戶端送出的事件
const (
	EventJoinRoom    = "join_room"
	EventLeaveRoom   = "leave_room"
	EventTextUpdate  = "text_update"
	EventSendMessage = "send_message"
)

// 伺服器廣播的事件
const (
	EventUpdateText   = "update_text"
	EventNewMessage   = "new_message"
	EventNewFileAdded = "new_file_added"
)

// Envelope 是 WebSocket 上所有事件的外層格式
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// RoomRef 房間 ID，JSON 中可為數字或字串
type RoomRef uint

func (r *RoomRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return fmt.Errorf("room is required")
	}

	raw := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
	}

	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return fmt.Errorf("invalid room id %q", raw)
	}
	*r = RoomRef(id)
	return nil
}

type roomPayload struct {
	Room RoomRef `json:"room"`
}

// Text 缺少時整個事件不處理
type textUpdatePayload struct {
	Room RoomRef `json:"room"`
	Text *string `json:"text"`
}

type sendMessagePayload struct {
	Room RoomRef `json:"room"`
	Msg  string  `json:"msg"`
}

// UpdateTextEvent 筆記更新的廣播內容
type UpdateTextEvent struct {
	Text string `json:"text"`
}

// NewMessageEvent 新聊天訊息的廣播內容
type NewMessageEvent struct {
	Msg       string `json:"msg"`
	Username  string `json:"username"`
	Timestamp string `json:"timestamp"`
}

// NewFileAddedEvent 新檔案的廣播內容
type NewFileAddedEvent struct {
	Filename         string `json:"filename"`
	OriginalFilename string `json:"original_filename"`
	Room             string `json:"room"`
}

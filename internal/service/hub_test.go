package service

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishExcludesSender(t *testing.T) {
	hub := NewHub(4)
	a := newClient(hub, nil, 1, 4)
	b := newClient(hub, nil, 2, 4)
	other := newClient(hub, nil, 3, 4)
	hub.Join(a, 5)
	hub.Join(b, 5)
	hub.Join(other, 6)

	assert.Equal(t, 1, hub.Publish(5, EventUpdateText, UpdateTextEvent{Text: "x"}, a))
	assertNoEvent(t, a)
	assertNoEvent(t, other)

	var ev UpdateTextEvent
	assert.Equal(t, EventUpdateText, nextEvent(t, b, &ev))
	assert.Equal(t, "x", ev.Text)

	assert.Equal(t, 2, hub.Publish(5, EventNewMessage, NewMessageEvent{Msg: "hi"}, nil))
}

func TestHub_FullQueueDropsForThatClientOnly(t *testing.T) {
	hub := NewHub(1)
	slow := newClient(hub, nil, 1, 1)
	fast := newClient(hub, nil, 2, 4)
	hub.Join(slow, 1)
	hub.Join(fast, 1)

	assert.Equal(t, 2, hub.Publish(1, EventUpdateText, UpdateTextEvent{Text: "1"}, nil))
	assert.Equal(t, 1, hub.Publish(1, EventUpdateText, UpdateTextEvent{Text: "2"}, nil))

	var ev UpdateTextEvent
	nextEvent(t, slow, &ev)
	assert.Equal(t, "1", ev.Text)
	assertNoEvent(t, slow)

	nextEvent(t, fast, &ev)
	nextEvent(t, fast, &ev)
	assert.Equal(t, "2", ev.Text)
}

func TestHub_LeaveAndLeaveAll(t *testing.T) {
	hub := NewHub(4)
	c := newClient(hub, nil, 1, 4)
	hub.Join(c, 1)
	hub.Join(c, 2)
	hub.Join(c, 3)

	hub.Leave(c, 1)
	assert.Equal(t, 0, hub.RoomSize(1))
	assert.Equal(t, 1, hub.RoomSize(2))

	hub.LeaveAll(c)
	assert.Equal(t, 0, hub.RoomSize(2))
	assert.Equal(t, 0, hub.RoomSize(3))
	assert.Equal(t, 0, hub.Publish(2, EventUpdateText, UpdateTextEvent{}, nil))

	// 離開未加入的房間不應出錯
	hub.Leave(c, 9)
	hub.LeaveAll(c)
}

func TestHub_ConcurrentJoinPublish(t *testing.T) {
	hub := NewHub(64)
	var wg sync.WaitGroup
	clients := make([]*Client, 16)
	for i := range clients {
		clients[i] = newClient(hub, nil, uint(i+1), 64)
	}

	for _, c := range clients {
		wg.Add(2)
		go func(c *Client) {
			defer wg.Done()
			hub.Join(c, 1)
		}(c)
		go func() {
			defer wg.Done()
			hub.Publish(1, EventUpdateText, UpdateTextEvent{Text: "t"}, nil)
		}()
	}
	wg.Wait()

	assert.Equal(t, len(clients), hub.RoomSize(1))
	for _, c := range clients {
		hub.LeaveAll(c)
	}
	assert.Equal(t, 0, hub.RoomSize(1))
}

func TestRoomRef_Unmarshal(t *testing.T) {
	var p roomPayload
	require.NoError(t, json.Unmarshal([]byte(`{"room":"5"}`), &p))
	assert.Equal(t, RoomRef(5), p.Room)

	require.NoError(t, json.Unmarshal([]byte(`{"room":12}`), &p))
	assert.Equal(t, RoomRef(12), p.Room)

	for _, bad := range []string{`{"room":"abc"}`, `{"room":0}`, `{"room":-1}`, `{"room":null}`, `{"room":1.5}`} {
		assert.Error(t, json.Unmarshal([]byte(bad), &p), bad)
	}
}

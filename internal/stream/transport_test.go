package stream

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount() = %d, want %d", h.ClientCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSSEClient_StreamsEvents(t *testing.T) {
	h := openHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := NewSSEClient(w, 8)
		if err := h.Subscribe(c, Event{Name: EventPosition, Data: "0, 0, 0"}); err != nil {
			return
		}
		defer h.Unsubscribe(c)
		_ = c.Run(r.Context(), 0)
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	waitForClients(t, h, 1)
	h.Broadcast(Event{Name: EventChangeWorld, Data: "minecraft:the_end"})

	r := bufio.NewReader(resp.Body)
	var lines []string
	for len(lines) < 6 {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		lines = append(lines, strings.TrimRight(line, "\n"))
	}
	assert.Equal(t, []string{
		"event: position", "data: 0, 0, 0", "",
		"event: changeworld", "data: minecraft:the_end", "",
	}, lines)

	// Closing from the hub side ends the response.
	h.CloseAll()
	_, err = r.ReadString('\n')
	assert.Error(t, err)
}

func TestSSEClient_PeerDisconnectUnsubscribes(t *testing.T) {
	h := openHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := NewSSEClient(w, 8)
		if err := h.Subscribe(c, Event{Name: EventPosition}); err != nil {
			return
		}
		defer h.Unsubscribe(c)
		_ = c.Run(r.Context(), 10*time.Millisecond)
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	waitForClients(t, h, 1)

	resp.Body.Close()
	waitForClients(t, h, 0)
}

func TestWSClient_StreamsEvents(t *testing.T) {
	h := openHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := NewWSClient(8)
		if err := h.Subscribe(c, Event{Name: EventPosition, Data: "1, 2, 3"}); err != nil {
			return
		}
		defer h.Unsubscribe(c)
		if err := c.Upgrade(w, r); err != nil {
			return
		}
		_ = c.Run(r.Context())
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	var first WSMessage
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "event", first.Type)
	assert.Equal(t, EventPosition, first.Event)
	assert.Equal(t, "1, 2, 3", first.Data)

	waitForClients(t, h, 1)
	h.Broadcast(Event{Name: EventChangeWorld, Data: "minecraft:the_nether"})

	var second WSMessage
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, EventChangeWorld, second.Event)

	conn.Close()
	waitForClients(t, h, 0)
}

func TestWSClient_RunBeforeUpgrade(t *testing.T) {
	c := NewWSClient(1)
	assert.ErrorIs(t, c.Run(context.Background()), ErrNotUpgraded)
	assert.False(t, c.Send(Event{Name: EventPosition}))
}

func TestSSEClient_QueuesBeforeRun(t *testing.T) {
	rec := httptest.NewRecorder()
	c := NewSSEClient(rec, 2)

	assert.True(t, c.Send(Event{Name: EventPosition, Data: "4, 5, 6"}))
	assert.Equal(t, 0, rec.Body.Len(), "no I/O before Run")
	assert.False(t, rec.Flushed)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	require.NoError(t, c.Run(ctx, 0))
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "event: position\ndata: 4, 5, 6\n\n")
}

package websocket

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"workspace-context-be/internal/pkg/logger"
	"workspace-context-be/pkg/selection"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h := NewHub(nil, logger.NewNopLogger())
	go h.Run(ctx)
	return h
}

func testClient(h *Hub, workspaceID string, buffer int) *Client {
	return &Client{Hub: h, WorkspaceID: workspaceID, Send: make(chan []byte, buffer)}
}

func TestBroadcastSelection_OnlyReachesWorkspaceClients(t *testing.T) {
	h := startHub(t)
	a := testClient(h, "w1", 4)
	b := testClient(h, "w2", 4)
	require.True(t, h.Register(a))
	require.True(t, h.Register(b))
	require.Eventually(t, func() bool { return h.ClientCount("w1") == 1 && h.ClientCount("w2") == 1 }, time.Second, 5*time.Millisecond)

	snap := selection.Context{Rows: []selection.SelectedRow{{ID: "row-1"}}}
	h.BroadcastSelection("w1", 3, snap)

	var frame SelectionFrame
	select {
	case raw := <-a.Send:
		require.NoError(t, json.Unmarshal(raw, &frame))
	case <-time.After(time.Second):
		t.Fatal("no frame delivered")
	}
	assert.Equal(t, "selection", frame.Type)
	assert.Equal(t, "w1", frame.WorkspaceID)
	assert.EqualValues(t, 3, frame.Version)
	assert.Equal(t, []string{"row-1"}, frame.Data.RowIDs())

	assert.Empty(t, b.Send)
}

func TestUnregisterClosesSend(t *testing.T) {
	h := startHub(t)
	c := testClient(h, "w1", 1)
	require.True(t, h.Register(c))

	h.Unregister(c)

	_, open := <-c.Send
	assert.False(t, open)
	assert.Zero(t, h.ClientCount("w1"))
}

func TestSlowClientIsDropped(t *testing.T) {
	h := startHub(t)
	c := testClient(h, "w1", 1)
	require.True(t, h.Register(c))
	require.Eventually(t, func() bool { return h.ClientCount("w1") == 1 }, time.Second, 5*time.Millisecond)

	h.BroadcastSelection("w1", 1, selection.Context{})
	h.BroadcastSelection("w1", 2, selection.Context{})

	assert.Eventually(t, func() bool { return h.ClientCount("w1") == 0 }, time.Second, 5*time.Millisecond)
}

func TestCloseWorkspace(t *testing.T) {
	h := startHub(t)
	c1 := testClient(h, "w1", 1)
	c2 := testClient(h, "w1", 1)
	require.True(t, h.Register(c1))
	require.True(t, h.Register(c2))
	require.Eventually(t, func() bool { return h.ClientCount("w1") == 2 }, time.Second, 5*time.Millisecond)

	h.CloseWorkspace("w1")

	assert.Eventually(t, func() bool { return h.ClientCount("w1") == 0 }, time.Second, 5*time.Millisecond)
}

func TestRegisterAfterStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub(nil, logger.NewNopLogger())
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	assert.False(t, h.Register(testClient(h, "w1", 1)))
}

func TestRegisterIsImmediate(t *testing.T) {
	h := startHub(t)
	c := testClient(h, "w1", 1)

	require.True(t, h.Register(c))

	assert.Equal(t, 1, h.ClientCount("w1"))
}

func TestEnqueue(t *testing.T) {
	h := startHub(t)
	c := testClient(h, "w1", 1)

	assert.False(t, h.Enqueue(c, []byte("x")), "unregistered client")

	require.True(t, h.Register(c))
	assert.True(t, h.Enqueue(c, []byte("first")))
	assert.False(t, h.Enqueue(c, []byte("second")), "buffer full")
	assert.Equal(t, "first", string(<-c.Send))
}

// silentRedis accepts connections and never answers
func silentRedis(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var mu sync.Mutex
	var conns []net.Conn
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			c.Close()
		}
	})
	return ln.Addr().String()
}

func TestBroadcastSelection_UnresponsiveRedisDoesNotBlockMutations(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: silentRedis(t), MaxRetries: -1})
	t.Cleanup(func() { rdb.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h := NewHub(rdb, logger.NewNopLogger())
	go h.Run(ctx)

	c := testClient(h, "w1", 1024)
	require.True(t, h.Register(c))

	s := selection.NewStore()
	s.Subscribe(func(snap selection.Context) {
		h.BroadcastSelection("w1", s.Version(), snap)
	})

	start := time.Now()
	require.NoError(t, s.ToggleSelectedRow(selection.SelectedRow{ID: "row-1"}))
	assert.Less(t, time.Since(start), 200*time.Millisecond)

	// more frames than the fan-out queue holds
	start = time.Now()
	for i := 0; i < redisBuffer+50; i++ {
		s.ClearSelections()
	}
	assert.Less(t, time.Since(start), time.Second)

	var frame SelectionFrame
	require.NoError(t, json.Unmarshal(<-c.Send, &frame))
	assert.EqualValues(t, 1, frame.Version)
	assert.Equal(t, []string{"row-1"}, frame.Data.RowIDs())
}

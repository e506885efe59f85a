package websocket

import (
	"context"
	"sync"
	"time"

	"workspace-context-be/internal/pkg/logger"
	"workspace-context-be/pkg/selection"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	redisChannel        = "workspace_events"
	redisBuffer         = 256
	redisPublishTimeout = 2 * time.Second
	logModule           = "Hub"
)

// SelectionFrame is what stream clients receive after every selection change
type SelectionFrame struct {
	Type        string            `json:"type"`
	WorkspaceID string            `json:"workspace_id"`
	Version     uint64            `json:"version"`
	Data        selection.Context `json:"data"`
}

func EncodeSelectionFrame(workspaceID string, version uint64, snapshot selection.Context) ([]byte, error) {
	return json.Marshal(SelectionFrame{
		Type:        "selection",
		WorkspaceID: workspaceID,
		Version:     version,
		Data:        snapshot,
	})
}

type clusterMessage struct {
	WorkspaceID string          `json:"workspace_id"`
	Origin      string          `json:"origin"`
	Message     json.RawMessage `json:"message"`
}

type Hub struct {
	// Registered clients: WorkspaceID -> set of clients (several tabs may watch one workspace)
	clients map[string]map[*Client]bool

	unregister chan *Client
	done       chan struct{}

	// Lock for safe map access
	mu sync.RWMutex

	// Redis connection for cross-instance fan-out, nil when running alone.
	// Frames are queued on outbound and published by Run, never on the caller's goroutine.
	rdb        *redis.Client
	outbound   chan clusterMessage
	instanceID string

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[string]map[*Client]bool),
		rdb:        rdb,
		outbound:   make(chan clusterMessage, redisBuffer),
		instanceID: uuid.NewString(),
		logger:     log,
	}
}

// Run processes unregistrations and the Redis fan-out until ctx is done
func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
		go h.publishToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for id, clients := range h.clients {
				for client := range clients {
					close(client.Send)
				}
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.WorkspaceID]; ok && clients[client] {
				delete(clients, client)
				close(client.Send)
				if len(clients) == 0 {
					delete(h.clients, client.WorkspaceID)
				}
				h.logger.Info(logModule, "Client unregistered", map[string]interface{}{"workspace_id": client.WorkspaceID})
			}
			h.mu.Unlock()
		}
	}
}

// Register adds a client. Once it returns true the client receives every later
// broadcast of its workspace. It reports false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	select {
	case <-h.done:
		return false
	default:
	}

	if h.clients[c.WorkspaceID] == nil {
		h.clients[c.WorkspaceID] = make(map[*Client]bool)
	}
	h.clients[c.WorkspaceID][c] = true
	h.logger.Info(logModule, "Client registered", map[string]interface{}{"workspace_id": c.WorkspaceID})
	return true
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Enqueue hands a frame to one registered client. It reports false when the
// client is gone or its buffer is full.
func (h *Hub) Enqueue(c *Client, data []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.clients[c.WorkspaceID][c] {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// ClientCount returns the number of local clients watching a workspace
func (h *Hub) ClientCount(workspaceID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[workspaceID])
}

// BroadcastSelection pushes a selection snapshot to every local client of the
// workspace and queues it for the other instances. It never waits on Redis.
func (h *Hub) BroadcastSelection(workspaceID string, version uint64, snapshot selection.Context) {
	data, err := EncodeSelectionFrame(workspaceID, version, snapshot)
	if err != nil {
		h.logger.Error(logModule, "Failed to encode selection frame", map[string]interface{}{"error": err.Error()})
		return
	}

	h.deliver(workspaceID, data)

	if h.rdb == nil {
		return
	}
	select {
	case h.outbound <- clusterMessage{WorkspaceID: workspaceID, Origin: h.instanceID, Message: data}:
	default:
		h.logger.Warn(logModule, "Redis fan-out queue full, dropping frame", map[string]interface{}{"workspace_id": workspaceID})
	}
}

// CloseWorkspace disconnects every local client of a deleted or expired workspace
func (h *Hub) CloseWorkspace(workspaceID string) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients[workspaceID]))
	for c := range h.clients[workspaceID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		go h.Unregister(c)
	}
}

func (h *Hub) deliver(workspaceID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[workspaceID] {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn(logModule, "Client Send buffer full, dropping client", map[string]interface{}{"workspace_id": workspaceID})
			go h.Unregister(client)
		}
	}
}

func (h *Hub) publishToRedis(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-h.outbound:
			payload, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			pubCtx, cancel := context.WithTimeout(ctx, redisPublishTimeout)
			if err := h.rdb.Publish(pubCtx, redisChannel, payload).Err(); err != nil {
				h.logger.Warn(logModule, "Redis publish failed", map[string]interface{}{"error": err.Error()})
			}
			cancel()
		}
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, redisChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var payload clusterMessage
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				h.logger.Warn(logModule, "Redis msg parse error", map[string]interface{}{"error": err.Error()})
				continue
			}
			if payload.Origin == h.instanceID {
				continue
			}
			h.deliver(payload.WorkspaceID, payload.Message)
		}
	}
}

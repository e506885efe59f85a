package websocket

import (
	"github.com/gofiber/websocket/v2"
)

// ServeWs attaches a websocket connection to the hub and blocks until the peer goes away.
// The client is registered before prime runs, so prime can enqueue the current
// snapshot without missing a change made in between.
func ServeWs(hub *Hub, c *websocket.Conn, workspaceID string, prime func(*Client) bool) {
	client := NewClient(hub, c, workspaceID)
	if !hub.Register(client) {
		c.Close()
		return
	}
	if prime != nil && !prime(client) {
		hub.Unregister(client)
		c.Close()
		return
	}

	go client.writePump()
	client.readPump() // Run readPump in current goroutine (handler)
}

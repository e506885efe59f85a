package handler

import (
	"context"
	"errors"

	"workspace-context-be/internal/pkg/logger"
	"workspace-context-be/internal/pkg/serverutils"
	"workspace-context-be/internal/service"
	internalWS "workspace-context-be/internal/websocket"
	"workspace-context-be/pkg/selection"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// SelectionStreamHandler upgrades clients to a websocket that follows one workspace's selection
type SelectionStreamHandler struct {
	service   service.IWorkspaceService
	hub       *internalWS.Hub
	jwtSecret string
	logger    logger.ILogger
}

func NewSelectionStreamHandler(service service.IWorkspaceService, hub *internalWS.Hub, jwtSecret string, log logger.ILogger) *SelectionStreamHandler {
	return &SelectionStreamHandler{
		service:   service,
		hub:       hub,
		jwtSecret: jwtSecret,
		logger:    log,
	}
}

func (h *SelectionStreamHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/workspaces/:id/stream", h.ServeWs)
}

// ServeWs checks the token (when a secret is configured) and the workspace, then
// streams a frame with the current selection followed by one per change.
func (h *SelectionStreamHandler) ServeWs(c *fiber.Ctx) error {
	if h.jwtSecret != "" {
		tokenStr := serverutils.BearerToken(c)
		if tokenStr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Missing token (Query 'token' or Header 'Authorization')"))
		}
		if _, err := serverutils.ParseToken(h.jwtSecret, tokenStr); err != nil {
			h.logger.Warn("SelectionStreamHandler", "Invalid Token in WS Handshake", map[string]interface{}{"error": err.Error()})
			return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
		}
	}

	workspaceID := c.Params("id")
	if _, _, err := h.service.Selection(c.UserContext(), workspaceID); err != nil {
		if errors.Is(err, service.ErrWorkspaceNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(fiber.StatusNotFound, err.Error()))
		}
		return err
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("SelectionStreamHandler", "Starting WebSocket session", map[string]interface{}{"workspace_id": workspaceID})
		internalWS.ServeWs(h.hub, conn, workspaceID, h.prime)
		h.logger.Info("SelectionStreamHandler", "WebSocket session ended", map[string]interface{}{"workspace_id": workspaceID})
	})(c)
}

// prime enqueues the current selection for a freshly registered client.
// Frames broadcast before it carry a version no newer than the primed one.
func (h *SelectionStreamHandler) prime(client *internalWS.Client) bool {
	sent := false
	err := h.service.WithSelection(context.Background(), client.WorkspaceID, func(snap selection.Context, version uint64) {
		data, err := internalWS.EncodeSelectionFrame(client.WorkspaceID, version, snap)
		if err != nil {
			h.logger.Error("SelectionStreamHandler", "Failed to encode initial frame", map[string]interface{}{"error": err})
			return
		}
		sent = h.hub.Enqueue(client, data)
	})
	return err == nil && sent
}

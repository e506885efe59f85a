package service

import (
	"context"
	"errors"
	"time"

	"workspace-context-be/internal/dto"
	"workspace-context-be/internal/pkg/logger"
	"workspace-context-be/pkg/chat"
	"workspace-context-be/pkg/conversation"
	"workspace-context-be/pkg/events"
	"workspace-context-be/pkg/selection"
	"workspace-context-be/pkg/store"

	"github.com/google/uuid"
)

const (
	ModeLive = "live"
	ModeDemo = "demo"
)

var ErrWorkspaceNotFound = errors.New("workspace not found")

// SelectionBroadcaster pushes selection changes to stream clients
type SelectionBroadcaster interface {
	BroadcastSelection(workspaceID string, version uint64, snapshot selection.Context)
	CloseWorkspace(workspaceID string)
}

type WorkspaceRepository interface {
	Save(ws *store.Workspace)
	Get(id string) (*store.Workspace, bool)
	Delete(id string)
	Count() int
}

type IWorkspaceService interface {
	CreateWorkspace(ctx context.Context) (*dto.CreateWorkspaceResponse, error)
	DeleteWorkspace(ctx context.Context, id string) error
	GetSelection(ctx context.Context, id string) (*dto.SelectionResponse, error)
	SelectNode(ctx context.Context, id string, request *dto.SelectNodeRequest) (*dto.SelectionResponse, error)
	ToggleRow(ctx context.Context, id string, request *dto.ToggleRowRequest) (*dto.SelectionResponse, error)
	ClearSelections(ctx context.Context, id string) (*dto.SelectionResponse, error)
	GetChatHistory(ctx context.Context, id string) (*dto.ChatHistoryResponse, error)
	SendChat(ctx context.Context, id string, request *dto.SendChatRequest) (*dto.SendChatResponse, error)
	Selection(ctx context.Context, id string) (selection.Context, uint64, error)
	WithSelection(ctx context.Context, id string, fn func(selection.Context, uint64)) error
	Mode() string
	Count() int
}

type workspaceService struct {
	repo        WorkspaceRepository
	builder     *chat.Builder
	broadcaster SelectionBroadcaster
	publisher   IPublisherService
	logger      logger.ILogger
	now         func() time.Time
}

func NewWorkspaceService(
	repo WorkspaceRepository,
	builder *chat.Builder,
	broadcaster SelectionBroadcaster,
	publisher IPublisherService,
	log logger.ILogger,
) IWorkspaceService {
	return &workspaceService{
		repo:        repo,
		builder:     builder,
		broadcaster: broadcaster,
		publisher:   publisher,
		logger:      log,
		now:         time.Now,
	}
}

func (s *workspaceService) Mode() string {
	if s.builder.Offline() {
		return ModeDemo
	}
	return ModeLive
}

func (s *workspaceService) Count() int {
	return s.repo.Count()
}

func (s *workspaceService) CreateWorkspace(ctx context.Context) (*dto.CreateWorkspaceResponse, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	ws := store.NewWorkspace(id.String(), s.builder, s.now())
	ws.Observe(func(snap selection.Context) {
		// observers run under the store's write lock, so Version matches snap
		version := ws.Selection.Version()
		if s.broadcaster != nil {
			s.broadcaster.BroadcastSelection(ws.ID, version, snap)
		}
		s.publish(context.Background(), events.TypeSelectionChanged, map[string]interface{}{
			"workspace_id": ws.ID,
			"version":      version,
			"node_id":      nodeID(snap),
			"row_ids":      snap.RowIDs(),
		})
	})
	s.repo.Save(ws)

	s.logger.Info("WorkspaceService", "Workspace created", map[string]interface{}{"workspace_id": ws.ID})

	return &dto.CreateWorkspaceResponse{
		Id:        ws.ID,
		Mode:      s.Mode(),
		CreatedAt: ws.CreatedAt,
	}, nil
}

func (s *workspaceService) DeleteWorkspace(ctx context.Context, id string) error {
	if _, err := s.lookup(id); err != nil {
		return err
	}

	s.repo.Delete(id)
	if s.broadcaster != nil {
		s.broadcaster.CloseWorkspace(id)
	}

	s.logger.Info("WorkspaceService", "Workspace deleted", map[string]interface{}{"workspace_id": id})
	return nil
}

func (s *workspaceService) Selection(ctx context.Context, id string) (selection.Context, uint64, error) {
	ws, err := s.lookup(id)
	if err != nil {
		return selection.Context{}, 0, err
	}
	snap, version := ws.Selection.SnapshotVersion()
	return snap, version, nil
}

// WithSelection runs fn with the current selection, serialized against mutations
func (s *workspaceService) WithSelection(ctx context.Context, id string, fn func(selection.Context, uint64)) error {
	ws, err := s.lookup(id)
	if err != nil {
		return err
	}
	ws.Selection.WithSnapshot(fn)
	return nil
}

func (s *workspaceService) GetSelection(ctx context.Context, id string) (*dto.SelectionResponse, error) {
	ws, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return selectionResponse(ws), nil
}

func (s *workspaceService) SelectNode(ctx context.Context, id string, request *dto.SelectNodeRequest) (*dto.SelectionResponse, error) {
	ws, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	var node *selection.SelectedNode
	if request.Node != nil {
		node = request.Node.ToSelectedNode()
	}
	if err := ws.Selection.SetSelectedNode(node); err != nil {
		return nil, err
	}
	return selectionResponse(ws), nil
}

func (s *workspaceService) ToggleRow(ctx context.Context, id string, request *dto.ToggleRowRequest) (*dto.SelectionResponse, error) {
	ws, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	if err := ws.Selection.ToggleSelectedRow(request.Row.ToSelectedRow()); err != nil {
		return nil, err
	}
	return selectionResponse(ws), nil
}

func (s *workspaceService) ClearSelections(ctx context.Context, id string) (*dto.SelectionResponse, error) {
	ws, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	ws.Selection.ClearSelections()
	return selectionResponse(ws), nil
}

func (s *workspaceService) GetChatHistory(ctx context.Context, id string) (*dto.ChatHistoryResponse, error) {
	ws, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	return &dto.ChatHistoryResponse{
		WorkspaceId: ws.ID,
		Messages:    ws.Conversation.History(),
	}, nil
}

// SendChat asks the question against the workspace's current selection.
// On a failed completion the response still carries the error turn.
func (s *workspaceService) SendChat(ctx context.Context, id string, request *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	ws, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	exchange, err := ws.Conversation.Ask(ctx, request.Chat, ws.Selection.Snapshot())
	if err != nil {
		if errors.Is(err, conversation.ErrSuperseded) || errors.Is(err, conversation.ErrEmptyQuestion) || errors.Is(err, conversation.ErrClosed) {
			return nil, err
		}

		s.logger.Warn("WorkspaceService", "Chat failed", map[string]interface{}{
			"workspace_id": ws.ID,
			"error":        err.Error(),
		})
		s.publish(ctx, events.TypeChatFailed, map[string]interface{}{
			"workspace_id": ws.ID,
			"message_id":   exchange.Reply.ID,
			"error":        exchange.Reply.Content,
		})
		return &dto.SendChatResponse{
			WorkspaceId: ws.ID,
			Mode:        s.Mode(),
			Sent:        exchange.Question,
			Reply:       exchange.Reply,
		}, err
	}

	s.publish(ctx, events.TypeChatAnswered, map[string]interface{}{
		"workspace_id": ws.ID,
		"message_id":   exchange.Reply.ID,
		"references":   exchange.Question.References,
	})

	return &dto.SendChatResponse{
		WorkspaceId: ws.ID,
		Mode:        s.Mode(),
		Sent:        exchange.Question,
		Reply:       exchange.Reply,
	}, nil
}

// lookup finds a live workspace and refreshes its expiration
func (s *workspaceService) lookup(id string) (*store.Workspace, error) {
	ws, ok := s.repo.Get(id)
	if !ok || ws.Closed() {
		return nil, ErrWorkspaceNotFound
	}
	s.repo.Save(ws)
	return ws, nil
}

func (s *workspaceService) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.New(eventType, data, s.now())); err != nil {
		s.logger.Warn("WorkspaceService", "Failed to publish event", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
	}
}

func selectionResponse(ws *store.Workspace) *dto.SelectionResponse {
	snap, version := ws.Selection.SnapshotVersion()
	rows := snap.Rows
	if rows == nil {
		rows = []selection.SelectedRow{}
	}
	return &dto.SelectionResponse{
		WorkspaceId: ws.ID,
		Version:     version,
		Node:        snap.Node,
		Rows:        rows,
		References:  chat.BuildReferenceSummary(snap),
	}
}

func nodeID(snap selection.Context) string {
	if snap.Node == nil {
		return ""
	}
	return snap.Node.ID
}

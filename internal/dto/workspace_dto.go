package dto

import (
	"time"

	"workspace-context-be/pkg/chat"
	"workspace-context-be/pkg/selection"
)

type CreateWorkspaceResponse struct {
	Id        string    `json:"id"`
	Mode      string    `json:"mode"` // "live" | "demo"
	CreatedAt time.Time `json:"created_at"`
}

type PositionDTO struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type NodeDTO struct {
	Id       string      `json:"id" validate:"required"`
	Label    string      `json:"label" validate:"required"`
	Kind     string      `json:"kind" validate:"required,oneof=equipment process inspection"`
	Status   string      `json:"status" validate:"required,oneof=normal warning critical"`
	Position PositionDTO `json:"position"`
}

func (n NodeDTO) ToSelectedNode() *selection.SelectedNode {
	return &selection.SelectedNode{
		ID:       n.Id,
		Label:    n.Label,
		Kind:     selection.NodeKind(n.Kind),
		Status:   selection.NodeStatus(n.Status),
		Position: selection.Position{X: n.Position.X, Y: n.Position.Y},
	}
}

// SelectNodeRequest replaces the selected node; a null node clears it
type SelectNodeRequest struct {
	Node *NodeDTO `json:"node"`
}

type RowDTO struct {
	Id         string  `json:"id" validate:"required"`
	Process    string  `json:"process"`
	Equipment  string  `json:"equipment"`
	Status     string  `json:"status" validate:"required,oneof=RUNNING IDLE MAINTENANCE"`
	Prediction float64 `json:"prediction" validate:"gte=0"`
}

func (r RowDTO) ToSelectedRow() selection.SelectedRow {
	return selection.SelectedRow{
		ID:         r.Id,
		Process:    r.Process,
		Equipment:  r.Equipment,
		Status:     selection.RowStatus(r.Status),
		Prediction: r.Prediction,
	}
}

type ToggleRowRequest struct {
	Row RowDTO `json:"row"`
}

type SelectionResponse struct {
	WorkspaceId string                  `json:"workspace_id"`
	Version     uint64                  `json:"version"`
	Node        *selection.SelectedNode `json:"node"`
	Rows        []selection.SelectedRow `json:"rows"`
	References  []string                `json:"references"`
}

type SendChatRequest struct {
	Chat string `json:"chat" validate:"required,max=4000"`
}

type SendChatResponse struct {
	WorkspaceId string       `json:"workspace_id"`
	Mode        string       `json:"mode"`
	Sent        chat.Message `json:"sent"`
	Reply       chat.Message `json:"reply"`
}

type ChatHistoryResponse struct {
	WorkspaceId string         `json:"workspace_id"`
	Messages    []chat.Message `json:"messages"`
}

type HealthResponse struct {
	Status     string `json:"status"`
	Mode       string `json:"mode"`
	Workspaces int    `json:"workspaces"`
}

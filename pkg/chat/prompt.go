package chat

import (
	"fmt"

	"workspace-context-be/internal/constant"
	"workspace-context-be/pkg/llm"
	"workspace-context-be/pkg/selection"

	"github.com/goccy/go-json"
)

type nodePayload struct {
	ID     string               `json:"id"`
	Label  string               `json:"label"`
	Kind   selection.NodeKind   `json:"kind"`
	Status selection.NodeStatus `json:"status"`
}

type rowPayload struct {
	ID         string              `json:"id"`
	Process    string              `json:"process"`
	Equipment  string              `json:"equipment"`
	Status     selection.RowStatus `json:"status"`
	Prediction float64             `json:"prediction"`
}

// ContextPayload is the selection as sent to the completion service.
// Only domain fields are projected; canvas positions stay behind.
type ContextPayload struct {
	SelectedNode *nodePayload `json:"selectedNode"`
	SelectedRows []rowPayload `json:"selectedRows"`
}

func NewContextPayload(sel selection.Context) ContextPayload {
	payload := ContextPayload{SelectedRows: make([]rowPayload, len(sel.Rows))}
	if n := sel.Node; n != nil {
		payload.SelectedNode = &nodePayload{ID: n.ID, Label: n.Label, Kind: n.Kind, Status: n.Status}
	}
	for i, r := range sel.Rows {
		payload.SelectedRows[i] = rowPayload{
			ID:         r.ID,
			Process:    r.Process,
			Equipment:  r.Equipment,
			Status:     r.Status,
			Prediction: r.Prediction,
		}
	}
	return payload
}

// BuildMessages assembles the completion request messages:
// system instruction with the context, prior turns in order, then the question.
// Error turns are UI-only and are not replayed to the model.
func BuildMessages(question string, sel selection.Context, history []Message) ([]llm.Message, error) {
	contextJSON, err := json.MarshalIndent(NewContextPayload(sel), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal context: %w", err)
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{
		Role:    llm.RoleSystem,
		Content: constant.ChatSystemPrompt + string(contextJSON),
	})

	for _, m := range history {
		if m.IsError {
			continue
		}
		switch m.Role {
		case RoleUser, RoleAssistant:
			messages = append(messages, llm.Message{Role: string(m.Role), Content: m.Content})
		default:
			return nil, ErrInvalidRole{Role: m.Role}
		}
	}

	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: question})
	return messages, nil
}

package selection

import "errors"

// ErrMissingID is returned when a node or row without an identifier is passed to the store.
var ErrMissingID = errors.New("selection: entity id is required")

// NodeKind is the category of a graph node
type NodeKind string

const (
	NodeKindEquipment  NodeKind = "equipment"
	NodeKindProcess    NodeKind = "process"
	NodeKindInspection NodeKind = "inspection"
)

// NodeStatus is the health state shown on a graph node
type NodeStatus string

const (
	NodeStatusNormal   NodeStatus = "normal"
	NodeStatusWarning  NodeStatus = "warning"
	NodeStatusCritical NodeStatus = "critical"
)

// RowStatus is the operating state of a process row
type RowStatus string

const (
	RowStatusRunning     RowStatus = "RUNNING"
	RowStatusIdle        RowStatus = "IDLE"
	RowStatusMaintenance RowStatus = "MAINTENANCE"
)

// Position is a 2D coordinate in the graph canvas. Informational only.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// SelectedNode identifies the single selected graph node
type SelectedNode struct {
	ID       string     `json:"id"`
	Label    string     `json:"label"`
	Kind     NodeKind   `json:"kind"`
	Status   NodeStatus `json:"status"`
	Position Position   `json:"position"`
}

// SelectedRow is one row of the process table
type SelectedRow struct {
	ID         string    `json:"id"`
	Process    string    `json:"process"`
	Equipment  string    `json:"equipment"`
	Status     RowStatus `json:"status"`
	Prediction float64   `json:"prediction"`
}

// Context is the derived "what is selected right now" value.
// It always carries both the node and the rows; consumers that only want
// one of them pick it themselves.
type Context struct {
	Node *SelectedNode  `json:"node"`
	Rows []SelectedRow `json:"rows"`
}

// IsEmpty reports whether nothing is selected
func (c Context) IsEmpty() bool {
	return c.Node == nil && len(c.Rows) == 0
}

// HasRow reports whether a row with the given id is part of the selection
func (c Context) HasRow(id string) bool {
	for _, row := range c.Rows {
		if row.ID == id {
			return true
		}
	}
	return false
}

// RowIDs returns the selected row ids in selection order
func (c Context) RowIDs() []string {
	ids := make([]string, len(c.Rows))
	for i, row := range c.Rows {
		ids[i] = row.ID
	}
	return ids
}

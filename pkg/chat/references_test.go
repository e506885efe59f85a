package chat

import (
	"reflect"
	"testing"

	"workspace-context-be/pkg/selection"
)

func TestBuildReferenceSummary(t *testing.T) {
	tests := []struct {
		name string
		sel  selection.Context
		want []string
	}{
		{
			name: "empty selection",
			sel:  selection.Context{},
			want: []string{},
		},
		{
			name: "node first then rows in selection order",
			sel: selection.Context{
				Node: &selection.SelectedNode{ID: "n1", Label: "장비 A"},
				Rows: []selection.SelectedRow{{ID: "row-1"}, {ID: "row-2"}},
			},
			want: []string{"노드: 장비 A", "행: row-1", "행: row-2"},
		},
		{
			name: "rows only",
			sel:  selection.Context{Rows: []selection.SelectedRow{{ID: "row-9"}, {ID: "row-3"}}},
			want: []string{"행: row-9", "행: row-3"},
		},
		{
			name: "node only",
			sel:  selection.Context{Node: &selection.SelectedNode{ID: "n2", Label: "검사 B"}},
			want: []string{"노드: 검사 B"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildReferenceSummary(tt.sel)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("BuildReferenceSummary() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDescribeContext(t *testing.T) {
	tests := []struct {
		name string
		sel  selection.Context
		want string
	}{
		{"empty", selection.Context{}, "없음"},
		{
			"node and rows",
			selection.Context{
				Node: &selection.SelectedNode{Label: "장비 A"},
				Rows: []selection.SelectedRow{
					{ID: "row-1", Process: "Etching", Status: selection.RowStatusRunning},
					{ID: "row-2", Process: "CMP", Status: selection.RowStatusIdle},
				},
			},
			"노드: 장비 A | 행: row-1(Etching/RUNNING), row-2(CMP/IDLE)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := describeContext(tt.sel); got != tt.want {
				t.Errorf("describeContext() = %q, want %q", got, tt.want)
			}
		})
	}
}

package chat

import (
	"fmt"
	"strings"

	"workspace-context-be/internal/constant"
	"workspace-context-be/pkg/selection"
)

// BuildReferenceSummary returns the context chips for a selection:
// the node first (if any), then one chip per row in selection order.
func BuildReferenceSummary(sel selection.Context) []string {
	refs := make([]string, 0, len(sel.Rows)+1)
	if sel.Node != nil {
		refs = append(refs, constant.ReferenceNodePrefix+sel.Node.Label)
	}
	for _, row := range sel.Rows {
		refs = append(refs, constant.ReferenceRowPrefix+row.ID)
	}
	return refs
}

// describeContext renders the selection for the offline demo answer
func describeContext(sel selection.Context) string {
	var parts []string
	if sel.Node != nil {
		parts = append(parts, constant.ReferenceNodePrefix+sel.Node.Label)
	}
	if len(sel.Rows) > 0 {
		rows := make([]string, len(sel.Rows))
		for i, row := range sel.Rows {
			rows[i] = fmt.Sprintf("%s(%s/%s)", row.ID, row.Process, row.Status)
		}
		parts = append(parts, constant.ReferenceRowPrefix+strings.Join(rows, ", "))
	}
	if len(parts) == 0 {
		return constant.ChatDemoEmptyContext
	}
	return strings.Join(parts, constant.ChatDemoSummarySeparator)
}

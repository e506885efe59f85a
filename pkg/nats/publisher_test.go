package nats

import (
	"testing"

	"workspace-context-be/pkg/events"

	"github.com/stretchr/testify/assert"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "workspace.SELECTION_CHANGED", Subject(events.TypeSelectionChanged))
	assert.Equal(t, "workspace.CHAT_FAILED", Subject(events.TypeChatFailed))
}

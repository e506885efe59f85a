package chat

import (
	"fmt"
	"time"

	"workspace-context-be/internal/constant"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = constant.ChatMessageRoleUser
	RoleAssistant Role = constant.ChatMessageRoleAssistant
)

// Message is one turn of a conversation. Messages are never mutated once appended.
type Message struct {
	ID         string    `json:"id"`
	Role       Role      `json:"role"`
	Content    string    `json:"content"`
	References []string  `json:"references"`
	IsError    bool      `json:"is_error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// newID returns a time-ordered id so ids sort in creation order
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// NewUserMessage creates a user turn stamped with the given reference chips
func NewUserMessage(content string, references []string, now time.Time) Message {
	refs := make([]string, len(references))
	copy(refs, references)
	return Message{
		ID:         newID(),
		Role:       RoleUser,
		Content:    content,
		References: refs,
		CreatedAt:  now,
	}
}

// NewAssistantMessage creates an assistant turn. Assistant turns carry no references.
func NewAssistantMessage(content string, now time.Time) Message {
	return Message{
		ID:         newID(),
		Role:       RoleAssistant,
		Content:    content,
		References: []string{},
		CreatedAt:  now,
	}
}

// NewErrorMessage creates a clearly labeled assistant turn describing a failed send
func NewErrorMessage(err error, now time.Time) Message {
	msg := NewAssistantMessage(DescribeError(err), now)
	msg.IsError = true
	return msg
}

// ErrInvalidRole is returned when a history entry has an unknown role
type ErrInvalidRole struct {
	Role Role
}

func (e ErrInvalidRole) Error() string {
	return fmt.Sprintf("chat: invalid message role %q", e.Role)
}

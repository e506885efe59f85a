package store

import (
	"sync"
	"time"

	"workspace-context-be/pkg/conversation"
	"workspace-context-be/pkg/selection"
)

// Workspace is the state owned by one UI session: the selection and the chat.
// It is created explicitly and torn down with Close when the session ends.
type Workspace struct {
	ID           string                     `json:"id"`
	Selection    *selection.Store           `json:"-"`
	Conversation *conversation.Conversation `json:"-"`
	CreatedAt    time.Time                  `json:"created_at"`

	mu       sync.Mutex
	closers  []func()
	isClosed bool
}

func NewWorkspace(id string, sender conversation.Sender, now time.Time) *Workspace {
	return &Workspace{
		ID:           id,
		Selection:    selection.NewStore(),
		Conversation: conversation.New(sender),
		CreatedAt:    now,
	}
}

// Observe subscribes fn to selection changes for the lifetime of the workspace
func (w *Workspace) Observe(fn selection.Observer) {
	unsubscribe := w.Selection.Subscribe(fn)
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.isClosed {
		unsubscribe()
		return
	}
	w.closers = append(w.closers, unsubscribe)
}

// Close detaches every observer registered through Observe and cancels any in-flight chat
func (w *Workspace) Close() {
	w.mu.Lock()
	if w.isClosed {
		w.mu.Unlock()
		return
	}
	w.isClosed = true
	closers := w.closers
	w.closers = nil
	w.mu.Unlock()

	for _, c := range closers {
		c()
	}
	w.Conversation.Close()
}

func (w *Workspace) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.isClosed
}

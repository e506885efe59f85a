package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"workspace-context-be/pkg/chat"
	"workspace-context-be/pkg/selection"
)

var (
	// ErrSuperseded is returned to an Ask whose answer arrived after a newer question was asked.
	// The stale answer is dropped.
	ErrSuperseded = errors.New("conversation: superseded by a newer question")

	ErrEmptyQuestion = errors.New("conversation: question is empty")
	ErrClosed        = errors.New("conversation: closed")
)

// Sender is the part of the request builder a conversation needs
type Sender interface {
	Send(ctx context.Context, question string, sel selection.Context, history []chat.Message) (chat.Message, error)
}

// Exchange is one question and the turn it produced
type Exchange struct {
	Question chat.Message `json:"question"`
	Reply    chat.Message `json:"reply"`
}

// Conversation owns the append-only message history of one workspace.
//
// Each Ask takes a new generation and cancels the previous in-flight send,
// so only the answer to the most recent question is ever appended.
type Conversation struct {
	sender Sender
	now    func() time.Time

	mu         sync.Mutex
	history    []chat.Message
	generation uint64
	cancel     context.CancelFunc
	closed     bool
}

func New(sender Sender) *Conversation {
	return &Conversation{sender: sender, now: time.Now}
}

// Ask appends the question (stamped with the selection's reference chips) before
// sending it, then appends the answer. A failed send appends an error turn and
// returns it together with the error.
func (c *Conversation) Ask(ctx context.Context, question string, sel selection.Context) (Exchange, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Exchange{}, ErrEmptyQuestion
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Exchange{}, ErrClosed
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.generation++
	gen := c.generation
	sendCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	prior := c.snapshotLocked()
	asked := chat.NewUserMessage(question, chat.BuildReferenceSummary(sel), c.now())
	c.history = append(c.history, asked)
	c.mu.Unlock()

	reply, err := c.sender.Send(sendCtx, question, sel, prior)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation || c.closed {
		cancel()
		return Exchange{Question: asked}, ErrSuperseded
	}
	c.cancel = nil
	cancel()

	if err != nil {
		reply = chat.NewErrorMessage(err, c.now())
		c.history = append(c.history, reply)
		return Exchange{Question: asked, Reply: reply}, err
	}

	c.history = append(c.history, reply)
	return Exchange{Question: asked, Reply: reply}, nil
}

// History returns a copy of the messages in order
func (c *Conversation) History() []chat.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.history)
}

// Close cancels any in-flight send. Later Asks fail with ErrClosed.
func (c *Conversation) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Conversation) snapshotLocked() []chat.Message {
	out := make([]chat.Message, len(c.history))
	copy(out, c.history)
	return out
}

package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"workspace-context-be/internal/constant"
	"workspace-context-be/internal/pkg/logger"
	"workspace-context-be/pkg/llm"
	"workspace-context-be/pkg/selection"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const logModule = "ContextRequestBuilder"

// Builder turns a question, the current selection and the conversation so far
// into a completion request. Without a provider it answers with a deterministic
// demo message and never touches the network.
type Builder struct {
	provider    llm.LLMProvider
	temperature float64
	logger      logger.ILogger
	tracer      trace.Tracer
	now         func() time.Time
}

type BuilderOption func(*Builder)

func WithTemperature(t float64) BuilderOption {
	return func(b *Builder) { b.temperature = t }
}

// WithClock overrides the timestamp source
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) { b.now = now }
}

// NewBuilder creates a request builder. A nil provider selects offline mode.
func NewBuilder(provider llm.LLMProvider, log logger.ILogger, opts ...BuilderOption) *Builder {
	b := &Builder{
		provider:    provider,
		temperature: constant.DefaultTemperature,
		logger:      log,
		tracer:      otel.Tracer("workspace-context-be/pkg/chat"),
		now:         time.Now,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Offline reports whether no completion endpoint is configured
func (b *Builder) Offline() bool {
	return b.provider == nil
}

// Send answers question with the selection and history attached.
// It issues at most one completion request and never retries.
func (b *Builder) Send(ctx context.Context, question string, sel selection.Context, history []Message) (Message, error) {
	ctx, span := b.tracer.Start(ctx, "chat.send", trace.WithAttributes(
		attribute.Bool("chat.offline", b.Offline()),
		attribute.Bool("chat.has_node", sel.Node != nil),
		attribute.Int("chat.rows", len(sel.Rows)),
		attribute.Int("chat.history", len(history)),
	))
	defer span.End()

	if b.Offline() {
		content := fmt.Sprintf(constant.ChatDemoResponseTemplate, question, describeContext(sel))
		return NewAssistantMessage(content, b.now()), nil
	}

	messages, err := BuildMessages(question, sel, history)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build payload")
		return Message{}, err
	}

	start := time.Now()
	text, err := b.provider.Chat(ctx, messages, llm.WithTemperature(b.temperature))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		b.logger.Warn(logModule, "Completion request failed", map[string]interface{}{
			"error":       err.Error(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return Message{}, err
	}

	if strings.TrimSpace(text) == "" {
		b.logger.Info(logModule, "Completion returned no content", nil)
		text = constant.ChatEmptyResponsePlaceholder
	}

	b.logger.Debug(logModule, "Completion received", map[string]interface{}{
		"messages":    len(messages),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return NewAssistantMessage(text, b.now()), nil
}

// DescribeError renders a failed send as the text of an assistant error turn
func DescribeError(err error) string {
	var requestFailed *llm.RequestFailedError
	if errors.As(err, &requestFailed) {
		if requestFailed.Status == 0 {
			return constant.ChatRequestUnreachableText
		}
		return fmt.Sprintf(constant.ChatRequestFailedTemplate, requestFailed.Status)
	}

	var resolutionFailed *llm.ResolutionFailedError
	if errors.As(err, &resolutionFailed) {
		return fmt.Sprintf(constant.ChatResolutionFailedTemplate, resolutionFailed.Error())
	}

	return fmt.Sprintf(constant.ChatSendFailedTemplate, err.Error())
}

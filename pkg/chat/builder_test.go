package chat

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"workspace-context-be/internal/pkg/logger"
	"workspace-context-be/pkg/llm"
	"workspace-context-be/pkg/llm/openai"
	"workspace-context-be/pkg/selection"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	reply    string
	err      error
	calls    int
	messages []llm.Message
}

func (s *stubProvider) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	s.calls++
	s.messages = history
	return s.reply, s.err
}

func (s *stubProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return s.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

func sampleSelection() selection.Context {
	return selection.Context{
		Node: &selection.SelectedNode{
			ID: "eq-a", Label: "장비 A", Kind: selection.NodeKindEquipment,
			Status: selection.NodeStatusCritical, Position: selection.Position{X: 120, Y: 40},
		},
		Rows: []selection.SelectedRow{
			{ID: "row-1", Process: "Etching", Equipment: "EQ-01", Status: selection.RowStatusRunning, Prediction: 0.82},
		},
	}
}

func TestSend_Offline(t *testing.T) {
	b := NewBuilder(nil, logger.NewNopLogger())
	require.True(t, b.Offline())

	msg, err := b.Send(context.Background(), "상태는?", selection.Context{}, nil)

	require.NoError(t, err)
	assert.Equal(t, RoleAssistant, msg.Role)
	assert.Contains(t, msg.Content, "상태는?")
	assert.Contains(t, msg.Content, "컨텍스트: 없음")
	assert.Empty(t, msg.References)
	assert.False(t, msg.IsError)
}

func TestSend_OfflineIsDeterministic(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	b := NewBuilder(nil, logger.NewNopLogger(), WithClock(func() time.Time { return fixed }))

	first, err := b.Send(context.Background(), "q", sampleSelection(), nil)
	require.NoError(t, err)
	second, err := b.Send(context.Background(), "q", sampleSelection(), nil)
	require.NoError(t, err)

	assert.Equal(t, first.Content, second.Content)
	assert.Equal(t, fixed, first.CreatedAt)
	assert.Contains(t, first.Content, "노드: 장비 A | 행: row-1(Etching/RUNNING)")
}

func TestSend_PayloadShape(t *testing.T) {
	stub := &stubProvider{reply: "답변"}
	b := NewBuilder(stub, logger.NewNopLogger())

	history := []Message{
		NewUserMessage("첫 질문", nil, time.Now()),
		NewAssistantMessage("첫 답변", time.Now()),
		NewErrorMessage(&llm.RequestFailedError{Status: 502}, time.Now()),
	}
	msg, err := b.Send(context.Background(), "두 번째 질문", sampleSelection(), history)

	require.NoError(t, err)
	assert.Equal(t, "답변", msg.Content)
	assert.Equal(t, 1, stub.calls)

	require.Len(t, stub.messages, 4)
	assert.Equal(t, llm.RoleSystem, stub.messages[0].Role)
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "첫 질문"}, stub.messages[1])
	assert.Equal(t, llm.Message{Role: llm.RoleAssistant, Content: "첫 답변"}, stub.messages[2])
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "두 번째 질문"}, stub.messages[3])

	system := stub.messages[0].Content
	assert.Contains(t, system, `"selectedNode"`)
	assert.Contains(t, system, `"label": "장비 A"`)
	assert.Contains(t, system, `"prediction": 0.82`)
	assert.NotContains(t, system, "position")
	assert.NotContains(t, system, "120")
}

func TestSend_EmptyCompletionUsesPlaceholder(t *testing.T) {
	b := NewBuilder(&stubProvider{reply: "  "}, logger.NewNopLogger())

	msg, err := b.Send(context.Background(), "q", selection.Context{}, nil)

	require.NoError(t, err)
	assert.Equal(t, "응답 본문이 비어 있습니다.", msg.Content)
}

func TestSend_ProviderErrorPropagates(t *testing.T) {
	failure := &llm.RequestFailedError{Status: 503, Body: "overloaded"}
	stub := &stubProvider{err: failure}
	b := NewBuilder(stub, logger.NewNopLogger())

	_, err := b.Send(context.Background(), "q", selection.Context{}, nil)

	assert.ErrorIs(t, err, llm.ErrRequestFailed)
	assert.Equal(t, 1, stub.calls)
}

func TestSend_AgainstCompletionServer(t *testing.T) {
	t.Run("HTTP 500 is RequestFailed with status and body", func(t *testing.T) {
		calls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			http.Error(w, "internal", http.StatusInternalServerError)
		}))
		defer srv.Close()

		b := NewBuilder(openai.NewProvider(llm.Config{BaseURL: srv.URL, Model: "m"}), logger.NewNopLogger())
		_, err := b.Send(context.Background(), "상태는?", sampleSelection(), nil)

		var rf *llm.RequestFailedError
		require.True(t, errors.As(err, &rf))
		assert.Equal(t, http.StatusInternalServerError, rf.Status)
		assert.Contains(t, rf.Body, "internal")
		assert.Equal(t, 1, calls, "no automatic retry")
	})

	t.Run("wire body has model messages and temperature", func(t *testing.T) {
		var body struct {
			Model       string        `json:"model"`
			Messages    []llm.Message `json:"messages"`
			Temperature float64       `json:"temperature"`
		}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			w.Write([]byte(`{"choices":[{"message":{"content":"정상 가동 중입니다."}}]}`))
		}))
		defer srv.Close()

		b := NewBuilder(openai.NewProvider(llm.Config{BaseURL: srv.URL, Model: "m"}), logger.NewNopLogger(), WithTemperature(0.4))
		msg, err := b.Send(context.Background(), "상태는?", sampleSelection(), nil)

		require.NoError(t, err)
		assert.Equal(t, "정상 가동 중입니다.", msg.Content)
		assert.Equal(t, "m", body.Model)
		assert.InDelta(t, 0.4, body.Temperature, 1e-9)
		require.Len(t, body.Messages, 2)
		assert.True(t, strings.HasPrefix(body.Messages[0].Content, "You are the assistant"))
		assert.Equal(t, "상태는?", body.Messages[1].Content)
	})

	t.Run("model discovery failure is ResolutionFailed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))
		defer srv.Close()

		b := NewBuilder(openai.NewProvider(llm.Config{BaseURL: srv.URL}), logger.NewNopLogger())
		_, err := b.Send(context.Background(), "q", selection.Context{}, nil)

		assert.ErrorIs(t, err, llm.ErrResolutionFailed)
		assert.NotErrorIs(t, err, llm.ErrRequestFailed)
	})

	t.Run("truncated 200 body is not reported as an API status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Length", "100")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("{"))
		}))
		defer srv.Close()

		b := NewBuilder(openai.NewProvider(llm.Config{BaseURL: srv.URL, Model: "m"}), logger.NewNopLogger())
		_, err := b.Send(context.Background(), "q", sampleSelection(), nil)

		require.Error(t, err)
		text := DescribeError(err)
		assert.True(t, strings.HasPrefix(text, "응답 생성 실패: "), text)
		assert.NotContains(t, text, "200")
	})
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"status", &llm.RequestFailedError{Status: 500}, "LLM API 호출 실패: 500"},
		{"unreachable", &llm.RequestFailedError{Err: errors.New("dial tcp")}, "LLM API 호출 실패: 서버에 연결할 수 없습니다."},
		{"resolution", &llm.ResolutionFailedError{Reason: "endpoint lists no models"}, "모델 확인 실패: model resolution failed: endpoint lists no models"},
		{"other", errors.New("boom"), "응답 생성 실패: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DescribeError(tt.err); got != tt.want {
				t.Errorf("DescribeError() = %q, want %q", got, tt.want)
			}
		})
	}
}

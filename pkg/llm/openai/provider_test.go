package openai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"workspace-context-be/pkg/llm"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChat_WireShape(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hello"}},{"message":{"content":"ignored"}}]}`))
	}))
	defer srv.Close()

	p := NewProvider(llm.Config{BaseURL: srv.URL + "/v1/", APIKey: "secret", Model: "gpt-test", Temperature: 0.2})
	out, err := p.Chat(context.Background(), []llm.Message{
		{Role: llm.RoleSystem, Content: "sys"},
		{Role: llm.RoleUser, Content: "q"},
	})

	require.NoError(t, err)
	assert.Equal(t, "hello", out)
	assert.Equal(t, "gpt-test", got["model"])
	assert.InDelta(t, 0.2, got["temperature"], 1e-9)
	messages := got["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, map[string]any{"role": "system", "content": "sys"}, messages[0])
}

func TestChat_NonSuccessIsRequestFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewProvider(llm.Config{BaseURL: srv.URL, Model: "m"})
	_, err := p.Chat(context.Background(), nil)

	require.ErrorIs(t, err, llm.ErrRequestFailed)
	var rf *llm.RequestFailedError
	require.True(t, errors.As(err, &rf))
	assert.Equal(t, http.StatusInternalServerError, rf.Status)
	assert.Contains(t, rf.Body, "boom")
}

func TestChat_EmptyCompletion(t *testing.T) {
	for name, body := range map[string]string{
		"no choices":   `{"choices":[]}`,
		"null content": `{"choices":[{"message":{"content":null}}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			}))
			defer srv.Close()

			out, err := NewProvider(llm.Config{BaseURL: srv.URL, Model: "m"}).Chat(context.Background(), nil)
			require.NoError(t, err)
			assert.Empty(t, out)
		})
	}
}

func TestResolveModel(t *testing.T) {
	t.Run("discovers and caches the first listed model", func(t *testing.T) {
		var listCalls atomic.Int32
		var usedModel string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/models":
				listCalls.Add(1)
				w.Write([]byte(`{"data":[{"id":"qwen2.5"},{"id":"llama3"}]}`))
			case "/chat/completions":
				var req chatRequest
				_ = json.NewDecoder(r.Body).Decode(&req)
				usedModel = req.Model
				w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
			}
		}))
		defer srv.Close()

		p := NewProvider(llm.Config{BaseURL: srv.URL})
		for i := 0; i < 2; i++ {
			_, err := p.Chat(context.Background(), nil)
			require.NoError(t, err)
		}

		assert.Equal(t, "qwen2.5", usedModel)
		assert.EqualValues(t, 1, listCalls.Load())
	})

	t.Run("listing failure is a resolution failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "denied", http.StatusUnauthorized)
		}))
		defer srv.Close()

		_, err := NewProvider(llm.Config{BaseURL: srv.URL}).Chat(context.Background(), nil)

		require.ErrorIs(t, err, llm.ErrResolutionFailed)
		assert.NotErrorIs(t, err, llm.ErrRequestFailed)
	})

	t.Run("empty list is a resolution failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data":[]}`))
		}))
		defer srv.Close()

		_, err := NewProvider(llm.Config{BaseURL: srv.URL}).ResolveModel(context.Background())
		assert.ErrorIs(t, err, llm.ErrResolutionFailed)
	})
}

func TestChat_TruncatedSuccessBodyIsNotRequestFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("{"))
	}))
	defer srv.Close()

	_, err := NewProvider(llm.Config{BaseURL: srv.URL, Model: "m"}).Chat(context.Background(), nil)

	require.Error(t, err)
	assert.NotErrorIs(t, err, llm.ErrRequestFailed)
	assert.Contains(t, err.Error(), "failed to read response")
}

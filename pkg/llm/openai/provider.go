package openai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"workspace-context-be/pkg/llm"

	"github.com/goccy/go-json"
)

// Provider talks to any OpenAI-compatible chat completion endpoint
type Provider struct {
	apiKey      string
	baseURL     string
	temperature float64
	client      *http.Client

	mu    sync.Mutex
	model string // configured or discovered
}

// Ensure Provider implements LLMProvider
var _ llm.LLMProvider = &Provider{}

// Request Payload Structure (OpenAI Compatible)
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []llm.Message `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type modelListResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

func NewProvider(cfg llm.Config) *Provider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Provider{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		temperature: cfg.Temperature,
		model:       cfg.Model,
		client:      &http.Client{Timeout: timeout},
	}
}

// ResolveModel returns the configured model, or the first model the endpoint lists.
// A discovered model is cached; failures are not.
func (p *Provider) ResolveModel(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.model != "" {
		return p.model, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/models", nil)
	if err != nil {
		return "", &llm.ResolutionFailedError{Reason: "create request", Err: err}
	}
	p.authorize(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", &llm.ResolutionFailedError{Reason: "list models", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &llm.ResolutionFailedError{Reason: "read model list", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &llm.ResolutionFailedError{Status: resp.StatusCode, Reason: string(body)}
	}

	var list modelListResponse
	if err := json.Unmarshal(body, &list); err != nil {
		return "", &llm.ResolutionFailedError{Reason: "decode model list", Err: err}
	}
	for _, m := range list.Data {
		if m.ID != "" {
			p.model = m.ID
			return p.model, nil
		}
	}
	return "", &llm.ResolutionFailedError{Reason: "endpoint lists no models"}
}

func (p *Provider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	opts := &llm.Options{
		Temperature: p.temperature,
	}
	for _, o := range options {
		o(opts)
	}

	model := opts.Model
	if model == "" {
		resolved, err := p.ResolveModel(ctx)
		if err != nil {
			return "", err
		}
		model = resolved
	}

	reqBody := chatRequest{
		Model:       model,
		Messages:    history,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	p.authorize(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", &llm.RequestFailedError{Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		// the endpoint accepted the request; only the body was lost
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return "", fmt.Errorf("failed to read response: %w", err)
		}
		return "", &llm.RequestFailedError{Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &llm.RequestFailedError{Status: resp.StatusCode, Body: string(bodyBytes)}
	}

	var chatResp chatResponse
	if err := json.Unmarshal(bodyBytes, &chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message.Content == nil {
		return "", nil
	}
	return *chatResp.Choices[0].Message.Content, nil
}

func (p *Provider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	// Wrap single prompt into a user message
	messages := []llm.Message{
		{Role: llm.RoleUser, Content: prompt},
	}
	return p.Chat(ctx, messages, options...)
}

func (p *Provider) authorize(req *http.Request) {
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
}

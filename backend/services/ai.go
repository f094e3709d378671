package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"tutorium/backend/config"

	"go.uber.org/zap"
)

// TextProvider generates free-form text from a prompt. Two interchangeable
// implementations exist; AIClient tries the primary and falls back to the
// secondary on any failure.
type TextProvider interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

var ErrNoProvider = errors.New("no text-generation provider configured")

type AIClient struct {
	log      *zap.Logger
	primary  TextProvider
	fallback TextProvider
	timeout  time.Duration
	embedder *openAIProvider
}

func NewAIClient(cfg *config.Config, log *zap.Logger) *AIClient {
	httpClient := &http.Client{Timeout: cfg.AITimeout}

	client := &AIClient{
		log:     log.With(zap.String("service", "ai")),
		timeout: cfg.AITimeout,
	}

	if cfg.GeminiAPIKey != "" {
		client.primary = &geminiProvider{
			baseURL:    strings.TrimRight(cfg.GeminiBaseURL, "/"),
			apiKey:     cfg.GeminiAPIKey,
			model:      cfg.GeminiModel,
			httpClient: httpClient,
		}
	}
	if cfg.OpenAIAPIKey != "" {
		openai := &openAIProvider{
			baseURL:    strings.TrimRight(cfg.OpenAIBaseURL, "/"),
			apiKey:     cfg.OpenAIAPIKey,
			model:      cfg.OpenAIModel,
			embedModel: cfg.EmbeddingModel,
			httpClient: httpClient,
		}
		client.embedder = openai
		if client.primary == nil {
			client.primary = openai
		} else {
			client.fallback = openai
		}
	}

	return client
}

// Generate forwards the prompt to the primary provider and retries once on the
// fallback. The returned text is whitespace-normalized but otherwise raw.
func (c *AIClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c.primary == nil {
		return "", ErrNoProvider
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	text, err := c.primary.Generate(ctx, prompt)
	if err == nil {
		return strings.TrimSpace(text), nil
	}
	c.log.Warn("primary provider failed",
		zap.String("provider", c.primary.Name()), zap.Error(err))

	if c.fallback == nil {
		return "", err
	}

	text, err = c.fallback.Generate(ctx, prompt)
	if err != nil {
		c.log.Warn("fallback provider failed",
			zap.String("provider", c.fallback.Name()), zap.Error(err))
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// Embed returns the embedding vector for the input text.
func (c *AIClient) Embed(ctx context.Context, input string) ([]float32, error) {
	if c.embedder == nil {
		return nil, ErrNoProvider
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	return c.embedder.Embed(ctx, input)
}

// geminiProvider speaks the generativelanguage generateContent API.
type geminiProvider struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func (p *geminiProvider) Name() string { return "gemini" }

func (p *geminiProvider) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": prompt}}},
		},
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		p.baseURL, p.model, url.QueryEscape(p.apiKey))

	body, err := postJSON(ctx, p.httpClient, endpoint, nil, reqBody)
	if err != nil {
		return "", err
	}

	var parsed struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("gemini: decode response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("gemini: empty response")
	}

	var sb strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

// openAIProvider speaks the chat-completions and embeddings APIs.
type openAIProvider struct {
	baseURL    string
	apiKey     string
	model      string
	embedModel string
	httpClient *http.Client
}

func (p *openAIProvider) Name() string { return "openai" }

func (p *openAIProvider) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"model": p.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	headers := map[string]string{"Authorization": "Bearer " + p.apiKey}
	body, err := postJSON(ctx, p.httpClient, p.baseURL+"/v1/chat/completions", headers, reqBody)
	if err != nil {
		return "", err
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("openai: decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("openai: empty response")
	}
	return parsed.Choices[0].Message.Content, nil
}

func (p *openAIProvider) Embed(ctx context.Context, input string) ([]float32, error) {
	reqBody := map[string]interface{}{
		"model": p.embedModel,
		"input": input,
	}

	headers := map[string]string{"Authorization": "Bearer " + p.apiKey}
	body, err := postJSON(ctx, p.httpClient, p.baseURL+"/v1/embeddings", headers, reqBody)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("openai: decode embeddings: %w", err)
	}
	if len(parsed.Data) == 0 {
		return nil, errors.New("openai: empty embeddings response")
	}
	return parsed.Data[0].Embedding, nil
}

func postJSON(ctx context.Context, client *http.Client, endpoint string, headers map[string]string, reqBody interface{}) ([]byte, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("upstream http %d: %s", resp.StatusCode, truncate(string(body), 300))
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

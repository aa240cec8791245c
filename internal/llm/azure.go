package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tianputao/data-pipeline-agent/internal/domain"
)

const (
	azureAPIVersion    = "2024-05-01-preview"
	chatDefaultTimeout = 30 * time.Second
)

type chatRequest struct {
	Model          string      `json:"model,omitempty"`
	Messages       []Message   `json:"messages"`
	ResponseFormat *respFormat `json:"response_format,omitempty"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// AzureOptions configures the Azure OpenAI transport.
type AzureOptions struct {
	Endpoint   string
	APIKey     string
	Deployment string
	HTTPClient *http.Client
}

// AzureClient talks to an Azure OpenAI deployment.
type AzureClient struct {
	endpoint   string
	apiKey     string
	deployment string
	client     *http.Client
}

func NewAzureClient(opts AzureOptions) (*AzureClient, error) {
	if strings.TrimSpace(opts.Endpoint) == "" {
		return nil, errors.New("azure openai endpoint is required")
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("azure openai api key is required")
	}
	if strings.TrimSpace(opts.Deployment) == "" {
		return nil, errors.New("azure openai deployment is required")
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: chatDefaultTimeout}
	}
	return &AzureClient{
		endpoint:   strings.TrimRight(strings.TrimSpace(opts.Endpoint), "/"),
		apiKey:     strings.TrimSpace(opts.APIKey),
		deployment: strings.TrimSpace(opts.Deployment),
		client:     client,
	}, nil
}

func (c *AzureClient) Chat(ctx context.Context, messages []Message, jsonResponse bool) (string, error) {
	payload := chatRequest{Messages: messages}
	if jsonResponse {
		payload.ResponseFormat = &respFormat{Type: "json_object"}
	}
	endpoint := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		c.endpoint, c.deployment, azureAPIVersion)
	return doChat(ctx, c.client, endpoint, payload, func(req *http.Request) {
		req.Header.Set("api-key", c.apiKey)
	})
}

// LocalOptions configures an OpenAI-compatible local endpoint (vLLM,
// Ollama's openai facade, llama.cpp server).
type LocalOptions struct {
	Endpoint   string
	Model      string
	HTTPClient *http.Client
}

// LocalClient talks to a self-hosted OpenAI-compatible endpoint.
type LocalClient struct {
	endpoint string
	model    string
	client   *http.Client
}

func NewLocalClient(opts LocalOptions) (*LocalClient, error) {
	if strings.TrimSpace(opts.Endpoint) == "" {
		return nil, errors.New("local llm endpoint is required")
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: chatDefaultTimeout}
	}
	return &LocalClient{
		endpoint: strings.TrimSpace(opts.Endpoint),
		model:    strings.TrimSpace(opts.Model),
		client:   client,
	}, nil
}

func (c *LocalClient) Chat(ctx context.Context, messages []Message, jsonResponse bool) (string, error) {
	payload := chatRequest{Model: c.model, Messages: messages}
	if jsonResponse {
		payload.ResponseFormat = &respFormat{Type: "json_object"}
	}
	return doChat(ctx, c.client, c.endpoint, payload, nil)
}

func doChat(ctx context.Context, client *http.Client, endpoint string, payload chatRequest, decorate func(*http.Request)) (string, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", fmt.Errorf("%w: encode chat request: %v", domain.ErrProviderFailure, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return "", fmt.Errorf("%w: build chat request: %v", domain.ErrProviderFailure, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if decorate != nil {
		decorate(req)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: chat request: %v", domain.ErrProviderFailure, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: chat endpoint status %d", domain.ErrProviderFailure, resp.StatusCode)
	}
	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode chat response: %v", domain.ErrProviderFailure, err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%w: chat response has no choices", domain.ErrProviderFailure)
	}
	content := strings.TrimSpace(out.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%w: chat response is empty", domain.ErrProviderFailure)
	}
	return content, nil
}

var (
	_ ChatClient = (*AzureClient)(nil)
	_ ChatClient = (*LocalClient)(nil)
)

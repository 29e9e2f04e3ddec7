package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const maxResponseBytes = 1 << 20

type chatRequest struct {
	Model          string          `json:"model,omitempty"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageRef `json:"image_url,omitempty"`
}

type imageRef struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// chatProvider speaks the chat completions API used by OpenAI and Azure OpenAI.
type chatProvider struct {
	name     string
	endpoint string
	model    string
	header   string
	token    string
	client   *http.Client
}

func newOpenAI(cfg *Config) *chatProvider {
	return &chatProvider{
		name:     string(ProviderOpenAI),
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/") + "/chat/completions",
		model:    cfg.Model,
		header:   "Authorization",
		token:    "Bearer " + cfg.APIKey,
		client:   &http.Client{},
	}
}

// newAzure targets a deployment; the deployment selects the model, so no
// model is sent in the body.
func newAzure(cfg *Config) *chatProvider {
	endpoint := fmt.Sprintf(
		"%s/openai/deployments/%s/chat/completions?api-version=%s",
		strings.TrimSuffix(cfg.Endpoint, "/"),
		url.PathEscape(cfg.Deployment),
		url.QueryEscape(cfg.APIVersion),
	)

	return &chatProvider{
		name:     string(ProviderAzure),
		endpoint: endpoint,
		header:   "api-key",
		token:    cfg.APIKey,
		client:   &http.Client{},
	}
}

func (p *chatProvider) Name() string {
	return p.name
}

func (p *chatProvider) Complete(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: p.model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: req.Prompt},
				{Type: "image_url", ImageURL: &imageRef{URL: req.ImageURL, Detail: req.Detail}},
			},
		}},
		MaxTokens:      req.MaxTokens,
		Temperature:    req.Temperature,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(p.header, p.token)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", callError("complete", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", callError("read", err)
	}

	var parsed chatResponse
	decodeErr := json.Unmarshal(data, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := ""
		if decodeErr == nil && parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return "", statusError("complete", resp.StatusCode, msg)
	}

	if decodeErr != nil {
		return "", schemaError("chat response: %v", decodeErr)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == nil {
		return "", schemaError("%v", ErrEmptyResponse)
	}

	return *parsed.Choices[0].Message.Content, nil
}

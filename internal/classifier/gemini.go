package classifier

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"path"

	"google.golang.org/genai"
)

const defaultImageMIME = "image/jpeg"

type geminiProvider struct {
	client *genai.Client
	model  string
}

func newGemini(cfg *Config) (*geminiProvider, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Endpoint != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Endpoint}
	}

	client, err := genai.NewClient(context.Background(), clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &geminiProvider{client: client, model: cfg.Model}, nil
}

func (p *geminiProvider) Name() string {
	return string(ProviderGemini)
}

func (p *geminiProvider) Complete(ctx context.Context, req Request) (string, error) {
	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			genai.NewPartFromText(req.Prompt),
			genai.NewPartFromURI(req.ImageURL, imageMIME(req.ImageURL)),
		},
	}}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens:  int32(req.MaxTokens),
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", statusError("complete", apiErr.Code, apiErr.Status)
		}
		return "", callError("complete", err)
	}

	text := resp.Text()
	if text == "" {
		return "", schemaError("%v", ErrEmptyResponse)
	}
	return text, nil
}

// imageMIME infers the image type from the URL path extension.
func imageMIME(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return defaultImageMIME
	}
	if t := mime.TypeByExtension(path.Ext(u.Path)); t != "" {
		return t
	}
	return defaultImageMIME
}

package image

import (
	"context"
	"errors"
	"time"

	"assetforge/internal/domain"
	"assetforge/internal/infra/credentials"
	"assetforge/internal/providers/openai"
)

type openaiClient interface {
	GenerateImage(ctx context.Context, apiKey string, req openai.ImageRequest) (*openai.ImageAsset, error)
	Model() string
}

// OpenAIGenerator adapts the Images API client to the provider chain.
// Rate limits and transient server errors are retried with increasing
// backoff before the chain moves on.
type OpenAIGenerator struct {
	client     openaiClient
	creds      credentials.Source
	attempts   int
	retryDelay time.Duration
}

func NewOpenAIGenerator(client *openai.Client, creds credentials.Source) *OpenAIGenerator {
	return &OpenAIGenerator{client: client, creds: creds, attempts: 3, retryDelay: 500 * time.Millisecond}
}

func (g *OpenAIGenerator) Name() string {
	return "openai"
}

func (g *OpenAIGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (*Output, error) {
	apiKey, err := g.creds.Secret(ctx, credentials.KeyOpenAI)
	if err != nil {
		return nil, domain.WrapError(domain.ErrMissingCredentials, g.Name(), err)
	}
	if apiKey == "" {
		return nil, domain.WrapError(domain.ErrMissingCredentials, g.Name(), openai.ErrMissingAPIKey)
	}

	var asset *openai.ImageAsset
	err = withRetry(ctx, g.attempts, g.retryDelay, openaiTransient, func() error {
		var callErr error
		asset, callErr = g.client.GenerateImage(ctx, apiKey, openai.ImageRequest{
			Prompt:    promptWithStyle(req.Prompt, req.Style),
			Size:      req.Size,
			RequestID: req.RequestID,
		})
		return callErr
	})
	if err != nil {
		return nil, classify(g.Name(), err, openai.ErrMissingAPIKey, openaiStatus)
	}

	out := &Output{
		Data:     asset.Data,
		URL:      asset.URL,
		Provider: g.Name(),
		Metadata: map[string]any{"model": g.client.Model(), "mime": asset.Format},
	}
	if err := validateOutput(g.Name(), out); err != nil {
		return nil, err
	}
	return out, nil
}

func openaiTransient(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == 429 || apiErr.Status >= 500
	}
	return false
}

func openaiStatus(err error) (int, string, bool) {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status, apiErr.Code + " " + apiErr.Message, true
	}
	return 0, "", false
}

var _ Generator = (*OpenAIGenerator)(nil)

package image

import (
	"context"
	"errors"
	"time"

	"assetforge/internal/domain"
	"assetforge/internal/infra/credentials"
	"assetforge/internal/providers/qwen"
)

type qwenClient interface {
	GenerateImage(ctx context.Context, apiKey string, req qwen.ImageRequest) (*qwen.ImageAsset, error)
	Model() string
}

// QwenGenerator adapts the DashScope client to the provider chain. A single
// transient failure gets one backoff retry before the chain moves on.
type QwenGenerator struct {
	client     qwenClient
	creds      credentials.Source
	retryDelay time.Duration
}

func NewQwenGenerator(client *qwen.Client, creds credentials.Source) *QwenGenerator {
	return &QwenGenerator{client: client, creds: creds, retryDelay: time.Second}
}

func (g *QwenGenerator) Name() string {
	return "qwen"
}

func (g *QwenGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (*Output, error) {
	apiKey, err := g.creds.Secret(ctx, credentials.KeyQwen)
	if err != nil {
		return nil, domain.WrapError(domain.ErrMissingCredentials, g.Name(), err)
	}
	if apiKey == "" {
		return nil, domain.WrapError(domain.ErrMissingCredentials, g.Name(), qwen.ErrMissingAPIKey)
	}

	var asset *qwen.ImageAsset
	err = withRetry(ctx, 2, g.retryDelay, qwenTransient, func() error {
		var callErr error
		asset, callErr = g.client.GenerateImage(ctx, apiKey, qwen.ImageRequest{
			Prompt:    promptWithStyle(req.Prompt, req.Style),
			Size:      qwenSizeFor(req.Size),
			RequestID: req.RequestID,
		})
		return callErr
	})
	if err != nil {
		return nil, classify(g.Name(), err, qwen.ErrMissingAPIKey, qwenStatus)
	}

	out := &Output{
		URL:      asset.URL,
		Provider: g.Name(),
		Metadata: map[string]any{"model": g.client.Model(), "width": asset.Width, "height": asset.Height},
	}
	if err := validateOutput(g.Name(), out); err != nil {
		return nil, err
	}
	return out, nil
}

func qwenTransient(err error) bool {
	var apiErr *qwen.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500
	}
	return false
}

func qwenStatus(err error) (int, string, bool) {
	var apiErr *qwen.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status, apiErr.Code + " " + apiErr.Message, true
	}
	return 0, "", false
}

var _ Generator = (*QwenGenerator)(nil)

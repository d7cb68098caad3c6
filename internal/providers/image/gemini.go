package image

import (
	"context"
	"errors"

	"assetforge/internal/domain"
	"assetforge/internal/infra/credentials"
	"assetforge/internal/providers/gemini"
)

type geminiClient interface {
	GenerateImage(ctx context.Context, apiKey string, req gemini.ImageRequest) (*gemini.ImageAsset, error)
	Model() string
}

// GeminiGenerator adapts the Imagen predict client to the provider chain.
// Predict failures are not transient at this layer, so the adapter performs
// no per-call retries.
type GeminiGenerator struct {
	client geminiClient
	creds  credentials.Source
}

func NewGeminiGenerator(client *gemini.Client, creds credentials.Source) *GeminiGenerator {
	return &GeminiGenerator{client: client, creds: creds}
}

func (g *GeminiGenerator) Name() string {
	return "gemini"
}

func (g *GeminiGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (*Output, error) {
	apiKey, err := g.creds.Secret(ctx, credentials.KeyGemini)
	if err != nil {
		return nil, domain.WrapError(domain.ErrMissingCredentials, g.Name(), err)
	}
	if apiKey == "" {
		return nil, domain.WrapError(domain.ErrMissingCredentials, g.Name(), gemini.ErrMissingAPIKey)
	}

	asset, err := g.client.GenerateImage(ctx, apiKey, gemini.ImageRequest{
		Prompt:      promptWithStyle(req.Prompt, req.Style),
		AspectRatio: aspectRatioFor(req.Size),
		RequestID:   req.RequestID,
	})
	if err != nil {
		return nil, classify(g.Name(), err, gemini.ErrMissingAPIKey, geminiStatus)
	}

	out := &Output{
		Data:     asset.Data,
		Provider: g.Name(),
		Metadata: map[string]any{"model": g.client.Model(), "mime": asset.Format},
	}
	if err := validateOutput(g.Name(), out); err != nil {
		return nil, err
	}
	return out, nil
}

func geminiStatus(err error) (int, string, bool) {
	var apiErr *gemini.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status, apiErr.Message, true
	}
	return 0, "", false
}

var _ Generator = (*GeminiGenerator)(nil)

package image

import (
	"context"
	"strings"

	"assetforge/internal/domain"
)

// Output is the normalized payload every provider adapter produces. Exactly
// one of Data or URL is expected to be populated.
type Output struct {
	Data     []byte
	URL      string
	Provider string
	Metadata map[string]any
}

// Generator is the contract implemented by all provider adapters. Errors
// returned from Generate always carry a taxonomy kind.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req domain.GenerationRequest) (*Output, error)
}

// minInlineBytes guards against providers returning a truncated or
// placeholder payload as a success.
const minInlineBytes = 64

// validateOutput rejects empty or implausible payloads before they reach
// the upload step.
func validateOutput(provider string, out *Output) error {
	if out == nil {
		return domain.NewError(domain.ErrInvalidResponse, provider, "empty provider output")
	}
	if len(out.Data) == 0 && strings.TrimSpace(out.URL) == "" {
		return domain.NewError(domain.ErrInvalidResponse, provider, "provider returned neither bytes nor url")
	}
	if len(out.Data) > 0 && len(out.Data) < minInlineBytes {
		return domain.NewError(domain.ErrInvalidResponse, provider, "provider returned %d bytes, implausibly small", len(out.Data))
	}
	return nil
}

// aspectRatioFor maps a WxH size token to the closest supported aspect ratio.
func aspectRatioFor(size string) string {
	switch strings.TrimSpace(size) {
	case "1792x1024", "1664x928":
		return "16:9"
	case "1024x1792", "928x1664":
		return "9:16"
	case "1024x768":
		return "4:3"
	case "768x1024":
		return "3:4"
	default:
		return "1:1"
	}
}

// qwenSizeFor maps a WxH size token to the DashScope supported size token.
func qwenSizeFor(size string) string {
	switch aspectRatioFor(size) {
	case "16:9":
		return "1664*928"
	case "9:16":
		return "928*1664"
	case "4:3":
		return "1472*1104"
	case "3:4":
		return "1140*1472"
	default:
		return "1328*1328"
	}
}

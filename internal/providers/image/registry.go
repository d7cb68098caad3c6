package image

import (
	"fmt"

	"assetforge/internal/infra"
	"assetforge/internal/infra/credentials"
	"assetforge/internal/providers/gemini"
	"assetforge/internal/providers/openai"
	"assetforge/internal/providers/qwen"
)

// NewFromConfig builds the ordered adapter list named by the configured
// chain. Order matters: earlier entries are preferred, later ones are
// fallbacks.
func NewFromConfig(cfg *infra.Config, creds credentials.Source) ([]Generator, error) {
	out := make([]Generator, 0, len(cfg.ProviderChain))
	for _, name := range cfg.ProviderChain {
		switch name {
		case "gemini":
			client := gemini.NewClient(gemini.Options{
				BaseURL:        cfg.GeminiBaseURL,
				Model:          cfg.GeminiModel,
				RequestTimeout: cfg.ProviderTimeout,
			})
			out = append(out, NewGeminiGenerator(client, creds))
		case "openai":
			client := openai.NewClient(openai.Options{
				BaseURL:        cfg.OpenAIBaseURL,
				Model:          cfg.OpenAIModel,
				RequestTimeout: cfg.ProviderTimeout,
			})
			out = append(out, NewOpenAIGenerator(client, creds))
		case "qwen":
			client := qwen.NewClient(qwen.Options{
				BaseURL:        cfg.QwenBaseURL,
				Model:          cfg.QwenModel,
				RequestTimeout: cfg.ProviderTimeout,
			})
			out = append(out, NewQwenGenerator(client, creds))
		default:
			return nil, fmt.Errorf("unknown provider %q in chain", name)
		}
	}
	return out, nil
}

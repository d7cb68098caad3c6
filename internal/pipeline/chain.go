package pipeline

import (
	"context"
	"time"

	"assetforge/internal/domain"
	"assetforge/internal/infra"
	"assetforge/internal/providers/image"
)

// Chain walks an ordered list of provider adapters until one succeeds.
// Per-call retry already happens inside each adapter; at this level any
// failure advances to the next provider, never the same one again.
// Providers are tried strictly in order, not concurrently: later entries
// are explicit fallbacks and firing them speculatively would burn quota
// that a success makes unnecessary.
type Chain struct {
	providers []image.Generator
	timeout   time.Duration
	events    domain.EventSink
	logger    infra.Logger
}

func NewChain(providers []image.Generator, timeout time.Duration, events domain.EventSink, logger infra.Logger) *Chain {
	return &Chain{providers: providers, timeout: timeout, events: events, logger: logger}
}

// Generate returns the first successful output together with the attempt
// log. When every provider fails, the returned error is providers_exhausted
// and carries one attempt per provider tried.
func (c *Chain) Generate(ctx context.Context, req domain.GenerationRequest) (*image.Output, []domain.ProviderAttempt, error) {
	attempts := make([]domain.ProviderAttempt, 0, len(c.providers))
	for _, provider := range c.providers {
		out, err := c.invoke(ctx, provider, req)
		attempt := domain.ProviderAttempt{
			Provider: provider.Name(),
			Success:  err == nil,
		}
		if err != nil {
			attempt.ErrorCode = domain.KindOf(err)
		}
		attempts = append(attempts, attempt)
		emit(c.events, domain.Event{
			RequestID: req.RequestID,
			Phase:     domain.PhaseProvider,
			Success:   err == nil,
			Provider:  provider.Name(),
		})
		if err == nil {
			return out, attempts, nil
		}
		c.logger.Warn().Err(err).
			Str("request_id", req.RequestID).
			Str("provider", provider.Name()).
			Msg("provider failed, advancing chain")
	}
	exhausted := &domain.Error{
		Kind:     domain.ErrProvidersExhausted,
		Message:  "every provider in the chain failed",
		Attempts: attempts,
	}
	return nil, attempts, exhausted
}

func (c *Chain) invoke(ctx context.Context, provider image.Generator, req domain.GenerationRequest) (*image.Output, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return provider.Generate(ctx, req)
}

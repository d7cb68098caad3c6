package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"assetforge/internal/domain"
	"assetforge/internal/infra"
	"assetforge/internal/upload"
)

const (
	DefaultSize   = "1024x1024"
	DefaultFormat = "png"
	DefaultFolder = "generated"
)

// Uploader commits a generated payload to the durable asset store.
type Uploader interface {
	Upload(ctx context.Context, req upload.Request) (*domain.UploadResult, error)
}

// Service is the pipeline orchestrator: cache check, single-flight
// coordination, provider failover, signed upload, write-through caching and
// lifecycle events.
type Service struct {
	chain       *Chain
	cache       *TieredCache
	uploader    Uploader
	coordinator *Coordinator
	events      domain.EventSink
	logger      infra.Logger
}

func NewService(chain *Chain, cache *TieredCache, uploader Uploader, coordinator *Coordinator, events domain.EventSink, logger infra.Logger) *Service {
	return &Service{
		chain:       chain,
		cache:       cache,
		uploader:    uploader,
		coordinator: coordinator,
		events:      events,
		logger:      logger,
	}
}

// Generate runs one pipeline execution. Only terminal taxonomy errors cross
// this boundary: validation_error, providers_exhausted, upload_failed and
// missing_credentials from the store itself.
func (s *Service) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error) {
	start := time.Now()

	req.Prompt = normalizePrompt(req.Prompt)
	if req.Prompt == "" {
		return nil, domain.NewError(domain.ErrValidation, "", "prompt is required")
	}
	req.Style = strings.TrimSpace(req.Style)
	if req.Size == "" {
		req.Size = DefaultSize
	}
	if req.Format == "" {
		req.Format = DefaultFormat
	}
	if req.Folder == "" {
		req.Folder = DefaultFolder
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	key := KeyFor(req)
	emit(s.events, domain.Event{RequestID: req.RequestID, Phase: domain.PhaseStart, Success: true, Metadata: map[string]any{"cache_key": key}})

	result, shared, err := s.coordinator.Do(key, func() (*domain.GenerationResult, error) {
		return s.run(ctx, req, key, start)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug().Str("request_id", req.RequestID).Str("cache_key", key).Msg("joined in-flight execution")
	}
	return result, nil
}

// run is the coordinated section: at most one execution per cache key is in
// here at a time. Cache reads strictly precede provider calls, provider
// calls precede the upload, and the upload precedes any cache write.
func (s *Service) run(ctx context.Context, req domain.GenerationRequest, key string, start time.Time) (*domain.GenerationResult, error) {
	if !req.SkipCache {
		if record := s.cache.Lookup(ctx, key); record != nil {
			result := resultFromRecord(record, key, time.Since(start))
			emit(s.events, domain.Event{
				RequestID:  req.RequestID,
				Phase:      domain.PhaseComplete,
				Success:    true,
				Provider:   record.Provider,
				DurationMS: result.DurationMS,
				Metadata:   map[string]any{"cached": true},
			})
			return result, nil
		}
	}

	out, _, err := s.chain.Generate(ctx, req)
	if err != nil {
		emit(s.events, domain.Event{RequestID: req.RequestID, Phase: domain.PhaseComplete, Success: false, DurationMS: time.Since(start).Milliseconds()})
		return nil, err
	}

	publicID := strings.TrimSpace(req.ExplicitAssetID)
	if publicID == "" {
		publicID = upload.DerivePublicID(req.Prompt, req.Style)
	}
	uploaded, err := s.uploader.Upload(ctx, upload.Request{
		Data:     out.Data,
		URL:      out.URL,
		PublicID: publicID,
		Folder:   req.Folder,
		Format:   req.Format,
	})
	emit(s.events, domain.Event{RequestID: req.RequestID, Phase: domain.PhaseUpload, Success: err == nil, Provider: out.Provider})
	if err != nil {
		return nil, err
	}

	duration := time.Since(start)
	result := &domain.GenerationResult{
		Success:          true,
		Prompt:           req.Prompt,
		Style:            req.Style,
		Size:             req.Size,
		Format:           req.Format,
		SecureURL:        uploaded.SecureURL,
		AssetID:          uploaded.AssetID,
		Provider:         out.Provider,
		ProviderMetadata: out.Metadata,
		Cached:           false,
		CacheKey:         key,
		DurationMS:       duration.Milliseconds(),
	}

	s.cache.Store(ctx, domain.CachedAssetRecord{
		CacheKey:  key,
		Prompt:    req.Prompt,
		Style:     req.Style,
		Size:      req.Size,
		Format:    req.Format,
		AssetID:   uploaded.AssetID,
		SecureURL: uploaded.SecureURL,
		Provider:  out.Provider,
		Metadata:  out.Metadata,
		CreatedAt: time.Now().UTC(),
	})

	emit(s.events, domain.Event{
		RequestID:  req.RequestID,
		Phase:      domain.PhaseComplete,
		Success:    true,
		Provider:   out.Provider,
		DurationMS: result.DurationMS,
	})
	return result, nil
}

func resultFromRecord(record *domain.CachedAssetRecord, key string, elapsed time.Duration) *domain.GenerationResult {
	return &domain.GenerationResult{
		Success:          true,
		Prompt:           record.Prompt,
		Style:            record.Style,
		Size:             record.Size,
		Format:           record.Format,
		SecureURL:        record.SecureURL,
		AssetID:          record.AssetID,
		Provider:         record.Provider,
		ProviderMetadata: record.Metadata,
		Cached:           true,
		CacheKey:         key,
		DurationMS:       elapsed.Milliseconds(),
	}
}

func normalizePrompt(prompt string) string {
	return strings.Join(strings.Fields(prompt), " ")
}

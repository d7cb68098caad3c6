package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"assetforge/internal/domain"
	"assetforge/internal/middleware"
)

type generateRequest struct {
	Prompt         string `json:"prompt"`
	Style          string `json:"style,omitempty"`
	Size           string `json:"size,omitempty"`
	Format         string `json:"format,omitempty"`
	Folder         string `json:"folder,omitempty"`
	AssetID        string `json:"asset_id,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
	UseCache       *bool  `json:"use_cache,omitempty"`
}

type generateResponse struct {
	Success    bool           `json:"success"`
	Prompt     string         `json:"prompt"`
	Style      string         `json:"style,omitempty"`
	Size       string         `json:"size"`
	Format     string         `json:"format"`
	SecureURL  string         `json:"secure_url"`
	AssetID    string         `json:"asset_id"`
	Provider   string         `json:"provider"`
	Metadata   map[string]any `json:"provider_metadata,omitempty"`
	Cached     bool           `json:"cached"`
	CacheKey   string         `json:"cache_key"`
	DurationMS int64          `json:"duration_ms"`
}

// AssetsGenerate runs the generation pipeline for one creative specification.
func (a *App) AssetsGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload", nil)
		return
	}

	domainReq := domain.GenerationRequest{
		Prompt:          req.Prompt,
		Style:           req.Style,
		Size:            req.Size,
		Format:          req.Format,
		Folder:          req.Folder,
		ExplicitAssetID: req.AssetID,
		IdempotencyKey:  req.IdempotencyKey,
		RequestID:       middleware.RequestIDFromContext(r.Context()),
	}
	if req.UseCache != nil && !*req.UseCache {
		domainReq.SkipCache = true
	}

	result, err := a.Pipeline.Generate(r.Context(), domainReq)
	if err != nil {
		a.writeError(w, err)
		return
	}

	a.json(w, http.StatusOK, generateResponse{
		Success:    result.Success,
		Prompt:     result.Prompt,
		Style:      result.Style,
		Size:       result.Size,
		Format:     result.Format,
		SecureURL:  result.SecureURL,
		AssetID:    result.AssetID,
		Provider:   result.Provider,
		Metadata:   result.ProviderMetadata,
		Cached:     result.Cached,
		CacheKey:   result.CacheKey,
		DurationMS: result.DurationMS,
	})
}

func (a *App) writeError(w http.ResponseWriter, err error) {
	var tagged *domain.Error
	if !errors.As(err, &tagged) {
		a.error(w, http.StatusInternalServerError, "internal", "generation failed", nil)
		return
	}
	switch tagged.Kind {
	case domain.ErrValidation:
		a.error(w, http.StatusBadRequest, string(tagged.Kind), tagged.Error(), nil)
	case domain.ErrProvidersExhausted:
		a.error(w, http.StatusBadGateway, string(tagged.Kind), tagged.Error(), tagged.Attempts)
	case domain.ErrUploadFailed, domain.ErrMissingCredentials:
		a.error(w, http.StatusBadGateway, string(tagged.Kind), tagged.Error(), nil)
	default:
		a.error(w, http.StatusInternalServerError, string(tagged.Kind), tagged.Error(), nil)
	}
}

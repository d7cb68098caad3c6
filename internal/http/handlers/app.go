package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"assetforge/internal/domain"
	"assetforge/internal/infra"
)

// Pipeline is the orchestrator surface the HTTP layer depends on.
type Pipeline interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error)
}

// App bundles handler dependencies.
type App struct {
	Pipeline Pipeline
	Logger   infra.Logger
}

func NewApp(pipeline Pipeline, logger infra.Logger) *App {
	return &App{Pipeline: pipeline, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (a *App) error(w http.ResponseWriter, code int, kind, message string, details any) {
	a.json(w, code, errorBody{Error: kind, Message: message, Details: details})
}

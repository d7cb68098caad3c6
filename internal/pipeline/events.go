package pipeline

import (
	"assetforge/internal/domain"
	"assetforge/internal/infra"
)

// LogSink writes lifecycle events to the structured logger.
type LogSink struct {
	logger infra.Logger
}

func NewLogSink(logger infra.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(ev domain.Event) {
	entry := s.logger.Info().
		Str("request_id", ev.RequestID).
		Str("phase", string(ev.Phase)).
		Bool("success", ev.Success)
	if ev.Provider != "" {
		entry = entry.Str("provider", ev.Provider)
	}
	if ev.DurationMS > 0 {
		entry = entry.Int64("duration_ms", ev.DurationMS)
	}
	if len(ev.Metadata) > 0 {
		entry = entry.Interface("metadata", ev.Metadata)
	}
	entry.Msg("pipeline event")
}

var _ domain.EventSink = (*LogSink)(nil)

// emit delivers an event, swallowing a nil sink and any panic. Lifecycle
// telemetry must never fail the pipeline.
func emit(sink domain.EventSink, ev domain.Event) {
	if sink == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	sink.Emit(ev)
}

package domain

// EventPhase identifies a pipeline lifecycle phase.
type EventPhase string

const (
	PhaseStart    EventPhase = "pipeline.start"
	PhaseProvider EventPhase = "pipeline.provider_attempt"
	PhaseUpload   EventPhase = "pipeline.upload"
	PhaseComplete EventPhase = "pipeline.complete"
)

// Event is one structured lifecycle record. Emission is fire-and-forget
// and must never fail the pipeline.
type Event struct {
	RequestID  string
	Phase      EventPhase
	Success    bool
	Provider   string
	DurationMS int64
	Metadata   map[string]any
}

// EventSink consumes lifecycle events.
type EventSink interface {
	Emit(Event)
}

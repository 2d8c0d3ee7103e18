package session

import "time"

// EventType names a session lifecycle or pipeline progress event.
type EventType string

const (
	EventCreated         EventType = "session.created"
	EventRenamed         EventType = "session.renamed"
	EventDeleted         EventType = "session.deleted"
	EventProcessingBegan EventType = "processing.began"
	EventStageFinished   EventType = "processing.stage"
	EventPopulated       EventType = "session.populated"
	EventProcessingError EventType = "processing.failed"
)

// Event is one session lifecycle notification. Events are fanned out to the
// owning user's subscribers, playing the role the original UI's re-render
// played: anything watching the user's sessions hears about every change.
type Event struct {
	// Type classifies the event.
	Type EventType `json:"type"`

	// UserID owns the session the event concerns.
	UserID string `json:"-"`

	// Session is the session name at the time of the event.
	Session string `json:"session"`

	// Detail carries event-specific text: the new name for renames, the
	// finished stage for stage events, the failure kind for errors.
	Detail string `json:"detail,omitempty"`

	// Degraded marks populated events whose summary is a placeholder.
	Degraded bool `json:"degraded,omitempty"`

	// At is when the event was emitted.
	At time.Time `json:"at"`
}

// EventSink receives events as they happen. Publish must not block; sinks
// that fan out over the network buffer or drop internally.
type EventSink interface {
	Publish(ev Event)
}

// discardSink drops every event. Used when no sink is configured.
type discardSink struct{}

func (discardSink) Publish(Event) {}

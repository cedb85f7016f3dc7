package uievent

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Type is the lifecycle signal UI collaborators react to.
type Type string

const (
	TypeSyncingStart      Type = "SYNCING_START"
	TypeSyncingEnd        Type = "SYNCING_END"
	TypeInitialSyncingEnd Type = "INITIAL_SYNCING_END"
	TypeLoadingMessage    Type = "LOADING_MESSAGE"
)

// MessageType tags progress messages with the screen they belong to.
type MessageType string

const (
	MessageTypeStartup MessageType = "STARTUP"
	MessageTypeUpdate  MessageType = "UPDATE"
)

type Event struct {
	ID          string      `json:"id"`
	RunID       string      `json:"run_id,omitempty"`
	Type        Type        `json:"type"`
	Phase       string      `json:"phase,omitempty"`
	Message     string      `json:"message,omitempty"`
	MessageType MessageType `json:"message_type,omitempty"`
	Time        time.Time   `json:"time"`
}

// New stamps an event with a fresh ULID and the current UTC time.
func New(t Type, runID string, phase string) Event {
	now := time.Now().UTC()
	return Event{
		ID:    ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		RunID: runID,
		Type:  t,
		Phase: phase,
		Time:  now,
	}
}

// NewLoadingMessage builds a progress message event.
func NewLoadingMessage(runID string, message string, mt MessageType) Event {
	e := New(TypeLoadingMessage, runID, "")
	e.Message = message
	e.MessageType = mt
	return e
}

// Publisher is a one-way, fire-and-forget event sink. Publish must not block.
type Publisher interface {
	Publish(Event)
}

type PublisherFunc func(Event)

func (f PublisherFunc) Publish(e Event) {
	if f == nil {
		return
	}
	f(e)
}

// Discard drops every event.
var Discard Publisher = PublisherFunc(func(Event) {})

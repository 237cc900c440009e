package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/record"
)

// Event is the unit carried by the event bus.
type Event interface {
	Type() string
}

// EventType represents the type of an event in the system.
type EventType string

func (t EventType) String() string { return string(t) }

// Event type constants
const (
	EventTypeRecordCreated EventType = "Record.Created"
	EventTypeRecordUpdated EventType = "Record.Updated"
	EventTypeRecordDeleted EventType = "Record.Deleted"
)

// RecordMutated carries a committed record change for a signed-in user.
type RecordMutated struct {
	ID        uuid.UUID       `json:"id"`
	UserID    string          `json:"userId"`
	Mutation  record.Mutation `json:"mutation"`
	Record    record.Record   `json:"record"`
	Timestamp time.Time       `json:"timestamp"`
}

// Type derives the bus type from the mutation.
func (e *RecordMutated) Type() string {
	return MutationEventType(e.Mutation).String()
}

// MutationEventType maps a mutation to its bus event type.
func MutationEventType(m record.Mutation) EventType {
	switch m {
	case record.Created:
		return EventTypeRecordCreated
	case record.Updated:
		return EventTypeRecordUpdated
	default:
		return EventTypeRecordDeleted
	}
}

// RecordMutatedOpt is a function that configures a RecordMutated
type RecordMutatedOpt func(*RecordMutated)

// WithTimestamp sets the event timestamp
func WithTimestamp(ts time.Time) RecordMutatedOpt {
	return func(e *RecordMutated) { e.Timestamp = ts }
}

// WithEventID sets the event ID
func WithEventID(id uuid.UUID) RecordMutatedOpt {
	return func(e *RecordMutated) { e.ID = id }
}

// NewRecordMutated creates a new RecordMutated event with the given parameters
func NewRecordMutated(
	userID string,
	m record.Mutation,
	r record.Record,
	opts ...RecordMutatedOpt,
) *RecordMutated {
	event := &RecordMutated{
		ID:        uuid.New(),
		UserID:    userID,
		Mutation:  m,
		Record:    r,
		Timestamp: time.Now(),
	}
	for _, opt := range opts {
		opt(event)
	}
	return event
}

// EventTypes maps bus type names to constructors used when decoding events
// coming back from a remote transport.
var EventTypes = map[string]func() Event{
	EventTypeRecordCreated.String(): func() Event { return &RecordMutated{} },
	EventTypeRecordUpdated.String(): func() Event { return &RecordMutated{} },
	EventTypeRecordDeleted.String(): func() Event { return &RecordMutated{} },
}

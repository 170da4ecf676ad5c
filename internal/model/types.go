package model

import (
	"time"

	"github.com/google/uuid"
)

// ConnectionEvent records one connection lifecycle event as seen by a client session.
type ConnectionEvent struct {
	ID         uuid.UUID // Primary key, used for ON CONFLICT dedup
	SessionID  uuid.UUID // Connection manager that observed the event
	Event      string    // Event name (e.g., "ConnectionOpen")
	Status     string    // Connection status after the event: init, pending, open, error
	Attempt    int64     // Transport attempts made so far in this session
	RecordedAt int64     // Observation time (µs since epoch)
}

// NewConnectionEvent creates an event row with a fresh ID.
func NewConnectionEvent(sessionID uuid.UUID, event, status string, attempt int64, at time.Time) ConnectionEvent {
	return ConnectionEvent{
		ID:         uuid.New(),
		SessionID:  sessionID,
		Event:      event,
		Status:     status,
		Attempt:    attempt,
		RecordedAt: at.UnixMicro(),
	}
}

// Time returns RecordedAt as a time.Time.
func (e ConnectionEvent) Time() time.Time {
	return time.UnixMicro(e.RecordedAt)
}

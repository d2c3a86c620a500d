package websocket

import (
	"encoding/json"
	"time"
)

// Event types broadcast to connected clients.
const (
	EventRunStarted     = "run_started"
	EventStageCompleted = "stage_completed"
	EventQuotesFound    = "quotes_found"
	EventRunFinished    = "run_finished"
)

// Event is the envelope sent to all WebSocket clients.
type Event struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEvent creates a new event with the current timestamp.
func NewEvent(eventType string, data interface{}) Event {
	return Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// JSON serialises the event.
func (e Event) JSON() []byte {
	b, _ := json.Marshal(e)
	return b
}

// RunEventData is the payload for every run lifecycle event.
type RunEventData struct {
	RunID   string `json:"run_id"`
	Stage   string `json:"stage,omitempty"`
	Message string `json:"message"`
}

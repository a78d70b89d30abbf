package models

import "time"

// Store event types
const (
	EventTypeCreate = "CREATE"
	EventTypeUpdate = "UPDATE"
	EventTypeDelete = "DELETE"
)

// StoreEvent is emitted after a committed create, update or delete
type StoreEvent struct {
	EventID   string    `json:"event_id"`
	Type      string    `json:"type"`
	Entity    string    `json:"entity"`
	ID        string    `json:"id"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents the kind of change an event reports
type EventType string

const (
	EventTypeCreated       EventType = "created"
	EventTypeFinished      EventType = "finished"
	EventTypeRenewed       EventType = "renewed"
	EventTypeRecorded      EventType = "recorded"
	EventTypeRecategorized EventType = "recategorized"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeLoan    EntityType = "loan"
	EntityTypePayment EntityType = "payment"
	EntityTypeClient  EntityType = "client"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "payment.recorded"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "payment"
	Payload   interface{} `json:"payload"`   // Full entity data
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LoanCreated creates a loan.created event
func LoanCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeLoan, payload)
}

// LoanFinished creates a loan.finished event
func LoanFinished(payload interface{}) Event {
	return NewEvent(EventTypeFinished, EntityTypeLoan, payload)
}

// LoanRenewed creates a loan.renewed event
func LoanRenewed(payload interface{}) Event {
	return NewEvent(EventTypeRenewed, EntityTypeLoan, payload)
}

// PaymentRecorded creates a payment.recorded event
func PaymentRecorded(payload interface{}) Event {
	return NewEvent(EventTypeRecorded, EntityTypePayment, payload)
}

// ClientRecategorized creates a client.recategorized event
func ClientRecategorized(payload interface{}) Event {
	return NewEvent(EventTypeRecategorized, EntityTypeClient, payload)
}

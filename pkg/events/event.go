package events

import "time"

// Event types emitted by the query engine
const (
	TypeQueryCompleted      = "QUERY_COMPLETED"
	TypeBreakerStateChanged = "BREAKER_STATE_CHANGED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "QUERY_COMPLETED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the standard Event implementation.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewQueryCompleted records one finished orchestration, cache hits included.
func NewQueryCompleted(intent string, cacheHit bool, successCount, failureCount int) Event {
	return BaseEvent{
		Type: TypeQueryCompleted,
		Data: map[string]interface{}{
			"intent":        intent,
			"cache_hit":     cacheHit,
			"success_count": successCount,
			"failure_count": failureCount,
		},
		OccurredAt: time.Now(),
	}
}

// NewBreakerStateChanged records a circuit-breaker transition.
func NewBreakerStateChanged(adapterID, from, to string) Event {
	return BaseEvent{
		Type: TypeBreakerStateChanged,
		Data: map[string]interface{}{
			"adapter": adapterID,
			"from":    from,
			"to":      to,
		},
		OccurredAt: time.Now(),
	}
}

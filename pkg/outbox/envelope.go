package outbox

import (
	"encoding/json"
	"time"
)

// ActorRef identifies who produced the event. UserID is the identity
// provider subject, which is not guaranteed to be a uuid.
type ActorRef struct {
	UserID   string `json:"userId"`
	DeviceID string `json:"deviceId,omitempty"`
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

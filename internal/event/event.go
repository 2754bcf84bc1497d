package event

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeTrashArchived Type = "trash.archived"
	TypeTrashRestored Type = "trash.restored"
	TypeTrashPurged   Type = "trash.purged"
	TypeTrashEmptied  Type = "trash.emptied"
	TypeTrashExpired  Type = "trash.expired"
	TypeEntityCreated Type = "entity.created"
)

type Event struct {
	ID        string `json:"id"`
	Type      Type   `json:"type"`
	Origin    string `json:"origin,omitempty"` // entity table the event concerns
	Payload   any    `json:"payload"`
	Timestamp string `json:"timestamp"`
	ActorID   string `json:"actor_id,omitempty"`
}

func New(typ Type, origin string, actorID string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      typ,
		Origin:    origin,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		ActorID:   actorID,
	}
}

type Bus interface {
	Publish(e Event)
	Subscribe(name string, types ...Type) (<-chan Event, func())
}

package events

import (
	"encoding/json"
	"time"
)

// Notification is the frame pushed to one connected user.
type Notification struct {
	UserID      uint            `json:"userId"`
	Type        Type            `json:"type"`
	AggregateID uint            `json:"aggregateId"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	OccurredAt  time.Time       `json:"occurredAt"`
}

// Fanout derives one notification per recipient. The actor is skipped since
// they caused the change, duplicates and zero ids are dropped.
func Fanout(ev Event) []Notification {
	seen := make(map[uint]struct{}, len(ev.Recipients))
	out := make([]Notification, 0, len(ev.Recipients))
	for _, id := range ev.Recipients {
		if id == 0 || id == ev.ActorID {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, Notification{
			UserID:      id,
			Type:        ev.Type,
			AggregateID: ev.AggregateID,
			Payload:     ev.Payload,
			OccurredAt:  ev.OccurredAt,
		})
	}
	return out
}

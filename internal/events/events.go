// Package events defines the domain events emitted by the API server and
// the per-user notification frames derived from them.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"aura-go/internal/kafka"
)

// Type names an event.
type Type string

const (
	FriendRequestCreated  Type = "friend_request.created"
	FriendRequestAnswered Type = "friend_request.answered"
	ProposalCreated       Type = "proposal.created"
	VoteCast              Type = "vote.cast"
	ProposalResolved      Type = "proposal.resolved"
)

// Event is published once per state change. Recipients lists the profiles
// whose view changed and who should be told about it.
type Event struct {
	ID          string          `json:"id"`
	Type        Type            `json:"type"`
	AggregateID uint            `json:"aggregateId"`
	ActorID     uint            `json:"actorId,omitempty"` // zero for system actions such as the sweeper
	Recipients  []uint          `json:"recipients,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	OccurredAt  time.Time       `json:"occurredAt"`
}

// New builds an event, encoding payload as JSON.
func New(t Type, aggregateID, actorID uint, recipients []uint, payload interface{}) (Event, error) {
	ev := Event{
		ID:          uuid.NewString(),
		Type:        t,
		AggregateID: aggregateID,
		ActorID:     actorID,
		Recipients:  recipients,
		OccurredAt:  time.Now().UTC(),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Event{}, fmt.Errorf("encode %s payload: %w", t, err)
		}
		ev.Payload = raw
	}
	return ev, nil
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// NopPublisher drops every event. Used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, ev Event) error {
	logrus.WithFields(logrus.Fields{"event": ev.Type, "aggregate_id": ev.AggregateID}).Debug("event dropped, publisher disabled")
	return nil
}

// KafkaPublisher writes events to a topic keyed by aggregate id, so the
// events of one proposal or request stay ordered within a partition.
type KafkaPublisher struct {
	producer kafka.MessageProducer
	topic    string
}

func NewKafkaPublisher(producer kafka.MessageProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	key := []byte(string(ev.Type) + ":" + strconv.FormatUint(uint64(ev.AggregateID), 10))
	return p.producer.SendMessage(ctx, p.topic, key, payload)
}

package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	topic   string
	key     []byte
	payload []byte
}

type fakeProducer struct {
	sent []sentMessage
}

func (f *fakeProducer) SendMessage(ctx context.Context, topic string, key []byte, payload []byte) error {
	f.sent = append(f.sent, sentMessage{topic: topic, key: key, payload: payload})
	return nil
}

func (f *fakeProducer) Close() {}

func TestKafkaPublisherKeysByAggregate(t *testing.T) {
	prod := &fakeProducer{}
	pub := NewKafkaPublisher(prod, "aura-events")

	ev, err := New(ProposalCreated, 12, 3, []uint{4}, map[string]int64{"value": 500})
	require.NoError(t, err)
	require.NoError(t, pub.Publish(context.Background(), ev))

	require.Len(t, prod.sent, 1)
	assert.Equal(t, "aura-events", prod.sent[0].topic)
	assert.Equal(t, "proposal.created:12", string(prod.sent[0].key))

	var decoded Event
	require.NoError(t, json.Unmarshal(prod.sent[0].payload, &decoded))
	assert.Equal(t, ProposalCreated, decoded.Type)
	assert.JSONEq(t, `{"value":500}`, string(decoded.Payload))
}

func TestFanoutSkipsActorAndDuplicates(t *testing.T) {
	ev, err := New(ProposalResolved, 1, 7, []uint{7, 8, 8, 0, 9}, nil)
	require.NoError(t, err)

	got := Fanout(ev)
	require.Len(t, got, 2)
	assert.Equal(t, uint(8), got[0].UserID)
	assert.Equal(t, uint(9), got[1].UserID)
	assert.Equal(t, ProposalResolved, got[1].Type)
}

func TestFanoutSystemActor(t *testing.T) {
	ev, err := New(ProposalResolved, 1, 0, []uint{2, 3}, nil)
	require.NoError(t, err)
	assert.Len(t, Fanout(ev), 2)
}

package kafkahandlers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aura-go/internal/events"
)

type fakeProducer struct {
	keys []string
	err  error
}

func (f *fakeProducer) SendMessage(ctx context.Context, topic string, key []byte, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, topic+"/"+string(key))
	return nil
}

func (f *fakeProducer) Close() {}

type fakeHub struct {
	frames map[uint][][]byte
}

func (f *fakeHub) Deliver(userID uint, frame []byte) {
	f.frames[userID] = append(f.frames[userID], frame)
}

func eventMessage(t *testing.T, ev events.Event) *kafka.Message {
	t.Helper()
	raw, err := json.Marshal(ev)
	require.NoError(t, err)
	return &kafka.Message{Value: raw}
}

func TestEventFanoutHandler(t *testing.T) {
	prod := &fakeProducer{}
	h := NewEventFanoutHandler(prod, "aura-notifications")

	ev, err := events.New(events.FriendRequestCreated, 5, 1, []uint{2}, nil)
	require.NoError(t, err)

	require.NoError(t, h.Handle(context.Background(), eventMessage(t, ev)))
	assert.Equal(t, []string{"aura-notifications/2"}, prod.keys)
}

func TestEventFanoutHandlerSkipsGarbage(t *testing.T) {
	prod := &fakeProducer{}
	h := NewEventFanoutHandler(prod, "n")
	assert.NoError(t, h.Handle(context.Background(), &kafka.Message{Value: []byte("{not json")}))
	assert.Empty(t, prod.keys)
}

func TestEventFanoutHandlerPropagatesProducerError(t *testing.T) {
	h := NewEventFanoutHandler(&fakeProducer{err: errors.New("broker down")}, "n")
	ev, err := events.New(events.ProposalResolved, 5, 0, []uint{2}, nil)
	require.NoError(t, err)
	assert.Error(t, h.Handle(context.Background(), eventMessage(t, ev)))
}

func TestNotificationHandlerDelivers(t *testing.T) {
	hub := &fakeHub{frames: map[uint][][]byte{}}
	h := NewNotificationHandler(hub)

	raw, err := json.Marshal(events.Notification{UserID: 3, Type: events.ProposalCreated})
	require.NoError(t, err)

	require.NoError(t, h.Handle(context.Background(), &kafka.Message{Value: raw}))
	require.Len(t, hub.frames[3], 1)
	assert.JSONEq(t, string(raw), string(hub.frames[3][0]))

	require.NoError(t, h.Handle(context.Background(), &kafka.Message{Value: []byte(`{"userId":0}`)}))
	assert.Len(t, hub.frames, 1)
}

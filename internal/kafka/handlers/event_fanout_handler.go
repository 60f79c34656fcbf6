package kafkahandlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/sirupsen/logrus"

	"aura-go/internal/events"
	appKafka "aura-go/internal/kafka"
)

// EventFanoutHandler turns each domain event into per-user notification
// frames on the notifications topic.
type EventFanoutHandler struct {
	producer           appKafka.MessageProducer
	notificationsTopic string
}

func NewEventFanoutHandler(producer appKafka.MessageProducer, notificationsTopic string) *EventFanoutHandler {
	return &EventFanoutHandler{producer: producer, notificationsTopic: notificationsTopic}
}

// Handle is an appKafka.MessageHandler. Undecodable events are logged and skipped.
func (h *EventFanoutHandler) Handle(ctx context.Context, msg *kafka.Message) error {
	var ev events.Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		logrus.WithError(err).WithField("value", string(msg.Value)).Warn("skipping undecodable event")
		return nil
	}

	for _, n := range events.Fanout(ev) {
		payload, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("encode notification: %w", err)
		}
		key := []byte(strconv.FormatUint(uint64(n.UserID), 10))
		// returning the error leaves the offset uncommitted so the event is retried
		if err := h.producer.SendMessage(ctx, h.notificationsTopic, key, payload); err != nil {
			return err
		}
	}
	return nil
}

package kafkahandlers

import (
	"context"
	"encoding/json"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/sirupsen/logrus"

	"aura-go/internal/events"
)

// Deliverer pushes a raw frame to every connection of a user.
type Deliverer interface {
	Deliver(userID uint, frame []byte)
}

// NotificationHandler hands notification frames to the local WebSocket hub.
type NotificationHandler struct {
	hub Deliverer
}

func NewNotificationHandler(hub Deliverer) *NotificationHandler {
	return &NotificationHandler{hub: hub}
}

// Handle never fails: a user who is not connected here simply misses the push
// and picks the change up on the next poll.
func (h *NotificationHandler) Handle(ctx context.Context, msg *kafka.Message) error {
	var n events.Notification
	if err := json.Unmarshal(msg.Value, &n); err != nil || n.UserID == 0 {
		logrus.WithField("value", string(msg.Value)).Warn("skipping malformed notification")
		return nil
	}
	h.hub.Deliver(n.UserID, msg.Value)
	return nil
}

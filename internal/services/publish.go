package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"aura-go/internal/events"
)

// publish emits an event after the state change has committed. Delivery is
// best effort: a failure is logged and never undoes the change.
func publish(ctx context.Context, pub events.Publisher, t events.Type, aggregateID, actorID uint, recipients []uint, payload interface{}) {
	if pub == nil {
		return
	}
	log := logrus.WithFields(logrus.Fields{"event": t, "aggregate_id": aggregateID})
	ev, err := events.New(t, aggregateID, actorID, recipients, payload)
	if err != nil {
		log.WithError(err).Error("failed to build event")
		return
	}
	if err := pub.Publish(ctx, ev); err != nil {
		log.WithError(err).Warn("failed to publish event")
	}
}

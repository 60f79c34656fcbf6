package kafka

import (
	"context"
	"fmt"
	"strings"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/sirupsen/logrus"

	"aura-go/internal/config"
)

// MessageHandler processes one consumed message. A nil return commits its offset.
type MessageHandler func(ctx context.Context, msg *kafka.Message) error

// MessageConsumer defines the interface for a Kafka message consumer.
type MessageConsumer interface {
	Consume(ctx context.Context, topics []string, groupID string, handler MessageHandler) error
	Close()
}

type confluentKafkaConsumer struct {
	consumer *kafka.Consumer
	cfg      config.KafkaConfig
	groupID  string
}

// NewConfluentKafkaConsumer prepares a consumer. The underlying client is created by Consume,
// once the group id is known.
func NewConfluentKafkaConsumer(cfg config.KafkaConfig) (MessageConsumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka consumer: no brokers configured")
	}
	return &confluentKafkaConsumer{cfg: cfg}, nil
}

// Consume blocks until ctx is canceled or a fatal Kafka error occurs.
func (c *confluentKafkaConsumer) Consume(ctx context.Context, topics []string, groupID string, handler MessageHandler) error {
	if len(topics) == 0 {
		return fmt.Errorf("kafka consumer: no topics specified")
	}
	c.groupID = groupID
	log := logrus.WithFields(logrus.Fields{"group": groupID, "topics": topics})

	configMap := &kafka.ConfigMap{
		"bootstrap.servers":  strings.Join(c.cfg.Brokers, ","),
		"group.id":           c.groupID,
		"auto.offset.reset":  "latest",
		"enable.auto.commit": "false", // 处理成功后手动提交
		"security.protocol":  c.cfg.Protocol,
	}
	if c.cfg.ClientID != "" {
		_ = configMap.SetKey("client.id", c.cfg.ClientID)
	}

	consumer, err := kafka.NewConsumer(configMap)
	if err != nil {
		return fmt.Errorf("failed to create Kafka consumer for group %s: %w", groupID, err)
	}
	c.consumer = consumer

	if err := c.consumer.SubscribeTopics(topics, nil); err != nil {
		_ = c.consumer.Close()
		c.consumer = nil
		return fmt.Errorf("failed to subscribe to topics %v for group %s: %w", topics, groupID, err)
	}

	log.Info("Kafka consumer started, waiting for messages...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Context canceled, consumer loop finished.")
			return nil
		default:
		}

		ev := c.consumer.Poll(1000)
		if ev == nil {
			continue
		}

		switch e := ev.(type) {
		case *kafka.Message:
			msgLog := log.WithFields(logrus.Fields{"topic": *e.TopicPartition.Topic, "offset": e.TopicPartition.Offset})
			if err := handler(ctx, e); err != nil {
				msgLog.WithError(err).Error("Error processing Kafka message")
				continue
			}
			if _, err := c.consumer.CommitMessage(e); err != nil {
				msgLog.WithError(err).Warn("Failed to commit offset")
			}
		case kafka.Error:
			log.WithFields(logrus.Fields{"code": e.Code(), "fatal": e.IsFatal()}).Errorf("Kafka consumer error: %v", e)
			if e.IsFatal() {
				return e
			}
		case kafka.AssignedPartitions:
			log.Infof("Partitions assigned: %v", e.Partitions)
			c.consumer.Assign(e.Partitions)
		case kafka.RevokedPartitions:
			log.Infof("Partitions revoked: %v", e.Partitions)
			c.consumer.Unassign()
		}
	}
}

// Close closes the Kafka consumer.
func (c *confluentKafkaConsumer) Close() {
	if c.consumer == nil {
		return
	}
	if err := c.consumer.Close(); err != nil {
		logrus.WithError(err).Errorf("Error closing Kafka consumer for group %s", c.groupID)
	} else {
		logrus.Infof("Kafka consumer for group %s closed.", c.groupID)
	}
	c.consumer = nil
}

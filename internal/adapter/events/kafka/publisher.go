package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Publisher sends committed ledger events to Kafka. Publishing is
// fire-and-forget from the engine's point of view: a failed write is
// logged and reported, never rolled into the ledger's atomicity.
type Publisher struct {
	writer *kafka.Writer
	log    logrus.FieldLogger
}

// NewPublisher creates a publisher writing to the given brokers.
// The topic is taken per message from the Publish call.
func NewPublisher(brokers []string, log logrus.FieldLogger) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
		log: log,
	}
}

// Publish marshals the event as JSON and writes it to the topic
func (p *Publisher) Publish(ctx context.Context, topic string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Value: data,
	})
	if err != nil {
		p.log.WithError(err).WithField("topic", topic).Error("failed to publish event")
		return err
	}
	return nil
}

// Close flushes and closes the underlying writer
func (p *Publisher) Close() error {
	return p.writer.Close()
}

package iac

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

type Publisher interface {
	Publish(ctx context.Context, messages ...Msg) error
	Close() error
}

// Msg is one notification. Headers let consumers route on the event
// without decoding the value.
type Msg struct {
	PartitionKey string
	Message      string
	Headers      map[string]string
}

type kafkaPublisher struct {
	writer *kafka.Writer
}

// NewPublisher writes to topic, creating it on first use. Kafka rejects the
// write that triggered the creation, so that one message is retried by the
// writer's MaxAttempts.
func NewPublisher(brokers []string, topic string) Publisher {
	return &kafkaPublisher{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		WriteTimeout:           2 * time.Second,
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            5,
		AllowAutoTopicCreation: true,
	}}
}

func (k *kafkaPublisher) Publish(ctx context.Context, messages ...Msg) error {
	now := time.Now()
	out := make([]kafka.Message, 0, len(messages))
	for _, m := range messages {
		headers := make([]kafka.Header, 0, len(m.Headers))
		for key, val := range m.Headers {
			headers = append(headers, kafka.Header{Key: key, Value: []byte(val)})
		}
		out = append(out, kafka.Message{
			Key:     []byte(m.PartitionKey),
			Value:   []byte(m.Message),
			Headers: headers,
			Time:    now,
		})
	}
	return k.writer.WriteMessages(ctx, out...)
}

func (k *kafkaPublisher) Close() error {
	return k.writer.Close()
}

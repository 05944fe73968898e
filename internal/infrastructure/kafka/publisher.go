package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/Smilefounder/services-core/internal/domain/outbox"
)

const DefaultTopic = "payment.settled"

var ErrNoBrokers = errors.New("kafka: at least one broker is required")

// NewSyncProducer builds a producer that waits for all in-sync replicas.
func NewSyncProducer(brokers []string, clientID string) (sarama.SyncProducer, error) {
	if len(brokers) == 0 {
		return nil, ErrNoBrokers
	}
	cfg := sarama.NewConfig()
	cfg.ClientID = clientID
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Timeout = 5 * time.Second

	p, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka: new producer: %w", err)
	}
	return p, nil
}

// Publisher writes outbox events as JSON to a single topic.
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
}

var _ outbox.Publisher = (*Publisher)(nil)

func NewPublisher(producer sarama.SyncProducer, topic string) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{producer: producer, topic: topic}
}

func (p *Publisher) Publish(ctx context.Context, event outbox.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka: encode %s: %w", event.EventName(), err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_name"), Value: []byte(event.EventName())},
		},
	}
	if k, ok := event.(outbox.Keyed); ok {
		msg.Key = sarama.StringEncoder(k.EventKey())
	}

	if _, _, err := p.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("kafka: publish %s: %w", event.EventName(), err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.producer.Close()
}

package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	interfaces "github.com/sheikh-saqib/epoch-ledger/internal/interfaces"
	"github.com/sheikh-saqib/epoch-ledger/internal/models/events"
	"github.com/segmentio/kafka-go"
)

// DefaultTopic receives one message per settled action.
const DefaultTopic = "ledger.action_settled"

// Publisher writes settlement outcomes to a Kafka topic, keyed by epoch id so
// one epoch's messages stay on a single partition in order.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string, topic string) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: at least one broker is required")
	}
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			Compression:  kafka.Lz4,
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
			WriteTimeout: 5 * time.Second,
		},
	}, nil
}

func (p *Publisher) Publish(ctx context.Context, settled []events.ActionSettled) error {
	if len(settled) == 0 {
		return nil
	}
	msgs, err := messages(settled)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msgs...)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func messages(settled []events.ActionSettled) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, len(settled))
	for _, ev := range settled {
		data, err := json.Marshal(ev)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(ev.EpochID),
			Value: data,
			Time:  ev.SettledAt,
			Headers: []kafka.Header{
				{Key: "outcome", Value: []byte(ev.Outcome)},
			},
		})
	}
	return msgs, nil
}

var _ interfaces.EventPublisher = (*Publisher)(nil)

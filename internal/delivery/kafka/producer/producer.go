package producer

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/IBM/sarama"

	kafka "github.com/mixgrove/booth-service/internal/delivery/kafka"
	"github.com/mixgrove/booth-service/pkg/logger"
)

// Producer broadcasts committed state changes to connected clients via
// the notification bus. Delivery to subscribers is the bus's problem;
// the producer's contract is ordering: events leave in the order the
// underlying mutations committed.
type Producer interface {
	Publish(ctx context.Context, eventType string, payload any) error
	Close() error
}

// envelope matches the wire shape clients already parse.
type envelope struct {
	Command string `json:"command"`
	Data    any    `json:"data"`
}

type implProducer struct {
	l     logger.Logger
	prod  sarama.SyncProducer
	topic string

	// Serializes sends so a later event can never overtake an earlier one.
	mu sync.Mutex
}

func NewProducer(prod sarama.SyncProducer, topic string, l logger.Logger) Producer {
	if topic == "" {
		topic = kafka.DefaultTopic
	}
	return &implProducer{
		l:     l,
		prod:  prod,
		topic: topic,
	}
}

func (p *implProducer) Publish(ctx context.Context, eventType string, payload any) error {
	val, err := json.Marshal(envelope{Command: eventType, Data: payload})
	if err != nil {
		p.l.Errorf(ctx, "delivery.kafka.producer.Publish: %v", err)
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(kafka.PartitionKey), // single key keeps one partition, one order
		Value: sarama.ByteEncoder(val),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("timestamp"),
				Value: []byte(time.Now().Format(time.RFC3339)),
			},
		},
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, _, err := p.prod.SendMessage(msg); err != nil {
		p.l.Errorf(ctx, "delivery.kafka.producer.Publish: %v", err)
		return err
	}

	return nil
}

func (p *implProducer) Close() error {
	return p.prod.Close()
}

// Nop is used when the notification bus is disabled in config.
type nopProducer struct{}

func NewNopProducer() Producer { return nopProducer{} }

func (nopProducer) Publish(context.Context, string, any) error { return nil }
func (nopProducer) Close() error                               { return nil }

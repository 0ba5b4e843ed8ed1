// Package redpanda publishes interview lifecycle events to a Kafka-compatible
// broker (Redpanda in development).
package redpanda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-interview-tutor/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interview-tutor/internal/domain"
)

// recordDeliveryTimeout caps how long a record may sit in the client's
// buffer while brokers are unreachable.
const recordDeliveryTimeout = 10 * time.Second

// producer is the subset of *kgo.Client used for publishing.
type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// Publisher implements domain.EventPublisher.
type Publisher struct {
	client producer
	topic  string
}

// NewPublisher connects to brokers, ensures topic exists and returns a
// publisher whose records are traced through kotel.
func NewPublisher(ctx context.Context, brokers []string, topic string) (*Publisher, error) {
	slog.Info("creating redpanda publisher", slog.Any("brokers", brokers), slog.String("topic", topic))
	if len(brokers) == 0 {
		return nil, fmt.Errorf("op=events.new_publisher: no seed brokers provided")
	}
	if topic == "" {
		return nil, fmt.Errorf("op=events.new_publisher: topic name cannot be empty")
	}

	kotelTracer := kotel.NewTracer(
		kotel.TracerProvider(otel.GetTracerProvider()),
	)
	kotelService := kotel.NewKotel(
		kotel.WithTracer(kotelTracer),
	)
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.RequestRetries(10),
		kgo.ProducerBatchMaxBytes(1000000),
		kgo.RecordDeliveryTimeout(recordDeliveryTimeout),
		kgo.WithHooks(kotelService.Hooks()...),
	)
	if err != nil {
		return nil, fmt.Errorf("op=events.new_publisher: %w", err)
	}
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("op=events.new_publisher: ping: %w", err)
	}
	if err := createTopicIfNotExists(ctx, client, topic, 1, 1); err != nil {
		// The broker may auto-create topics or deny admin requests.
		slog.Warn("failed to create topic, it may already exist", slog.String("topic", topic), slog.Any("error", err))
	}
	return &Publisher{client: client, topic: topic}, nil
}

// Publish writes ev keyed by session id so one session's events stay ordered.
func (p *Publisher) Publish(ctx domain.Context, ev domain.InterviewEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("op=events.publish: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(ev.SessionID),
		Value: b,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(ev.Type)},
			{Key: "event_id", Value: []byte(ev.ID)},
		},
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		observability.EventPublished(ev.Type, false)
		return fmt.Errorf("op=events.publish: %w", err)
	}
	observability.EventPublished(ev.Type, true)
	return nil
}

// Close flushes nothing and releases the client.
func (p *Publisher) Close() {
	if p.client != nil {
		p.client.Close()
	}
}

// Nop discards events. It is used when no brokers are configured.
type Nop struct{}

// Publish implements domain.EventPublisher.
func (Nop) Publish(domain.Context, domain.InterviewEvent) error { return nil }

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaPublisher writes lifecycle events to a Kafka topic keyed by issue so
// consumers see a single issue's events in order. Production is asynchronous;
// delivery errors surface through the logger, never to the request path.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewKafkaPublisher connects to the brokers and ensures the topic exists.
func NewKafkaPublisher(ctx context.Context, brokers []string, topic string, logger *slog.Logger) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchMaxBytes(1<<20),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx); err != nil {
		client.Close()
		return nil, fmt.Errorf("kafka ping failed: %w", err)
	}

	if err := ensureTopic(pingCtx, client, topic); err != nil {
		client.Close()
		return nil, err
	}

	return &KafkaPublisher{client: client, topic: topic, logger: logger}, nil
}

// ensureTopic creates the events topic when it does not exist yet. Already-
// exists responses are fine; any other creation error is fatal at startup.
func ensureTopic(ctx context.Context, client *kgo.Client, topic string) error {
	adm := kadm.NewClient(client)

	topics, err := adm.ListTopics(ctx, topic)
	if err != nil {
		return fmt.Errorf("list kafka topics: %w", err)
	}
	if topics.Has(topic) {
		return nil
	}

	resp, err := adm.CreateTopic(ctx, 3, 1, nil, topic)
	if err != nil {
		return fmt.Errorf("create kafka topic %q: %w", topic, err)
	}
	if resp.Err != nil && !topics.Has(topic) {
		return fmt.Errorf("create kafka topic %q: %w", topic, resp.Err)
	}
	return nil
}

// Emit produces the event without waiting for the broker acknowledgement.
func (p *KafkaPublisher) Emit(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.IssueID),
		Value: payload,
	}
	p.client.Produce(ctx, record, p.onDelivery)
	return nil
}

// onDelivery runs on the producer goroutine once the broker acks or refuses
// the record. Failures are logged; the triggering operation is long gone.
func (p *KafkaPublisher) onDelivery(record *kgo.Record, err error) {
	if err == nil || p.logger == nil {
		return
	}
	p.logger.Warn("kafka event delivery failed",
		"topic", record.Topic,
		"key", string(record.Key),
		"error", err,
	)
}

// Close flushes outstanding records and releases the client.
func (p *KafkaPublisher) Close() {
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = p.client.Flush(flushCtx)
	p.client.Close()
}

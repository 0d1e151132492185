// Package events publishes committed transitions to a Kafka topic so other
// back office systems can react without polling the audit log.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"shopflow/internal/workflow/ports"
)

// FailureObserver counts events that never reached the feed. Wired to
// metrics in production.
type FailureObserver interface {
	Inc()
}

// Publisher buffers transition events and produces them asynchronously.
// The feed is best effort: Enqueue never blocks a transition, and a full
// buffer drops the event rather than stalling the request path. The audit
// log, not the feed, is the durable record.
type Publisher struct {
	client   *kgo.Client
	topic    string
	queue    chan ports.TransitionEvent
	logger   *slog.Logger
	failures FailureObserver

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Option configures the Publisher.
type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithFailureObserver(o FailureObserver) Option {
	return func(p *Publisher) {
		p.failures = o
	}
}

// WithBufferSize sets the Enqueue buffer. Defaults to 1024.
func WithBufferSize(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.queue = make(chan ports.TransitionEvent, n)
		}
	}
}

func New(brokers []string, topic string, opts ...Option) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic is required")
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	p := &Publisher{
		client: client,
		topic:  topic,
		queue:  make(chan ports.TransitionEvent, 1024),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.wg.Add(1)
	go p.run()
	return p, nil
}

// EnsureTopic creates the feed topic if it does not exist yet.
func (p *Publisher) EnsureTopic(ctx context.Context, partitions int32, replication int16) error {
	adm := kadm.NewClient(p.client)
	resps, err := adm.CreateTopics(ctx, partitions, replication, nil, p.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", p.topic, err)
	}
	for _, resp := range resps {
		if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", resp.Topic, resp.Err)
		}
	}
	return nil
}

// Enqueue implements ports.EventPublisher. When the buffer is full the
// event is dropped and counted; the caller is never delayed.
func (p *Publisher) Enqueue(event ports.TransitionEvent) {
	select {
	case p.queue <- event:
	default:
		p.observeFailure()
		if p.logger != nil {
			p.logger.Warn("event feed buffer full, dropping transition event",
				"event_id", event.EventID,
				"entity_type", event.EntityType,
				"entity_id", event.EntityID,
			)
		}
	}
}

// Close drains the buffer, flushes in-flight produces, and releases the
// client. Enqueue must not be called after Close.
func (p *Publisher) Close(ctx context.Context) error {
	var err error
	p.closeOnce.Do(func() {
		close(p.queue)
		p.wg.Wait()
		err = p.client.Flush(ctx)
		p.client.Close()
	})
	return err
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for event := range p.queue {
		p.produce(event)
	}
}

func (p *Publisher) produce(event ports.TransitionEvent) {
	value, err := json.Marshal(event)
	if err != nil {
		p.observeFailure()
		if p.logger != nil {
			p.logger.Error("failed to encode transition event", "event_id", event.EventID, "error", err)
		}
		return
	}

	record := &kgo.Record{
		// Key by entity so every consumer sees one entity's transitions
		// in order.
		Key:   []byte(event.EntityID),
		Value: value,
	}
	p.client.Produce(context.Background(), record, func(_ *kgo.Record, err error) {
		if err == nil {
			return
		}
		p.observeFailure()
		if p.logger != nil {
			p.logger.Error("failed to publish transition event",
				"event_id", event.EventID,
				"topic", p.topic,
				"error", err,
			)
		}
	})
}

func (p *Publisher) observeFailure() {
	if p.failures != nil {
		p.failures.Inc()
	}
}

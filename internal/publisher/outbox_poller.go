// Package publisher relays order lifecycle events from the outbox table to Kafka.
package publisher

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/metrics"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/repository"
)

const (
	DefaultTopic     = "order-events"
	DefaultBatchSize = 100
)

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type OutboxPoller struct {
	timeout   time.Duration
	eventTick time.Duration
	batchSize int
	repo      repository.OutboxRepository
	writer    MessageWriter
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

func NewKafkaWriter(topic string, brokers ...string) *kafka.Writer {
	if topic == "" {
		topic = DefaultTopic
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
}

// NewOutboxPoller builds a relay. The hash balancer keeps every event of one
// order on the same partition.
func NewOutboxPoller(repo repository.OutboxRepository, writer MessageWriter, interval time.Duration, batchSize int, m *metrics.Metrics, logger zerolog.Logger) *OutboxPoller {
	if interval <= 0 {
		interval = time.Second
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &OutboxPoller{
		timeout:   5 * time.Second,
		eventTick: interval,
		batchSize: batchSize,
		repo:      repo,
		writer:    writer,
		metrics:   m,
		logger:    logger.With().Str("component", "outbox").Logger(),
	}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.eventTick)
	defer eventTicker.Stop()
	for {
		select {
		case <-eventTicker.C:
			p.processUnpublishedEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) Close() error {
	return p.writer.Close()
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	events, err := p.repo.GetUnprocessedEvents(ctx, p.batchSize)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to fetch outbox events")
		return 0
	}

	published := 0
	for _, event := range events {
		if err := p.publishToKafka(ctx, event); err != nil {
			p.metrics.EventFailed()
			p.logger.Error().Err(err).Int64("event_id", event.ID).Str("event_type", event.EventType).Msg("failed to publish event")
			// later events of the same order must wait for this one
			break
		}

		if err := p.repo.MarkEventAsProcessed(ctx, event.ID); err != nil {
			p.logger.Error().Err(err).Int64("event_id", event.ID).Msg("failed to mark event as processed")
			break
		}
		p.metrics.EventPublished()
		published++
	}
	return published
}

func (p *OutboxPoller) publishToKafka(ctx context.Context, event *repository.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateID), // order id for per-order ordering
		Value: event.Payload,
		Time:  event.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}

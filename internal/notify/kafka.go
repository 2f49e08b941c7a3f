// Package notify publishes finished summaries to downstream consumers.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/pulsecheck/internal/contract"
	"github.com/huangsam/pulsecheck/schema"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ReportGeneratedEvent is the event type carried by every digest.
const ReportGeneratedEvent = "report.generated"

// writeTimeout bounds a single publish so a dead broker cannot hang the CLI.
const writeTimeout = 10 * time.Second

// messageWriter is the subset of *kafka.Writer used by the publisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher sends a digest of each summary to a Kafka topic.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger *zap.Logger
	now    func() time.Time
}

var _ contract.Publisher = &KafkaPublisher{} // Compile-time check

// NewKafkaPublisher creates a publisher writing to topic on the given brokers.
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("no brokers provided")
	}
	if topic == "" {
		return nil, errors.New("no topic provided")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // same as-of day, same partition
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
	return newKafkaPublisherWithWriter(w, topic, logger), nil
}

func newKafkaPublisherWithWriter(w messageWriter, topic string, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaPublisher{
		writer: w,
		topic:  topic,
		logger: logger.With(zap.String("component", "kafka-publisher")),
		now:    time.Now,
	}
}

// Publish writes one report.generated message for summary.
func (p *KafkaPublisher) Publish(ctx context.Context, summary schema.AnalysisSummary) error {
	digest := NewDigest(summary, uuid.NewString(), p.now())
	value, err := json.Marshal(digest)
	if err != nil {
		return fmt.Errorf("encode digest: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(digest.AsOf),
		Value: value,
		Time:  digest.GeneratedAt,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(ReportGeneratedEvent)},
			{Key: "id", Value: []byte(digest.ID)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Warn("publish failed", zap.String("topic", p.topic), zap.Error(err))
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}
	p.logger.Info("published digest",
		zap.String("topic", p.topic),
		zap.String("id", digest.ID),
		zap.String("as_of", digest.AsOf),
		zap.Int("recommendations", len(digest.Recommendations)))
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

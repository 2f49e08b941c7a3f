package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/huangsam/pulsecheck/schema"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func testSummary() schema.AnalysisSummary {
	end := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	return schema.AnalysisSummary{
		Range:    schema.NewDateRange(end, 30),
		AsOf:     end,
		DayCount: 29,
		Metrics: []schema.MetricSummary{
			{Metric: schema.RestingHR, Trend: &schema.TrendResult{Metric: schema.RestingHR, Direction: schema.Declining}},
			{Metric: schema.VO2MaxMetric},
		},
		Recommendations: []schema.Recommendation{
			{Rule: "elevated_rhr", Category: schema.RecoveryAdvice, Priority: schema.HighPriority, Message: "Resting HR is up 4 bpm"},
			{Rule: "short_sleep", Category: schema.SleepAdvice, Priority: schema.MediumPriority, Message: "Sleep averages 6.2 h"},
		},
		Metadata: schema.Metadata{DroppedRecords: 3},
	}
}

func TestNewDigest(t *testing.T) {
	now := time.Date(2026, 1, 16, 8, 0, 0, 0, time.FixedZone("CET", 3600))
	d := NewDigest(testSummary(), "abc", now)

	assert.Equal(t, ReportGeneratedEvent, d.Event)
	assert.Equal(t, "abc", d.ID)
	assert.Equal(t, time.UTC, d.GeneratedAt.Location())
	assert.Equal(t, "2026-01-15", d.AsOf)
	assert.Equal(t, "2025-12-17", d.Start)
	assert.Equal(t, 29, d.DayCount)
	assert.Equal(t, map[schema.Metric]string{schema.RestingHR: "declining", schema.VO2MaxMetric: "n/a"}, d.Trends)
	assert.Equal(t, []string{"[HIGH] Recovery: Resting HR is up 4 bpm", "[MEDIUM] Sleep: Sleep averages 6.2 h"}, d.Recommendations)
	assert.Equal(t, 1, d.Priorities[schema.HighPriority])
	assert.Equal(t, 3, d.DroppedRecords)
}

func TestNewDigestEmptySummary(t *testing.T) {
	d := NewDigest(schema.AnalysisSummary{}, "id", time.Now())
	assert.Equal(t, "n/a", d.AsOf)
	assert.NotNil(t, d.Recommendations)

	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"recommendations":[]`)
}

func TestKafkaPublisherPublish(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisherWithWriter(w, "pulsecheck.reports", zap.NewNop())
	p.now = func() time.Time { return time.Date(2026, 1, 16, 7, 0, 0, 0, time.UTC) }

	require.NoError(t, p.Publish(context.Background(), testSummary()))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, []byte("2026-01-15"), msg.Key)
	assert.Equal(t, "event", msg.Headers[0].Key)
	assert.Equal(t, []byte(ReportGeneratedEvent), msg.Headers[0].Value)

	var d Digest
	require.NoError(t, json.Unmarshal(msg.Value, &d))
	assert.Equal(t, "2026-01-15", d.AsOf)
	assert.Len(t, d.ID, 36)
	assert.Equal(t, string(msg.Headers[1].Value), d.ID)
	assert.Len(t, d.Recommendations, 2)
}

func TestKafkaPublisherPublishError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := newKafkaPublisherWithWriter(w, "reports", nil)

	err := p.Publish(context.Background(), testSummary())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish to reports")
	assert.ErrorIs(t, err, w.err)
}

func TestKafkaPublisherClose(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisherWithWriter(w, "reports", nil)
	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestNewKafkaPublisher(t *testing.T) {
	_, err := NewKafkaPublisher(nil, "reports", nil)
	assert.EqualError(t, err, "no brokers provided")

	_, err = NewKafkaPublisher([]string{"localhost:9092"}, "", nil)
	assert.EqualError(t, err, "no topic provided")

	p, err := NewKafkaPublisher([]string{"localhost:9092"}, "reports", zap.NewNop())
	require.NoError(t, err)
	kw, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "reports", kw.Topic)
	assert.NoError(t, p.Close())
}

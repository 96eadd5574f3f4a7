package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaStream mirrors access-log entries to a Kafka topic so the compliance
// pipeline sees them without polling the database. Produce is synchronous;
// the Recorder treats a publish failure the same as a store failure.
type KafkaStream struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewKafkaStream connects to brokers and ensures the topic exists. Returns
// (nil, nil) when no brokers are configured so callers can wire the stream
// unconditionally.
func NewKafkaStream(ctx context.Context, brokers []string, topic string, logger *slog.Logger) (*KafkaStream, error) {
	if len(brokers) == 0 {
		return nil, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RecordPartitioner(kgo.StickyKeyPartitioner(nil)),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	if err := ensureTopic(ctx, client, topic); err != nil {
		client.Close()
		return nil, err
	}

	logger.Info("audit stream connected", "topic", topic, "brokers", len(brokers))
	return &KafkaStream{client: client, topic: topic, logger: logger}, nil
}

func ensureTopic(ctx context.Context, client *kgo.Client, topic string) error {
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopic(ctx, -1, -1, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %q: %w", topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %q: %w", topic, resp.Err)
	}
	return nil
}

// Publish sends one entry, keyed by user so a reviewer's activity stays
// ordered within a partition.
func (s *KafkaStream) Publish(ctx context.Context, entry Entry) error {
	value, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(entry.UserID),
		Value: value,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce entry: %w", err)
	}
	return nil
}

func (s *KafkaStream) Close() {
	if s != nil && s.client != nil {
		s.client.Close()
	}
}

var _ Stream = (*KafkaStream)(nil)

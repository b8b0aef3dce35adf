package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"insight-explorer/internal/logger"

	kafkago "github.com/segmentio/kafka-go"
)

const (
	publishTimeout = 5 * time.Second

	// Events are published inline with the request, one at a time; the writer
	// must flush each one immediately instead of waiting to fill a batch.
	publishBatchSize    = 1
	publishBatchTimeout = 10 * time.Millisecond
)

// Config holds the broker connection settings
type Config struct {
	BootstrapServers string
	Topic            string
}

// messageWriter is the subset of kafka.Writer the service uses
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Service publishes workflow events. With no bootstrap servers configured it
// accepts and drops every message.
type Service struct {
	writer messageWriter
	topic  string
}

// NewService creates a Kafka publisher for the configured topic
func NewService(cfg Config) *Service {
	brokers := splitServers(cfg.BootstrapServers)
	if len(brokers) == 0 {
		logger.Log.Warn("No Kafka bootstrap servers configured, workflow events will not be published")
		return &Service{topic: cfg.Topic}
	}

	return &Service{
		writer: &kafkago.Writer{
			Addr:                   kafkago.TCP(brokers...),
			Topic:                  cfg.Topic,
			Balancer:               &kafkago.Hash{},
			RequiredAcks:           kafkago.RequireOne,
			AllowAutoTopicCreation: true,
			WriteTimeout:           publishTimeout,
			BatchSize:              publishBatchSize,
			BatchTimeout:           publishBatchTimeout,
		},
		topic: cfg.Topic,
	}
}

// Enabled reports whether events are actually sent to a broker
func (s *Service) Enabled() bool {
	return s.writer != nil
}

// PublishWorkflowEvent encodes message as JSON and writes it to the topic.
// Messages exposing a session id are keyed by it so a session's events stay
// ordered within one partition.
func (s *Service) PublishWorkflowEvent(message interface{}) error {
	if s.writer == nil {
		return nil
	}

	value, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to encode workflow event: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	msg := kafkago.Message{
		Key:   messageKey(value),
		Value: value,
		Time:  time.Now().UTC(),
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", s.topic, err)
	}

	logger.Log.WithFields(map[string]interface{}{
		"topic":      s.topic,
		"size_bytes": len(value),
	}).Debug("Workflow event published")
	return nil
}

// Close flushes and closes the writer
func (s *Service) Close() error {
	if s.writer == nil {
		return nil
	}
	return s.writer.Close()
}

func messageKey(value []byte) []byte {
	var keyed struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(value, &keyed); err != nil || keyed.SessionID == "" {
		return nil
	}
	return []byte(keyed.SessionID)
}

func splitServers(raw string) []string {
	var servers []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			servers = append(servers, s)
		}
	}
	return servers
}

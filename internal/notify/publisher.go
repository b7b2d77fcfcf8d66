package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

var (
	// ErrPublisherClosed is returned when publishing after Close.
	ErrPublisherClosed = errors.New("notify: publisher is closed")
)

// Publisher delivers a batch of events. A nil error means every event was accepted.
type Publisher interface {
	Publish(ctx context.Context, events []Event) error
}

// KafkaConfig configures the Kafka publisher.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	MaxAttempts  int
	BatchTimeout time.Duration
}

// messageWriter is the subset of *kafka.Writer used by KafkaPublisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events keyed by recipient so one user's
// notifications keep their order within a partition.
type KafkaPublisher struct {
	writer messageWriter
	mu     sync.RWMutex
	closed bool
}

// NewKafkaPublisher creates a publisher for cfg.
func NewKafkaPublisher(cfg KafkaConfig) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("notify: at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("notify: topic cannot be empty")
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 100 * time.Millisecond
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  cfg.MaxAttempts,
		BatchTimeout: cfg.BatchTimeout,
		Logger:       kafka.LoggerFunc(func(string, ...any) {}),
	}
	return newKafkaPublisher(writer), nil
}

func newKafkaPublisher(writer messageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

// Publish writes the events as one batch.
func (p *KafkaPublisher) Publish(ctx context.Context, events []Event) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}
	if len(events) == 0 {
		return nil
	}

	messages := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		payload, err := event.Encode()
		if err != nil {
			return fmt.Errorf("notify: encode event %s: %w", event.ID, err)
		}
		messages = append(messages, kafka.Message{
			Key:   []byte(event.UserID),
			Value: payload,
			Time:  event.CreatedAt,
			Headers: []kafka.Header{
				{Key: HeaderEventID, Value: []byte(event.ID)},
				{Key: HeaderEventType, Value: []byte(event.Type)},
				{Key: HeaderSource, Value: []byte(eventSource)},
			},
		})
	}
	return p.writer.WriteMessages(ctx, messages...)
}

// Close flushes pending writes and releases the connection.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.writer.Close()
}

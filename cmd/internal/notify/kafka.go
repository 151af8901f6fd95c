package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"
)

// KafkaConfig configures the Kafka publisher and its circuit breaker.
type KafkaConfig struct {
	Brokers []string
	Topic   string

	BatchTimeout time.Duration

	// Breaker trips when FailureRatio of at least MinRequests calls fail,
	// and stays open for OpenTimeout.
	MinRequests  uint32
	FailureRatio float64
	OpenTimeout  time.Duration
}

// DefaultKafkaConfig returns defaults for brokers.
func DefaultKafkaConfig(brokers []string) KafkaConfig {
	return KafkaConfig{
		Brokers:      brokers,
		Topic:        "nra.auth.verification-requested",
		BatchTimeout: 10 * time.Millisecond,
		MinRequests:  5,
		FailureRatio: 0.5,
		OpenTimeout:  30 * time.Second,
	}
}

// ErrUnavailable is returned while the breaker is open.
var ErrUnavailable = errors.New("notify: publisher unavailable")

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to Kafka behind a circuit breaker.
type KafkaPublisher struct {
	writer  messageWriter
	topic   string
	breaker *gobreaker.CircuitBreaker[struct{}]
	logger  *slog.Logger
}

// NewKafkaPublisher creates a publisher writing to cfg.Topic.
func NewKafkaPublisher(cfg KafkaConfig, logger *slog.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("notify: no kafka brokers configured")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: cfg.BatchTimeout,
		RequiredAcks: kafka.RequireAll,
	}
	return newKafkaPublisher(w, cfg, logger), nil
}

func newKafkaPublisher(w messageWriter, cfg KafkaConfig, logger *slog.Logger) *KafkaPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	settings := gobreaker.Settings{
		Name:        "kafka:" + cfg.Topic,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("notify.breaker.state",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}
	return &KafkaPublisher{
		writer:  w,
		topic:   cfg.Topic,
		breaker: gobreaker.NewCircuitBreaker[struct{}](settings),
		logger:  logger,
	}
}

// PublishVerification writes ev keyed by user id.
func (p *KafkaPublisher) PublishVerification(ctx context.Context, ev VerificationRequested) error {
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("notify: marshal event: %w", err)
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(ev.UserID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("verification.requested")},
			{Key: "event_id", Value: []byte(ev.EventID)},
		},
	}

	_, err = p.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, p.writer.WriteMessages(ctx, msg)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrUnavailable
	}
	if err != nil {
		return fmt.Errorf("notify: publish to %s: %w", p.topic, err)
	}

	p.logger.DebugContext(ctx, "notify.verification.published",
		"topic", p.topic,
		"event_id", ev.EventID,
		"user_id", ev.UserID,
	)
	return nil
}

// Close flushes pending messages.
func (p *KafkaPublisher) Close() error { return p.writer.Close() }

var (
	_ Publisher = Noop{}
	_ Publisher = (*KafkaPublisher)(nil)
)

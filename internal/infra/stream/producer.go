package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	dompurchase "github.com/SebasTaclar/appstorepro-back/internal/domain/purchase"
)

// Producer publishes purchase events through a buffered inbox so request
// handling never blocks on the broker.
type Producer struct {
	w       *kafka.Writer
	inbox   chan kafka.Message
	closeCh chan struct{}
	service string

	mu     sync.Mutex
	closed bool
}

func NewProducer(brokers []string, topic, service string, buf int) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
		service: service,
	}
}

func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		for {
			select {
			case <-ctx.Done():
				p.drain()
				return
			case m, ok := <-p.inbox:
				if !ok {
					_ = p.w.Close()
					return
				}
				p.write(m)
			}
		}
	}()
}

// Publish wraps the payload in an envelope and queues it. Events are
// fire-and-forget: a full inbox drops the message with a log line rather
// than stalling the purchase flow.
func (p *Producer) Publish(ctx context.Context, eventType, correlationID string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		slog.ErrorContext(ctx, "event payload marshal failed", "event_type", eventType, "error", err)
		return
	}
	env := dompurchase.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      p.service,
		CorrelationID: correlationID,
		Payload:       raw,
	}
	value, err := json.Marshal(env)
	if err != nil {
		slog.ErrorContext(ctx, "event envelope marshal failed", "event_type", eventType, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   dompurchase.PartitionKey(correlationID),
		Value: value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "x-event-type", Value: []byte(eventType)},
			{Key: "x-event-version", Value: []byte("1")},
		},
	}

	// A handler can outlive the shutdown drain; the mutex keeps this send
	// from racing the inbox close.
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		slog.WarnContext(ctx, "producer closed, dropping event", "event_type", eventType, "correlation_id", correlationID)
		return
	}
	select {
	case p.inbox <- msg:
	default:
		slog.WarnContext(ctx, "event inbox full, dropping event", "event_type", eventType, "correlation_id", correlationID)
	}
}

func (p *Producer) write(m kafka.Message) {
	if err := p.w.WriteMessages(context.Background(), m); err != nil {
		slog.Error("event publish failed", "error", err)
	}
}

func (p *Producer) drain() {
	p.mu.Lock()
	p.closed = true
	close(p.inbox)
	p.mu.Unlock()
	for m := range p.inbox {
		p.write(m)
	}
	_ = p.w.Close()
}

// Close stops accepting events and flushes whatever is queued.
func (p *Producer) Close() { <-p.closeCh }

package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"sahaayak/internal/metrics"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	defaultQueueSize    = 256
	defaultWriteTimeout = 5 * time.Second
	drainTimeout        = 10 * time.Second
)

// ErrQueueFull is returned when the publisher is too far behind to accept another event
var ErrQueueFull = errors.New("event queue full")

// ErrPublisherClosed is returned by Publish after Close
var ErrPublisherClosed = errors.New("event publisher closed")

// messageWriter is the subset of *kafka.Writer the publisher needs
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// kafkaPublisher hands events to a single background writer so callers never wait on the broker.
// One writer keeps each vendor's events in order.
type kafkaPublisher struct {
	writer       messageWriter
	logger       *zap.Logger
	writeTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan queued

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

type queued struct {
	eventType string
	msg       kafka.Message
}

// NewKafkaPublisher publishes JSON events to topic; with no brokers it returns a no-op publisher
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) Publisher {
	if len(brokers) == 0 {
		logger.Info("Kafka brokers not configured, event publishing disabled")
		return NewNopPublisher()
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: defaultWriteTimeout,
		ReadTimeout:  defaultWriteTimeout,
	}

	return newKafkaPublisher(writer, logger, defaultQueueSize, defaultWriteTimeout)
}

func newKafkaPublisher(writer messageWriter, logger *zap.Logger, queueSize int, writeTimeout time.Duration) *kafkaPublisher {
	ctx, cancel := context.WithCancel(context.Background())
	p := &kafkaPublisher{
		writer:       writer,
		logger:       logger,
		writeTimeout: writeTimeout,
		queue:        make(chan queued, queueSize),
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}
	go p.run()
	return p
}

// Publish queues event keyed by vendor id. It never blocks: when the queue is full the event is dropped
// and ErrQueueFull returned.
func (p *kafkaPublisher) Publish(_ context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	item := queued{
		eventType: event.Type,
		msg: kafka.Message{
			Key:   []byte(event.VendorID.String()),
			Value: value,
			Time:  event.OccurredAt,
			Headers: []kafka.Header{
				{Key: "event-type", Value: []byte(event.Type)},
			},
		},
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	select {
	case p.queue <- item:
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *kafkaPublisher) run() {
	defer close(p.done)
	for item := range p.queue {
		ctx, cancel := context.WithTimeout(p.ctx, p.writeTimeout)
		err := p.writer.WriteMessages(ctx, item.msg)
		cancel()

		if err != nil {
			metrics.EventsPublishFailedTotal.WithLabelValues(item.eventType).Inc()
			p.logger.Warn("Failed to write event to kafka",
				zap.String("type", item.eventType),
				zap.String("vendor_id", string(item.msg.Key)),
				zap.Error(err),
			)
			continue
		}

		p.logger.Debug("Published event",
			zap.String("type", item.eventType),
			zap.String("vendor_id", string(item.msg.Key)),
		)
	}
}

// Close stops accepting events and flushes what is queued, giving up on the backlog after drainTimeout
func (p *kafkaPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	select {
	case <-p.done:
	case <-time.After(drainTimeout):
		p.logger.Warn("Event backlog not flushed before shutdown", zap.Int("pending", len(p.queue)))
		p.cancel()
		<-p.done
	}
	p.cancel()

	return p.writer.Close()
}

package kafka

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer buffers messages in an inbox and writes them from one goroutine.
// Topic dipilih per message, jadi satu producer cukup untuk semua topic.
type Producer struct {
	w       messageWriter
	logger  *logrus.Logger
	inbox   chan kafka.Message
	closeCh chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewProducer(brokers []string, buf int, logger *logrus.Logger) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        true, // fire-and-forget; error dilaporkan lewat Completion
	}
	w.Completion = func(msgs []kafka.Message, err error) {
		if err != nil {
			logger.WithError(err).WithField("messages", len(msgs)).Error("kafka write failed")
		}
	}
	return newProducer(w, buf, logger)
}

func newProducer(w messageWriter, buf int, logger *logrus.Logger) *Producer {
	if buf <= 0 {
		buf = 1
	}
	return &Producer{
		w:       w,
		logger:  logger,
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
	}
}

func (p *Producer) Start() {
	go func() {
		defer close(p.closeCh)
		for m := range p.inbox {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := p.w.WriteMessages(ctx, m); err != nil {
				p.logger.WithError(err).WithField("topic", m.Topic).Error("kafka publish failed")
			}
			cancel()
		}
		if err := p.w.Close(); err != nil {
			p.logger.WithError(err).Warn("kafka writer close")
		}
	}()
}

func (p *Producer) Publish(topic string, key, value []byte, headers ...kafka.Header) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.logger.WithField("topic", topic).Warn("producer closed, message dropped")
		return
	}
	p.inbox <- kafka.Message{
		Topic:   topic,
		Key:     key,
		Value:   value,
		Time:    time.Now(),
		Headers: headers,
	}
}

// PublishJSON marshals v and tags it with the event type/version headers.
func (p *Producer) PublishJSON(topic string, key []byte, eventType string, v any) {
	b, err := Marshal(v)
	if err != nil {
		p.logger.WithError(err).WithField("event_type", eventType).Error("marshal event")
		return
	}
	p.Publish(topic, key, b,
		kafka.Header{Key: HeaderEventType, Value: []byte(eventType)},
		kafka.Header{Key: HeaderEventVersion, Value: []byte(strconv.Itoa(1))},
	)
}

// Tutup inbox supaya goroutine nge-flush sisa pesan lalu exit rapi.
func (p *Producer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.inbox)
}

// Tunggu sampai goroutine selesai.
func (p *Producer) WaitClosed() { <-p.closeCh }

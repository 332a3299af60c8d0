package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/trogers1052/stock-tracker/internal/models"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer handles publishing domain events to Kafka
type Producer struct {
	writer messageWriter
	topic  string
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
	}
}

// PublishAlertTriggered publishes an alert triggered event
func (p *Producer) PublishAlertTriggered(ctx context.Context, alert *models.Alert) error {
	event := newEvent(models.EventAlertTriggered, alert.Symbol, alert.Username)
	event.Alert = alert
	return p.publish(ctx, alert.Symbol, event)
}

// PublishHoldingAdded publishes a holding added event
func (p *Producer) PublishHoldingAdded(ctx context.Context, holding *models.Holding) error {
	event := newEvent(models.EventHoldingAdded, holding.Symbol, holding.Username)
	event.Holding = holding
	return p.publish(ctx, holding.Symbol, event)
}

// PublishHoldingRemoved publishes a holding removed event
func (p *Producer) PublishHoldingRemoved(ctx context.Context, holding *models.Holding) error {
	event := newEvent(models.EventHoldingRemoved, holding.Symbol, holding.Username)
	event.Holding = holding
	return p.publish(ctx, holding.Symbol, event)
}

func newEvent(eventType, symbol, username string) models.Event {
	return models.Event{
		ID:        uuid.NewString(),
		EventType: eventType,
		Symbol:    symbol,
		Username:  username,
		Timestamp: time.Now().UTC(),
	}
}

func (p *Producer) publish(ctx context.Context, key string, event models.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

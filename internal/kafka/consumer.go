package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/stock-tracker/internal/models"
)

// QuoteHandler receives live quotes pulled off the bus
type QuoteHandler interface {
	EvaluateQuote(ctx context.Context, symbol string, price, previousClose decimal.Decimal) error
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
	Config() kafka.ReaderConfig
}

// Consumer reads QUOTE events and hands them to the alert evaluator.
// Other event types on the topic are ignored.
type Consumer struct {
	reader  messageReader
	handler QuoteHandler
}

// NewConsumer creates a new Kafka consumer for quote events
func NewConsumer(brokers []string, topic, groupID string, handler QuoteHandler) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.LastOffset,
		CommitInterval: time.Second,
	})

	return &Consumer{
		reader:  reader,
		handler: handler,
	}
}

// Start begins consuming messages until ctx is cancelled
func (c *Consumer) Start(ctx context.Context) error {
	slog.Info("starting kafka consumer", "topic", c.reader.Config().Topic)

	for {
		select {
		case <-ctx.Done():
			slog.Info("kafka consumer shutting down")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return c.reader.Close()
				}
				slog.Error("error reading message", "error", err)
				continue
			}

			if err := c.processMessage(ctx, msg); err != nil {
				slog.Error("error processing message",
					"partition", msg.Partition, "offset", msg.Offset, "error", err)
			}
		}
	}
}

// processMessage handles a single Kafka message
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) error {
	var event models.Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	if event.EventType != models.EventQuote {
		slog.Debug("ignoring event", "event_type", event.EventType)
		return nil
	}

	symbol, price, prevClose, err := parseQuote(event)
	if err != nil {
		return err
	}

	if err := c.handler.EvaluateQuote(ctx, symbol, price, prevClose); err != nil {
		return fmt.Errorf("failed to evaluate quote for %s: %w", symbol, err)
	}
	return nil
}

func parseQuote(event models.Event) (string, decimal.Decimal, decimal.Decimal, error) {
	symbol := strings.ToUpper(strings.TrimSpace(event.Symbol))
	if symbol == "" {
		return "", decimal.Zero, decimal.Zero, errors.New("quote event without symbol")
	}
	if event.Quote == nil {
		return "", decimal.Zero, decimal.Zero, fmt.Errorf("quote event for %s without payload", symbol)
	}

	price, err := decimal.NewFromString(event.Quote.Price)
	if err != nil {
		return "", decimal.Zero, decimal.Zero, fmt.Errorf("invalid price %q: %w", event.Quote.Price, err)
	}

	prevClose := decimal.Zero
	if event.Quote.PreviousClose != "" {
		prevClose, err = decimal.NewFromString(event.Quote.PreviousClose)
		if err != nil {
			return "", decimal.Zero, decimal.Zero, fmt.Errorf("invalid previous close %q: %w", event.Quote.PreviousClose, err)
		}
	}
	return symbol, price, prevClose, nil
}

// Close closes the Kafka consumer
func (c *Consumer) Close() error {
	return c.reader.Close()
}

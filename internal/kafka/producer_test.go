package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/stock-tracker/internal/models"
)

type mockWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *mockWriter) Close() error {
	w.closed = true
	return nil
}

func decodeEvent(t *testing.T, msg kafka.Message) models.Event {
	t.Helper()
	var event models.Event
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	return event
}

func TestProducer(t *testing.T) {
	ctx := context.Background()

	t.Run("PublishAlertTriggered keys by symbol", func(t *testing.T) {
		w := &mockWriter{}
		p := &Producer{writer: w, topic: "events"}

		alert := &models.Alert{
			ID: 3, Username: "alice", Symbol: "AAPL", RuleType: models.RuleTypePrice,
			Comparison: models.OpGreaterOrEqual, Threshold: decimal.NewFromInt(100),
			State: models.AlertStateTriggered,
		}
		require.NoError(t, p.PublishAlertTriggered(ctx, alert))

		require.Len(t, w.msgs, 1)
		assert.Equal(t, "AAPL", string(w.msgs[0].Key))

		event := decodeEvent(t, w.msgs[0])
		assert.Equal(t, models.EventAlertTriggered, event.EventType)
		assert.Equal(t, "alice", event.Username)
		assert.NotEmpty(t, event.ID)
		require.NotNil(t, event.Alert)
		assert.Equal(t, 3, event.Alert.ID)
		assert.True(t, event.Alert.Threshold.Equal(decimal.NewFromInt(100)))
	})

	t.Run("holding events carry the holding", func(t *testing.T) {
		w := &mockWriter{}
		p := &Producer{writer: w}

		h := &models.Holding{ID: 9, Username: "bob", Symbol: "MSFT", Quantity: decimal.NewFromInt(2)}
		require.NoError(t, p.PublishHoldingAdded(ctx, h))
		require.NoError(t, p.PublishHoldingRemoved(ctx, h))

		require.Len(t, w.msgs, 2)
		added := decodeEvent(t, w.msgs[0])
		removed := decodeEvent(t, w.msgs[1])
		assert.Equal(t, models.EventHoldingAdded, added.EventType)
		assert.Equal(t, models.EventHoldingRemoved, removed.EventType)
		assert.Equal(t, 9, removed.Holding.ID)
		assert.NotEqual(t, added.ID, removed.ID)
	})

	t.Run("write failure is wrapped", func(t *testing.T) {
		p := &Producer{writer: &mockWriter{err: errors.New("broker unavailable")}}

		err := p.PublishHoldingAdded(ctx, &models.Holding{Symbol: "AAPL"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to write message to kafka")
	})

	t.Run("Close closes the writer", func(t *testing.T) {
		w := &mockWriter{}
		p := &Producer{writer: w}
		require.NoError(t, p.Close())
		assert.True(t, w.closed)
	})
}

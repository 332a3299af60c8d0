package models

import "time"

// Event type constants published on the event bus
const (
	EventAlertTriggered = "ALERT_TRIGGERED"
	EventHoldingAdded   = "HOLDING_ADDED"
	EventHoldingRemoved = "HOLDING_REMOVED"
	EventQuote          = "QUOTE"
)

// Event is the envelope for everything published to or consumed from Kafka
type Event struct {
	ID        string        `json:"id"`
	EventType string        `json:"event_type"`
	Symbol    string        `json:"symbol"`
	Username  string        `json:"username,omitempty"`
	Alert     *Alert        `json:"alert,omitempty"`
	Holding   *Holding      `json:"holding,omitempty"`
	Quote     *QuotePayload `json:"quote,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// QuotePayload is the body of a QUOTE event. Prices are strings so producers
// can send exact decimal text.
type QuotePayload struct {
	Price         string `json:"price"`
	PreviousClose string `json:"previous_close,omitempty"`
}

// Stock represents core stock information captured from quote responses
type Stock struct {
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	Exchange  string    `json:"exchange,omitempty"`
	Currency  string    `json:"currency,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

package amqp

import (
	"encoding/json"
	"time"
)

// RefreshMessage asks a worker to recompute the summaries of one invoice.
// It carries only the invoice ID; the worker reads the current obligations
// from the database, so stale or duplicated deliveries are harmless.
type RefreshMessage struct {
	InvoiceID string    `json:"invoiceId"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRefreshMessage creates a refresh message for an invoice.
func NewRefreshMessage(invoiceID string) *RefreshMessage {
	return &RefreshMessage{
		InvoiceID: invoiceID,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *RefreshMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RefreshMessageFromJSON creates a message from JSON bytes.
func RefreshMessageFromJSON(data []byte) (*RefreshMessage, error) {
	var msg RefreshMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

package amqp

import (
	"encoding/json"
	"time"
)

// LedgerChangeMessage notifies consumers that the transaction set changed.
// It carries only the action and the affected id; consumers read the full
// record from the document store.
type LedgerChangeMessage struct {
	Action        string    `json:"action"`
	TransactionID string    `json:"transactionId,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewLedgerChangeMessage builds a change message stamped with the current time.
func NewLedgerChangeMessage(action, transactionID string) *LedgerChangeMessage {
	return &LedgerChangeMessage{
		Action:        action,
		TransactionID: transactionID,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *LedgerChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangeMessageFromJSON parses a message from JSON bytes.
func LedgerChangeMessageFromJSON(data []byte) (*LedgerChangeMessage, error) {
	var msg LedgerChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

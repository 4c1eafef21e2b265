package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"organizer/internal/core"
	"organizer/internal/ledger"
)

// MessageVersion is bumped on incompatible changes to LedgerEventMessage.
const MessageVersion = 1

// LedgerEventMessage is the wire form of a ledger.Event. It carries ids only;
// consumers re-read the record so that they never act on stale field values.
type LedgerEventMessage struct {
	Version       int              `json:"version"`
	Type          ledger.EventType `json:"type"`
	TransactionID string           `json:"transactionId"`
	OwnerID       string           `json:"ownerId"`
	Timestamp     time.Time        `json:"timestamp"`
}

// NewLedgerEventMessage converts ev, stamping the current time when ev has none.
func NewLedgerEventMessage(ev ledger.Event) *LedgerEventMessage {
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return &LedgerEventMessage{
		Version:       MessageVersion,
		Type:          ev.Type,
		TransactionID: ev.TransactionID,
		OwnerID:       string(ev.OwnerID),
		Timestamp:     ts,
	}
}

// Event converts the message back to the domain event.
func (m *LedgerEventMessage) Event() ledger.Event {
	return ledger.Event{
		Type:          m.Type,
		TransactionID: m.TransactionID,
		OwnerID:       core.OwnerID(m.OwnerID),
		Timestamp:     m.Timestamp,
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventMessageFromJSON decodes and validates a message body.
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Version > MessageVersion {
		return nil, fmt.Errorf("unsupported message version %d", msg.Version)
	}
	if !msg.Type.IsValid() {
		return nil, fmt.Errorf("unknown event type %q", msg.Type)
	}
	if msg.TransactionID == "" || msg.OwnerID == "" {
		return nil, errors.New("message is missing transaction or owner id")
	}
	return &msg, nil
}

package amqp

import (
	"encoding/json"
	"time"

	"financas/internal/services"
)

// LedgerReplacedMessage announces a new ledger version. It carries no rows:
// consumers load the ledger from the store themselves.
type LedgerReplacedMessage struct {
	Version   string    `json:"version"`
	Rows      int       `json:"rows"`
	Operation string    `json:"operation"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerReplacedMessage builds the message for a service notification.
func NewLedgerReplacedMessage(ev services.LedgerReplaced) *LedgerReplacedMessage {
	ts := ev.At
	if ts.IsZero() {
		ts = time.Now()
	}
	return &LedgerReplacedMessage{
		Version:   ev.Version,
		Rows:      ev.Rows,
		Operation: ev.Operation,
		Timestamp: ts,
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerReplacedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerReplacedMessageFromJSON(data []byte) (*LedgerReplacedMessage, error) {
	var msg LedgerReplacedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

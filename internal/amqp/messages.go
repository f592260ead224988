package amqp

import (
	"encoding/json"
	"time"
)

// MutationSyncMessage is a lightweight notification that an outbox row is
// ready for remote sync. It carries only the outbox id and op; the worker
// fetches the full mutation payload from the database.
type MutationSyncMessage struct {
	ID        int64     `json:"id"`
	Op        string    `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMutationSyncMessage creates a sync message for the given outbox row.
func NewMutationSyncMessage(id int64, op string) *MutationSyncMessage {
	return &MutationSyncMessage{
		ID:        id,
		Op:        op,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *MutationSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MutationSyncMessageFromJSON creates a message from JSON bytes.
func MutationSyncMessageFromJSON(data []byte) (*MutationSyncMessage, error) {
	var msg MutationSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

package amqp

import (
	"encoding/json"
	"time"
)

// MovementSyncMessage asks the worker to push one journaled movement to
// the external ledger. It carries only the journal ID; the worker loads
// the row from storage.
type MovementSyncMessage struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewMovementSyncMessage(id int64) *MovementSyncMessage {
	return &MovementSyncMessage{
		ID:        id,
		Timestamp: time.Now(),
	}
}

func (m *MovementSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func MovementSyncMessageFromJSON(data []byte) (*MovementSyncMessage, error) {
	var msg MovementSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

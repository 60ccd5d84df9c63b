package feed

import (
	"encoding/json"
	"fmt"
	"time"
)

// Entities and operations carried by change messages.
const (
	EntityHead        = "head"
	EntityTransaction = "transaction"

	OpCreated = "created"
	OpUpdated = "updated"
	OpDeleted = "deleted"
)

// RecordChange announces that a stored record changed. Subscribers
// react by replacing their snapshot wholesale; the message carries no
// record payload on purpose.
type RecordChange struct {
	Entity    string    `json:"entity"`
	ID        string    `json:"id"`
	Op        string    `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRecordChange creates a change message stamped with the current time.
func NewRecordChange(entity, id, op string) RecordChange {
	return RecordChange{
		Entity:    entity,
		ID:        id,
		Op:        op,
		Timestamp: time.Now(),
	}
}

func (m RecordChange) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RecordChangeFromJSON(data []byte) (RecordChange, error) {
	var msg RecordChange
	if err := json.Unmarshal(data, &msg); err != nil {
		return RecordChange{}, err
	}
	if msg.Entity == "" || msg.Op == "" {
		return RecordChange{}, fmt.Errorf("malformed change message: %s", data)
	}
	return msg, nil
}

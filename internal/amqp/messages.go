package amqp

import (
	"encoding/json"
	"time"
)

// CategorizeMessage asks the worker to re-run model classification for one
// transaction. It carries only identifiers; the worker fetches the current
// row from the database before classifying.
type CategorizeMessage struct {
	TransactionID int64     `json:"transaction_id"`
	UserID        int64     `json:"user_id"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewCategorizeMessage(transactionID, userID int64) *CategorizeMessage {
	return &CategorizeMessage{
		TransactionID: transactionID,
		UserID:        userID,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *CategorizeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// CategorizeMessageFromJSON creates a message from JSON bytes
func CategorizeMessageFromJSON(data []byte) (*CategorizeMessage, error) {
	var msg CategorizeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

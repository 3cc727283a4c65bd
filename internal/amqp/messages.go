package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// BorrowerChangedMessage announces that a borrower's ledger changed. It
// carries only the id and version stamp; consumers reload the borrower.
type BorrowerChangedMessage struct {
	BorrowerID string    `json:"borrowerId"`
	UpdatedAt  time.Time `json:"updatedAt"`
	Deleted    bool      `json:"deleted,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewBorrowerChangedMessage(borrowerID string, updatedAt time.Time, deleted bool) *BorrowerChangedMessage {
	return &BorrowerChangedMessage{
		BorrowerID: borrowerID,
		UpdatedAt:  updatedAt,
		Deleted:    deleted,
		Timestamp:  time.Now(),
	}
}

func (m *BorrowerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BorrowerChangedMessageFromJSON decodes and checks a message body.
func BorrowerChangedMessageFromJSON(data []byte) (*BorrowerChangedMessage, error) {
	var msg BorrowerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.BorrowerID == "" {
		return nil, errors.New("message has no borrower id")
	}
	return &msg, nil
}

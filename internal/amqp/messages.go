package amqp

import (
	"time"

	"github.com/goccy/go-json"
)

// WeekClosedMessage announces that a week moved into history.
// It carries only the week id; consumers read the full week from the snapshot store.
type WeekClosedMessage struct {
	WeekID    string    `json:"weekId"`
	ClosedAt  time.Time `json:"closedAt"`
	Timestamp time.Time `json:"timestamp"`
}

// NewWeekClosedMessage creates a message for the week closed at closedAt.
func NewWeekClosedMessage(weekID string, closedAt time.Time) *WeekClosedMessage {
	return &WeekClosedMessage{
		WeekID:    weekID,
		ClosedAt:  closedAt,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *WeekClosedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// WeekClosedMessageFromJSON parses a message and rejects one without a week id.
func WeekClosedMessageFromJSON(data []byte) (*WeekClosedMessage, error) {
	var msg WeekClosedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.WeekID == "" {
		return nil, errMissingWeekID
	}
	return &msg, nil
}

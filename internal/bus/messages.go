package bus

import (
	"encoding/json"
	"time"
)

// RefreshMessage tells other instances that an entity changed and their
// cached slices are stale. It carries no row data; consumers re-fetch.
type RefreshMessage struct {
	Entity    string    `json:"entity"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRefreshMessage(entity, userID string) *RefreshMessage {
	return &RefreshMessage{
		Entity:    entity,
		UserID:    userID,
		Timestamp: time.Now(),
	}
}

func (m *RefreshMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RefreshMessageFromJSON(data []byte) (*RefreshMessage, error) {
	var msg RefreshMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

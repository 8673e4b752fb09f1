package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"budgetviz/internal/store"
)

// CollectionChangedMessage announces that a collection was saved. It carries
// no data; consumers read the collection from the primary store.
type CollectionChangedMessage struct {
	Collection store.Collection `json:"collection"`
	Count      int              `json:"count"`
	Timestamp  time.Time        `json:"timestamp"`
}

func NewCollectionChangedMessage(collection store.Collection, count int) *CollectionChangedMessage {
	return &CollectionChangedMessage{
		Collection: collection,
		Count:      count,
		Timestamp:  time.Now(),
	}
}

func (m *CollectionChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// CollectionChangedMessageFromJSON decodes a message and rejects unknown collections.
func CollectionChangedMessageFromJSON(data []byte) (*CollectionChangedMessage, error) {
	var msg CollectionChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !msg.Collection.IsValid() {
		return nil, fmt.Errorf("unknown collection %q", msg.Collection)
	}
	return &msg, nil
}

package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

type MessageType string

const (
	// EntryUpserted: an entry was created or edited.
	EntryUpserted MessageType = "entry.upserted"
	// EntryDeleted: an entry was removed and its mirrored row must go.
	EntryDeleted MessageType = "entry.deleted"
	// ConfigUpdated: the user's cost configuration changed, so every
	// mirrored breakdown of that user is stale.
	ConfigUpdated MessageType = "config.updated"
)

// SyncMessage is a lightweight notification. It carries identifiers only;
// the worker reloads entry and configuration from the store.
type SyncMessage struct {
	Type      MessageType `json:"type"`
	UserID    string      `json:"userId"`
	EntryID   string      `json:"entryId,omitempty"`
	Version   int64       `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
}

func NewEntryUpserted(userID, entryID string, version int64) *SyncMessage {
	return &SyncMessage{Type: EntryUpserted, UserID: userID, EntryID: entryID, Version: version, Timestamp: time.Now()}
}

func NewEntryDeleted(userID, entryID string) *SyncMessage {
	return &SyncMessage{Type: EntryDeleted, UserID: userID, EntryID: entryID, Timestamp: time.Now()}
}

func NewConfigUpdated(userID string, configVersion int64) *SyncMessage {
	return &SyncMessage{Type: ConfigUpdated, UserID: userID, Version: configVersion, Timestamp: time.Now()}
}

// Validate rejects messages the worker could not act on.
func (m *SyncMessage) Validate() error {
	if m.UserID == "" {
		return errors.New("missing user id")
	}
	switch m.Type {
	case EntryUpserted, EntryDeleted:
		if m.EntryID == "" {
			return errors.New("missing entry id")
		}
	case ConfigUpdated:
	default:
		return errors.New("unknown message type " + string(m.Type))
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *SyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SyncMessageFromJSON decodes and validates a message body.
func SyncMessageFromJSON(data []byte) (*SyncMessage, error) {
	var msg SyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}

package models

import (
	"time"
)

// MessageKind tags a message as belonging to a room or to a private channel.
type MessageKind string

const (
	KindGroup   MessageKind = "group"
	KindPrivate MessageKind = "private"
)

// Message represents a chat message. Once appended to a room or channel it is never modified.
type Message struct {
	ID          string      `json:"id"`                    // UUIDv7, ordered by creation time
	Text        string      `json:"text"`                  // Message content
	SenderID    string      `json:"senderId"`              // ID of the user sending the message
	Sender      string      `json:"sender"`                // Display name of the sender at send time
	RoomName    string      `json:"roomName,omitempty"`    // Target room for group messages
	RecipientID string      `json:"recipientId,omitempty"` // Target user for private messages
	Timestamp   time.Time   `json:"timestamp"`             // Timestamp of message creation
	Kind        MessageKind `json:"type"`
}

// Target returns the room name or recipient the message was addressed to.
func (m Message) Target() string {
	if m.Kind == KindPrivate {
		return m.RecipientID
	}
	return m.RoomName
}

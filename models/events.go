package models

import "encoding/json"

// Inbound event names.
const (
	EventLogin             = "login"
	EventJoinRoom          = "join_room"
	EventLeaveRoom         = "leave_room"
	EventGroupMessage      = "group_message"
	EventPrivateMessage    = "private_message"
	EventTypingStart       = "typing_start"
	EventTypingStop        = "typing_stop"
	EventGetPrivateHistory = "get_private_history"
	EventDisconnect        = "disconnect"
)

// Outbound event names.
const (
	EventPresenceUpdated        = "presence_updated"
	EventRoomJoined             = "room_joined"
	EventMemberJoined           = "member_joined"
	EventMemberLeft             = "member_left"
	EventGroupMessagePosted     = "group_message_posted"
	EventPrivateMessageReceived = "private_message_received"
	EventPrivateMessageSent     = "private_message_sent"
	EventTypingStarted          = "typing_started"
	EventTypingStopped          = "typing_stopped"
	EventPrivateHistory         = "private_history"
	EventRoomDeletedKick        = "room_deleted_kick"
	EventRoomCreated            = "room_created"
	EventRoomDeleted            = "room_deleted"
)

// Envelope is the unit published on the transport.
// Exclude names a session that must not receive a room-scoped envelope.
type Envelope struct {
	Event   string `json:"event"`
	Data    any    `json:"data"`
	Exclude string `json:"exclude,omitempty"`
}

// Frame is what a WebSocket client sends and receives.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Inbound payloads

type LoginPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	IsMaster    bool   `json:"isMaster,omitempty"`
}

type RoomPayload struct {
	UserID   string `json:"userId"`
	RoomName string `json:"roomName"`
}

type GroupMessagePayload struct {
	UserID   string `json:"userId"`
	RoomName string `json:"roomName"`
	Text     string `json:"text"`
}

type PrivateMessagePayload struct {
	SenderID    string `json:"senderId"`
	RecipientID string `json:"recipientId"`
	Text        string `json:"text"`
}

type PrivateHistoryRequest struct {
	UserID      string `json:"userId"`
	OtherUserID string `json:"otherUserId"`
}

// Outbound payloads

type RoomJoined struct {
	RoomName           string    `json:"roomName"`
	MemberDisplayNames []string  `json:"memberDisplayNames"`
	MessageHistory     []Message `json:"messageHistory"`
}

// MemberNotice is used for member_joined, member_left, typing_started and typing_stopped.
type MemberNotice struct {
	DisplayName string `json:"displayName"`
	RoomName    string `json:"roomName"`
}

type PrivateHistory struct {
	ChannelKey  string    `json:"channelKey"`
	Messages    []Message `json:"messages"`
	OtherUserID string    `json:"otherUserId"`
}

type RoomCreated struct {
	RoomName    string `json:"roomName"`
	MemberCount int    `json:"memberCount"`
	IsPrivate   bool   `json:"isPrivate"`
	CreatedBy   string `json:"createdBy"`
}

type RoomDeleted struct {
	RoomName string `json:"roomName"`
}

type RoomDeletedKick struct {
	RoomName string `json:"roomName"`
	Message  string `json:"message"`
}

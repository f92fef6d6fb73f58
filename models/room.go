package models

import "time"

// Room is a named group channel with its members and message history.
type Room struct {
	Name      string
	Members   []string // user IDs in join order, no duplicates
	Messages  []Message
	CreatedBy string
	CreatedAt time.Time
}

// HasMember reports whether userID is in the member list.
func (r *Room) HasMember(userID string) bool {
	for _, m := range r.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// RoomSummary is the list view of a room.
type RoomSummary struct {
	Name        string `json:"name"`
	MemberCount int    `json:"memberCount"`
	IsPrivate   bool   `json:"isPrivate"`
}

// PrivateChannel holds the history between two users.
type PrivateChannel struct {
	Key          string
	Participants [2]string
	Messages     []Message
}

package models

// User is a logged-in user bound to one live session.
type User struct {
	ID          string `json:"userId"`
	DisplayName string `json:"displayName"`
	SessionID   string `json:"sessionId"`
	IsMaster    bool   `json:"isMaster"`
	CurrentRoom string `json:"currentRoom,omitempty"` // empty when not in a room
}

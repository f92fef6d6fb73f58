package coordinator

import (
	"sort"

	"github.com/karthikraju391/go-nats-chat-coordinator/models"
)

// Registry maps user IDs to their live connection metadata.
// It is not safe for concurrent use; the event loop owns it.
type Registry struct {
	users map[string]*models.User
}

func NewRegistry() *Registry {
	return &Registry{users: make(map[string]*models.User)}
}

// Login upserts the user bound to sessionID with no current room.
// It returns the record it replaced, if any.
func (r *Registry) Login(userID, displayName, sessionID string, isMaster bool) (*models.User, *models.User) {
	prev := r.users[userID]
	u := &models.User{
		ID:          userID,
		DisplayName: displayName,
		SessionID:   sessionID,
		IsMaster:    isMaster,
	}
	r.users[userID] = u
	return u, prev
}

func (r *Registry) Lookup(userID string) (*models.User, bool) {
	u, ok := r.users[userID]
	return u, ok
}

// Remove deletes the user. Removing an absent user is a no-op.
func (r *Registry) Remove(userID string) {
	delete(r.users, userID)
}

func (r *Registry) Len() int {
	return len(r.users)
}

// DisplayName resolves a user ID for display, "Unknown" if the user is gone.
func (r *Registry) DisplayName(userID string) string {
	if u, ok := r.users[userID]; ok {
		return u.DisplayName
	}
	return "Unknown"
}

// Snapshot copies all records, ordered by user ID.
func (r *Registry) Snapshot() []models.User {
	out := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// InRoom returns the users whose current room is name.
func (r *Registry) InRoom(name string) []*models.User {
	var out []*models.User
	for _, u := range r.users {
		if u.CurrentRoom == name {
			out = append(out, u)
		}
	}
	return out
}

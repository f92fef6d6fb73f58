package coordinator

import (
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/karthikraju391/go-nats-chat-coordinator/models"
)

// Directory owns room lifecycle and membership.
// A room exists from Create until Delete; membership never affects existence.
type Directory struct {
	rooms map[string]*models.Room
	now   func() time.Time
}

func NewDirectory() *Directory {
	return &Directory{
		rooms: make(map[string]*models.Room),
		now:   time.Now,
	}
}

// Create adds a room whose only member is its creator.
func (d *Directory) Create(name, creatorID string) (*models.Room, error) {
	if name == "" {
		return nil, ErrInvalidRoomName
	}
	if _, ok := d.rooms[name]; ok {
		return nil, errors.Wrapf(ErrAlreadyExists, "room %q", name)
	}
	room := &models.Room{
		Name:      name,
		Members:   []string{creatorID},
		Messages:  make([]models.Message, 0),
		CreatedBy: creatorID,
		CreatedAt: d.now(),
	}
	d.rooms[name] = room
	return room, nil
}

func (d *Directory) Get(name string) (*models.Room, bool) {
	r, ok := d.rooms[name]
	return r, ok
}

// AddMember joins userID to the room, creating the room with userID as creator
// if it does not exist. The bool result reports whether the room was created.
func (d *Directory) AddMember(name, userID string) (*models.Room, bool) {
	room, ok := d.rooms[name]
	if !ok {
		room, _ = d.Create(name, userID)
		return room, true
	}
	if !room.HasMember(userID) {
		room.Members = append(room.Members, userID)
	}
	return room, false
}

// RemoveMember drops userID from the room. It reports whether the room exists.
func (d *Directory) RemoveMember(name, userID string) bool {
	room, ok := d.rooms[name]
	if !ok {
		return false
	}
	kept := room.Members[:0]
	for _, m := range room.Members {
		if m != userID {
			kept = append(kept, m)
		}
	}
	room.Members = kept
	return true
}

// Delete removes the room and returns it.
func (d *Directory) Delete(name string) (*models.Room, error) {
	room, ok := d.rooms[name]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "room %q", name)
	}
	delete(d.rooms, name)
	return room, nil
}

// Append adds msg to the room history.
func (d *Directory) Append(name string, msg models.Message) bool {
	room, ok := d.rooms[name]
	if !ok {
		return false
	}
	room.Messages = append(room.Messages, msg)
	return true
}

func (d *Directory) Len() int {
	return len(d.rooms)
}

// List returns a point-in-time summary of every room, ordered by name.
func (d *Directory) List() []models.RoomSummary {
	out := make([]models.RoomSummary, 0, len(d.rooms))
	for _, r := range d.rooms {
		out = append(out, models.RoomSummary{
			Name:        r.Name,
			MemberCount: len(r.Members),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

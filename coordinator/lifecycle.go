package coordinator

import (
	"context"

	"github.com/karthikraju391/go-nats-chat-coordinator/models"
)

// Login binds userID to sessionID and republishes the presence list.
// A second login for the same user replaces the earlier session binding.
func (c *Coordinator) Login(ctx context.Context, sessionID string, p models.LoginPayload) error {
	return c.do(ctx, func() { c.login(sessionID, p) })
}

func (c *Coordinator) login(sessionID string, p models.LoginPayload) {
	c.metrics.events.WithLabelValues(models.EventLogin).Inc()
	if p.UserID == "" {
		c.drop(models.EventLogin, errMissingUser)
		return
	}

	// a session handle belongs to at most one user
	if other, ok := c.sessions[sessionID]; ok && other != p.UserID {
		c.removeUser(sessionID, other)
	}

	u, prev := c.registry.Login(p.UserID, p.DisplayName, sessionID, p.IsMaster)
	if prev != nil {
		if prev.SessionID != sessionID {
			delete(c.sessions, prev.SessionID)
		}
		if prev.CurrentRoom != "" {
			c.detachFromRoom(prev, prev.SessionID)
		}
	}
	c.sessions[sessionID] = u.ID

	c.publishPresence()
	c.log.Info().
		Str("user", u.ID).
		Str("displayName", u.DisplayName).
		Bool("master", u.IsMaster).
		Str("session", sessionID).
		Msg("user logged in")
}

// Disconnect cleans up the user bound to sessionID, if any.
func (c *Coordinator) Disconnect(ctx context.Context, sessionID string) error {
	return c.do(ctx, func() { c.disconnect(sessionID) })
}

func (c *Coordinator) disconnect(sessionID string) {
	c.metrics.events.WithLabelValues(models.EventDisconnect).Inc()
	userID, ok := c.sessions[sessionID]
	if !ok {
		c.drop(models.EventDisconnect, errNoLogin)
		return
	}
	if !c.removeUser(sessionID, userID) {
		c.drop(models.EventDisconnect, errStaleSession)
		return
	}
	c.publishPresence()
}

// removeUser forgets sessionID and, if userID is still bound to it, removes
// the user from its room and from the registry.
func (c *Coordinator) removeUser(sessionID, userID string) bool {
	delete(c.sessions, sessionID)

	u, ok := c.registry.Lookup(userID)
	if !ok || u.SessionID != sessionID {
		return false
	}
	if u.CurrentRoom != "" {
		c.detachFromRoom(u, sessionID)
	}
	c.registry.Remove(userID)
	c.log.Info().Str("user", u.ID).Str("session", sessionID).Msg("user disconnected")
	return true
}

// detachFromRoom takes u out of its current room and tells the remaining members.
// The room itself is kept even when it becomes empty.
func (c *Coordinator) detachFromRoom(u *models.User, sessionID string) {
	room := u.CurrentRoom
	u.CurrentRoom = ""
	c.transport.LeaveChannel(sessionID, room)

	if !c.rooms.RemoveMember(room, u.ID) {
		return
	}
	c.transport.ToRoom(room, models.Envelope{
		Event:   models.EventMemberLeft,
		Data:    models.MemberNotice{DisplayName: u.DisplayName, RoomName: room},
		Exclude: sessionID,
	})
	c.log.Info().Str("user", u.ID).Str("room", room).Msg("user left room")
}

func (c *Coordinator) publishPresence() {
	c.transport.Broadcast(models.Envelope{
		Event: models.EventPresenceUpdated,
		Data:  c.registry.Snapshot(),
	})
}

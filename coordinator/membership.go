package coordinator

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/karthikraju391/go-nats-chat-coordinator/models"
)

// CreateRoom creates roomName with creatorID as its only member.
func (c *Coordinator) CreateRoom(ctx context.Context, roomName, creatorID string) error {
	var err error
	if doErr := c.do(ctx, func() { err = c.createRoom(roomName, creatorID) }); doErr != nil {
		return doErr
	}
	return err
}

func (c *Coordinator) createRoom(roomName, creatorID string) error {
	room, err := c.rooms.Create(roomName, creatorID)
	if err != nil {
		return err
	}
	c.publishRoomCreated(room)
	c.log.Info().Str("room", roomName).Str("createdBy", creatorID).Msg("room created")
	return nil
}

func (c *Coordinator) publishRoomCreated(room *models.Room) {
	c.transport.Broadcast(models.Envelope{
		Event: models.EventRoomCreated,
		Data: models.RoomCreated{
			RoomName:    room.Name,
			MemberCount: len(room.Members),
			CreatedBy:   room.CreatedBy,
		},
	})
}

// JoinRoom moves userID into roomName, creating the room if needed.
func (c *Coordinator) JoinRoom(ctx context.Context, sessionID, userID, roomName string) error {
	return c.do(ctx, func() { c.joinRoom(sessionID, userID, roomName) })
}

func (c *Coordinator) joinRoom(sessionID, userID, roomName string) {
	c.metrics.events.WithLabelValues(models.EventJoinRoom).Inc()
	u, ok := c.registry.Lookup(userID)
	if !ok {
		c.drop(models.EventJoinRoom, ErrUnknownActor)
		return
	}
	if roomName == "" {
		c.drop(models.EventJoinRoom, errMissingRoom)
		return
	}

	if u.CurrentRoom != "" && u.CurrentRoom != roomName {
		c.detachFromRoom(u, sessionID)
	}

	room, created := c.rooms.AddMember(roomName, u.ID)
	if created {
		c.publishRoomCreated(room)
	}
	u.CurrentRoom = roomName
	c.transport.JoinChannel(sessionID, roomName)

	names := make([]string, 0, len(room.Members))
	for _, m := range room.Members {
		names = append(names, c.registry.DisplayName(m))
	}
	history := make([]models.Message, len(room.Messages))
	copy(history, room.Messages)

	c.transport.ToSession(sessionID, models.Envelope{
		Event: models.EventRoomJoined,
		Data: models.RoomJoined{
			RoomName:           roomName,
			MemberDisplayNames: names,
			MessageHistory:     history,
		},
	})
	c.transport.ToRoom(roomName, models.Envelope{
		Event:   models.EventMemberJoined,
		Data:    models.MemberNotice{DisplayName: u.DisplayName, RoomName: roomName},
		Exclude: sessionID,
	})
	c.log.Info().Str("user", u.ID).Str("room", roomName).Bool("created", created).Msg("user joined room")
}

// LeaveRoom takes userID out of roomName if that is its current room.
func (c *Coordinator) LeaveRoom(ctx context.Context, sessionID, userID, roomName string) error {
	return c.do(ctx, func() { c.leaveRoom(sessionID, userID, roomName) })
}

func (c *Coordinator) leaveRoom(sessionID, userID, roomName string) {
	c.metrics.events.WithLabelValues(models.EventLeaveRoom).Inc()
	u, ok := c.registry.Lookup(userID)
	if !ok {
		c.drop(models.EventLeaveRoom, ErrUnknownActor)
		return
	}
	if roomName == "" || u.CurrentRoom != roomName {
		c.drop(models.EventLeaveRoom, errNotInRoom)
		return
	}
	c.detachFromRoom(u, sessionID)
}

// DeleteRoom removes roomName. The requester is privileged if isMaster is set
// or its registry record is flagged master.
func (c *Coordinator) DeleteRoom(ctx context.Context, roomName, requesterID string, isMaster bool) error {
	var err error
	if doErr := c.do(ctx, func() { err = c.deleteRoom(roomName, requesterID, isMaster) }); doErr != nil {
		return doErr
	}
	return err
}

func (c *Coordinator) deleteRoom(roomName, requesterID string, isMaster bool) error {
	if _, ok := c.rooms.Get(roomName); !ok {
		return errors.Wrapf(ErrNotFound, "room %q", roomName)
	}

	privileged := isMaster
	if u, ok := c.registry.Lookup(requesterID); ok && u.IsMaster {
		privileged = true
	}
	if !privileged {
		return errors.Wrapf(ErrForbidden, "%q may not delete room %q", requesterID, roomName)
	}

	if _, err := c.rooms.Delete(roomName); err != nil {
		return err
	}

	c.transport.Broadcast(models.Envelope{
		Event: models.EventRoomDeleted,
		Data:  models.RoomDeleted{RoomName: roomName},
	})
	c.transport.ToRoom(roomName, models.Envelope{
		Event: models.EventRoomDeletedKick,
		Data: models.RoomDeletedKick{
			RoomName: roomName,
			Message:  fmt.Sprintf("Room %q has been deleted by master account.", roomName),
		},
	})
	// unsubscribe only after the kick has been published
	for _, u := range c.registry.InRoom(roomName) {
		u.CurrentRoom = ""
		c.transport.LeaveChannel(u.SessionID, roomName)
	}
	c.log.Info().Str("room", roomName).Str("deletedBy", requesterID).Msg("room deleted")
	return nil
}

// ListRooms returns a snapshot of all rooms.
func (c *Coordinator) ListRooms(ctx context.Context) ([]models.RoomSummary, error) {
	var out []models.RoomSummary
	err := c.do(ctx, func() { out = c.rooms.List() })
	return out, err
}

package coordinator

import (
	"context"

	"github.com/karthikraju391/go-nats-chat-coordinator/models"
)

// TypingStart tells the other sessions in roomName that userID is typing.
func (c *Coordinator) TypingStart(ctx context.Context, sessionID, userID, roomName string) error {
	return c.do(ctx, func() {
		c.relayTyping(models.EventTypingStart, models.EventTypingStarted, sessionID, userID, roomName)
	})
}

// TypingStop tells the other sessions in roomName that userID stopped typing.
func (c *Coordinator) TypingStop(ctx context.Context, sessionID, userID, roomName string) error {
	return c.do(ctx, func() {
		c.relayTyping(models.EventTypingStop, models.EventTypingStopped, sessionID, userID, roomName)
	})
}

// relayTyping keeps no state; repeated signals are published again.
func (c *Coordinator) relayTyping(in, out, sessionID, userID, roomName string) {
	c.metrics.events.WithLabelValues(in).Inc()
	u, ok := c.registry.Lookup(userID)
	if !ok {
		c.drop(in, ErrUnknownActor)
		return
	}
	if roomName == "" {
		c.drop(in, errMissingRoom)
		return
	}
	c.transport.ToRoom(roomName, models.Envelope{
		Event:   out,
		Data:    models.MemberNotice{DisplayName: u.DisplayName, RoomName: roomName},
		Exclude: sessionID,
	})
}

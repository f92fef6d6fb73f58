package coordinator

import (
	"context"

	"github.com/karthikraju391/go-nats-chat-coordinator/models"
)

// PostMessage appends text to roomName and publishes it on the room channel.
// It returns nil without side effects when the sender or room is unknown.
func (c *Coordinator) PostMessage(ctx context.Context, userID, roomName, text string) (*models.Message, error) {
	var msg *models.Message
	err := c.do(ctx, func() { msg = c.postMessage(userID, roomName, text) })
	return msg, err
}

func (c *Coordinator) postMessage(userID, roomName, text string) *models.Message {
	c.metrics.events.WithLabelValues(models.EventGroupMessage).Inc()
	u, ok := c.registry.Lookup(userID)
	if !ok {
		c.drop(models.EventGroupMessage, ErrUnknownActor)
		return nil
	}
	if _, ok := c.rooms.Get(roomName); !ok {
		c.drop(models.EventGroupMessage, errUnknownRoom)
		return nil
	}
	if text == "" {
		c.drop(models.EventGroupMessage, errEmptyText)
		return nil
	}

	msg := c.newMessage(u, text, models.KindGroup)
	msg.RoomName = roomName
	c.rooms.Append(roomName, msg)

	c.transport.ToRoom(roomName, models.Envelope{
		Event: models.EventGroupMessagePosted,
		Data:  msg,
	})
	c.log.Debug().Str("room", roomName).Str("user", u.ID).Str("id", msg.ID).Msg("group message posted")
	return &msg
}

// SendPrivate delivers text from senderID to recipientID and echoes a
// confirmation to the sending session. Both users must be logged in.
func (c *Coordinator) SendPrivate(ctx context.Context, sessionID, senderID, recipientID, text string) (*models.Message, error) {
	var msg *models.Message
	err := c.do(ctx, func() { msg = c.sendPrivate(sessionID, senderID, recipientID, text) })
	return msg, err
}

func (c *Coordinator) sendPrivate(sessionID, senderID, recipientID, text string) *models.Message {
	c.metrics.events.WithLabelValues(models.EventPrivateMessage).Inc()
	sender, ok := c.registry.Lookup(senderID)
	if !ok {
		c.drop(models.EventPrivateMessage, ErrUnknownActor)
		return nil
	}
	recipient, ok := c.registry.Lookup(recipientID)
	if !ok {
		c.drop(models.EventPrivateMessage, errUnknownRecipient)
		return nil
	}
	if text == "" {
		c.drop(models.EventPrivateMessage, errEmptyText)
		return nil
	}

	msg := c.newMessage(sender, text, models.KindPrivate)
	msg.RecipientID = recipient.ID
	c.channels.Append(msg)

	c.transport.ToSession(recipient.SessionID, models.Envelope{
		Event: models.EventPrivateMessageReceived,
		Data:  msg,
	})
	c.transport.ToSession(sessionID, models.Envelope{
		Event: models.EventPrivateMessageSent,
		Data:  msg,
	})
	c.log.Debug().Str("from", sender.ID).Str("to", recipient.ID).Str("id", msg.ID).Msg("private message sent")
	return &msg
}

// PrivateHistory replies to sessionID with the messages exchanged between
// userID and otherUserID. A pair with no history yields an empty list.
func (c *Coordinator) PrivateHistory(ctx context.Context, sessionID, userID, otherUserID string) ([]models.Message, error) {
	var msgs []models.Message
	err := c.do(ctx, func() { msgs = c.privateHistory(sessionID, userID, otherUserID) })
	return msgs, err
}

func (c *Coordinator) privateHistory(sessionID, userID, otherUserID string) []models.Message {
	c.metrics.events.WithLabelValues(models.EventGetPrivateHistory).Inc()
	if userID == "" || otherUserID == "" {
		c.drop(models.EventGetPrivateHistory, errMissingUser)
		return nil
	}

	key, msgs := c.channels.History(userID, otherUserID)
	c.transport.ToSession(sessionID, models.Envelope{
		Event: models.EventPrivateHistory,
		Data: models.PrivateHistory{
			ChannelKey:  key,
			Messages:    msgs,
			OtherUserID: otherUserID,
		},
	})
	return msgs
}

package coordinator

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/karthikraju391/go-nats-chat-coordinator/models"
)

// ErrUnknownEvent is returned by Dispatch for an event name it does not handle.
var ErrUnknownEvent = errors.New("unknown event")

// Dispatch decodes an inbound frame from sessionID and runs the matching operation.
// Errors only describe undecodable frames; domain failures are dropped silently.
// A disconnect is not accepted from clients; the gateway reports it on socket close.
func (c *Coordinator) Dispatch(ctx context.Context, sessionID string, f models.Frame) error {
	switch f.Event {
	case models.EventLogin:
		var p models.LoginPayload
		if err := decode(f, &p); err != nil {
			return err
		}
		return c.Login(ctx, sessionID, p)

	case models.EventJoinRoom, models.EventLeaveRoom, models.EventTypingStart, models.EventTypingStop:
		var p models.RoomPayload
		if err := decode(f, &p); err != nil {
			return err
		}
		switch f.Event {
		case models.EventJoinRoom:
			return c.JoinRoom(ctx, sessionID, p.UserID, p.RoomName)
		case models.EventLeaveRoom:
			return c.LeaveRoom(ctx, sessionID, p.UserID, p.RoomName)
		case models.EventTypingStart:
			return c.TypingStart(ctx, sessionID, p.UserID, p.RoomName)
		default:
			return c.TypingStop(ctx, sessionID, p.UserID, p.RoomName)
		}

	case models.EventGroupMessage:
		var p models.GroupMessagePayload
		if err := decode(f, &p); err != nil {
			return err
		}
		_, err := c.PostMessage(ctx, p.UserID, p.RoomName, p.Text)
		return err

	case models.EventPrivateMessage:
		var p models.PrivateMessagePayload
		if err := decode(f, &p); err != nil {
			return err
		}
		_, err := c.SendPrivate(ctx, sessionID, p.SenderID, p.RecipientID, p.Text)
		return err

	case models.EventGetPrivateHistory:
		var p models.PrivateHistoryRequest
		if err := decode(f, &p); err != nil {
			return err
		}
		_, err := c.PrivateHistory(ctx, sessionID, p.UserID, p.OtherUserID)
		return err

	}
	return errors.Wrapf(ErrUnknownEvent, "%q", f.Event)
}

func decode(f models.Frame, v any) error {
	if len(f.Data) == 0 {
		return errors.Errorf("event %q has no data", f.Event)
	}
	if err := json.Unmarshal(f.Data, v); err != nil {
		return errors.Wrapf(err, "decode %q payload", f.Event)
	}
	return nil
}

package coordinator

import "github.com/karthikraju391/go-nats-chat-coordinator/models"

// Transport delivers envelopes to sessions and room channels.
// Every method is fire-and-forget: delivery failures are the transport's to log.
type Transport interface {
	// ToSession delivers to one connected session.
	ToSession(sessionID string, env models.Envelope)
	// ToRoom delivers to every session subscribed to the room channel,
	// except env.Exclude when set.
	ToRoom(roomName string, env models.Envelope)
	// Broadcast delivers to every connected session.
	Broadcast(env models.Envelope)
	// JoinChannel subscribes a session to a room channel.
	JoinChannel(sessionID, roomName string)
	// LeaveChannel unsubscribes a session from a room channel.
	LeaveChannel(sessionID, roomName string)
}

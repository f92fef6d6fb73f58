package coordinator

import (
	"strings"

	"github.com/karthikraju391/go-nats-chat-coordinator/models"
)

// CanonicalKey is the display key of the private channel between a and b.
// CanonicalKey(a, b) == CanonicalKey(b, a). User IDs may contain "_", so the
// key is not unique and is never used for lookups.
func CanonicalKey(a, b string) string {
	pair := sortedPair(a, b)
	return strings.Join(pair[:], "_")
}

func sortedPair(a, b string) [2]string {
	if b < a {
		a, b = b, a
	}
	return [2]string{a, b}
}

// ChannelStore keeps one history per unordered pair of users.
type ChannelStore struct {
	channels map[[2]string]*models.PrivateChannel
}

func NewChannelStore() *ChannelStore {
	return &ChannelStore{channels: make(map[[2]string]*models.PrivateChannel)}
}

// Channel returns the channel between a and b, creating it on first use.
func (s *ChannelStore) Channel(a, b string) *models.PrivateChannel {
	pair := sortedPair(a, b)
	ch, ok := s.channels[pair]
	if !ok {
		ch = &models.PrivateChannel{
			Key:          CanonicalKey(a, b),
			Participants: pair,
			Messages:     make([]models.Message, 0),
		}
		s.channels[pair] = ch
	}
	return ch
}

// Append records msg on the channel between its sender and recipient.
func (s *ChannelStore) Append(msg models.Message) *models.PrivateChannel {
	ch := s.Channel(msg.SenderID, msg.RecipientID)
	ch.Messages = append(ch.Messages, msg)
	return ch
}

// History returns a copy of the messages between a and b in append order.
func (s *ChannelStore) History(a, b string) (string, []models.Message) {
	ch := s.Channel(a, b)
	msgs := make([]models.Message, len(ch.Messages))
	copy(msgs, ch.Messages)
	return ch.Key, msgs
}

func (s *ChannelStore) Len() int {
	return len(s.channels)
}

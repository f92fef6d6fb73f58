package coordinator

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karthikraju391/go-nats-chat-coordinator/models"
)

func TestRegistry_LoginUpsert(t *testing.T) {
	r := NewRegistry()

	u, prev := r.Login("alice", "Alice", "s1", false)
	assert.Nil(t, prev)
	assert.Equal(t, "s1", u.SessionID)
	assert.Empty(t, u.CurrentRoom)

	u.CurrentRoom = "general"
	u2, prev := r.Login("alice", "Alice B", "s2", true)
	require.NotNil(t, prev)
	assert.Equal(t, "s1", prev.SessionID)
	assert.Equal(t, "general", prev.CurrentRoom)
	assert.Equal(t, "s2", u2.SessionID)
	assert.Empty(t, u2.CurrentRoom, "login resets the current room")
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_RemoveIsIdempotent(t *testing.T) {
	r := NewRegistry()
	r.Login("alice", "Alice", "s1", false)

	r.Remove("alice")
	r.Remove("alice")
	r.Remove("nobody")

	_, ok := r.Lookup("alice")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_DisplayNameAndSnapshot(t *testing.T) {
	r := NewRegistry()
	r.Login("bob", "Bob", "s2", false)
	r.Login("alice", "Alice", "s1", true)

	assert.Equal(t, "Bob", r.DisplayName("bob"))
	assert.Equal(t, "Unknown", r.DisplayName("carol"))

	snap := r.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "alice", snap[0].ID)
	assert.Equal(t, "bob", snap[1].ID)

	// snapshot is a copy
	snap[0].DisplayName = "changed"
	assert.Equal(t, "Alice", r.DisplayName("alice"))
}

func TestDirectory_Create(t *testing.T) {
	d := NewDirectory()

	room, err := d.Create("general", "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, room.Members)
	assert.Equal(t, "alice", room.CreatedBy)
	assert.False(t, room.CreatedAt.IsZero())

	_, err = d.Create("general", "bob")
	assert.Equal(t, ErrAlreadyExists, errors.Cause(err))

	_, err = d.Create("", "bob")
	assert.Equal(t, ErrInvalidRoomName, errors.Cause(err))
}

func TestDirectory_AddMemberIsIdempotent(t *testing.T) {
	d := NewDirectory()

	room, created := d.AddMember("general", "alice")
	assert.True(t, created)
	assert.Equal(t, "alice", room.CreatedBy)

	for i := 0; i < 3; i++ {
		_, created = d.AddMember("general", "alice")
		assert.False(t, created)
	}
	d.AddMember("general", "bob")

	room, _ = d.Get("general")
	assert.Equal(t, []string{"alice", "bob"}, room.Members)
}

func TestDirectory_RemoveMemberKeepsEmptyRoom(t *testing.T) {
	d := NewDirectory()
	d.AddMember("general", "alice")

	assert.True(t, d.RemoveMember("general", "alice"))
	assert.False(t, d.RemoveMember("missing", "alice"))

	room, ok := d.Get("general")
	require.True(t, ok, "empty rooms are not deleted")
	assert.Empty(t, room.Members)
}

func TestDirectory_DeleteAndList(t *testing.T) {
	d := NewDirectory()
	d.AddMember("random", "bob")
	d.AddMember("general", "alice")
	d.AddMember("general", "bob")

	assert.Equal(t, []models.RoomSummary{
		{Name: "general", MemberCount: 2},
		{Name: "random", MemberCount: 1},
	}, d.List())

	_, err := d.Delete("missing")
	assert.Equal(t, ErrNotFound, errors.Cause(err))

	room, err := d.Delete("general")
	require.NoError(t, err)
	assert.Equal(t, "general", room.Name)
	assert.Equal(t, []models.RoomSummary{{Name: "random", MemberCount: 1}}, d.List())
}

func TestDirectory_AppendKeepsOrder(t *testing.T) {
	d := NewDirectory()
	d.AddMember("general", "alice")

	assert.True(t, d.Append("general", models.Message{ID: "2", Text: "second"}))
	assert.True(t, d.Append("general", models.Message{ID: "1", Text: "first"}))
	assert.False(t, d.Append("missing", models.Message{ID: "3"}))

	room, _ := d.Get("general")
	require.Len(t, room.Messages, 2)
	assert.Equal(t, "2", room.Messages[0].ID)
	assert.Equal(t, "1", room.Messages[1].ID)
}

func TestCanonicalKey(t *testing.T) {
	tests := []struct {
		a, b string
		want string
	}{
		{"alice", "bob", "alice_bob"},
		{"bob", "alice", "alice_bob"},
		{"u2", "u10", "u10_u2"},
		{"same", "same", "same_same"},
		{"", "x", "_x"},
	}

	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalKey(tt.a, tt.b))
			assert.Equal(t, CanonicalKey(tt.a, tt.b), CanonicalKey(tt.b, tt.a))
		})
	}
}

func TestChannelStore_OneRecordPerPair(t *testing.T) {
	s := NewChannelStore()

	s.Append(models.Message{ID: "1", SenderID: "alice", RecipientID: "bob", Kind: models.KindPrivate})
	s.Append(models.Message{ID: "2", SenderID: "bob", RecipientID: "alice", Kind: models.KindPrivate})

	assert.Equal(t, 1, s.Len())
	assert.Same(t, s.Channel("alice", "bob"), s.Channel("bob", "alice"))

	key, msgs := s.History("bob", "alice")
	assert.Equal(t, "alice_bob", key)
	require.Len(t, msgs, 2)
	assert.Equal(t, "1", msgs[0].ID)
	assert.Equal(t, "2", msgs[1].ID)
}

func TestChannelStore_EmptyHistory(t *testing.T) {
	s := NewChannelStore()

	key, msgs := s.History("alice", "carol")
	assert.Equal(t, "alice_carol", key)
	assert.NotNil(t, msgs)
	assert.Empty(t, msgs)
}

func TestChannelStore_UnderscoreIDsDoNotCollide(t *testing.T) {
	s := NewChannelStore()
	s.Append(models.Message{ID: "1", SenderID: "a_b", RecipientID: "c", Text: "for c", Kind: models.KindPrivate})

	assert.Equal(t, CanonicalKey("a_b", "c"), CanonicalKey("a", "b_c"))
	assert.NotSame(t, s.Channel("a_b", "c"), s.Channel("a", "b_c"))

	_, msgs := s.History("a", "b_c")
	assert.Empty(t, msgs)
	_, msgs = s.History("c", "a_b")
	require.Len(t, msgs, 1)
	assert.Equal(t, "for c", msgs[0].Text)
	assert.Equal(t, 2, s.Len())
}

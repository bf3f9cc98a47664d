package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malonaz/tchat/internal/types"
)

func TestGetReturnsCopy(t *testing.T) {
	c := New("alice")
	c.SetMessages("chat-1", []*types.Message{
		{ID: "m1", ChatID: "chat-1", Role: types.RoleUser, Content: "hi"},
	})

	messages := c.Messages("chat-1")
	require.Len(t, messages, 1)
	messages[0].Content = "mutated"

	fresh := c.Messages("chat-1")
	assert.Equal(t, "hi", fresh[0].Content)
}

func TestSnapshotRestore(t *testing.T) {
	c := New("alice")
	c.SetChats([]*types.Chat{{ID: "chat-1", UserID: "alice", UpdateTimestamp: 10}})
	c.SetMessages("chat-1", []*types.Message{{ID: "m1", ChatID: "chat-1", Role: types.RoleUser, Content: "hi"}})

	snapshot := c.TakeSnapshot(ChatListKey("alice"), MessagesKey("chat-1"), MessagesKey("chat-2"))

	// Mutate everything the snapshot covers.
	c.SetChats([]*types.Chat{{ID: "chat-1", UserID: "alice", UpdateTimestamp: 999}, {ID: "chat-9"}})
	c.SetMessages("chat-1", nil)
	c.SetMessages("chat-2", []*types.Message{{ID: "m2"}})

	c.Restore(snapshot)

	chats := c.Chats()
	require.Len(t, chats, 1)
	assert.Equal(t, int64(10), chats[0].UpdateTimestamp)

	messages := c.Messages("chat-1")
	require.Len(t, messages, 1)
	assert.Equal(t, "m1", messages[0].ID)

	// chat-2 was absent at snapshot time: restore must remove it.
	_, ok := c.Get(MessagesKey("chat-2"))
	assert.False(t, ok)
}

func TestSnapshotIsImmutable(t *testing.T) {
	c := New("alice")
	c.SetChats([]*types.Chat{{ID: "chat-1", UpdateTimestamp: 10}})
	snapshot := c.TakeSnapshot(ChatListKey("alice"))

	// Writes after the snapshot must not leak into it.
	c.SetChats([]*types.Chat{{ID: "chat-1", UpdateTimestamp: 20}})
	c.Restore(snapshot)
	assert.Equal(t, int64(10), c.Chats()[0].UpdateTimestamp)
}

func TestSubscribe(t *testing.T) {
	c := New("alice")
	var seen []Key
	c.Subscribe(func(key Key) { seen = append(seen, key) })

	c.SetChats(nil)
	c.SetMessages("chat-1", nil)
	c.Delete(MessagesKey("chat-1"))
	c.Delete(MessagesKey("never-set"))

	assert.Equal(t, []Key{
		ChatListKey("alice"),
		MessagesKey("chat-1"),
		MessagesKey("chat-1"),
	}, seen)
}

func TestPerUserIsolation(t *testing.T) {
	alice := New("alice")
	bob := New("bob")
	alice.SetChats([]*types.Chat{{ID: "chat-1", UserID: "alice"}})
	assert.Nil(t, bob.Chats())
	assert.NotEqual(t, ChatListKey(alice.UserID()), ChatListKey(bob.UserID()))
}

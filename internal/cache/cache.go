// Package cache holds the canonical client-side view of chat lists and
// per-chat message lists. It is the single shared mutable resource of the
// synchronization layer: the mutation executor and the reconciler write to
// it, everything else reads.
package cache

import (
	"fmt"
	"strings"
	"sync"

	"github.com/malonaz/tchat/internal/types"
)

// Key addresses one cache entry.
type Key string

// ChatListKey returns the key of a user's chat list view.
func ChatListKey(userID string) Key {
	return Key(fmt.Sprintf("chats/%s", userID))
}

// MessagesKey returns the key of a chat's message list view.
func MessagesKey(chatID string) Key {
	return Key(fmt.Sprintf("messages/%s", chatID))
}

// ChatIDFromKey extracts the chat identity from a message list key.
func ChatIDFromKey(key Key) (string, bool) {
	return strings.CutPrefix(string(key), "messages/")
}

// Value is an entry stored in the cache. Implementations clone deeply so
// readers never alias cached state.
type Value interface {
	CloneValue() Value
}

// ChatList is the cached chat list view.
type ChatList []*types.Chat

// CloneValue implements Value.
func (l ChatList) CloneValue() Value {
	clone := make(ChatList, len(l))
	for i, chat := range l {
		clone[i] = chat.Clone()
	}
	return clone
}

// MessageList is the cached message list view of one chat.
type MessageList []*types.Message

// CloneValue implements Value.
func (l MessageList) CloneValue() Value {
	clone := make(MessageList, len(l))
	for i, message := range l {
		clone[i] = message.Clone()
	}
	return clone
}

// Snapshot is a point-in-time copy of a set of entries, used exclusively
// for rollback. A nil value records that the key was absent.
type Snapshot map[Key]Value

// Cache is an addressable, observable store scoped to one authenticated
// identity. Construct one per identity; there is no process-wide instance.
type Cache struct {
	userID string

	mu          sync.Mutex
	entries     map[Key]Value
	subscribers []func(Key)
}

// New returns an empty cache for the given identity.
func New(userID string) *Cache {
	return &Cache{
		userID:  userID,
		entries: map[Key]Value{},
	}
}

// UserID returns the identity this cache is scoped to.
func (c *Cache) UserID() string {
	return c.userID
}

// Get returns a deep copy of the entry at key.
func (c *Cache) Get(key Key) (Value, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return value.CloneValue(), true
}

// Set stores a deep copy of value at key and notifies subscribers.
func (c *Cache) Set(key Key, value Value) {
	c.mu.Lock()
	c.entries[key] = value.CloneValue()
	c.mu.Unlock()
	c.notify(key)
}

// Delete removes the entry at key and notifies subscribers.
func (c *Cache) Delete(key Key) {
	c.mu.Lock()
	_, existed := c.entries[key]
	delete(c.entries, key)
	c.mu.Unlock()
	if existed {
		c.notify(key)
	}
}

// TakeSnapshot copies the entries at the given keys. Entire entries are
// retained, not individual fields, so a restore can never leave a
// partially rolled-back view.
func (c *Cache) TakeSnapshot(keys ...Key) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot := make(Snapshot, len(keys))
	for _, key := range keys {
		if value, ok := c.entries[key]; ok {
			snapshot[key] = value.CloneValue()
		} else {
			snapshot[key] = nil
		}
	}
	return snapshot
}

// Restore atomically reinstates a snapshot and notifies subscribers.
func (c *Cache) Restore(snapshot Snapshot) {
	c.mu.Lock()
	keys := make([]Key, 0, len(snapshot))
	for key, value := range snapshot {
		if value == nil {
			delete(c.entries, key)
		} else {
			c.entries[key] = value.CloneValue()
		}
		keys = append(keys, key)
	}
	c.mu.Unlock()
	c.notify(keys...)
}

// Subscribe registers a callback invoked after every write, with the key
// that changed. Callbacks run outside the cache lock.
func (c *Cache) Subscribe(fn func(Key)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, fn)
}

// Chats returns the cached chat list view.
func (c *Cache) Chats() []*types.Chat {
	value, ok := c.Get(ChatListKey(c.userID))
	if !ok {
		return nil
	}
	return value.(ChatList)
}

// SetChats stores the chat list view.
func (c *Cache) SetChats(chats []*types.Chat) {
	c.Set(ChatListKey(c.userID), ChatList(chats))
}

// Messages returns the cached message list view of a chat.
func (c *Cache) Messages(chatID string) []*types.Message {
	value, ok := c.Get(MessagesKey(chatID))
	if !ok {
		return nil
	}
	return value.(MessageList)
}

// SetMessages stores the message list view of a chat.
func (c *Cache) SetMessages(chatID string, messages []*types.Message) {
	c.Set(MessagesKey(chatID), MessageList(messages))
}

func (c *Cache) notify(keys ...Key) {
	c.mu.Lock()
	subscribers := append([]func(Key){}, c.subscribers...)
	c.mu.Unlock()
	for _, fn := range subscribers {
		for _, key := range keys {
			fn(key)
		}
	}
}

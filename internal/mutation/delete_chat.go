package mutation

import (
	"context"

	"github.com/pkg/errors"

	"github.com/malonaz/tchat/internal/cache"
	"github.com/malonaz/tchat/internal/gateway"
)

// DeleteChat soft-deletes a chat and drops its cached views.
type DeleteChat struct {
	Gateway gateway.Gateway
	UserID  string
	ChatID  string
}

// Kind implements Mutation.
func (m *DeleteChat) Kind() string { return "delete_chat" }

// Validate implements Mutation.
func (m *DeleteChat) Validate() error {
	if m.ChatID == "" {
		return errors.New("chat id cannot be empty")
	}
	return nil
}

// Keys implements Mutation: both the list entry and the message view go.
func (m *DeleteChat) Keys() []cache.Key {
	return []cache.Key{cache.ChatListKey(m.UserID), cache.MessagesKey(m.ChatID)}
}

// Apply implements Mutation.
func (m *DeleteChat) Apply(c *cache.Cache) {
	c.SetChats(removeChat(c.Chats(), m.ChatID))
	c.Delete(cache.MessagesKey(m.ChatID))
}

// Call implements Mutation.
func (m *DeleteChat) Call(ctx context.Context) (interface{}, error) {
	return nil, m.Gateway.DeleteChat(ctx, m.ChatID)
}

// Settle implements Mutation.
func (m *DeleteChat) Settle(*cache.Cache, interface{}) {}

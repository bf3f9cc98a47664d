package mutation

import (
	"context"

	"github.com/pkg/errors"

	"github.com/malonaz/tchat/internal/cache"
	"github.com/malonaz/tchat/internal/gateway"
)

// ArchiveChat removes a chat from the default list view.
type ArchiveChat struct {
	Gateway gateway.Gateway
	UserID  string
	ChatID  string
}

// Kind implements Mutation.
func (m *ArchiveChat) Kind() string { return "archive_chat" }

// Validate implements Mutation.
func (m *ArchiveChat) Validate() error {
	if m.ChatID == "" {
		return errors.New("chat id cannot be empty")
	}
	return nil
}

// Keys implements Mutation.
func (m *ArchiveChat) Keys() []cache.Key {
	return []cache.Key{cache.ChatListKey(m.UserID)}
}

// Apply drops the chat from the cached list view; archived chats are
// excluded from it.
func (m *ArchiveChat) Apply(c *cache.Cache) {
	c.SetChats(removeChat(c.Chats(), m.ChatID))
}

// Call implements Mutation.
func (m *ArchiveChat) Call(ctx context.Context) (interface{}, error) {
	return nil, m.Gateway.ArchiveChat(ctx, m.ChatID)
}

// Settle implements Mutation.
func (m *ArchiveChat) Settle(*cache.Cache, interface{}) {}

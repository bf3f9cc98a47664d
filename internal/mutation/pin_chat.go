package mutation

import (
	"context"

	"github.com/pkg/errors"

	"github.com/malonaz/tchat/internal/cache"
	"github.com/malonaz/tchat/internal/gateway"
	"github.com/malonaz/tchat/internal/types"
)

// PinChat pins or unpins a chat, reordering the list immediately.
type PinChat struct {
	Gateway gateway.Gateway
	UserID  string
	ChatID  string
	// Unpin clears the pin instead of setting it.
	Unpin bool
}

// Kind implements Mutation.
func (m *PinChat) Kind() string {
	if m.Unpin {
		return "unpin_chat"
	}
	return "pin_chat"
}

// Validate implements Mutation.
func (m *PinChat) Validate() error {
	if m.ChatID == "" {
		return errors.New("chat id cannot be empty")
	}
	return nil
}

// Keys implements Mutation.
func (m *PinChat) Keys() []cache.Key {
	return []cache.Key{cache.ChatListKey(m.UserID)}
}

// Apply sets pinned-at to now (or clears it) and reorders.
func (m *PinChat) Apply(c *cache.Cache) {
	chats := c.Chats()
	i := findChat(chats, m.ChatID)
	if i < 0 {
		return
	}
	if m.Unpin {
		chats[i].PinnedTimestamp = nil
	} else {
		now := types.Now()
		chats[i].PinnedTimestamp = &now
	}
	types.OrderChats(chats)
	c.SetChats(chats)
}

// Call implements Mutation.
func (m *PinChat) Call(ctx context.Context) (interface{}, error) {
	if m.Unpin {
		return nil, m.Gateway.UnpinChat(ctx, m.ChatID)
	}
	return nil, m.Gateway.PinChat(ctx, m.ChatID)
}

// Settle implements Mutation. The gateway returns nothing; the post-settle
// refresh reconciles the server-assigned pin timestamp.
func (m *PinChat) Settle(*cache.Cache, interface{}) {}

package mutation

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/malonaz/tchat/internal/cache"
	"github.com/malonaz/tchat/internal/gateway"
	"github.com/malonaz/tchat/internal/types"
)

// RenameChat sets a chat's title.
type RenameChat struct {
	Gateway gateway.Gateway
	UserID  string
	ChatID  string
	Title   string
}

// Kind implements Mutation.
func (m *RenameChat) Kind() string { return "rename_chat" }

// Validate implements Mutation.
func (m *RenameChat) Validate() error {
	if m.ChatID == "" {
		return errors.New("chat id cannot be empty")
	}
	if strings.TrimSpace(m.Title) == "" {
		return errors.New("title cannot be empty")
	}
	return nil
}

// Keys implements Mutation.
func (m *RenameChat) Keys() []cache.Key {
	return []cache.Key{cache.ChatListKey(m.UserID)}
}

// Apply implements Mutation.
func (m *RenameChat) Apply(c *cache.Cache) {
	chats := c.Chats()
	i := findChat(chats, m.ChatID)
	if i < 0 {
		return
	}
	title := m.Title
	chats[i].Title = &title
	chats[i].UpdateTimestamp = types.Now()
	types.OrderChats(chats)
	c.SetChats(chats)
}

// Call implements Mutation.
func (m *RenameChat) Call(ctx context.Context) (interface{}, error) {
	title := m.Title
	chat, err := m.Gateway.UpdateChat(ctx, &gateway.UpdateChatRequest{
		ChatID:     m.ChatID,
		Title:      &title,
		UpdateMask: []string{"title"},
	})
	if err != nil {
		return nil, err
	}
	return chat, nil
}

// Settle replaces the optimistic entry with the server chat.
func (m *RenameChat) Settle(c *cache.Cache, result interface{}) {
	serverChat := result.(*types.Chat)
	chats := c.Chats()
	if i := findChat(chats, m.ChatID); i >= 0 {
		chats[i] = serverChat
		types.OrderChats(chats)
		c.SetChats(chats)
	}
}

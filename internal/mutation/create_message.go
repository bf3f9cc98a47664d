package mutation

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/malonaz/tchat/internal/cache"
	"github.com/malonaz/tchat/internal/gateway"
	"github.com/malonaz/tchat/internal/types"
)

// CreateMessage writes a message into a chat, creating the chat on first
// send. The message is visible in the cache with a client-generated
// identity before the gateway confirms; a failed call removes it entirely
// rather than leaving a "failed" marker in place.
type CreateMessage struct {
	Gateway       gateway.Gateway
	UserID        string
	ChatID        string
	CreateChat    bool
	Role          types.Role
	Content       string
	AttachmentIDs []string
	Model         string

	// MessageID is optional; one is generated when absent. A finished
	// assistant message passes the identity its stream already rendered
	// under, so reconciliation keeps it collapsed.
	MessageID string

	submittedAt int64
}

type createMessageResult struct {
	chat    *types.Chat
	message *types.Message
}

// Kind implements Mutation.
func (m *CreateMessage) Kind() string { return "create_message" }

// Validate rejects empty content before any optimistic apply.
func (m *CreateMessage) Validate() error {
	if strings.TrimSpace(m.Content) == "" {
		return errors.New("content cannot be empty")
	}
	if m.ChatID == "" {
		return errors.New("chat id cannot be empty")
	}
	return nil
}

// Keys implements Mutation: the chat's message list and the chat list.
func (m *CreateMessage) Keys() []cache.Key {
	return []cache.Key{cache.MessagesKey(m.ChatID), cache.ChatListKey(m.UserID)}
}

// Apply appends the message under a temporary view and moves the owning
// chat to the front of the list, without waiting for confirmation.
func (m *CreateMessage) Apply(c *cache.Cache) {
	if m.MessageID == "" {
		m.MessageID = uuid.New().String()
	}
	m.submittedAt = types.Now()

	messages := c.Messages(m.ChatID)
	messages = append(messages, &types.Message{
		ID:                m.MessageID,
		ChatID:            m.ChatID,
		Role:              m.Role,
		Content:           m.Content,
		AttachmentIDs:     m.AttachmentIDs,
		Model:             m.Model,
		CreationTimestamp: m.submittedAt,
	})
	c.SetMessages(m.ChatID, messages)

	chats := c.Chats()
	if i := findChat(chats, m.ChatID); i >= 0 {
		chats[i].UpdateTimestamp = m.submittedAt
	} else {
		chats = append(chats, &types.Chat{
			ID:                m.ChatID,
			UserID:            m.UserID,
			CreationTimestamp: m.submittedAt,
			UpdateTimestamp:   m.submittedAt,
		})
	}
	types.OrderChats(chats)
	c.SetChats(chats)
}

// Call creates the chat if needed, then the message.
func (m *CreateMessage) Call(ctx context.Context) (interface{}, error) {
	result := &createMessageResult{}
	if m.CreateChat {
		chat, err := m.Gateway.CreateChat(ctx, &gateway.CreateChatRequest{
			ID:     m.ChatID,
			UserID: m.UserID,
		})
		if err != nil {
			return nil, errors.Wrap(err, "creating chat")
		}
		result.chat = chat
	}
	message, err := m.Gateway.CreateMessage(ctx, &gateway.CreateMessageRequest{
		ChatID:        m.ChatID,
		ID:            m.MessageID,
		Role:          m.Role,
		Content:       m.Content,
		AttachmentIDs: m.AttachmentIDs,
		Model:         m.Model,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating message")
	}
	result.message = message
	return result, nil
}

// Settle replaces the optimistic entry with the server-returned entity,
// matching by the temporary identity first. It falls back to append when a
// concurrent refresh already replaced the entry.
func (m *CreateMessage) Settle(c *cache.Cache, result interface{}) {
	r := result.(*createMessageResult)

	messages := c.Messages(m.ChatID)
	replaced := false
	for i, message := range messages {
		if message.ID == m.MessageID {
			messages[i] = r.message
			replaced = true
			break
		}
	}
	if !replaced {
		messages = append(messages, r.message)
	}
	c.SetMessages(m.ChatID, messages)

	if r.chat != nil {
		chats := c.Chats()
		if i := findChat(chats, m.ChatID); i >= 0 {
			serverChat := r.chat.Clone()
			// Keep the optimistic ordering bump; the message write has
			// already advanced the server timestamp past it anyway.
			if serverChat.UpdateTimestamp < chats[i].UpdateTimestamp {
				serverChat.UpdateTimestamp = chats[i].UpdateTimestamp
			}
			chats[i] = serverChat
			types.OrderChats(chats)
			c.SetChats(chats)
		}
	}
}

// Package gateway is the durable side of the synchronization layer: the
// single source of truth for chats and messages. The synchronization core
// talks to the Gateway interface; the SQLite Store in this package is the
// self-hosted implementation.
package gateway

import (
	"context"

	"github.com/pkg/errors"

	"github.com/malonaz/tchat/internal/types"
)

// ErrNotFound is returned when the target chat or message no longer exists.
// The mutation executor surfaces it as a conflict failure.
var ErrNotFound = errors.New("not found")

// CreateChatRequest creates a chat. ID is optional; the store assigns one
// if absent.
type CreateChatRequest struct {
	ID     string
	UserID string
	Title  *string
}

// UpdateChatRequest updates the fields of a chat named by UpdateMask.
type UpdateChatRequest struct {
	ChatID     string
	Title      *string
	UpdateMask []string
}

// CreateMessageRequest appends a message to a chat. ID and timestamp are
// assigned by the store when absent.
type CreateMessageRequest struct {
	ChatID        string
	ID            string
	Role          types.Role
	Content       string
	AttachmentIDs []string
	Model         string
}

// Gateway is the persistence surface consumed by the synchronization core.
type Gateway interface {
	ListChats(ctx context.Context, userID string) ([]*types.Chat, error)
	CreateChat(ctx context.Context, request *CreateChatRequest) (*types.Chat, error)
	UpdateChat(ctx context.Context, request *UpdateChatRequest) (*types.Chat, error)
	DeleteChat(ctx context.Context, chatID string) error
	PinChat(ctx context.Context, chatID string) error
	UnpinChat(ctx context.Context, chatID string) error
	ArchiveChat(ctx context.Context, chatID string) error
	ListMessages(ctx context.Context, chatID string) ([]*types.Message, error)
	CreateMessage(ctx context.Context, request *CreateMessageRequest) (*types.Message, error)
	DeleteMessage(ctx context.Context, chatID, messageID string) error
}

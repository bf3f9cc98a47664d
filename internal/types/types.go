package types

import (
	"sort"
	"strings"
	"time"
)

// Role of a message author.
type Role string

const (
	// RoleUser is a message typed by the human.
	RoleUser Role = "user"
	// RoleAssistant is a model reply.
	RoleAssistant Role = "assistant"
	// RoleSystem is an instruction message.
	RoleSystem Role = "system"
)

// Chat represents a conversation as seen by the client.
type Chat struct {
	// ID of this chat.
	ID string
	// Owner of this chat.
	UserID string
	// Title of this chat. Nil until the server computes one.
	Title *string
	// Time at which this chat was pinned. Nil if not pinned.
	PinnedTimestamp *int64
	// Time at which this chat was archived. Nil if not archived.
	ArchivedTimestamp *int64
	// Time at which this chat was soft-deleted. Nil if live.
	DeletedTimestamp *int64
	// Time at which this chat was created.
	CreationTimestamp int64
	// Time at which this chat was last written to.
	UpdateTimestamp int64
}

// Clone returns a deep copy of this chat.
func (c *Chat) Clone() *Chat {
	clone := *c
	clone.Title = cloneString(c.Title)
	clone.PinnedTimestamp = cloneInt64(c.PinnedTimestamp)
	clone.ArchivedTimestamp = cloneInt64(c.ArchivedTimestamp)
	clone.DeletedTimestamp = cloneInt64(c.DeletedTimestamp)
	return &clone
}

// Message represents one turn of a conversation.
type Message struct {
	// ID of this message. Client-generated on creation, authoritative once server-echoed.
	ID string
	// ID of the owning chat.
	ChatID string
	// Role of the author.
	Role Role
	// Content of this message.
	Content string
	// AttachmentIDs reference uploaded files. Opaque to this layer.
	AttachmentIDs []string
	// Model that produced this message. Assistant messages only.
	Model string
	// Time at which this message was created. Assigned once, never altered.
	CreationTimestamp int64
}

// Clone returns a deep copy of this message.
func (m *Message) Clone() *Message {
	clone := *m
	if m.AttachmentIDs != nil {
		clone.AttachmentIDs = append([]string{}, m.AttachmentIDs...)
	}
	return &clone
}

// HasContent reports whether this message carries non-empty text.
func (m *Message) HasContent() bool {
	return strings.TrimSpace(m.Content) != ""
}

// TransportMessage is the minimal positional representation sent to a provider.
// Provider-specific adaptation happens at the transport boundary.
type TransportMessage struct {
	ID   string
	Role Role
	Text string
}

// Now returns the current time in microseconds. All timestamps in this
// module use this resolution.
func Now() int64 {
	return time.Now().UnixMicro()
}

// OrderChats sorts a chat list in place: pinned chats first (most recently
// pinned on top), then by update timestamp descending. This is the ordering
// key of the chat list view, applied optimistically on every message write.
func OrderChats(chats []*Chat) {
	sort.SliceStable(chats, func(i, j int) bool {
		a, b := chats[i], chats[j]
		if (a.PinnedTimestamp != nil) != (b.PinnedTimestamp != nil) {
			return a.PinnedTimestamp != nil
		}
		if a.PinnedTimestamp != nil && b.PinnedTimestamp != nil && *a.PinnedTimestamp != *b.PinnedTimestamp {
			return *a.PinnedTimestamp > *b.PinnedTimestamp
		}
		return a.UpdateTimestamp > b.UpdateTimestamp
	})
}

func cloneInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

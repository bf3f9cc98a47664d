package mutation

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/malonaz/tchat/internal/cache"
	"github.com/malonaz/tchat/internal/gateway"
	"github.com/malonaz/tchat/internal/types"
)

// fakeGateway records calls and fails on demand.
type fakeGateway struct {
	err                error
	createChatCalls    int
	createMessageCalls int
	pinCalls           int
	deleteChatCalls    int
}

func (g *fakeGateway) ListChats(context.Context, string) ([]*types.Chat, error) {
	return nil, g.err
}

func (g *fakeGateway) CreateChat(_ context.Context, request *gateway.CreateChatRequest) (*types.Chat, error) {
	g.createChatCalls++
	if g.err != nil {
		return nil, g.err
	}
	return &types.Chat{
		ID:                request.ID,
		UserID:            request.UserID,
		Title:             request.Title,
		CreationTimestamp: types.Now(),
		UpdateTimestamp:   types.Now(),
	}, nil
}

func (g *fakeGateway) UpdateChat(_ context.Context, request *gateway.UpdateChatRequest) (*types.Chat, error) {
	if g.err != nil {
		return nil, g.err
	}
	return &types.Chat{
		ID:              request.ChatID,
		UserID:          "alice",
		Title:           request.Title,
		UpdateTimestamp: types.Now(),
	}, nil
}

func (g *fakeGateway) DeleteChat(context.Context, string) error {
	g.deleteChatCalls++
	return g.err
}

func (g *fakeGateway) PinChat(context.Context, string) error {
	g.pinCalls++
	return g.err
}

func (g *fakeGateway) UnpinChat(context.Context, string) error { return g.err }

func (g *fakeGateway) ArchiveChat(context.Context, string) error { return g.err }

func (g *fakeGateway) ListMessages(context.Context, string) ([]*types.Message, error) {
	return nil, g.err
}

func (g *fakeGateway) CreateMessage(_ context.Context, request *gateway.CreateMessageRequest) (*types.Message, error) {
	g.createMessageCalls++
	if g.err != nil {
		return nil, g.err
	}
	return &types.Message{
		ID:                request.ID,
		ChatID:            request.ChatID,
		Role:              request.Role,
		Content:           request.Content,
		AttachmentIDs:     request.AttachmentIDs,
		Model:             request.Model,
		CreationTimestamp: types.Now(),
	}, nil
}

func (g *fakeGateway) DeleteMessage(context.Context, string, string) error { return g.err }

func newTestExecutor() (*Executor, *cache.Cache, *fakeGateway) {
	c := cache.New("alice")
	return NewExecutor(c), c, &fakeGateway{}
}

func seedChats(c *cache.Cache, ids ...string) {
	chats := make([]*types.Chat, 0, len(ids))
	for i, id := range ids {
		chats = append(chats, &types.Chat{
			ID:              id,
			UserID:          "alice",
			UpdateTimestamp: int64(len(ids) - i),
		})
	}
	c.SetChats(chats)
}

func TestCreateMessageOptimisticVisibility(t *testing.T) {
	t.Parallel()
	executor, c, g := newTestExecutor()
	seedChats(c, "chat-1", "chat-2")

	m := &CreateMessage{
		Gateway: g,
		UserID:  "alice",
		ChatID:  "chat-2",
		Role:    types.RoleUser,
		Content: "hello",
		Model:   "gpt-5",
	}
	require.NoError(t, executor.Apply(context.Background(), m))

	messages := c.Messages("chat-2")
	require.Len(t, messages, 1)
	require.Equal(t, "hello", messages[0].Content)
	require.Equal(t, types.RoleUser, messages[0].Role)
	require.NotEmpty(t, messages[0].ID)

	// The owning chat moved to the front of the list.
	chats := c.Chats()
	require.Equal(t, "chat-2", chats[0].ID)
	require.Equal(t, 1, g.createMessageCalls)
	require.Equal(t, 0, g.createChatCalls)
}

func TestCreateMessageCreatesChatOnFirstSend(t *testing.T) {
	t.Parallel()
	executor, c, g := newTestExecutor()

	m := &CreateMessage{
		Gateway:    g,
		UserID:     "alice",
		ChatID:     "chat-new",
		CreateChat: true,
		Role:       types.RoleUser,
		Content:    "first message",
	}
	require.NoError(t, executor.Apply(context.Background(), m))

	require.Equal(t, 1, g.createChatCalls)
	chats := c.Chats()
	require.Len(t, chats, 1)
	require.Equal(t, "chat-new", chats[0].ID)
	require.Len(t, c.Messages("chat-new"), 1)
}

func TestCreateMessageSettleReplacesByTemporaryID(t *testing.T) {
	t.Parallel()
	executor, c, g := newTestExecutor()
	seedChats(c, "chat-1")

	m := &CreateMessage{
		Gateway:   g,
		UserID:    "alice",
		ChatID:    "chat-1",
		MessageID: "client-id-1",
		Role:      types.RoleUser,
		Content:   "hello",
	}
	require.NoError(t, executor.Apply(context.Background(), m))

	// The settled entry carries the server timestamp under the same id;
	// no duplicate remains.
	messages := c.Messages("chat-1")
	require.Len(t, messages, 1)
	require.Equal(t, "client-id-1", messages[0].ID)
	require.NotZero(t, messages[0].CreationTimestamp)
}

func TestCreateMessageRollback(t *testing.T) {
	t.Parallel()
	executor, c, g := newTestExecutor()
	seedChats(c, "chat-1")
	g.err = errors.New("connection refused")

	m := &CreateMessage{
		Gateway: g,
		UserID:  "alice",
		ChatID:  "chat-1",
		Role:    types.RoleUser,
		Content: "hello",
	}
	err := executor.Apply(context.Background(), m)
	require.Error(t, err)
	kind, ok := types.FailureKindOf(err)
	require.True(t, ok)
	require.Equal(t, types.FailureNetwork, kind)

	// No trace of the optimistic message or the ordering bump.
	require.Empty(t, c.Messages("chat-1"))
	chats := c.Chats()
	require.Len(t, chats, 1)
	require.EqualValues(t, 1, chats[0].UpdateTimestamp)
}

func TestCreateMessageRollbackRemovesCreatedChat(t *testing.T) {
	t.Parallel()
	executor, c, g := newTestExecutor()
	g.err = errors.New("connection refused")

	m := &CreateMessage{
		Gateway:    g,
		UserID:     "alice",
		ChatID:     "chat-new",
		CreateChat: true,
		Role:       types.RoleUser,
		Content:    "hello",
	}
	require.Error(t, executor.Apply(context.Background(), m))
	require.Empty(t, c.Chats())
	require.Empty(t, c.Messages("chat-new"))
}

func TestPinChatRollback(t *testing.T) {
	t.Parallel()
	executor, c, g := newTestExecutor()
	seedChats(c, "chat-1", "chat-2", "chat-3")
	g.err = errors.New("network unreachable")

	m := &PinChat{Gateway: g, UserID: "alice", ChatID: "chat-3"}
	err := executor.Apply(context.Background(), m)
	require.Error(t, err)
	kind, ok := types.FailureKindOf(err)
	require.True(t, ok)
	require.Equal(t, types.FailureNetwork, kind)
	require.Equal(t, 1, g.pinCalls)

	// Pin flag and ordering both reverted.
	chats := c.Chats()
	require.Equal(t, "chat-1", chats[0].ID)
	for _, chat := range chats {
		require.Nil(t, chat.PinnedTimestamp)
	}
}

func TestPinChatSettles(t *testing.T) {
	t.Parallel()
	executor, c, g := newTestExecutor()
	seedChats(c, "chat-1", "chat-2")

	require.NoError(t, executor.Apply(context.Background(), &PinChat{Gateway: g, UserID: "alice", ChatID: "chat-2"}))

	chats := c.Chats()
	require.Equal(t, "chat-2", chats[0].ID)
	require.NotNil(t, chats[0].PinnedTimestamp)
}

func TestUnpinChat(t *testing.T) {
	t.Parallel()
	executor, c, g := newTestExecutor()
	now := types.Now()
	c.SetChats([]*types.Chat{
		{ID: "chat-1", UserID: "alice", PinnedTimestamp: &now, UpdateTimestamp: 1},
		{ID: "chat-2", UserID: "alice", UpdateTimestamp: 2},
	})

	require.NoError(t, executor.Apply(context.Background(), &PinChat{Gateway: g, UserID: "alice", ChatID: "chat-1", Unpin: true}))

	chats := c.Chats()
	require.Equal(t, "chat-2", chats[0].ID)
	require.Nil(t, chats[1].PinnedTimestamp)
}

func TestArchiveChatRemovesFromList(t *testing.T) {
	t.Parallel()
	executor, c, g := newTestExecutor()
	seedChats(c, "chat-1", "chat-2")

	require.NoError(t, executor.Apply(context.Background(), &ArchiveChat{Gateway: g, UserID: "alice", ChatID: "chat-1"}))

	chats := c.Chats()
	require.Len(t, chats, 1)
	require.Equal(t, "chat-2", chats[0].ID)
}

func TestDeleteChatRemovesMessagesView(t *testing.T) {
	t.Parallel()
	executor, c, g := newTestExecutor()
	seedChats(c, "chat-1", "chat-2")
	c.SetMessages("chat-1", []*types.Message{{ID: "m1", ChatID: "chat-1", Role: types.RoleUser, Content: "hi"}})

	require.NoError(t, executor.Apply(context.Background(), &DeleteChat{Gateway: g, UserID: "alice", ChatID: "chat-1"}))

	require.Len(t, c.Chats(), 1)
	require.Empty(t, c.Messages("chat-1"))
	require.Equal(t, 1, g.deleteChatCalls)
}

func TestDeleteChatRollbackRestoresMessages(t *testing.T) {
	t.Parallel()
	executor, c, g := newTestExecutor()
	seedChats(c, "chat-1")
	c.SetMessages("chat-1", []*types.Message{{ID: "m1", ChatID: "chat-1", Role: types.RoleUser, Content: "hi"}})
	g.err = errors.New("timeout")

	require.Error(t, executor.Apply(context.Background(), &DeleteChat{Gateway: g, UserID: "alice", ChatID: "chat-1"}))

	require.Len(t, c.Chats(), 1)
	messages := c.Messages("chat-1")
	require.Len(t, messages, 1)
	require.Equal(t, "m1", messages[0].ID)
}

func TestRenameChatSettleUsesServerChat(t *testing.T) {
	t.Parallel()
	executor, c, g := newTestExecutor()
	seedChats(c, "chat-1")

	require.NoError(t, executor.Apply(context.Background(), &RenameChat{Gateway: g, UserID: "alice", ChatID: "chat-1", Title: "Trip planning"}))

	chats := c.Chats()
	require.NotNil(t, chats[0].Title)
	require.Equal(t, "Trip planning", *chats[0].Title)
	// The server's update timestamp replaced the optimistic one.
	require.NotZero(t, chats[0].UpdateTimestamp)
}

func TestValidationRejectedBeforeApply(t *testing.T) {
	t.Parallel()
	executor, c, g := newTestExecutor()
	seedChats(c, "chat-1")

	err := executor.Apply(context.Background(), &CreateMessage{
		Gateway: g,
		UserID:  "alice",
		ChatID:  "chat-1",
		Role:    types.RoleUser,
		Content: "   ",
	})
	require.Error(t, err)
	kind, ok := types.FailureKindOf(err)
	require.True(t, ok)
	require.Equal(t, types.FailureValidation, kind)
	require.Empty(t, c.Messages("chat-1"))
	require.Equal(t, 0, g.createMessageCalls)
}

func TestNotFoundMapsToConflict(t *testing.T) {
	t.Parallel()
	executor, _, g := newTestExecutor()
	g.err = errors.Wrap(gateway.ErrNotFound, "pinning chat")

	err := executor.Apply(context.Background(), &PinChat{Gateway: g, UserID: "alice", ChatID: "gone"})
	require.Error(t, err)
	kind, ok := types.FailureKindOf(err)
	require.True(t, ok)
	require.Equal(t, types.FailureConflict, kind)
}

func TestRefresherReceivesKeys(t *testing.T) {
	t.Parallel()
	executor, c, g := newTestExecutor()
	seedChats(c, "chat-1")

	var refreshed []cache.Key
	executor.SetRefresher(func(keys []cache.Key) { refreshed = append(refreshed, keys...) })

	require.NoError(t, executor.Apply(context.Background(), &PinChat{Gateway: g, UserID: "alice", ChatID: "chat-1"}))
	require.Contains(t, refreshed, cache.ChatListKey("alice"))
}

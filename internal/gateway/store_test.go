package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malonaz/tchat/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCreateChatAssignsIdentity(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	chat, err := store.CreateChat(ctx, &CreateChatRequest{UserID: "alice"})
	require.NoError(t, err)
	assert.NotEmpty(t, chat.ID)
	assert.Nil(t, chat.Title)
	assert.NotZero(t, chat.CreationTimestamp)

	// A client-provided id is authoritative.
	chat2, err := store.CreateChat(ctx, &CreateChatRequest{ID: "chat-42", UserID: "alice"})
	require.NoError(t, err)
	assert.Equal(t, "chat-42", chat2.ID)
}

func TestCreateMessageEchoesClientIdentity(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	chat, err := store.CreateChat(ctx, &CreateChatRequest{UserID: "alice"})
	require.NoError(t, err)

	message, err := store.CreateMessage(ctx, &CreateMessageRequest{
		ChatID:        chat.ID,
		ID:            "client-generated-id",
		Role:          types.RoleUser,
		Content:       "hi",
		AttachmentIDs: []string{"att-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "client-generated-id", message.ID)
	assert.NotZero(t, message.CreationTimestamp)

	messages, err := store.ListMessages(ctx, chat.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "client-generated-id", messages[0].ID)
	assert.Equal(t, []string{"att-1"}, messages[0].AttachmentIDs)

	// The message write bumps the chat's update timestamp.
	updated, err := store.GetChat(ctx, chat.ID)
	require.NoError(t, err)
	assert.Greater(t, updated.UpdateTimestamp, chat.UpdateTimestamp)
}

func TestCreateMessageOnMissingChat(t *testing.T) {
	store := newTestStore(t)
	_, err := store.CreateMessage(context.Background(), &CreateMessageRequest{
		ChatID: "nope", Role: types.RoleUser, Content: "hi",
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListChatsOrderingAndExclusions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	older, err := store.CreateChat(ctx, &CreateChatRequest{ID: "older", UserID: "alice"})
	require.NoError(t, err)
	_, err = store.CreateChat(ctx, &CreateChatRequest{ID: "newer", UserID: "alice"})
	require.NoError(t, err)
	archived, err := store.CreateChat(ctx, &CreateChatRequest{ID: "archived", UserID: "alice"})
	require.NoError(t, err)
	deleted, err := store.CreateChat(ctx, &CreateChatRequest{ID: "deleted", UserID: "alice"})
	require.NoError(t, err)
	_, err = store.CreateChat(ctx, &CreateChatRequest{ID: "bobs", UserID: "bob"})
	require.NoError(t, err)

	require.NoError(t, store.ArchiveChat(ctx, archived.ID))
	require.NoError(t, store.DeleteChat(ctx, deleted.ID))
	// Pinning the older chat hoists it above the newer one.
	require.NoError(t, store.PinChat(ctx, older.ID))

	chats, err := store.ListChats(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, "older", chats[0].ID)
	assert.Equal(t, "newer", chats[1].ID)

	archivedChats, err := store.ListArchivedChats(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, archivedChats, 1)
	assert.Equal(t, "archived", archivedChats[0].ID)
}

func TestUnpinChat(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	chat, err := store.CreateChat(ctx, &CreateChatRequest{UserID: "alice"})
	require.NoError(t, err)
	require.NoError(t, store.PinChat(ctx, chat.ID))

	pinned, err := store.GetChat(ctx, chat.ID)
	require.NoError(t, err)
	require.NotNil(t, pinned.PinnedTimestamp)

	require.NoError(t, store.UnpinChat(ctx, chat.ID))
	unpinned, err := store.GetChat(ctx, chat.ID)
	require.NoError(t, err)
	assert.Nil(t, unpinned.PinnedTimestamp)
}

func TestMutationsOnMissingChat(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.PinChat(ctx, "nope"), ErrNotFound)
	assert.ErrorIs(t, store.ArchiveChat(ctx, "nope"), ErrNotFound)
	assert.ErrorIs(t, store.DeleteChat(ctx, "nope"), ErrNotFound)
	_, err := store.UpdateChat(ctx, &UpdateChatRequest{ChatID: "nope", UpdateMask: []string{"title"}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateChatTitle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	chat, err := store.CreateChat(ctx, &CreateChatRequest{UserID: "alice"})
	require.NoError(t, err)

	title := "Trip planning"
	updated, err := store.UpdateChat(ctx, &UpdateChatRequest{
		ChatID:     chat.ID,
		Title:      &title,
		UpdateMask: []string{"title"},
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Title)
	assert.Equal(t, "Trip planning", *updated.Title)
	assert.Greater(t, updated.UpdateTimestamp, chat.UpdateTimestamp)

	// An empty mask is a no-op.
	same, err := store.UpdateChat(ctx, &UpdateChatRequest{ChatID: chat.ID})
	require.NoError(t, err)
	assert.Equal(t, updated.UpdateTimestamp, same.UpdateTimestamp)
}

func TestDeleteMessage(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	chat, err := store.CreateChat(ctx, &CreateChatRequest{UserID: "alice"})
	require.NoError(t, err)
	message, err := store.CreateMessage(ctx, &CreateMessageRequest{
		ChatID: chat.ID, Role: types.RoleUser, Content: "hi",
	})
	require.NoError(t, err)

	require.NoError(t, store.DeleteMessage(ctx, chat.ID, message.ID))
	messages, err := store.ListMessages(ctx, chat.ID)
	require.NoError(t, err)
	assert.Empty(t, messages)

	assert.ErrorIs(t, store.DeleteMessage(ctx, chat.ID, message.ID), ErrNotFound)
}

func TestSearchChats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	chat, err := store.CreateChat(ctx, &CreateChatRequest{UserID: "alice"})
	require.NoError(t, err)
	_, err = store.CreateMessage(ctx, &CreateMessageRequest{
		ChatID: chat.ID, Role: types.RoleUser, Content: "how do marmots hibernate",
	})
	require.NoError(t, err)

	results, err := store.SearchChats(ctx, &SearchChatsRequest{UserID: "alice", Query: "marmots"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, chat.ID, results[0].ID)

	// Someone else's chats don't surface.
	results, err = store.SearchChats(ctx, &SearchChatsRequest{UserID: "bob", Query: "marmots"})
	require.NoError(t, err)
	assert.Empty(t, results)

	// Deleted chats drop out of the index.
	require.NoError(t, store.DeleteChat(ctx, chat.ID))
	results, err = store.SearchChats(ctx, &SearchChatsRequest{UserID: "alice", Query: "marmots"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

type staticTitler struct{ title string }

func (t *staticTitler) GenerateTitle(_ context.Context, _ []*types.Message) (string, error) {
	return t.title, nil
}

func TestGenerateChatTitle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	chat, err := store.CreateChat(ctx, &CreateChatRequest{UserID: "alice"})
	require.NoError(t, err)
	_, err = store.CreateMessage(ctx, &CreateMessageRequest{
		ChatID: chat.ID, Role: types.RoleUser, Content: "hello there",
	})
	require.NoError(t, err)

	ids, err := store.ListUntitledChatIDs(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{chat.ID}, ids)

	store.SetTitler(&staticTitler{title: "Greetings"})
	require.NoError(t, store.GenerateChatTitle(ctx, chat.ID))

	titled, err := store.GetChat(ctx, chat.ID)
	require.NoError(t, err)
	require.NotNil(t, titled.Title)
	assert.Equal(t, "Greetings", *titled.Title)

	ids, err = store.ListUntitledChatIDs(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

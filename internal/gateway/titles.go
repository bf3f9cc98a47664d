package gateway

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/malonaz/tchat/internal/debug"
)

const titleGenerationTimeout = 30 * time.Second

// generateTitle computes and persists a title for the given chat. Runs in
// the background after the first user message lands; failures are logged
// and left for the backfill command.
func (s *Store) generateTitle(chatID string) {
	ctx, cancel := context.WithTimeout(context.Background(), titleGenerationTimeout)
	defer cancel()
	if err := s.GenerateChatTitle(ctx, chatID); err != nil {
		debug.GetLogger().Error("generating chat title", "chat_id", chatID, "error", err)
	}
}

// GenerateChatTitle computes a title for a chat from its opening messages
// and stores it.
func (s *Store) GenerateChatTitle(ctx context.Context, chatID string) error {
	if s.titler == nil {
		return errors.New("no titler configured")
	}

	messages, err := s.ListMessages(ctx, chatID)
	if err != nil {
		return errors.Wrap(err, "listing messages")
	}
	if len(messages) == 0 {
		return errors.New("chat has no messages")
	}

	title, err := s.titler.GenerateTitle(ctx, messages)
	if err != nil {
		return errors.Wrap(err, "generating title")
	}

	_, err = s.UpdateChat(ctx, &UpdateChatRequest{
		ChatID:     chatID,
		Title:      &title,
		UpdateMask: []string{"title"},
	})
	return errors.Wrap(err, "updating chat title")
}

// ListUntitledChatIDs returns the ids of live chats that have no title yet.
func (s *Store) ListUntitledChatIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM chats
		WHERE user_id = ? AND title IS NULL AND deleted_timestamp IS NULL
		ORDER BY update_timestamp DESC
	`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying untitled chats")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "scanning chat id")
		}
		ids = append(ids, id)
	}
	return ids, errors.Wrap(rows.Err(), "iterating chat ids")
}

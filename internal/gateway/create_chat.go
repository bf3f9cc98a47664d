package gateway

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/malonaz/tchat/internal/types"
)

// CreateChat inserts a new chat and returns it. An ID is assigned when the
// request carries none.
func (s *Store) CreateChat(ctx context.Context, request *CreateChatRequest) (*types.Chat, error) {
	if request.UserID == "" {
		return nil, errors.New("user id cannot be empty")
	}

	now := types.Now()
	chat := &types.Chat{
		ID:                request.ID,
		UserID:            request.UserID,
		Title:             request.Title,
		CreationTimestamp: now,
		UpdateTimestamp:   now,
	}
	if chat.ID == "" {
		chat.ID = uuid.New().String()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO chats (id, user_id, title, creation_timestamp, update_timestamp)
		VALUES (?, ?, ?, ?, ?)
	`, chat.ID, chat.UserID, chat.Title, chat.CreationTimestamp, chat.UpdateTimestamp)
	if err != nil {
		return nil, errors.Wrap(err, "inserting into chats table")
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO chats_fts (id, searchable_content) VALUES (?, ?)`,
		chat.ID, searchableContent(chat.Title, nil))
	if err != nil {
		return nil, errors.Wrap(err, "inserting into FTS table")
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "committing transaction")
	}
	return chat, nil
}

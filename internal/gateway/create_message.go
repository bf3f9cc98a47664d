package gateway

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/malonaz/tchat/internal/types"
)

// CreateMessage appends a message to a chat and bumps the chat's update
// timestamp. ID and creation timestamp are assigned when absent so that a
// client-generated identity survives the round-trip unchanged.
//
// On the first user message of an untitled chat, a title is computed
// asynchronously when a titler is configured.
func (s *Store) CreateMessage(ctx context.Context, request *CreateMessageRequest) (*types.Message, error) {
	chat, err := s.GetChat(ctx, request.ChatID)
	if err != nil {
		return nil, err
	}

	message := &types.Message{
		ID:                request.ID,
		ChatID:            request.ChatID,
		Role:              request.Role,
		Content:           request.Content,
		AttachmentIDs:     request.AttachmentIDs,
		Model:             request.Model,
		CreationTimestamp: types.Now(),
	}
	if message.ID == "" {
		message.ID = uuid.New().String()
	}

	attachmentsJSON, err := json.Marshal(message.AttachmentIDs)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling attachment ids")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO messages (id, chat_id, role, content, attachment_ids, model, creation_timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, message.ID, message.ChatID, string(message.Role), message.Content,
		string(attachmentsJSON), message.Model, message.CreationTimestamp)
	if err != nil {
		return nil, errors.Wrap(err, "inserting into messages table")
	}

	_, err = tx.ExecContext(ctx, `UPDATE chats SET update_timestamp = ? WHERE id = ?`,
		message.CreationTimestamp, message.ChatID)
	if err != nil {
		return nil, errors.Wrap(err, "bumping chat update timestamp")
	}

	if err := s.refreshSearchableContent(ctx, tx, chat); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "committing transaction")
	}

	if chat.Title == nil && message.Role == types.RoleUser && s.titler != nil {
		go s.generateTitle(chat.ID)
	}

	return message, nil
}

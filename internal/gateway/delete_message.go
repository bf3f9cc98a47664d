package gateway

import (
	"context"

	"github.com/pkg/errors"

	"github.com/malonaz/tchat/internal/types"
)

// DeleteMessage removes a message from a chat.
func (s *Store) DeleteMessage(ctx context.Context, chatID, messageID string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM messages WHERE id = ? AND chat_id = ?
	`, messageID, chatID)
	if err != nil {
		return errors.Wrap(err, "deleting message")
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "checking rows affected")
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	_, err = s.db.ExecContext(ctx, `UPDATE chats SET update_timestamp = ? WHERE id = ?`,
		types.Now(), chatID)
	return errors.Wrap(err, "bumping chat update timestamp")
}

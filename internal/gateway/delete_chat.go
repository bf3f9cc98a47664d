package gateway

import (
	"context"

	"github.com/pkg/errors"

	"github.com/malonaz/tchat/internal/types"
)

// DeleteChat soft-deletes a chat. The row is kept; the chat disappears from
// every view. Messages are left in place under the deleted chat.
func (s *Store) DeleteChat(ctx context.Context, chatID string) error {
	now := types.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE chats SET deleted_timestamp = ?, update_timestamp = ?
		WHERE id = ? AND deleted_timestamp IS NULL
	`, now, now, chatID)
	if err != nil {
		return errors.Wrap(err, "soft-deleting chat")
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "checking rows affected")
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	// Deleted chats must not surface in search either.
	if _, err := tx.ExecContext(ctx, `DELETE FROM chats_fts WHERE id = ?`, chatID); err != nil {
		return errors.Wrap(err, "deleting from FTS table")
	}

	return errors.Wrap(tx.Commit(), "committing transaction")
}

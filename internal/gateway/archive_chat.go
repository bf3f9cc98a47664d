package gateway

import (
	"context"

	"github.com/pkg/errors"

	"github.com/malonaz/tchat/internal/types"
)

// ArchiveChat sets the archived timestamp of a chat, removing it from the
// default list view.
func (s *Store) ArchiveChat(ctx context.Context, chatID string) error {
	now := types.Now()
	result, err := s.db.ExecContext(ctx, `
		UPDATE chats SET archived_timestamp = ?, update_timestamp = ?
		WHERE id = ? AND deleted_timestamp IS NULL
	`, now, now, chatID)
	if err != nil {
		return errors.Wrap(err, "archiving chat")
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "checking rows affected")
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

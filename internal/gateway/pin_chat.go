package gateway

import (
	"context"

	"github.com/pkg/errors"

	"github.com/malonaz/tchat/internal/types"
)

// PinChat sets the pinned timestamp of a chat.
func (s *Store) PinChat(ctx context.Context, chatID string) error {
	return s.setPinned(ctx, chatID, true)
}

// UnpinChat clears the pinned timestamp of a chat.
func (s *Store) UnpinChat(ctx context.Context, chatID string) error {
	return s.setPinned(ctx, chatID, false)
}

func (s *Store) setPinned(ctx context.Context, chatID string, pinned bool) error {
	now := types.Now()
	var pinnedTimestamp *int64
	if pinned {
		pinnedTimestamp = &now
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE chats SET pinned_timestamp = ?, update_timestamp = ?
		WHERE id = ? AND deleted_timestamp IS NULL
	`, pinnedTimestamp, now, chatID)
	if err != nil {
		return errors.Wrap(err, "updating pinned timestamp")
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

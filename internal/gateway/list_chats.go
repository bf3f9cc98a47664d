package gateway

import (
	"context"

	"github.com/pkg/errors"

	"github.com/malonaz/tchat/internal/types"
)

// ListChats returns a user's chats, pinned first then most recently updated.
// Archived and soft-deleted chats are excluded from the default view.
func (s *Store) ListChats(ctx context.Context, userID string) ([]*types.Chat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+chatColumns+`
		FROM chats
		WHERE user_id = ? AND deleted_timestamp IS NULL AND archived_timestamp IS NULL
		ORDER BY pinned_timestamp IS NULL, pinned_timestamp DESC, update_timestamp DESC
	`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying chats")
	}
	defer rows.Close()

	return scanChats(rows)
}

// ListArchivedChats returns a user's archived chats, most recently updated first.
func (s *Store) ListArchivedChats(ctx context.Context, userID string) ([]*types.Chat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+chatColumns+`
		FROM chats
		WHERE user_id = ? AND deleted_timestamp IS NULL AND archived_timestamp IS NOT NULL
		ORDER BY update_timestamp DESC
	`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying archived chats")
	}
	defer rows.Close()

	return scanChats(rows)
}

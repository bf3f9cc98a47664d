package gateway

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/malonaz/tchat/internal/types"
)

// GetChat returns a chat by id. Soft-deleted chats are not found.
func (s *Store) GetChat(ctx context.Context, chatID string) (*types.Chat, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+chatColumns+`
		FROM chats
		WHERE id = ? AND deleted_timestamp IS NULL
	`, chatID)

	chat, err := scanChat(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "querying chat")
	}
	return chat, nil
}

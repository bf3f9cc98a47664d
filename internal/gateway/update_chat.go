package gateway

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/malonaz/tchat/internal/types"
)

// UpdateChat applies the fields named by the update mask and bumps the
// update timestamp. Returns the updated chat.
func (s *Store) UpdateChat(ctx context.Context, request *UpdateChatRequest) (*types.Chat, error) {
	chat, err := s.GetChat(ctx, request.ChatID)
	if err != nil {
		return nil, err
	}

	shouldUpdate := func(field string) bool {
		for _, f := range request.UpdateMask {
			if f == field {
				return true
			}
		}
		return false
	}

	var setClauses []string
	var args []interface{}

	if shouldUpdate("title") {
		setClauses = append(setClauses, "title = ?")
		args = append(args, request.Title)
		chat.Title = request.Title
	}

	if len(setClauses) == 0 {
		return chat, nil
	}

	chat.UpdateTimestamp = types.Now()
	setClauses = append(setClauses, "update_timestamp = ?")
	args = append(args, chat.UpdateTimestamp, chat.ID)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	query := "UPDATE chats SET " + strings.Join(setClauses, ", ") + " WHERE id = ?"
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, errors.Wrap(err, "updating chat")
	}

	if err := s.refreshSearchableContent(ctx, tx, chat); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "committing transaction")
	}
	return chat, nil
}

package gateway

import (
	"database/sql"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/malonaz/tchat/internal/types"
)

const chatColumns = `id, user_id, title, pinned_timestamp, archived_timestamp, deleted_timestamp, creation_timestamp, update_timestamp`

func scanChat(row interface{ Scan(...interface{}) error }) (*types.Chat, error) {
	chat := &types.Chat{}
	var title sql.NullString
	var pinned, archived, deleted sql.NullInt64

	if err := row.Scan(&chat.ID, &chat.UserID, &title, &pinned, &archived, &deleted,
		&chat.CreationTimestamp, &chat.UpdateTimestamp); err != nil {
		return nil, err
	}

	if title.Valid {
		chat.Title = &title.String
	}
	chat.PinnedTimestamp = nullableInt64(pinned)
	chat.ArchivedTimestamp = nullableInt64(archived)
	chat.DeletedTimestamp = nullableInt64(deleted)
	return chat, nil
}

// scanChats helps avoid duplicate chat scanning code.
func scanChats(rows *sql.Rows) ([]*types.Chat, error) {
	var chats []*types.Chat
	for rows.Next() {
		chat, err := scanChat(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning chat row")
		}
		chats = append(chats, chat)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating chat rows")
	}
	return chats, nil
}

func scanMessage(row interface{ Scan(...interface{}) error }) (*types.Message, error) {
	message := &types.Message{}
	var attachmentsJSON string
	if err := row.Scan(&message.ID, &message.ChatID, &message.Role, &message.Content,
		&attachmentsJSON, &message.Model, &message.CreationTimestamp); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(attachmentsJSON), &message.AttachmentIDs); err != nil {
		return nil, errors.Wrap(err, "unmarshaling attachment ids")
	}
	return message, nil
}

func nullableInt64(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	value := v.Int64
	return &value
}

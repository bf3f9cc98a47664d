package gateway

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	"github.com/malonaz/tchat/internal/types"
)

// SearchChatsRequest contains parameters for searching chats.
type SearchChatsRequest struct {
	UserID   string
	Query    string
	PageSize int
}

// SearchChats runs a full-text search over chat titles and message contents.
func (s *Store) SearchChats(ctx context.Context, request *SearchChatsRequest) ([]*types.Chat, error) {
	if request.Query == "" {
		return nil, nil
	}
	pageSize := request.PageSize
	if pageSize == 0 {
		pageSize = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+prefixColumns("c", chatColumns)+`
		FROM chats c
		JOIN chats_fts fts ON c.id = fts.id
		WHERE fts.searchable_content MATCH ?
		AND c.user_id = ? AND c.deleted_timestamp IS NULL
		ORDER BY c.update_timestamp DESC
		LIMIT ?
	`, request.Query, request.UserID, pageSize)
	if err != nil {
		return nil, errors.Wrap(err, "querying search results")
	}
	defer rows.Close()

	return scanChats(rows)
}

// refreshSearchableContent recomputes the FTS row of a chat from its title
// and message contents, within the caller's transaction.
func (s *Store) refreshSearchableContent(ctx context.Context, tx *sql.Tx, chat *types.Chat) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT content FROM messages WHERE chat_id = ? ORDER BY creation_timestamp ASC
	`, chat.ID)
	if err != nil {
		return errors.Wrap(err, "querying message contents")
	}
	defer rows.Close()

	var contents []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return errors.Wrap(err, "scanning message content")
		}
		contents = append(contents, content)
	}
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "iterating message contents")
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM chats_fts WHERE id = ?`, chat.ID); err != nil {
		return errors.Wrap(err, "deleting from FTS table")
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO chats_fts (id, searchable_content) VALUES (?, ?)`,
		chat.ID, searchableContent(chat.Title, contents))
	return errors.Wrap(err, "inserting into FTS table")
}

func searchableContent(title *string, contents []string) string {
	parts := make([]string, 0, len(contents)+1)
	if title != nil {
		parts = append(parts, *title)
	}
	parts = append(parts, contents...)
	return strings.Join(parts, "\n")
}

func prefixColumns(prefix, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, part := range parts {
		parts[i] = prefix + "." + part
	}
	return strings.Join(parts, ", ")
}

package gateway

import (
	"context"
	"database/sql"
	"path/filepath"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/malonaz/tchat/internal/file"
	"github.com/malonaz/tchat/internal/types"
)

// Titler computes a chat title from its opening messages. Wired to the
// streaming transport by the caller; optional.
type Titler interface {
	GenerateTitle(ctx context.Context, messages []*types.Message) (string, error)
}

// Store implements Gateway on top of SQLite.
type Store struct {
	db     *sql.DB
	titler Titler
}

var _ Gateway = (*Store)(nil)

// New opens (and if necessary creates) the store at dbPath.
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := file.CreateDirectoryIfNotExist(filepath.Dir(dbPath)); err != nil {
			return nil, errors.Wrap(err, "creating database directory")
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS chats (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT,
			pinned_timestamp INTEGER,
			archived_timestamp INTEGER,
			deleted_timestamp INTEGER,
			creation_timestamp INTEGER NOT NULL,
			update_timestamp INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			chat_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			attachment_ids TEXT NOT NULL,
			model TEXT NOT NULL DEFAULT '',
			creation_timestamp INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS messages_by_chat ON messages (chat_id, creation_timestamp);
		CREATE VIRTUAL TABLE IF NOT EXISTS chats_fts USING fts5 (id UNINDEXED, searchable_content);
	`)
	if err != nil {
		return nil, errors.Wrap(err, "creating tables")
	}

	return &Store{db: db}, nil
}

// SetTitler enables asynchronous title generation on first user message.
func (s *Store) SetTitler(titler Titler) {
	s.titler = titler
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

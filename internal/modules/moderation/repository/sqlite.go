package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/reshetovitsme/modwatch/internal/modules/moderation/domain"
	"github.com/samber/oops"
)

const (
	topAuthorsLimit = 10
	busyTimeoutMS   = 5000
)

const schema = `
CREATE TABLE IF NOT EXISTS moderation_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	forum_id TEXT NOT NULL,
	article_url TEXT NOT NULL,
	posting_id TEXT NOT NULL,
	author TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL DEFAULT '',
	text TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL DEFAULT '',
	moderated_at TIMESTAMP NOT NULL,
	UNIQUE(forum_id, posting_id)
);
CREATE TABLE IF NOT EXISTS metadata (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

// Columns added after the first schema; older databases are migrated in place.
var addedColumns = []struct{ name, definition string }{
	{"is_reply", "INTEGER NOT NULL DEFAULT 0"},
	{"upvotes", "INTEGER NOT NULL DEFAULT 0"},
	{"downvotes", "INTEGER NOT NULL DEFAULT 0"},
	{"thread_id", "TEXT NOT NULL DEFAULT ''"},
	{"article_title", "TEXT NOT NULL DEFAULT ''"},
	{"parent_posting_id", "TEXT NOT NULL DEFAULT ''"},
	{"parent_author", "TEXT NOT NULL DEFAULT ''"},
	{"parent_title", "TEXT NOT NULL DEFAULT ''"},
	{"parent_text", "TEXT NOT NULL DEFAULT ''"},
}

const indexes = `
CREATE INDEX IF NOT EXISTS idx_moderation_events_moderated_at ON moderation_events(moderated_at);
CREATE INDEX IF NOT EXISTS idx_moderation_events_article_url ON moderation_events(article_url);`

const insertEvent = `
INSERT OR IGNORE INTO moderation_events (
	forum_id, article_url, article_title, posting_id, author, title, text, created_at, moderated_at,
	is_reply, upvotes, downvotes, thread_id, parent_posting_id, parent_author, parent_title, parent_text
) VALUES (
	:forum_id, :article_url, :article_title, :posting_id, :author, :title, :text, :created_at, :moderated_at,
	:is_reply, :upvotes, :downvotes, :thread_id, :parent_posting_id, :parent_author, :parent_title, :parent_text
)`

const selectEvents = `
SELECT id, forum_id, article_url, article_title, posting_id, author, title, text, created_at, moderated_at,
	is_reply, upvotes, downvotes, thread_id, parent_posting_id, parent_author, parent_title, parent_text
FROM moderation_events`

// SQLite implements Repository on a single SQLite file in WAL mode, so the
// status readers can query while the poll loop writes.
type SQLite struct {
	db *sqlx.DB
}

// NewSQLite opens (creating if needed) the database at path and migrates the schema
func NewSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, oops.With("db_path", path, "context", "failed to create database directory").Wrap(err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=%d", path, busyTimeoutMS)
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, oops.With("db_path", path, "context", "failed to open database").Wrap(err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, oops.With("db_path", path, "context", "failed to connect to database").Wrap(err)
	}

	store := &SQLite{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	slog.Info("Database ready", "db_path", path)
	return store, nil
}

func (s *SQLite) migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return oops.With("context", "failed to create tables").Wrap(err)
	}
	for _, col := range addedColumns {
		stmt := fmt.Sprintf("ALTER TABLE moderation_events ADD COLUMN %s %s", col.name, col.definition)
		if _, err := s.db.Exec(stmt); err != nil && !strings.Contains(err.Error(), "duplicate column") {
			return oops.With("column", col.name, "context", "failed to migrate moderation_events").Wrap(err)
		}
	}
	if _, err := s.db.Exec(indexes); err != nil {
		return oops.With("context", "failed to create indexes").Wrap(err)
	}
	return nil
}

// Persist inserts the event unless (forum_id, posting_id) is already recorded.
func (s *SQLite) Persist(ctx context.Context, event *domain.Event) (domain.PersistResult, error) {
	row := *event
	row.ModeratedAt = row.ModeratedAt.UTC()

	res, err := s.db.NamedExecContext(ctx, insertEvent, &row)
	if err != nil {
		return "", oops.With("forum_id", event.ForumID, "posting_id", event.PostingID, "context", "failed to insert event").Wrap(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", oops.With("forum_id", event.ForumID, "posting_id", event.PostingID).Wrap(err)
	}
	if n == 0 {
		return domain.PersistResultDuplicate, nil
	}
	return domain.PersistResultStored, nil
}

// Query returns matching events, newest detection first.
func (s *SQLite) Query(ctx context.Context, filter domain.Filter) ([]domain.Event, error) {
	var (
		where []string
		args  []any
	)
	if filter.ForumID != "" {
		where = append(where, "forum_id = ?")
		args = append(args, filter.ForumID)
	}
	if filter.ArticleURL != "" {
		where = append(where, "article_url = ?")
		args = append(args, filter.ArticleURL)
	}
	if !filter.Since.IsZero() {
		where = append(where, "moderated_at >= ?")
		args = append(args, filter.Since.UTC())
	}

	query := selectEvents
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY moderated_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	events := []domain.Event{}
	if err := s.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, oops.With("context", "failed to query events").Wrap(err)
	}
	return events, nil
}

// Stats aggregates the events detected since the given time.
func (s *SQLite) Stats(ctx context.Context, since time.Time) (*domain.Stats, error) {
	since = since.UTC()
	stats := &domain.Stats{Since: since}

	if err := s.db.GetContext(ctx, &stats.Total,
		`SELECT COUNT(*) FROM moderation_events WHERE moderated_at >= ?`, since); err != nil {
		return nil, oops.With("context", "failed to count events").Wrap(err)
	}
	if stats.Total == 0 {
		return stats, nil
	}

	if err := s.db.GetContext(ctx, &stats.Replies,
		`SELECT COUNT(*) FROM moderation_events WHERE moderated_at >= ? AND is_reply = 1`, since); err != nil {
		return nil, oops.With("context", "failed to count replies").Wrap(err)
	}

	if err := s.db.SelectContext(ctx, &stats.Articles, `
		SELECT article_url, MAX(article_title) AS article_title, COUNT(*) AS cnt,
			COALESCE(SUM(upvotes), 0) AS upvotes, COALESCE(SUM(downvotes), 0) AS downvotes
		FROM moderation_events WHERE moderated_at >= ?
		GROUP BY article_url ORDER BY cnt DESC, article_url`, since); err != nil {
		return nil, oops.With("context", "failed to aggregate articles").Wrap(err)
	}

	if err := s.db.SelectContext(ctx, &stats.TopAuthors, `
		SELECT author, COUNT(*) AS cnt FROM moderation_events WHERE moderated_at >= ?
		GROUP BY author ORDER BY cnt DESC, author LIMIT ?`, since, topAuthorsLimit); err != nil {
		return nil, oops.With("context", "failed to aggregate authors").Wrap(err)
	}

	if len(stats.Articles) > 0 {
		if err := s.db.SelectContext(ctx, &stats.TopArticleEvents,
			selectEvents+` WHERE moderated_at >= ? AND article_url = ? ORDER BY created_at, id`,
			since, stats.Articles[0].ArticleURL); err != nil {
			return nil, oops.With("context", "failed to load top article events").Wrap(err)
		}
	}

	return stats, nil
}

// GetMeta reads a metadata value; the bool is false if the key is unset.
func (s *SQLite) GetMeta(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.GetContext(ctx, &value, `SELECT value FROM metadata WHERE key = ?`, key)
	if stderrors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, oops.With("key", key, "context", "failed to read metadata").Wrap(err)
	}
	return value, true, nil
}

// SetMeta stores a metadata value, replacing any previous one.
func (s *SQLite) SetMeta(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO metadata (key, value) VALUES (?, ?)`, key, value); err != nil {
		return oops.With("key", key, "context", "failed to write metadata").Wrap(err)
	}
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// DB exposes the connection pool for repositories sharing the same database file.
func (s *SQLite) DB() *sqlx.DB {
	return s.db
}

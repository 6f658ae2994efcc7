package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/reshetovitsme/modwatch/internal/modules/subscriber/domain"
	"github.com/samber/oops"
)

const schema = `
CREATE TABLE IF NOT EXISTS subscribers (
	chat_id INTEGER PRIMARY KEY,
	username TEXT NOT NULL DEFAULT '',
	added_at TIMESTAMP NOT NULL
);`

// SQLite implements Repository in the event database
type SQLite struct {
	db *sqlx.DB
}

// NewSQLite creates the subscribers table on db if needed
func NewSQLite(db *sqlx.DB) (*SQLite, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, oops.With("context", "creating subscribers table").Wrap(err)
	}
	return &SQLite{db: db}, nil
}

// Save adds the subscriber; subscribing twice keeps the original AddedAt.
func (s *SQLite) Save(ctx context.Context, sub *domain.Subscriber) error {
	_, err := s.db.NamedExecContext(ctx, `
INSERT INTO subscribers (chat_id, username, added_at) VALUES (:chat_id, :username, :added_at)
ON CONFLICT(chat_id) DO UPDATE SET username = excluded.username`, sub)
	if err != nil {
		return oops.With("chat_id", sub.ChatID).Wrap(err)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, chatID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM subscribers WHERE chat_id = ?`, chatID)
	if err != nil {
		return false, oops.With("chat_id", chatID).Wrap(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, oops.With("chat_id", chatID).Wrap(err)
	}
	return n > 0, nil
}

func (s *SQLite) All(ctx context.Context) ([]domain.Subscriber, error) {
	var subs []domain.Subscriber
	if err := s.db.SelectContext(ctx, &subs, `SELECT chat_id, username, added_at FROM subscribers ORDER BY added_at, chat_id`); err != nil {
		return nil, oops.With("context", "listing subscribers").Wrap(err)
	}
	return subs, nil
}

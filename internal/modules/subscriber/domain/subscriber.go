package domain

import "time"

// Subscriber is a Telegram chat that receives the daily digest
type Subscriber struct {
	ChatID   int64     `db:"chat_id" json:"chat_id"`
	Username string    `db:"username" json:"username"`
	AddedAt  time.Time `db:"added_at" json:"added_at"`
}

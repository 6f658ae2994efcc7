package repository

import (
	"context"
	"time"

	"github.com/reshetovitsme/modwatch/internal/modules/moderation/domain"
)

// Repository defines the durable, append-only store for moderation events
// and the small metadata table used for cross-restart bookkeeping.
type Repository interface {
	// Persist stores the event unless (ForumID, PostingID) is already recorded.
	Persist(ctx context.Context, event *domain.Event) (domain.PersistResult, error)
	Query(ctx context.Context, filter domain.Filter) ([]domain.Event, error)
	Stats(ctx context.Context, since time.Time) (*domain.Stats, error)
	GetMeta(ctx context.Context, key string) (string, bool, error)
	SetMeta(ctx context.Context, key, value string) error
	Close() error
}

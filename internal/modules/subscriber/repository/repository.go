package repository

import (
	"context"

	"github.com/reshetovitsme/modwatch/internal/modules/subscriber/domain"
)

// Repository defines the interface for subscriber persistence
type Repository interface {
	Save(ctx context.Context, sub *domain.Subscriber) error
	Delete(ctx context.Context, chatID int64) (bool, error)
	All(ctx context.Context) ([]domain.Subscriber, error)
}

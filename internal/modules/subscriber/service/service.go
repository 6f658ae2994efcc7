package service

import (
	"context"
	"time"

	"github.com/reshetovitsme/modwatch/internal/modules/subscriber/domain"
	"github.com/reshetovitsme/modwatch/internal/modules/subscriber/repository"
	"github.com/samber/lo"
)

// Service handles subscriber business logic
type Service struct {
	repo repository.Repository
	now  func() time.Time
}

// New creates a new subscriber service
func New(repo repository.Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// Subscribe registers a chat for the digest
func (s *Service) Subscribe(ctx context.Context, chatID int64, username string) error {
	return s.repo.Save(ctx, &domain.Subscriber{
		ChatID:   chatID,
		Username: username,
		AddedAt:  s.now().UTC(),
	})
}

// Unsubscribe removes a chat; it reports false if the chat was not subscribed.
func (s *Service) Unsubscribe(ctx context.Context, chatID int64) (bool, error) {
	return s.repo.Delete(ctx, chatID)
}

// Subscribers lists all subscribed chats
func (s *Service) Subscribers(ctx context.Context) ([]domain.Subscriber, error) {
	return s.repo.All(ctx)
}

// ChatIDs returns the subscribed chat ids plus extra, without duplicates.
func (s *Service) ChatIDs(ctx context.Context, extra ...int64) ([]int64, error) {
	subs, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	ids := append(lo.Filter(extra, func(id int64, _ int) bool { return id != 0 }),
		lo.Map(subs, func(sub domain.Subscriber, _ int) int64 { return sub.ChatID })...)
	return lo.Uniq(ids), nil
}

// IsAuthorized checks if a user is authorized
func (s *Service) IsAuthorized(userID int64, allowedUsers []int64) bool {
	if len(allowedUsers) == 0 {
		return true // No restrictions
	}
	return lo.Contains(allowedUsers, userID)
}

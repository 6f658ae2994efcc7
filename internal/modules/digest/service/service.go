package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	moderationDomain "github.com/reshetovitsme/modwatch/internal/modules/moderation/domain"
	"github.com/robfig/cron/v3"
	"github.com/samber/oops"
)

const (
	// MetaLastDigestDate records the UTC day of the last digest run.
	MetaLastDigestDate = "last_digest_date"

	dayLayout = "2006-01-02"
	schedule  = "@hourly"
)

// Store is the part of the event store the digest needs.
type Store interface {
	Stats(ctx context.Context, since time.Time) (*moderationDomain.Stats, error)
	GetMeta(ctx context.Context, key string) (string, bool, error)
	SetMeta(ctx context.Context, key, value string) error
}

// Publisher delivers a rendered digest, e.g. to a chat.
type Publisher interface {
	Publish(ctx context.Context, text string) error
}

// Service publishes one digest of moderation activity per UTC day, once the
// configured hour has passed.
type Service struct {
	store     Store
	publisher Publisher
	hour      int
	now       func() time.Time

	cron   *cron.Cron
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new digest service. hour is the earliest UTC hour a digest is sent.
func New(store Store, publisher Publisher, hour int, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, publisher: publisher, hour: hour, now: now}
}

// Start schedules an hourly check and runs one immediately.
func (s *Service) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.cron = cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.Recover(cron.DefaultLogger)))

	if _, err := s.cron.AddFunc(schedule, s.check); err != nil {
		return oops.With("schedule", schedule, "context", "could not set up digest job").Wrap(err)
	}
	s.cron.Start()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.check()
	}()

	slog.Info("Digest scheduled", "hour_utc", s.hour)
	return nil
}

// Stop waits for a running check to finish and stops the schedule.
func (s *Service) Stop() {
	if s.cron == nil {
		return
	}
	s.cancel()
	<-s.cron.Stop().Done()
	s.wg.Wait()
}

func (s *Service) check() {
	if _, err := s.RunIfDue(s.ctx); err != nil {
		slog.Error("Digest failed", "error", err)
	}
}

// RunIfDue publishes today's digest unless it already ran today or it is earlier than
// the configured hour. A day without events publishes nothing but still counts as done.
// It reports whether the digest ran.
func (s *Service) RunIfDue(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	today := now.Format(dayLayout)

	last, _, err := s.store.GetMeta(ctx, MetaLastDigestDate)
	if err != nil {
		return false, oops.With("context", "failed to read last digest date").Wrap(err)
	}
	if last == today || now.Hour() < s.hour {
		return false, nil
	}

	daily, err := s.store.Stats(ctx, now.Add(-24*time.Hour))
	if err != nil {
		return false, oops.With("window", "24h").Wrap(err)
	}

	if daily.Total == 0 {
		slog.Info("Digest skipped, no moderated postings in the last 24h")
	} else {
		weekly, err := s.store.Stats(ctx, now.Add(-7*24*time.Hour))
		if err != nil {
			return false, oops.With("window", "168h").Wrap(err)
		}
		if err := s.publisher.Publish(ctx, Render(today, daily, weekly)); err != nil {
			return false, oops.With("day", today, "context", "failed to publish digest").Wrap(err)
		}
		slog.Info("Digest published", "day", today, "moderated", daily.Total)
	}

	if err := s.store.SetMeta(ctx, MetaLastDigestDate, today); err != nil {
		return true, oops.With("day", today, "context", "failed to record digest date").Wrap(err)
	}
	return true, nil
}

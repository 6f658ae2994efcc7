package service

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/reshetovitsme/modwatch/internal/modules/forum/domain"
	"github.com/reshetovitsme/modwatch/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// InfoSource resolves an article to its forum.
type InfoSource interface {
	FetchForumInfo(ctx context.Context, articleURL string) (domain.Info, error)
}

// Discoverer lists candidate articles, e.g. from the site's RSS feed.
type Discoverer interface {
	DiscoverArticles(ctx context.Context) ([]domain.Article, error)
}

// Options tunes onboarding and eviction
type Options struct {
	// MinPostings is the least total posting count a discovered article needs.
	MinPostings int
	// MaxInactive evicts forums without a new posting for longer than this. Zero disables eviction.
	MaxInactive time.Duration
	// Normalize canonicalises article references before lookup.
	Normalize func(string) string
	Now       func() time.Time
}

// Service owns the set of monitored forums. It is driven only from the poll loop,
// so it does no locking of its own.
type Service struct {
	source     InfoSource
	discoverer Discoverer
	opts       Options
	forums     map[string]*domain.Forum
	order      []string
}

// New creates a new forum lifecycle service. discoverer may be nil when discovery is off.
func New(source InfoSource, discoverer Discoverer, opts Options) *Service {
	if opts.Normalize == nil {
		opts.Normalize = func(s string) string { return s }
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		source:     source,
		discoverer: discoverer,
		opts:       opts,
		forums:     make(map[string]*domain.Forum),
	}
}

// Onboard resolves an article reference and starts monitoring its forum.
// It returns ErrForumNotFound if the article has no forum and ErrAlreadyMonitored
// if the forum is already watched.
func (s *Service) Onboard(ctx context.Context, ref, title string) (*domain.Forum, error) {
	articleURL := s.opts.Normalize(ref)

	info, err := s.source.FetchForumInfo(ctx, articleURL)
	if err != nil {
		return nil, oops.With("article_url", articleURL).Wrap(err)
	}
	if _, exists := s.forums[info.ForumID]; exists {
		return nil, oops.With("article_url", articleURL, "forum_id", info.ForumID).Wrap(errors.ErrAlreadyMonitored)
	}

	forum := s.add(info.ForumID, articleURL, title)
	slog.Info("Forum added", "forum_id", forum.ID, "article_url", articleURL, "postings", info.TotalPostingCount)
	return forum, nil
}

// Discover asks the discoverer for candidate articles and onboards those whose forum
// has at least MinPostings postings. Failures are logged; nothing is returned to the caller
// except the forums that were added.
func (s *Service) Discover(ctx context.Context) []*domain.Forum {
	if s.discoverer == nil {
		return nil
	}

	articles, err := s.discoverer.DiscoverArticles(ctx)
	if err != nil {
		slog.Warn("Article discovery failed", "error", err)
		return nil
	}
	slog.Info("Discovery found article urls", "count", len(articles))

	knownURLs := lo.SliceToMap(s.Forums(), func(f *domain.Forum) (string, struct{}) {
		return f.ArticleURL, struct{}{}
	})

	var added []*domain.Forum
	for _, article := range articles {
		if ctx.Err() != nil {
			break
		}

		articleURL := s.opts.Normalize(article.URL)
		if _, known := knownURLs[articleURL]; known {
			continue
		}

		info, err := s.source.FetchForumInfo(ctx, articleURL)
		if err != nil {
			if stderrors.Is(err, errors.ErrForumNotFound) {
				slog.Debug("Article has no forum", "article_url", articleURL)
			} else {
				slog.Warn("Forum lookup failed", "article_url", articleURL, "error", err)
			}
			continue
		}
		if _, exists := s.forums[info.ForumID]; exists {
			continue
		}
		if info.TotalPostingCount < s.opts.MinPostings {
			slog.Debug("Forum below posting threshold",
				"article_url", articleURL, "postings", info.TotalPostingCount, "min", s.opts.MinPostings)
			continue
		}

		forum := s.add(info.ForumID, articleURL, article.Title)
		knownURLs[articleURL] = struct{}{}
		added = append(added, forum)
		slog.Info("Discovered forum", "forum_id", forum.ID, "article_url", articleURL, "postings", info.TotalPostingCount)
	}

	return added
}

// Evict drops forums whose newest posting is older than MaxInactive. Forums never
// observed are kept.
func (s *Service) Evict(now time.Time) []*domain.Forum {
	if s.opts.MaxInactive <= 0 {
		return nil
	}

	var evicted []*domain.Forum
	s.order = lo.Filter(s.order, func(id string, _ int) bool {
		forum := s.forums[id]
		age, observed := forum.InactiveFor(now)
		if !observed || age <= s.opts.MaxInactive {
			return true
		}
		delete(s.forums, id)
		evicted = append(evicted, forum)
		slog.Info("Forum evicted", "forum_id", id, "article_url", forum.ArticleURL, "inactive", age.Round(time.Minute))
		return false
	})

	return evicted
}

// Forums returns the monitored forums in the order they were added.
func (s *Service) Forums() []*domain.Forum {
	return lo.Map(s.order, func(id string, _ int) *domain.Forum {
		return s.forums[id]
	})
}

// Get returns the monitored forum with the given id
func (s *Service) Get(forumID string) (*domain.Forum, bool) {
	f, ok := s.forums[forumID]
	return f, ok
}

// Len returns the number of monitored forums
func (s *Service) Len() int {
	return len(s.order)
}

func (s *Service) add(forumID, articleURL, title string) *domain.Forum {
	forum := &domain.Forum{
		ID:           forumID,
		ArticleURL:   articleURL,
		ArticleTitle: title,
		AddedAt:      s.opts.Now().UTC(),
		State:        domain.ForumStateUnseen,
	}
	s.forums[forumID] = forum
	s.order = append(s.order, forumID)
	return forum
}

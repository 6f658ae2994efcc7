package service

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	detectionDomain "github.com/reshetovitsme/modwatch/internal/modules/detection/domain"
	detectionService "github.com/reshetovitsme/modwatch/internal/modules/detection/service"
	forumDomain "github.com/reshetovitsme/modwatch/internal/modules/forum/domain"
	forumService "github.com/reshetovitsme/modwatch/internal/modules/forum/service"
	moderationDomain "github.com/reshetovitsme/modwatch/internal/modules/moderation/domain"
	postingDomain "github.com/reshetovitsme/modwatch/internal/modules/posting/domain"
	postingService "github.com/reshetovitsme/modwatch/internal/modules/posting/service"
	"github.com/reshetovitsme/modwatch/internal/shared/errors"
	"github.com/reshetovitsme/modwatch/internal/shared/metrics"
	"github.com/reshetovitsme/modwatch/internal/source/forumapi"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

const defaultWatchBuffer = 32

// PostingSource fetches the complete, flattened posting set of a forum.
type PostingSource interface {
	FetchPostings(ctx context.Context, forumID string) (postingDomain.Snapshot, error)
}

// Sink is the durable event store the orchestrator writes to and readers query.
type Sink interface {
	Persist(ctx context.Context, event *moderationDomain.Event) (moderationDomain.PersistResult, error)
	Query(ctx context.Context, filter moderationDomain.Filter) ([]moderationDomain.Event, error)
}

// Options configures the poll loop
type Options struct {
	Interval time.Duration
	// Articles are onboarded once at startup.
	Articles []string
	Discover bool
	// DiscoverEvery runs discovery on every Nth cycle after the first.
	DiscoverEvery int
	WatchBuffer   int
	Now           func() time.Time
}

// View is the state published to readers at the end of a cycle. A View is never
// modified after it has been published.
type View struct {
	Cycle     int
	UpdatedAt time.Time
	Forums    []forumDomain.Forum
	Snapshots map[string]postingDomain.Snapshot
}

type forumState struct {
	snapshot postingDomain.Snapshot
	cache    *postingService.Cache
	// pending holds events whose write failed; they are retried every cycle.
	pending []*moderationDomain.Event
}

// Service is the poll orchestrator. One goroutine runs the cycles and owns all
// detection state; other goroutines only read the published View, query the sink
// or queue article references with Watch.
type Service struct {
	source  PostingSource
	forums  *forumService.Service
	sink    Sink
	metrics *metrics.Metrics
	opts    Options

	state map[string]*forumState
	cycle int
	view  atomic.Pointer[View]
	watch chan string

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a new poll orchestrator
func New(source PostingSource, forums *forumService.Service, sink Sink, m *metrics.Metrics, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.DiscoverEvery <= 0 {
		opts.DiscoverEvery = 1
	}
	if opts.WatchBuffer <= 0 {
		opts.WatchBuffer = defaultWatchBuffer
	}

	s := &Service{
		source:  source,
		forums:  forums,
		sink:    sink,
		metrics: m,
		opts:    opts,
		state:   make(map[string]*forumState),
		watch:   make(chan string, opts.WatchBuffer),
	}
	s.view.Store(&View{Snapshots: map[string]postingDomain.Snapshot{}})
	return s
}

// Start onboards the configured articles, runs the initial discovery and starts the
// poll loop. It fails with ErrNoForums when there is nothing to monitor and discovery
// is off.
func (s *Service) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return errors.ErrAlreadyRunning
	}
	if s.opts.Interval <= 0 {
		s.running.Store(false)
		return oops.With("interval", s.opts.Interval).Wrap(errors.ErrInvalidInterval)
	}

	s.Bootstrap(ctx)
	if s.forums.Len() == 0 && !s.opts.Discover {
		s.running.Store(false)
		return errors.ErrNoForums
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.pollLoop()

	slog.Info("Poll loop started", "forums", s.forums.Len(), "interval", s.opts.Interval, "discover", s.opts.Discover)
	return nil
}

// Stop interrupts the wait between cycles, or the current cycle at the next forum,
// and waits for the loop to exit.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
}

// Bootstrap onboards the configured articles and, when enabled, runs discovery once.
func (s *Service) Bootstrap(ctx context.Context) {
	for _, ref := range s.opts.Articles {
		if _, err := s.forums.Onboard(ctx, ref, ""); err != nil {
			slog.Warn("Could not add article", "article", ref, "error", err)
		}
	}
	if s.opts.Discover {
		s.discover(ctx)
	}
	s.metrics.MonitoredForums.Set(float64(s.forums.Len()))
	s.publish(s.opts.Now())
}

// Watch queues an article reference for onboarding at the start of the next cycle.
// Safe for concurrent use.
func (s *Service) Watch(ref string) error {
	select {
	case s.watch <- ref:
		return nil
	default:
		return oops.With("article", ref).Wrap(errors.ErrWatchQueueFull)
	}
}

// View returns the state published by the last completed cycle.
func (s *Service) View() *View {
	return s.view.Load()
}

// CurrentForums returns the monitored forums as of the last completed cycle.
func (s *Service) CurrentForums() []forumDomain.Forum {
	return s.view.Load().Forums
}

// CurrentSnapshots returns the latest snapshot per forum as of the last completed cycle.
func (s *Service) CurrentSnapshots() map[string]postingDomain.Snapshot {
	return s.view.Load().Snapshots
}

// QueryEvents reads recorded moderation events from the sink.
func (s *Service) QueryEvents(ctx context.Context, filter moderationDomain.Filter) ([]moderationDomain.Event, error) {
	return s.sink.Query(ctx, filter)
}

func (s *Service) pollLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	s.RunCycle(s.ctx)

	for {
		select {
		case <-s.ctx.Done():
			s.flushPending(context.WithoutCancel(s.ctx))
			slog.Info("Poll loop stopped", "cycle", s.cycle)
			return
		case <-ticker.C:
			s.RunCycle(s.ctx)
		}
	}
}

// RunCycle performs one poll cycle. It must not be called concurrently with itself
// or with a running poll loop.
func (s *Service) RunCycle(ctx context.Context) {
	start := time.Now()
	s.cycle++
	cycle := s.cycle

	s.drainWatch(ctx)
	if s.opts.Discover && cycle > 1 && cycle%s.opts.DiscoverEvery == 0 {
		s.discover(ctx)
	}

	moderated := 0
	for _, forum := range s.forums.Forums() {
		if ctx.Err() != nil {
			slog.Info("Cycle interrupted", "cycle", cycle)
			break
		}
		moderated += s.pollForum(ctx, forum)
	}

	for _, forum := range s.forums.Evict(s.opts.Now()) {
		if st, ok := s.state[forum.ID]; ok && len(st.pending) > 0 {
			moderated += s.flush(context.WithoutCancel(ctx), forum, st, nil)
			if len(st.pending) > 0 {
				slog.Error("Dropping unwritten events of evicted forum", "forum_id", forum.ID, "count", len(st.pending))
			}
		}
		delete(s.state, forum.ID)
		s.metrics.Evicted.Inc()
	}

	s.publish(s.opts.Now())

	s.metrics.Cycles.Inc()
	s.metrics.CycleDuration.Observe(time.Since(start).Seconds())
	s.metrics.MonitoredForums.Set(float64(s.forums.Len()))
	slog.Info("Cycle complete", "cycle", cycle, "forums", s.forums.Len(), "moderated", moderated,
		"duration", time.Since(start).Round(time.Millisecond))
}

// pollForum fetches one forum and runs it through the detection pipeline. It returns
// the number of moderation events newly stored. A started forum runs to completion:
// cancellation of ctx is only observed between forums.
func (s *Service) pollForum(ctx context.Context, forum *forumDomain.Forum) int {
	work := context.WithoutCancel(ctx)

	st, ok := s.state[forum.ID]
	if !ok {
		st = &forumState{cache: postingService.NewCache()}
		s.state[forum.ID] = st
	}

	current, err := s.source.FetchPostings(work, forum.ID)
	if err != nil {
		s.metrics.FetchFailures.WithLabelValues(fetchFailureKind(err)).Inc()
		slog.Warn("Fetch failed, keeping previous snapshot", "forum_id", forum.ID, "article_url", forum.ArticleURL, "error", err)
		return s.flush(work, forum, st, nil)
	}
	if current == nil {
		current = postingDomain.Snapshot{}
	}

	if newest, ok := current.Newest(); ok {
		forum.Touch(newest)
	}
	st.cache.Update(current)

	if st.snapshot == nil {
		st.snapshot = current
		forum.State = forumDomain.ForumStateBaselined
		slog.Info("Initial snapshot", "forum_id", forum.ID, "postings", len(current))
		return 0
	}

	diff := detectionService.Diff(st.snapshot, current)
	st.snapshot = current
	forum.State = forumDomain.ForumStateSteady

	var events []*moderationDomain.Event
	if len(diff.Removed) > 0 {
		result := detectionService.Classify(diff.Removed, st.cache)
		s.metrics.Removals.WithLabelValues("moderated").Add(float64(len(result.Moderated)))
		s.metrics.Removals.WithLabelValues("self_deleted").Add(float64(len(result.SelfDeleted)))
		for _, id := range result.SelfDeleted {
			slog.Debug("Posting deleted by its author", "forum_id", forum.ID, "posting_id", id)
		}

		now := s.opts.Now().UTC()
		events = lo.Map(result.Moderated, func(c detectionDomain.Candidate, _ int) *moderationDomain.Event {
			return toEvent(forum, c, now)
		})
	}

	if !diff.Empty() {
		slog.Debug("Forum changed", "forum_id", forum.ID, "added", len(diff.Added), "removed", len(diff.Removed))
	}
	return s.flush(work, forum, st, events)
}

// flush writes the forum's pending events followed by events. Writes that fail stay
// pending for the next attempt. It returns the number of events newly stored.
func (s *Service) flush(ctx context.Context, forum *forumDomain.Forum, st *forumState, events []*moderationDomain.Event) int {
	batch := append(st.pending, events...)
	st.pending = nil
	stored := 0

	for _, event := range batch {
		res, err := s.sink.Persist(ctx, event)
		if err != nil {
			st.pending = append(st.pending, event)
			s.metrics.Persisted.WithLabelValues("error").Inc()
			slog.Error("Failed to persist moderation event", "forum_id", forum.ID, "posting_id", event.PostingID, "error", err)
			continue
		}
		s.metrics.Persisted.WithLabelValues(res.String()).Inc()
		if res != moderationDomain.PersistResultStored {
			continue
		}

		stored++
		slog.Info("Moderated posting",
			"forum_id", forum.ID, "posting_id", event.PostingID, "author", event.Author,
			"reply", event.IsReply, "unresolved", event.CreatedAt == detectionDomain.Placeholder)
	}

	return stored
}

// flushPending makes a last attempt at the events still waiting for a write.
func (s *Service) flushPending(ctx context.Context) {
	for _, forum := range s.forums.Forums() {
		st, ok := s.state[forum.ID]
		if !ok || len(st.pending) == 0 {
			continue
		}
		s.flush(ctx, forum, st, nil)
		if len(st.pending) > 0 {
			slog.Error("Unwritten moderation events lost on shutdown", "forum_id", forum.ID, "count", len(st.pending))
		}
	}
}

func toEvent(forum *forumDomain.Forum, c detectionDomain.Candidate, now time.Time) *moderationDomain.Event {
	created := detectionDomain.Placeholder
	if !c.Unresolved && !c.Posting.CreatedAt.IsZero() {
		created = c.Posting.CreatedAt.UTC().Format(time.RFC3339)
	}

	return &moderationDomain.Event{
		ForumID:         forum.ID,
		ArticleURL:      forum.ArticleURL,
		ArticleTitle:    forum.ArticleTitle,
		PostingID:       c.Posting.ID,
		Author:          c.Posting.Author,
		Title:           c.Posting.Title,
		Text:            c.Posting.Text,
		CreatedAt:       created,
		ModeratedAt:     now,
		IsReply:         c.IsReply,
		Upvotes:         c.Posting.Upvotes,
		Downvotes:       c.Posting.Downvotes,
		ThreadID:        c.ThreadID,
		ParentPostingID: c.Posting.ParentID,
		ParentAuthor:    c.ParentAuthor,
		ParentTitle:     c.ParentTitle,
		ParentText:      c.ParentText,
	}
}

func (s *Service) drainWatch(ctx context.Context) {
	for {
		select {
		case ref := <-s.watch:
			if _, err := s.forums.Onboard(ctx, ref, ""); err != nil {
				slog.Warn("Watch request failed", "article", ref, "error", err)
			}
		default:
			return
		}
	}
}

func (s *Service) discover(ctx context.Context) {
	added := s.forums.Discover(ctx)
	s.metrics.Discovered.Add(float64(len(added)))
	if len(added) > 0 {
		slog.Info("Discovery added forums", "count", len(added), "total", s.forums.Len())
	}
}

// publish swaps in a fresh View so readers see forums and snapshots of the same cycle.
func (s *Service) publish(now time.Time) {
	forums := lo.Map(s.forums.Forums(), func(f *forumDomain.Forum, _ int) forumDomain.Forum {
		return *f
	})

	// Every published forum has an entry; unseen forums get an empty snapshot.
	snapshots := make(map[string]postingDomain.Snapshot, len(forums))
	for _, f := range forums {
		snapshots[f.ID] = postingDomain.Snapshot{}
		if st, ok := s.state[f.ID]; ok && st.snapshot != nil {
			snapshots[f.ID] = st.snapshot
		}
	}

	s.view.Store(&View{
		Cycle:     s.cycle,
		UpdatedAt: now.UTC(),
		Forums:    forums,
		Snapshots: snapshots,
	})
}

func fetchFailureKind(err error) string {
	var fe *forumapi.FetchError
	if stderrors.As(err, &fe) {
		return fe.Kind.String()
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return forumapi.FetchErrorKindNetwork.String()
	}
	return "other"
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	moderationDomain "github.com/reshetovitsme/modwatch/internal/modules/moderation/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	meta  map[string]string
	stats map[time.Duration]*moderationDomain.Stats
	now   time.Time
}

func (f *fakeStore) Stats(_ context.Context, since time.Time) (*moderationDomain.Stats, error) {
	if s, ok := f.stats[f.now.Sub(since)]; ok {
		return s, nil
	}
	return &moderationDomain.Stats{Since: since}, nil
}

func (f *fakeStore) GetMeta(_ context.Context, key string) (string, bool, error) {
	v, ok := f.meta[key]
	return v, ok, nil
}

func (f *fakeStore) SetMeta(_ context.Context, key, value string) error {
	f.meta[key] = value
	return nil
}

type fakePublisher struct {
	texts []string
	err   error
}

func (f *fakePublisher) Publish(_ context.Context, text string) error {
	if f.err != nil {
		return f.err
	}
	f.texts = append(f.texts, text)
	return nil
}

func sampleStats() *moderationDomain.Stats {
	return &moderationDomain.Stats{
		Total:   3,
		Replies: 1,
		Articles: []moderationDomain.ArticleStat{
			{ArticleURL: "u1", ArticleTitle: "Budget", Count: 2, Upvotes: 5, Downvotes: 7},
			{ArticleURL: "u2", Count: 1},
		},
		TopAuthors: []moderationDomain.AuthorStat{{Author: "alice", Count: 2}, {Author: "bob", Count: 1}},
		TopArticleEvents: []moderationDomain.Event{
			{Author: "alice", Text: "first", Upvotes: 1, Downvotes: 4},
			{Author: "bob", Text: "second", IsReply: true},
		},
	}
}

func newDigest(now time.Time, stats map[time.Duration]*moderationDomain.Stats) (*Service, *fakeStore, *fakePublisher) {
	store := &fakeStore{meta: map[string]string{}, stats: stats, now: now}
	pub := &fakePublisher{}
	return New(store, pub, 7, func() time.Time { return now }), store, pub
}

func TestRunIfDuePublishesOncePerDay(t *testing.T) {
	now := time.Date(2025, 3, 2, 8, 0, 0, 0, time.UTC)
	svc, store, pub := newDigest(now, map[time.Duration]*moderationDomain.Stats{24 * time.Hour: sampleStats()})

	ran, err := svc.RunIfDue(context.Background())
	require.NoError(t, err)
	assert.True(t, ran)
	require.Len(t, pub.texts, 1)
	assert.Equal(t, "2025-03-02", store.meta[MetaLastDigestDate])

	ran, err = svc.RunIfDue(context.Background())
	require.NoError(t, err)
	assert.False(t, ran)
	assert.Len(t, pub.texts, 1)
}

func TestRunIfDueWaitsForHour(t *testing.T) {
	now := time.Date(2025, 3, 2, 6, 59, 0, 0, time.UTC)
	svc, store, pub := newDigest(now, map[time.Duration]*moderationDomain.Stats{24 * time.Hour: sampleStats()})

	ran, err := svc.RunIfDue(context.Background())
	require.NoError(t, err)
	assert.False(t, ran)
	assert.Empty(t, pub.texts)
	assert.Empty(t, store.meta)
}

func TestRunIfDueWithoutEventsStillRecordsDay(t *testing.T) {
	now := time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)
	svc, store, pub := newDigest(now, nil)

	ran, err := svc.RunIfDue(context.Background())
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Empty(t, pub.texts)
	assert.Equal(t, "2025-03-02", store.meta[MetaLastDigestDate])
}

func TestRunIfDuePublishFailureRetries(t *testing.T) {
	now := time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)
	svc, store, pub := newDigest(now, map[time.Duration]*moderationDomain.Stats{24 * time.Hour: sampleStats()})
	pub.err = errors.New("chat unavailable")

	_, err := svc.RunIfDue(context.Background())
	require.Error(t, err)
	assert.Empty(t, store.meta)

	pub.err = nil
	ran, err := svc.RunIfDue(context.Background())
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Len(t, pub.texts, 1)
}

func TestRender(t *testing.T) {
	weekly := sampleStats()
	weekly.Total = 10

	text := Render("2025-03-02", sampleStats(), weekly)

	assert.Contains(t, text, "Moderation summary for 2025-03-02")
	assert.Contains(t, text, "Total moderated posts: 3")
	assert.Contains(t, text, "Root posts moderated: 2")
	assert.Contains(t, text, "Budget: 2 moderated (upvotes: 5, downvotes: 7)")
	assert.Contains(t, text, "(unknown title): 1 moderated")
	assert.Contains(t, text, "alice: 2")
	assert.Contains(t, text, "[reply] bob: second")
	assert.Contains(t, text, "Last 7 days")
	assert.Contains(t, text, "Total moderated posts: 10")
}

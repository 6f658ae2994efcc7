package service

import (
	"errors"
	"testing"
	"time"

	"github.com/reshetovitsme/modwatch/internal/modules/posting/domain"
	apperrors "github.com/reshetovitsme/modwatch/internal/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func node(id, author, created string, replies ...domain.Node) domain.Node {
	return domain.Node{
		ID:      id,
		Author:  &domain.Author{Name: author},
		Title:   strPtr("title " + id),
		Text:    strPtr("text " + id),
		History: &domain.History{Created: created},
		Replies: replies,
	}
}

func TestFlattenNestedTree(t *testing.T) {
	reply := node("R1", "bob", "2025-03-01T10:05:00Z", node("R2", "carol", "2025-03-01T10:06:00.123Z"))
	reply.RootPostingID = "P1"
	reply.Replies[0].RootPostingID = "P1"
	root := node("P1", "alice", "2025-03-01T10:00:00Z", reply)
	root.Reactions = &domain.Reaction{Aggregated: []domain.AggregatedReaction{
		{Name: "positive", Value: 12},
		{Name: "negative", Value: 3},
		{Name: "laugh", Value: 99},
	}}

	snapshot, err := Flatten([]domain.Node{root, node("P2", "dave", "2025-03-01T11:00:00Z")})
	require.NoError(t, err)
	require.Len(t, snapshot, 4)

	p1 := snapshot["P1"]
	assert.Equal(t, "alice", p1.Author)
	assert.Equal(t, "", p1.ThreadRootID)
	assert.Equal(t, "", p1.ParentID)
	assert.Equal(t, 12, p1.Upvotes)
	assert.Equal(t, 3, p1.Downvotes)
	assert.False(t, p1.IsReply())
	assert.Equal(t, "P1", p1.ThreadID())

	r2 := snapshot["R2"]
	assert.Equal(t, "P1", r2.ThreadRootID)
	assert.Equal(t, "R1", r2.ParentID)
	assert.True(t, r2.IsReply())
	assert.Equal(t, "P1", r2.ThreadID())
	assert.Equal(t, 0, r2.Upvotes)
	assert.Equal(t, 123*time.Millisecond, time.Duration(r2.CreatedAt.Nanosecond()))

	assert.Equal(t, "R1", snapshot["R1"].ID)
	assert.Equal(t, "", snapshot["P2"].ParentID)
}

func TestFlattenSelfDeleted(t *testing.T) {
	deleted := node("P1", "alice", "2025-03-01T10:00:00Z")
	deleted.LifecycleStatus = "Deleted"
	odd := node("P2", "bob", "2025-03-01T10:00:00Z")
	odd.LifecycleStatus = "SomethingNew"

	snapshot, err := Flatten([]domain.Node{deleted, odd})
	require.NoError(t, err)
	assert.True(t, snapshot["P1"].SelfDeleted)
	assert.False(t, snapshot["P2"].SelfDeleted)
}

func TestFlattenOptionalFieldsDefault(t *testing.T) {
	n := node("P1", "alice", "2025-03-01T10:00:00Z")
	n.Title = nil
	n.Text = nil

	snapshot, err := Flatten([]domain.Node{n})
	require.NoError(t, err)
	assert.Equal(t, "", snapshot["P1"].Title)
	assert.Equal(t, "", snapshot["P1"].Text)
}

func TestFlattenRootReferencingItselfIsNotAReply(t *testing.T) {
	n := node("P1", "alice", "2025-03-01T11:00:00+01:00")
	n.RootPostingID = "P1"

	snapshot, err := Flatten([]domain.Node{n})
	require.NoError(t, err)
	assert.False(t, snapshot["P1"].IsReply())
	assert.Equal(t, "P1", snapshot["P1"].ThreadID())
	assert.Equal(t, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), snapshot["P1"].CreatedAt)
}

func TestFlattenMalformedNodeFailsWholeFetch(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(n *domain.Node)
	}{
		{"missing id", func(n *domain.Node) { n.ID = "" }},
		{"missing author", func(n *domain.Node) { n.Author = nil }},
		{"empty author name", func(n *domain.Node) { n.Author.Name = "" }},
		{"missing history", func(n *domain.Node) { n.History = nil }},
		{"unparseable created", func(n *domain.Node) { n.History.Created = "yesterday" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := node("R1", "bob", "2025-03-01T10:05:00Z")
			tt.mutate(&bad)
			root := node("P1", "alice", "2025-03-01T10:00:00Z", bad)

			snapshot, err := Flatten([]domain.Node{root})
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrMalformedPosting))
			assert.Nil(t, snapshot)
		})
	}
}

func TestCacheKeepsVanishedPostings(t *testing.T) {
	cache := NewCache()
	cache.Update(domain.Snapshot{"A": {ID: "A", Author: "old"}, "B": {ID: "B"}})
	cache.Update(domain.Snapshot{"A": {ID: "A", Author: "new"}})

	a, ok := cache.Get("A")
	require.True(t, ok)
	assert.Equal(t, "new", a.Author)

	_, ok = cache.Get("B")
	assert.True(t, ok)
	assert.Equal(t, 2, cache.Len())
}

package service

import (
	"testing"

	"github.com/reshetovitsme/modwatch/internal/modules/detection/domain"
	postingDomain "github.com/reshetovitsme/modwatch/internal/modules/posting/domain"
	postingService "github.com/reshetovitsme/modwatch/internal/modules/posting/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snap(postings ...*postingDomain.Posting) postingDomain.Snapshot {
	s := make(postingDomain.Snapshot, len(postings))
	for _, p := range postings {
		s[p.ID] = p
	}
	return s
}

func TestDiffScenario(t *testing.T) {
	previous := snap(&postingDomain.Posting{ID: "A"}, &postingDomain.Posting{ID: "B"}, &postingDomain.Posting{ID: "C"})
	current := snap(&postingDomain.Posting{ID: "A"}, &postingDomain.Posting{ID: "C"}, &postingDomain.Posting{ID: "D"})

	d := Diff(previous, current)
	assert.Equal(t, []string{"D"}, d.Added)
	assert.Equal(t, []string{"B"}, d.Removed)
	assert.False(t, d.Empty())
}

func TestDiffAgainstEmptyPrevious(t *testing.T) {
	current := snap(&postingDomain.Posting{ID: "B"}, &postingDomain.Posting{ID: "A"})

	d := Diff(nil, current)
	assert.Equal(t, []string{"A", "B"}, d.Added)
	assert.Empty(t, d.Removed)
}

func TestDiffIdenticalSnapshots(t *testing.T) {
	s := snap(&postingDomain.Posting{ID: "A"})
	assert.True(t, Diff(s, s).Empty())
}

func TestClassifySelfDeletionExcluded(t *testing.T) {
	cache := postingService.NewCache()
	cache.Update(snap(
		&postingDomain.Posting{ID: "gone", Author: "alice", SelfDeleted: true},
		&postingDomain.Posting{ID: "modded", Author: "bob"},
	))

	result := Classify([]string{"gone", "modded"}, cache)
	require.Len(t, result.Moderated, 1)
	assert.Equal(t, "modded", result.Moderated[0].Posting.ID)
	assert.Equal(t, []string{"gone"}, result.SelfDeleted)
}

func TestClassifyThreadAndParent(t *testing.T) {
	cache := postingService.NewCache()
	cache.Update(snap(
		&postingDomain.Posting{ID: "T1", Author: "root-author", Title: "root title", Text: "root text"},
		&postingDomain.Posting{ID: "R1", Author: "replier", ThreadRootID: "T1", ParentID: "T1"},
		&postingDomain.Posting{ID: "R2", Author: "orphan", ThreadRootID: "T1", ParentID: "missing"},
		&postingDomain.Posting{ID: "P1", Author: "solo"},
	))

	result := Classify([]string{"P1", "R1", "R2"}, cache)
	require.Len(t, result.Moderated, 3)

	byID := map[string]domain.Candidate{}
	for _, c := range result.Moderated {
		byID[c.Posting.ID] = c
	}

	assert.False(t, byID["P1"].IsReply)
	assert.Equal(t, "P1", byID["P1"].ThreadID)

	assert.True(t, byID["R1"].IsReply)
	assert.Equal(t, "T1", byID["R1"].ThreadID)
	assert.Equal(t, "root-author", byID["R1"].ParentAuthor)
	assert.Equal(t, "root title", byID["R1"].ParentTitle)
	assert.Equal(t, "root text", byID["R1"].ParentText)

	assert.Equal(t, "", byID["R2"].ParentAuthor)
	assert.True(t, byID["R2"].IsReply)
}

func TestClassifyCacheMissYieldsPlaceholder(t *testing.T) {
	result := Classify([]string{"ghost"}, postingService.NewCache())
	require.Len(t, result.Moderated, 1)

	c := result.Moderated[0]
	assert.True(t, c.Unresolved)
	assert.Equal(t, "ghost", c.Posting.ID)
	assert.Equal(t, domain.Placeholder, c.Posting.Author)
	assert.Equal(t, domain.Placeholder, c.Posting.Title)
	assert.Equal(t, "ghost", c.ThreadID)
	assert.Empty(t, result.SelfDeleted)
}

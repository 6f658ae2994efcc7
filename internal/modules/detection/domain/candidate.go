package domain

import (
	postingDomain "github.com/reshetovitsme/modwatch/internal/modules/posting/domain"
)

// Placeholder fills the fields of a removed posting that was never seen in a fetch.
const Placeholder = "?"

// Candidate is a removed posting judged to have been taken down by a moderator.
type Candidate struct {
	Posting      postingDomain.Posting
	ThreadID     string
	IsReply      bool
	Unresolved   bool // never observed before it vanished
	ParentAuthor string
	ParentTitle  string
	ParentText   string
}

// Diff is the membership change between two snapshots of one forum.
type Diff struct {
	Added   []string
	Removed []string
}

// Empty reports whether nothing was added or removed.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

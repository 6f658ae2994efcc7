package domain

import "time"

// Posting is one forum comment as observed in a single fetch.
type Posting struct {
	ID           string    `json:"id"`
	Author       string    `json:"author"`
	Title        string    `json:"title"`
	Text         string    `json:"text"`
	CreatedAt    time.Time `json:"created_at"`
	ThreadRootID string    `json:"thread_root_id"`
	ParentID     string    `json:"parent_id"`
	Upvotes      int       `json:"upvotes"`
	Downvotes    int       `json:"downvotes"`
	SelfDeleted  bool      `json:"self_deleted"`
}

// IsReply reports whether the posting belongs to a thread started by another posting.
func (p *Posting) IsReply() bool {
	return p.ThreadRootID != ""
}

// ThreadID is the root posting id, or the posting's own id for a root.
func (p *Posting) ThreadID() string {
	if p.ThreadRootID != "" {
		return p.ThreadRootID
	}
	return p.ID
}

// Snapshot maps posting id to posting for everything visible in a forum at one poll.
// A published snapshot is never mutated.
type Snapshot map[string]*Posting

// IDs returns the posting ids of the snapshot as a set.
func (s Snapshot) IDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(s))
	for id := range s {
		ids[id] = struct{}{}
	}
	return ids
}

// Newest returns the latest creation time in the snapshot, or false if it is empty.
func (s Snapshot) Newest() (time.Time, bool) {
	var newest time.Time
	found := false
	for _, p := range s {
		if p.CreatedAt.IsZero() {
			continue
		}
		if !found || p.CreatedAt.After(newest) {
			newest = p.CreatedAt
			found = true
		}
	}
	return newest, found
}

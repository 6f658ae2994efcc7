package domain

import "time"

// Forum is a comment section under observation.
type Forum struct {
	ID           string     `json:"id"`
	ArticleURL   string     `json:"article_url"`
	ArticleTitle string     `json:"article_title"`
	LastActivity *time.Time `json:"last_activity,omitempty"`
	AddedAt      time.Time  `json:"added_at"`
	State        ForumState `json:"state"`
}

// Touch moves LastActivity forward to t; older timestamps are ignored.
func (f *Forum) Touch(t time.Time) bool {
	if f.LastActivity != nil && !t.After(*f.LastActivity) {
		return false
	}
	f.LastActivity = &t
	return true
}

// InactiveFor reports how long the forum has gone without a new posting.
// Forums that have never been observed report false.
func (f *Forum) InactiveFor(now time.Time) (time.Duration, bool) {
	if f.LastActivity == nil {
		return 0, false
	}
	return now.Sub(*f.LastActivity), true
}

// Info is what the forum API returns for an article.
type Info struct {
	ForumID           string
	TotalPostingCount int
}

// Article is a candidate article reference, e.g. from the site feed.
type Article struct {
	URL   string
	Title string
}

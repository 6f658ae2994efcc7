package domain

import "time"

// Event is the durable record of a posting detected as removed by a moderator.
// (ForumID, PostingID) identifies it; the same posting is recorded at most once.
type Event struct {
	ID              int64     `db:"id" json:"-"`
	ForumID         string    `db:"forum_id" json:"forum_id"`
	ArticleURL      string    `db:"article_url" json:"article_url"`
	ArticleTitle    string    `db:"article_title" json:"article_title"`
	PostingID       string    `db:"posting_id" json:"posting_id"`
	Author          string    `db:"author" json:"author"`
	Title           string    `db:"title" json:"title"`
	Text            string    `db:"text" json:"text"`
	CreatedAt       string    `db:"created_at" json:"created_at"`
	ModeratedAt     time.Time `db:"moderated_at" json:"moderated_at"`
	IsReply         bool      `db:"is_reply" json:"is_reply"`
	Upvotes         int       `db:"upvotes" json:"upvotes"`
	Downvotes       int       `db:"downvotes" json:"downvotes"`
	ThreadID        string    `db:"thread_id" json:"thread_id"`
	ParentPostingID string    `db:"parent_posting_id" json:"parent_posting_id"`
	ParentAuthor    string    `db:"parent_author" json:"parent_author"`
	ParentTitle     string    `db:"parent_title" json:"parent_title"`
	ParentText      string    `db:"parent_text" json:"parent_text"`
}

// Filter narrows an event query. Zero values mean "any".
type Filter struct {
	ForumID    string
	ArticleURL string
	Since      time.Time
	Limit      int
}

// ArticleStat aggregates events for one article.
type ArticleStat struct {
	ArticleURL   string `db:"article_url" json:"article_url"`
	ArticleTitle string `db:"article_title" json:"article_title"`
	Count        int    `db:"cnt" json:"count"`
	Upvotes      int    `db:"upvotes" json:"upvotes"`
	Downvotes    int    `db:"downvotes" json:"downvotes"`
}

// AuthorStat counts events per author.
type AuthorStat struct {
	Author string `db:"author" json:"author"`
	Count  int    `db:"cnt" json:"count"`
}

// Stats summarises events detected since a point in time.
type Stats struct {
	Since      time.Time     `json:"since"`
	Total      int           `json:"total"`
	Replies    int           `json:"replies"`
	Articles   []ArticleStat `json:"articles"`
	TopAuthors []AuthorStat  `json:"top_authors"`
	// TopArticleEvents are the events of the most moderated article, oldest posting first.
	TopArticleEvents []Event `json:"top_article_events"`
}

// Roots is the number of moderated thread-starting postings.
func (s *Stats) Roots() int {
	return s.Total - s.Replies
}

package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/gorilla/feeds"
	"github.com/reshetovitsme/modwatch/internal/modules/feed/domain"
	moderationDomain "github.com/reshetovitsme/modwatch/internal/modules/moderation/domain"
	"github.com/samber/oops"
)

// EventQuery reads recorded moderation events.
type EventQuery interface {
	QueryEvents(ctx context.Context, filter moderationDomain.Filter) ([]moderationDomain.Event, error)
}

// Service handles RSS feed generation
type Service struct {
	events EventQuery
	cfg    domain.FeedConfig
}

// New creates a new feed service
func New(events EventQuery, cfg domain.FeedConfig) *Service {
	if cfg.Limit <= 0 {
		cfg.Limit = domain.DefaultFeedConfig().Limit
	}
	return &Service{events: events, cfg: cfg}
}

// GenerateFeed builds a feed of the most recent moderation events, optionally
// restricted to one article.
func (s *Service) GenerateFeed(ctx context.Context, baseURL, articleURL string) (*feeds.Feed, error) {
	events, err := s.events.QueryEvents(ctx, moderationDomain.Filter{ArticleURL: articleURL, Limit: s.cfg.Limit})
	if err != nil {
		return nil, oops.With("article_url", articleURL, "context", "failed to get events").Wrap(err)
	}

	feed := &feeds.Feed{
		Title:       s.cfg.Title,
		Link:        &feeds.Link{Href: baseURL + "/rss"},
		Description: s.cfg.Description,
		Created:     time.Now().UTC(),
	}
	if len(events) > 0 {
		feed.Updated = events[0].ModeratedAt
	}
	if articleURL != "" {
		feed.Title = fmt.Sprintf("%s: %s", s.cfg.Title, articleURL)
	}

	feed.Items = make([]*feeds.Item, 0, len(events))
	for i := range events {
		feed.Items = append(feed.Items, eventToFeedItem(&events[i]))
	}
	return feed, nil
}

func eventToFeedItem(e *moderationDomain.Event) *feeds.Item {
	title := e.Title
	if title == "" || title == "?" {
		title = truncate(e.Text, 100)
	}
	if title == "" {
		title = "Posting " + e.PostingID
	}

	description := e.Text
	if description == "" {
		description = "No text content"
	}

	var content strings.Builder
	fmt.Fprintf(&content, "<p><strong>%s</strong> on <a href=\"%s\">%s</a></p>",
		html.EscapeString(e.Author), html.EscapeString(e.ArticleURL), html.EscapeString(articleLabel(e)))
	fmt.Fprintf(&content, "<p>%s</p>", html.EscapeString(description))
	if e.IsReply && e.ParentAuthor != "" {
		fmt.Fprintf(&content, "<blockquote><p>In reply to %s: %s</p></blockquote>",
			html.EscapeString(e.ParentAuthor), html.EscapeString(truncate(e.ParentText, 300)))
	}
	fmt.Fprintf(&content, "<p>+%d / -%d</p>", e.Upvotes, e.Downvotes)

	return &feeds.Item{
		Title:       title,
		Link:        &feeds.Link{Href: e.ArticleURL},
		Description: description,
		Content:     content.String(),
		Author:      &feeds.Author{Name: e.Author},
		Created:     e.ModeratedAt,
		Id:          fmt.Sprintf("%s-%s", e.ForumID, e.PostingID),
	}
}

func articleLabel(e *moderationDomain.Event) string {
	if e.ArticleTitle != "" {
		return e.ArticleTitle
	}
	return e.ArticleURL
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}

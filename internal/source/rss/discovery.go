// Package rss discovers candidate articles from the site's RSS feed.
package rss

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/mmcdole/gofeed"
	forumDomain "github.com/reshetovitsme/modwatch/internal/modules/forum/domain"
	"github.com/samber/oops"
)

const DefaultFeedURL = "https://www.derstandard.at/rss"

var storyLinkPattern = regexp.MustCompile(`/story/\d+`)

// HTTPClient is the subset of *http.Client the discoverer needs.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Discoverer lists story articles from an RSS or Atom feed.
type Discoverer struct {
	feedURL   string
	userAgent string
	client    HTTPClient
	normalize func(string) string
}

// New creates a feed discoverer. normalize canonicalises story links and may be nil.
func New(feedURL, userAgent string, client HTTPClient, normalize func(string) string) *Discoverer {
	if feedURL == "" {
		feedURL = DefaultFeedURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	if normalize == nil {
		normalize = func(s string) string { return s }
	}
	return &Discoverer{feedURL: feedURL, userAgent: userAgent, client: client, normalize: normalize}
}

// DiscoverArticles returns the feed's story links, normalised and de-duplicated in feed order.
func (d *Discoverer) DiscoverArticles(ctx context.Context) ([]forumDomain.Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.feedURL, http.NoBody)
	if err != nil {
		return nil, oops.With("feed_url", d.feedURL).Wrap(err)
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, oops.With("feed_url", d.feedURL, "context", "feed request failed").Wrap(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, oops.With("feed_url", d.feedURL).Wrap(fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, oops.With("feed_url", d.feedURL, "context", "failed to parse feed").Wrap(err)
	}

	seen := make(map[string]struct{}, len(feed.Items))
	articles := make([]forumDomain.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		link := strings.TrimSpace(item.Link)
		if !storyLinkPattern.MatchString(link) {
			continue
		}
		url := d.normalize(link)
		if _, dup := seen[url]; dup {
			continue
		}
		seen[url] = struct{}{}
		articles = append(articles, forumDomain.Article{URL: url, Title: strings.TrimSpace(item.Title)})
	}

	slog.Debug("Parsed discovery feed", "feed_url", d.feedURL, "items", len(feed.Items), "stories", len(articles))
	return articles, nil
}

package forumapi

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	forumDomain "github.com/reshetovitsme/modwatch/internal/modules/forum/domain"
	postingDomain "github.com/reshetovitsme/modwatch/internal/modules/posting/domain"
	postingService "github.com/reshetovitsme/modwatch/internal/modules/posting/service"
	"github.com/reshetovitsme/modwatch/internal/shared/errors"
	"github.com/samber/lo"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://capi.ds.at/forum-serve-graphql/v1/"
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

	siteOrigin = "https://www.derstandard.at"

	opForumInfo = "GetForumInfo"
	opThreads   = "ThreadsByForumQuery"

	// maxBodyBytes caps a single response page.
	maxBodyBytes = 64 << 20
)

// Persisted query hashes registered on the API server.
var persistedQueries = map[string]string{
	opForumInfo: "88adea55fbddc38bedd177c9107e457d5cf0f38d2fcd0976c8024dfa31779751",
	opThreads:   "d5a2376ac61344341ffe4dcd17f814dba7ea80fbacfb5806c8d1f9c2072a3fa6",
}

// HTTPClient is the subset of *http.Client the API client needs.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds the forum API client settings
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// RateLimit is requests per second; zero or less means unlimited.
	RateLimit float64
}

// Client talks to the forum GraphQL API using persisted queries.
type Client struct {
	cfg     Config
	http    HTTPClient
	limiter *rate.Limiter
}

// New creates a forum API client. If httpClient is nil a client with cfg.Timeout is used.
func New(cfg Config, httpClient HTTPClient) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	return &Client{
		cfg:     cfg,
		http:    httpClient,
		limiter: rate.NewLimiter(limit, 1),
	}
}

type envelope[T any] struct {
	Data   *T `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type forumInfoData struct {
	Forum *struct {
		ID                string `json:"id"`
		TotalPostingCount int    `json:"totalPostingCount"`
	} `json:"getForumByContextUri"`
}

type edge struct {
	Node postingDomain.Node `json:"node"`
}

type threadsData struct {
	Page *struct {
		Edges    []edge `json:"edges"`
		PageInfo struct {
			HasNextPage bool   `json:"hasNextPage"`
			NextCursor  string `json:"nextCursor"`
		} `json:"pageInfo"`
	} `json:"getForumRootPostingsV2"`
}

// FetchForumInfo resolves an article URL to its forum. An article without a forum
// yields a FetchError of kind not_found that matches errors.ErrForumNotFound.
func (c *Client) FetchForumInfo(ctx context.Context, articleURL string) (forumDomain.Info, error) {
	var data forumInfoData
	if err := query(ctx, c, opForumInfo, map[string]any{"contextUri": articleURL}, &data); err != nil {
		return forumDomain.Info{}, err
	}
	if data.Forum == nil || data.Forum.ID == "" {
		return forumDomain.Info{}, &FetchError{Kind: FetchErrorKindNotFound, Operation: opForumInfo, Cause: errors.ErrForumNotFound}
	}

	return forumDomain.Info{
		ForumID:           data.Forum.ID,
		TotalPostingCount: data.Forum.TotalPostingCount,
	}, nil
}

// FetchPostings fetches every page of the forum's posting tree and flattens it into
// one snapshot. Any failure, including a malformed posting on any page, fails the call.
func (c *Client) FetchPostings(ctx context.Context, forumID string) (postingDomain.Snapshot, error) {
	var (
		roots  []postingDomain.Node
		cursor string
		seen   = map[string]struct{}{}
		pages  int
	)

	for {
		var data threadsData
		vars := map[string]any{
			"id":         forumID,
			"sortOrder":  "ByTime",
			"first":      "Max",
			"nextCursor": cursor,
		}
		if err := query(ctx, c, opThreads, vars, &data); err != nil {
			return nil, err
		}
		if data.Page == nil {
			return nil, malformed(opThreads, stderrors.New("missing getForumRootPostingsV2"))
		}
		pages++

		roots = append(roots, lo.Map(data.Page.Edges, func(e edge, _ int) postingDomain.Node {
			return e.Node
		})...)

		info := data.Page.PageInfo
		if !info.HasNextPage {
			break
		}
		if info.NextCursor == "" {
			return nil, malformed(opThreads, fmt.Errorf("page %d: hasNextPage without cursor", pages))
		}
		if _, dup := seen[info.NextCursor]; dup {
			return nil, malformed(opThreads, fmt.Errorf("page %d: cursor %q repeated", pages, info.NextCursor))
		}
		seen[info.NextCursor] = struct{}{}
		cursor = info.NextCursor
	}

	snapshot, err := postingService.Flatten(roots)
	if err != nil {
		return nil, malformed(opThreads, err)
	}

	slog.Debug("Fetched forum postings", "forum_id", forumID, "pages", pages, "postings", len(snapshot))
	return snapshot, nil
}

func query[T any](ctx context.Context, c *Client, op string, variables map[string]any, out *T) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &FetchError{Kind: FetchErrorKindNetwork, Operation: op, Cause: err}
	}

	vars, err := json.Marshal(variables)
	if err != nil {
		return &FetchError{Kind: FetchErrorKindDecode, Operation: op, Cause: err}
	}
	ext, _ := json.Marshal(map[string]any{
		"persistedQuery": map[string]any{"version": 1, "sha256Hash": persistedQueries[op]},
	})

	params := url.Values{}
	params.Set("operationName", op)
	params.Set("variables", string(vars))
	params.Set("extensions", string(ext))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return &FetchError{Kind: FetchErrorKindNetwork, Operation: op, Cause: err}
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Referer", siteOrigin+"/")
	req.Header.Set("Origin", siteOrigin)
	req.Header.Set("X-Apollo-Operation-Name", op)

	resp, err := c.http.Do(req)
	if err != nil {
		return &FetchError{Kind: FetchErrorKindNetwork, Operation: op, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &FetchError{
			Kind:       FetchErrorKindStatus,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Cause:      fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	}

	var env envelope[T]
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&env); err != nil {
		return &FetchError{Kind: FetchErrorKindDecode, Operation: op, Cause: err}
	}
	if env.Data == nil {
		if len(env.Errors) > 0 {
			return malformed(op, fmt.Errorf("graphql: %s", env.Errors[0].Message))
		}
		return malformed(op, stderrors.New("response without data"))
	}

	*out = *env.Data
	return nil
}

func malformed(op string, cause error) *FetchError {
	if !stderrors.Is(cause, errors.ErrMalformedPosting) {
		cause = fmt.Errorf("%w: %w", errors.ErrMalformedPage, cause)
	}
	return &FetchError{Kind: FetchErrorKindMalformed, Operation: op, Cause: cause}
}

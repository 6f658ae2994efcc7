package forumapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	apperrors "github.com/reshetovitsme/modwatch/internal/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL + "/"}, srv.Client())
}

func variables(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var vars map[string]any
	require.NoError(t, json.Unmarshal([]byte(r.URL.Query().Get("variables")), &vars))
	return vars
}

func posting(id, root string, replies ...string) string {
	return fmt.Sprintf(`{"id":%q,"author":{"name":"user-%s"},"title":"t","text":"x",
		"history":{"created":"2025-03-01T10:00:00Z"},"rootPostingId":%q,"lifecycleStatus":"Active",
		"reactions":{"aggregated":[{"name":"positive","value":2},{"name":"negative","value":1}]},
		"replies":[%s]}`, id, id, root, strings.Join(replies, ","))
}

func TestFetchForumInfo(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, opForumInfo, r.URL.Query().Get("operationName"))
		assert.Equal(t, opForumInfo, r.Header.Get("X-Apollo-Operation-Name"))
		assert.Equal(t, siteOrigin, r.Header.Get("Origin"))
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		assert.Contains(t, r.URL.Query().Get("extensions"), persistedQueries[opForumInfo])

		switch variables(t, r)["contextUri"] {
		case "https://www.derstandard.at/story/3000000001":
			fmt.Fprint(w, `{"data":{"getForumByContextUri":{"id":"F1","totalPostingCount":321}}}`)
		default:
			fmt.Fprint(w, `{"data":{"getForumByContextUri":null}}`)
		}
	})

	info, err := client.FetchForumInfo(context.Background(), "https://www.derstandard.at/story/3000000001")
	require.NoError(t, err)
	assert.Equal(t, "F1", info.ForumID)
	assert.Equal(t, 321, info.TotalPostingCount)

	_, err = client.FetchForumInfo(context.Background(), "https://www.derstandard.at/story/1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrForumNotFound))

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, FetchErrorKindNotFound, fe.Kind)
}

func TestFetchPostingsPaginates(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		vars := variables(t, r)
		assert.Equal(t, "F1", vars["id"])
		assert.Equal(t, "ByTime", vars["sortOrder"])

		switch vars["nextCursor"] {
		case "":
			fmt.Fprintf(w, `{"data":{"getForumRootPostingsV2":{"edges":[{"node":%s}],
				"pageInfo":{"hasNextPage":true,"nextCursor":"c2"}}}}`, posting("P1", "", posting("R1", "P1")))
		case "c2":
			fmt.Fprintf(w, `{"data":{"getForumRootPostingsV2":{"edges":[{"node":%s}],
				"pageInfo":{"hasNextPage":false,"nextCursor":null}}}}`, posting("P2", ""))
		default:
			t.Errorf("unexpected cursor %v", vars["nextCursor"])
		}
	})

	snapshot, err := client.FetchPostings(context.Background(), "F1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Len(t, snapshot, 3)

	reply := snapshot["R1"]
	require.NotNil(t, reply)
	assert.Equal(t, "P1", reply.ParentID)
	assert.Equal(t, "P1", reply.ThreadRootID)
	assert.Equal(t, 2, reply.Upvotes)
	assert.Equal(t, 1, reply.Downvotes)
}

func TestFetchPostingsRejectsRepeatedCursor(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		fmt.Fprintf(w, `{"data":{"getForumRootPostingsV2":{"edges":[{"node":%s}],
			"pageInfo":{"hasNextPage":true,"nextCursor":"same"}}}}`, posting("P1", ""))
	})

	_, err := client.FetchPostings(context.Background(), "F1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrMalformedPage))
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchPostingsRejectsMissingCursor(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"data":{"getForumRootPostingsV2":{"edges":[],"pageInfo":{"hasNextPage":true,"nextCursor":""}}}}`)
	})

	_, err := client.FetchPostings(context.Background(), "F1")
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, FetchErrorKindMalformed, fe.Kind)
}

func TestFetchPostingsMalformedPosting(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"data":{"getForumRootPostingsV2":{"edges":[{"node":{"id":"P1","author":null,
			"history":{"created":"2025-03-01T10:00:00Z"}}}],"pageInfo":{"hasNextPage":false}}}}`)
	})

	_, err := client.FetchPostings(context.Background(), "F1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrMalformedPosting))
}

func TestFetchErrorsAreClassified(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   FetchErrorKind
	}{
		{"server error", http.StatusBadGateway, "", FetchErrorKindStatus},
		{"bad json", http.StatusOK, "{not json", FetchErrorKindDecode},
		{"graphql errors", http.StatusOK, `{"errors":[{"message":"PersistedQueryNotFound"}]}`, FetchErrorKindMalformed},
		{"missing page", http.StatusOK, `{"data":{"getForumRootPostingsV2":null}}`, FetchErrorKindMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})

			_, err := client.FetchPostings(context.Background(), "F1")
			var fe *FetchError
			require.True(t, errors.As(err, &fe), "got %v", err)
			assert.Equal(t, tt.kind, fe.Kind)
			if tt.kind == FetchErrorKindStatus {
				assert.Equal(t, tt.status, fe.StatusCode)
			}
		})
	}
}

func TestFetchNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	client := New(Config{BaseURL: srv.URL + "/"}, nil)
	_, err := client.FetchForumInfo(context.Background(), "x")

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, FetchErrorKindNetwork, fe.Kind)
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://www.derstandard.at/story/3000000254718/some-slug?ref=rss", "https://www.derstandard.at/story/3000000254718"},
		{"http://www.derstandard.at/story/42", "http://www.derstandard.at/story/42"},
		{"3000000254718", "https://www.derstandard.at/story/3000000254718"},
		{"123456789", "123456789"},
		{"https://example.com/story/1", "https://example.com/story/1"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeURL(tt.in), tt.in)
	}
}

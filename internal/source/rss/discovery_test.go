package rss

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	forumDomain "github.com/reshetovitsme/modwatch/internal/modules/forum/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Front page</title>
<item><title> Budget talks </title><link>https://www.derstandard.at/story/3000000000001/budget-talks</link></item>
<item><title>Live ticker</title><link>https://www.derstandard.at/jetzt/livebericht/3000000000002</link></item>
<item><title>Budget talks again</title><link>https://www.derstandard.at/story/3000000000001/budget?ref=rss</link></item>
<item><title>Elections</title><link> https://www.derstandard.at/story/3000000000003/elections </link></item>
</channel></rss>`

var canonical = regexp.MustCompile(`https?://www\.derstandard\.at/story/\d+`)

func TestDiscoverArticles(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		fmt.Fprint(w, testFeed)
	}))
	defer srv.Close()

	d := New(srv.URL, "test-agent", srv.Client(), canonical.FindString)
	articles, err := d.DiscoverArticles(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "test-agent", gotUA)
	assert.Equal(t, []forumDomain.Article{
		{URL: "https://www.derstandard.at/story/3000000000001", Title: "Budget talks"},
		{URL: "https://www.derstandard.at/story/3000000000003", Title: "Elections"},
	}, articles)
}

func TestDiscoverArticlesFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"status", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusServiceUnavailable) }},
		{"not a feed", func(w http.ResponseWriter, _ *http.Request) { fmt.Fprint(w, "<html>maintenance</html>") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			articles, err := New(srv.URL, "", srv.Client(), nil).DiscoverArticles(context.Background())
			assert.Error(t, err)
			assert.Nil(t, articles)
		})
	}
}

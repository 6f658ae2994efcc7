package http

import (
	"html/template"
	"time"

	moderationDomain "github.com/reshetovitsme/modwatch/internal/modules/moderation/domain"
)

type indexData struct {
	Cycle     int
	UpdatedAt time.Time
	Forums    []forumView
	Events    []moderationDomain.Event
	Postings  int
}

var indexTemplate = template.Must(template.New("index").Funcs(template.FuncMap{
	"ts": func(t time.Time) string {
		if t.IsZero() {
			return "never"
		}
		return t.UTC().Format("2006-01-02 15:04 UTC")
	},
	"tsPtr": func(t *time.Time) string {
		if t == nil {
			return "never"
		}
		return t.UTC().Format("2006-01-02 15:04 UTC")
	},
}).Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>Moderation Watch</title>
    <style>
        body { font-family: Arial, sans-serif; max-width: 1100px; margin: 30px auto; padding: 0 20px; }
        h1 { color: #333; }
        .info { background: #f5f5f5; padding: 15px; border-radius: 5px; margin: 20px 0; }
        table { border-collapse: collapse; width: 100%; margin-bottom: 30px; }
        th, td { text-align: left; padding: 6px 8px; border-bottom: 1px solid #ddd; vertical-align: top; }
        th { background: #eee; }
        code { background: #e8e8e8; padding: 2px 6px; border-radius: 3px; }
        .muted { color: #888; }
    </style>
</head>
<body>
    <h1>Moderation Watch</h1>
    <div class="info">
        <p>Cycle {{.Cycle}}, updated {{ts .UpdatedAt}}. Monitoring {{len .Forums}} forums with {{.Postings}} visible postings.</p>
        <p>JSON: <code>/api/forums</code> <code>/api/events</code> <code>/api/stats</code>. Feed: <a href="/rss">/rss</a>. <a href="/metrics">Metrics</a>.</p>
    </div>

    <h2>Forums</h2>
    <table>
        <tr><th>Article</th><th>Forum</th><th>State</th><th>Postings</th><th>Last activity</th></tr>
        {{range .Forums}}
        <tr>
            <td><a href="{{.ArticleURL}}">{{if .ArticleTitle}}{{.ArticleTitle}}{{else}}{{.ArticleURL}}{{end}}</a></td>
            <td><code>{{.ID}}</code></td>
            <td>{{.State}}</td>
            <td>{{.Postings}}</td>
            <td>{{tsPtr .LastActivity}}</td>
        </tr>
        {{else}}
        <tr><td colspan="5" class="muted">No forums yet.</td></tr>
        {{end}}
    </table>

    <h2>Recently moderated</h2>
    <table>
        <tr><th>Detected</th><th>Author</th><th>Posting</th><th>Article</th><th>Votes</th></tr>
        {{range .Events}}
        <tr>
            <td>{{ts .ModeratedAt}}</td>
            <td>{{.Author}}</td>
            <td>{{if .Title}}<strong>{{.Title}}</strong><br>{{end}}{{.Text}}{{if .IsReply}}<br><span class="muted">reply to {{.ParentAuthor}}</span>{{end}}</td>
            <td><a href="{{.ArticleURL}}">{{if .ArticleTitle}}{{.ArticleTitle}}{{else}}{{.ArticleURL}}{{end}}</a></td>
            <td>+{{.Upvotes}} / -{{.Downvotes}}</td>
        </tr>
        {{else}}
        <tr><td colspan="5" class="muted">Nothing detected yet.</td></tr>
        {{end}}
    </table>
</body>
</html>`))

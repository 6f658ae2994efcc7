package service

import (
	"fmt"
	"strings"

	moderationDomain "github.com/reshetovitsme/modwatch/internal/modules/moderation/domain"
)

const unknownTitle = "(unknown title)"

// Render formats the daily digest as plain text. weekly may be nil.
func Render(day string, daily, weekly *moderationDomain.Stats) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Moderation summary for %s\n\n", day)
	writeStats(&b, daily, true)

	if weekly != nil && weekly.Total > 0 {
		b.WriteString("\nLast 7 days\n")
		writeStats(&b, weekly, false)
	}

	return strings.TrimRight(b.String(), "\n")
}

func writeStats(b *strings.Builder, s *moderationDomain.Stats, withPostings bool) {
	fmt.Fprintf(b, "Total moderated posts: %d\n", s.Total)
	fmt.Fprintf(b, "Root posts moderated: %d\n", s.Roots())
	fmt.Fprintf(b, "Replies moderated: %d\n", s.Replies)

	if len(s.Articles) > 0 {
		b.WriteString("\nPer-article breakdown:\n")
		for _, a := range s.Articles {
			fmt.Fprintf(b, "  %s: %d moderated (upvotes: %d, downvotes: %d)\n",
				title(a.ArticleTitle), a.Count, a.Upvotes, a.Downvotes)
		}
	}

	if len(s.TopAuthors) > 0 {
		b.WriteString("\nTop moderated authors:\n")
		for _, a := range s.TopAuthors {
			fmt.Fprintf(b, "  %s: %d\n", a.Author, a.Count)
		}
	}

	if withPostings && len(s.TopArticleEvents) > 0 {
		fmt.Fprintf(b, "\nModerated posts from top article (%s):\n", title(s.Articles[0].ArticleTitle))
		for _, e := range s.TopArticleEvents {
			kind := "root"
			if e.IsReply {
				kind = "reply"
			}
			fmt.Fprintf(b, "  [%s] %s: %s (upvotes: %d, downvotes: %d)\n", kind, e.Author, e.Text, e.Upvotes, e.Downvotes)
		}
	}
}

func title(t string) string {
	if t == "" {
		return unknownTitle
	}
	return t
}

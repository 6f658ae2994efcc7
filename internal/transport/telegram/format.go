package telegram

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	detectionDomain "github.com/reshetovitsme/modwatch/internal/modules/detection/domain"
	forumDomain "github.com/reshetovitsme/modwatch/internal/modules/forum/domain"
	moderationDomain "github.com/reshetovitsme/modwatch/internal/modules/moderation/domain"
	pollService "github.com/reshetovitsme/modwatch/internal/modules/poll/service"
	postingDomain "github.com/reshetovitsme/modwatch/internal/modules/posting/domain"
	"github.com/reshetovitsme/modwatch/internal/shared/config"
	"github.com/samber/lo"
)

// MaxMessageLength is Telegram's limit for a single text message, in characters.
const MaxMessageLength = 4096

// FormatStatus renders the poll loop state
func FormatStatus(view *pollService.View, cfg *config.Config) string {
	updated := "never"
	if !view.UpdatedAt.IsZero() {
		updated = view.UpdatedAt.UTC().Format(time.DateTime) + " UTC"
	}

	counts := lo.CountValuesBy(view.Forums, func(f forumDomain.Forum) forumDomain.ForumState {
		return f.State
	})
	postings := lo.SumBy(lo.Values(view.Snapshots), func(s postingDomain.Snapshot) int {
		return len(s)
	})

	return fmt.Sprintf(`📊 Status:

Cycle: %d (updated %s)
Forums: %d (steady: %d, baselined: %d, unseen: %d)
Visible postings: %d
Poll interval: %d seconds
Discovery: %t`,
		view.Cycle, updated,
		len(view.Forums), counts[forumDomain.ForumStateSteady], counts[forumDomain.ForumStateBaselined], counts[forumDomain.ForumStateUnseen],
		postings, cfg.PollInterval, cfg.Discover)
}

// FormatForums lists the monitored forums, busiest first
func FormatForums(view *pollService.View) string {
	if len(view.Forums) == 0 {
		return "📭 No forums monitored yet."
	}

	forums := append([]forumDomain.Forum(nil), view.Forums...)
	sort.SliceStable(forums, func(i, j int) bool {
		return len(view.Snapshots[forums[i].ID]) > len(view.Snapshots[forums[j].ID])
	})

	var text strings.Builder
	text.WriteString("📋 Monitored forums:\n\n")
	for i, f := range forums {
		label := f.ArticleTitle
		if label == "" {
			label = f.ArticleURL
		}
		text.WriteString(fmt.Sprintf("%d. %s\n   %s, %d postings\n", i+1, label, f.State, len(view.Snapshots[f.ID])))
	}
	return text.String()
}

// FormatRecent renders moderated postings, newest first as given
func FormatRecent(events []moderationDomain.Event) string {
	if len(events) == 0 {
		return "Nothing moderated yet."
	}

	var text strings.Builder
	text.WriteString("🧹 Recently moderated:\n")
	for _, e := range events {
		kind := "root"
		if e.IsReply {
			kind = "reply"
		}
		text.WriteString(fmt.Sprintf("\n[%s] %s, %s UTC\n", kind, e.Author, e.ModeratedAt.UTC().Format(time.DateTime)))
		if e.Title != "" && e.Title != detectionDomain.Placeholder {
			text.WriteString(e.Title + "\n")
		}
		text.WriteString(preview(e.Text, textPreview) + "\n")
		if e.ArticleTitle != "" {
			text.WriteString("on: " + e.ArticleTitle + "\n")
		}
		text.WriteString(e.ArticleURL + "\n")
	}
	return text.String()
}

// FormatStats renders a short summary of a stats window
func FormatStats(s *moderationDomain.Stats, hours int) string {
	if s.Total == 0 {
		return fmt.Sprintf("No moderated postings in the last %d hours.", hours)
	}

	var text strings.Builder
	text.WriteString(fmt.Sprintf("📈 Last %d hours: %d moderated (%d roots, %d replies)\n", hours, s.Total, s.Roots(), s.Replies))

	if len(s.Articles) > 0 {
		text.WriteString("\nArticles:\n")
		for _, a := range lo.Slice(s.Articles, 0, 5) {
			title := a.ArticleTitle
			if title == "" {
				title = a.ArticleURL
			}
			text.WriteString(fmt.Sprintf("%d × %s\n", a.Count, title))
		}
	}
	if len(s.TopAuthors) > 0 {
		text.WriteString("\nAuthors:\n")
		for _, a := range lo.Slice(s.TopAuthors, 0, 5) {
			text.WriteString(fmt.Sprintf("%d × %s\n", a.Count, a.Author))
		}
	}
	return text.String()
}

// SplitMessage cuts text into chunks of at most limit characters, preferring line breaks.
func SplitMessage(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0
	flush := func() {
		if currentLen > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			currentLen = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		for utf8.RuneCountInString(line) > limit {
			flush()
			runes := []rune(line)
			chunks = append(chunks, string(runes[:limit]))
			line = string(runes[limit:])
		}
		n := utf8.RuneCountInString(line)
		if currentLen+n > limit {
			flush()
		}
		current.WriteString(line)
		currentLen += n
	}
	flush()
	return chunks
}

func preview(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

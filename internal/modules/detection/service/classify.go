package service

import (
	"github.com/reshetovitsme/modwatch/internal/modules/detection/domain"
	postingDomain "github.com/reshetovitsme/modwatch/internal/modules/posting/domain"
)

// PostingLookup resolves posting ids seen earlier in the run.
type PostingLookup interface {
	Get(id string) (*postingDomain.Posting, bool)
}

// Classification is the outcome of classifying one batch of removals.
type Classification struct {
	Moderated   []domain.Candidate
	SelfDeleted []string
}

// Classify splits removed ids into moderator removals and self-deletions using the
// posting cache, never the current snapshot. Ids missing from the cache are still
// reported as moderated, with placeholder fields.
func Classify(removed []string, cache PostingLookup) Classification {
	var out Classification

	for _, id := range removed {
		cached, ok := cache.Get(id)
		if !ok {
			out.Moderated = append(out.Moderated, unresolved(id))
			continue
		}
		if cached.SelfDeleted {
			out.SelfDeleted = append(out.SelfDeleted, id)
			continue
		}

		c := domain.Candidate{
			Posting:  *cached,
			ThreadID: cached.ThreadID(),
			IsReply:  cached.IsReply(),
		}
		if cached.ParentID != "" {
			if parent, ok := cache.Get(cached.ParentID); ok {
				c.ParentAuthor = parent.Author
				c.ParentTitle = parent.Title
				c.ParentText = parent.Text
			}
		}
		out.Moderated = append(out.Moderated, c)
	}

	return out
}

func unresolved(id string) domain.Candidate {
	return domain.Candidate{
		Posting: postingDomain.Posting{
			ID:     id,
			Author: domain.Placeholder,
			Title:  domain.Placeholder,
			Text:   domain.Placeholder,
		},
		ThreadID:   id,
		Unresolved: true,
	}
}

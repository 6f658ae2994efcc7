package service

import (
	"time"

	"github.com/reshetovitsme/modwatch/internal/modules/posting/domain"
	"github.com/reshetovitsme/modwatch/internal/shared/errors"
	"github.com/samber/oops"
)

const (
	reactionPositive = "positive"
	reactionNegative = "negative"
)

// Creation times normally carry an offset; a bare local timestamp is taken as UTC.
var createdLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"}

// Flatten turns the top-level nodes of a posting tree into a snapshot keyed by posting id.
// Each posting is tagged with its thread root and immediate parent. A node missing its id,
// author name or creation time fails the whole call.
func Flatten(roots []domain.Node) (domain.Snapshot, error) {
	snapshot := make(domain.Snapshot)
	for i := range roots {
		if err := flattenNode(&roots[i], "", snapshot); err != nil {
			return nil, err
		}
	}
	return snapshot, nil
}

func flattenNode(node *domain.Node, parentID string, into domain.Snapshot) error {
	posting, err := toPosting(node, parentID)
	if err != nil {
		return err
	}
	into[posting.ID] = posting

	for i := range node.Replies {
		if err := flattenNode(&node.Replies[i], posting.ID, into); err != nil {
			return err
		}
	}
	return nil
}

func toPosting(node *domain.Node, parentID string) (*domain.Posting, error) {
	if node.ID == "" {
		return nil, oops.With("parent_id", parentID, "field", "id").Wrap(errors.ErrMalformedPosting)
	}
	if node.Author == nil || node.Author.Name == "" {
		return nil, oops.With("posting_id", node.ID, "field", "author.name").Wrap(errors.ErrMalformedPosting)
	}
	if node.History == nil || node.History.Created == "" {
		return nil, oops.With("posting_id", node.ID, "field", "history.created").Wrap(errors.ErrMalformedPosting)
	}

	created, err := parseCreated(node.History.Created)
	if err != nil {
		return nil, oops.With("posting_id", node.ID, "field", "history.created", "value", node.History.Created).
			Wrap(errors.ErrMalformedPosting)
	}

	upvotes, downvotes := votes(node.Reactions)

	rootID := node.RootPostingID
	if rootID == node.ID {
		rootID = ""
	}

	return &domain.Posting{
		ID:           node.ID,
		Author:       node.Author.Name,
		Title:        deref(node.Title),
		Text:         deref(node.Text),
		CreatedAt:    created.UTC(),
		ThreadRootID: rootID,
		ParentID:     parentID,
		Upvotes:      upvotes,
		Downvotes:    downvotes,
		SelfDeleted:  domain.LifecycleFromAPI(node.LifecycleStatus).IsSelfDeleted(),
	}, nil
}

func parseCreated(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range createdLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func votes(r *domain.Reaction) (up, down int) {
	if r == nil {
		return 0, 0
	}
	for _, agg := range r.Aggregated {
		switch agg.Name {
		case reactionPositive:
			up = agg.Value
		case reactionNegative:
			down = agg.Value
		}
	}
	return up, down
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

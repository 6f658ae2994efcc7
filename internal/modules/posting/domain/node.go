package domain

// Node is a posting as returned by the forum API: a posting plus its nested replies.
type Node struct {
	ID              string    `json:"id"`
	Author          *Author   `json:"author"`
	Title           *string   `json:"title"`
	Text            *string   `json:"text"`
	History         *History  `json:"history"`
	RootPostingID   string    `json:"rootPostingId"`
	LifecycleStatus string    `json:"lifecycleStatus"`
	Reactions       *Reaction `json:"reactions"`
	Replies         []Node    `json:"replies"`
}

type Author struct {
	Name string `json:"name"`
}

type History struct {
	Created string `json:"created"`
}

type Reaction struct {
	Aggregated []AggregatedReaction `json:"aggregated"`
}

// AggregatedReaction is one named vote bucket, e.g. "positive" or "negative".
type AggregatedReaction struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

package domain

// FeedConfig describes the RSS feed of moderation events
type FeedConfig struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	// Limit caps the number of items, newest first.
	Limit int `json:"limit"`
}

// DefaultFeedConfig is used when no explicit feed settings are given.
func DefaultFeedConfig() FeedConfig {
	return FeedConfig{
		Title:       "Moderated postings",
		Description: "Forum postings detected as removed by moderators",
		Limit:       50,
	}
}

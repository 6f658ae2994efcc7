package forumapi

import "regexp"

const storyBaseURL = "https://www.derstandard.at/story/"

var (
	storyURLPattern = regexp.MustCompile(`https?://www\.derstandard\.at/story/\d+`)
	storyIDPattern  = regexp.MustCompile(`^\d{10,}`)
)

// NormalizeURL turns an article reference into the canonical story URL the API expects
// as contextUri. Full story URLs lose any slug, query or fragment; a bare story id of at
// least ten digits is expanded. Anything else is returned unchanged.
func NormalizeURL(ref string) string {
	if m := storyURLPattern.FindString(ref); m != "" {
		return m
	}
	if id := storyIDPattern.FindString(ref); id != "" {
		return storyBaseURL + id
	}
	return ref
}

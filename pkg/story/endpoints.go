package story

import (
	"net/url"
	"strings"
)

const (
	// DefaultBaseURL is the public story host
	DefaultBaseURL = "https://story.snapchat.com"

	// nextDataSelector matches the embedded page payload
	nextDataSelector = `script#__NEXT_DATA__[type="application/json"]`
)

// StoryURL builds the public story page URL for a username
func StoryURL(baseURL, username string) string {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return strings.TrimRight(baseURL, "/") + "/@" + url.PathEscape(username)
}

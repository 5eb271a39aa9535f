package story

// Feed is the ordered list of media URLs currently published for a user
type Feed struct {
	Username  string
	MediaURLs []string
}

// nextData mirrors the part of the __NEXT_DATA__ payload we read.
// Pointers let absent levels decode to nil instead of failing.
type nextData struct {
	Props *struct {
		PageProps *struct {
			Story *storyData `json:"story"`
		} `json:"pageProps"`
	} `json:"props"`
}

type storyData struct {
	SnapList []snap `json:"snapList"`
}

type snap struct {
	SnapURLs *struct {
		MediaURL string `json:"mediaUrl"`
	} `json:"snapUrls"`
}

// mediaURLs walks props.pageProps.story.snapList, keeping feed order.
// Any missing level yields an empty list.
func (d *nextData) mediaURLs() []string {
	urls := []string{}
	if d == nil || d.Props == nil || d.Props.PageProps == nil || d.Props.PageProps.Story == nil {
		return urls
	}
	for _, s := range d.Props.PageProps.Story.SnapList {
		if s.SnapURLs == nil || s.SnapURLs.MediaURL == "" {
			continue
		}
		urls = append(urls, s.SnapURLs.MediaURL)
	}
	return urls
}

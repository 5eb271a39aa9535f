package media

import "strings"

// Kind classifies downloaded media by its Content-Type
type Kind string

const (
	KindImage   Kind = "image"
	KindVideo   Kind = "video"
	KindUnknown Kind = "unknown"
)

// KindFromContentType infers the media kind from a Content-Type header value.
// The check is a substring match, so "image/jpeg" and "video/mp4" both work.
func KindFromContentType(contentType string) Kind {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "image"):
		return KindImage
	case strings.Contains(ct, "video"):
		return KindVideo
	default:
		return KindUnknown
	}
}

// Extension returns the file extension written for the kind
func (k Kind) Extension() string {
	switch k {
	case KindImage:
		return ".jpg"
	case KindVideo:
		return ".mp4"
	default:
		return ""
	}
}

package syncer

import (
	"context"

	"snapify/pkg/story"
)

// FeedFetcher retrieves the current story feed for a user
type FeedFetcher interface {
	FetchStory(ctx context.Context, username string) (*story.Feed, error)
}

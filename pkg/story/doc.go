// Package story fetches public story pages and extracts the media URLs they
// publish.
//
// A story page embeds its data as JSON inside a
// <script id="__NEXT_DATA__" type="application/json"> element. The media URLs
// live at props.pageProps.story.snapList[].snapUrls.mediaUrl and are returned
// in page order.
//
//	client := story.NewClient(cfg.Provider, cfg.Retry, log)
//	feed, err := client.FetchStory(ctx, "alice")
//	if errs.Is(err, errs.ErrorTypeNotFound) {
//		// no public story for this user
//	}
package story

package story

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"snapify/pkg/config"
	errs "snapify/pkg/errors"
	"snapify/pkg/logger"
	"snapify/pkg/retry"
)

// Client fetches public story pages
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	retrier    *retry.Config
	logger     logger.Logger
}

// NewClient creates a story client from provider and retry settings
func NewClient(provider config.ProviderConfig, retrySettings config.RetryConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	timeout := provider.FetchTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	baseURL := provider.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		headers: map[string]string{
			"User-Agent":      provider.UserAgent,
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
			"Cache-Control":   "no-cache",
		},
		baseURL: baseURL,
		retrier: retry.FromSettings(retrySettings, log),
		logger:  log,
	}
}

// SetHTTPClient replaces the underlying HTTP client
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// FetchStory retrieves the current story feed for a username.
//
// Returned errors are classified: not_found for a 404, parsing when the page
// carries no usable payload, network or server_error for transient failures
// (retried according to the configured policy).
func (c *Client) FetchStory(ctx context.Context, username string) (*Feed, error) {
	storyURL := StoryURL(c.baseURL, username)
	log := c.logger.WithField("username", username)

	log.DebugWithFields("fetching story", map[string]interface{}{
		"url": storyURL,
	})

	urls, err := retry.DoWithResult(ctx, func(ctx context.Context) ([]string, error) {
		return c.fetchOnce(ctx, storyURL)
	}, c.retrier)
	if err != nil {
		return nil, err
	}

	log.DebugWithFields("story fetched", map[string]interface{}{
		"media_count": len(urls),
	})

	return &Feed{Username: username, MediaURLs: urls}, nil
}

func (c *Client) fetchOnce(ctx context.Context, storyURL string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, storyURL, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeUnknown, err, "failed to create request")
	}
	for key, value := range c.headers {
		if value != "" {
			req.Header.Set(key, value)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.WarnWithFields("HTTP request failed", map[string]interface{}{
			"url":      storyURL,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.Wrap(errs.ErrorTypeNetwork, err, "request failed")
	}
	defer resp.Body.Close()

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      storyURL,
		"status":   resp.StatusCode,
		"duration": duration,
	})

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, err
	}

	urls, err := ExtractMediaURLs(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.WarnWithFields("failed to extract story data", map[string]interface{}{
			"url":   storyURL,
			"error": err.Error(),
		})
		return nil, err
	}
	return urls, nil
}

// checkResponseStatus maps HTTP status codes onto the error taxonomy
func (c *Client) checkResponseStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return errs.New(errs.ErrorTypeNotFound, resp.StatusCode, "story not found")
	case errs.IsRetryableStatusCode(resp.StatusCode):
		c.logger.WarnWithFields("server error", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return errs.New(errs.ErrorTypeServerError, resp.StatusCode, "server error")
	default:
		return errs.New(errs.ErrorTypeUnknown, resp.StatusCode,
			fmt.Sprintf("unexpected status code: %d", resp.StatusCode))
	}
}

package client

import (
	"net/http"
	"time"
)

// Option configures the ScenarioIQ client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.  Useful for custom
// TLS setups or for injecting a recording transport in tests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger routes the client's debug and error output to a custom logger.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRetryPolicy sets the retry budget for recommendation and dedup calls:
// up to max retries with exponential backoff bounded by [waitMin, waitMax].
// Invalid values leave the corresponding default untouched.
func WithRetryPolicy(max int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		if max >= 0 {
			c.retryMax = max
		}
		if waitMin > 0 {
			c.retryWaitMin = waitMin
			if waitMax >= waitMin {
				c.retryWaitMax = waitMax
			}
		}
	}
}

// WithoutRetries disables retries entirely.  Interactive callers that would
// rather fail fast than wait out a backoff window use this.
func WithoutRetries() Option {
	return func(c *Client) {
		c.retryMax = 0
	}
}

// WithUserAgent overrides the default sceniq-go-sdk User-Agent string, so
// server logs can attribute traffic to the embedding application.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

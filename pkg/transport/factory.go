// Copyright (C) 2025 SAGE-X Project
//
// This file is part of virgil-cards-go.
//
// virgil-cards-go is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// virgil-cards-go is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with virgil-cards-go.  If not, see <https://www.gnu.org/licenses/>.

package transport

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/sage-x-project/virgil-cards-go/pkg/version"
)

// DefaultTimeout bounds a single HTTP attempt
const DefaultTimeout = 30 * time.Second

// Option configures an HTTPConnection
type Option func(*HTTPConnection)

// WithHTTPClient sets the underlying HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *HTTPConnection) {
		if httpClient != nil {
			c.client.HTTPClient = httpClient
		}
	}
}

// WithRetryMax enables retries of network errors and 5xx responses
func WithRetryMax(retries int) Option {
	return func(c *HTTPConnection) {
		if retries >= 0 {
			c.client.RetryMax = retries
		}
	}
}

// WithRetryWait sets the backoff bounds between retries
func WithRetryWait(min, max time.Duration) Option {
	return func(c *HTTPConnection) {
		c.client.RetryWaitMin = min
		c.client.RetryWaitMax = max
	}
}

// WithLogger sets the logger for request tracing and retries
func WithLogger(logger logr.Logger) Option {
	return func(c *HTTPConnection) {
		c.logger = logger
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(userAgent string) Option {
	return func(c *HTTPConnection) {
		c.userAgent = userAgent
	}
}

// NewHTTPConnection creates a Connection to baseURL, e.g.
// "https://api.virgilsecurity.com".
//
// Example:
//
//	conn := transport.NewHTTPConnection(
//	    "https://api.virgilsecurity.com",
//	    transport.WithRetryMax(2),
//	    transport.WithLogger(logger),
//	)
//	resp, err := conn.Get(ctx, "/card/v5/"+cardID, token.String())
func NewHTTPConnection(baseURL string, opts ...Option) *HTTPConnection {
	client := retryablehttp.NewClient()
	client.RetryMax = 0
	client.HTTPClient.Timeout = DefaultTimeout
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c := &HTTPConnection{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		client:    client,
		logger:    logr.Discard(),
		userAgent: version.UserAgent(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.client.Logger = &leveledLogger{logger: c.logger}

	return c
}

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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
)

const (
	// AuthorizationScheme prefixes the access token in the Authorization header
	AuthorizationScheme = "Virgil"

	// RequestIDHeader carries the per-request correlation id
	RequestIDHeader = "X-Request-Id"
)

// Connection sends authorized requests to a Virgil service
type Connection interface {
	// Get sends a GET request to path
	Get(ctx context.Context, path, accessToken string) (*Response, error)

	// Post sends body as JSON to path. A nil body sends no payload.
	Post(ctx context.Context, path, accessToken string, body any) (*Response, error)
}

// Response is a fully read HTTP response
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

// OK reports whether the status code is 2xx
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// JSON decodes the response body into v
func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

// HTTPConnection implements Connection over HTTP/JSON.
//
// Retries of network errors and 5xx responses are handled by
// go-retryablehttp and are disabled unless WithRetryMax is given.
type HTTPConnection struct {
	baseURL   string
	client    *retryablehttp.Client
	logger    logr.Logger
	userAgent string
}

// Get implements Connection
func (c *HTTPConnection) Get(ctx context.Context, path, accessToken string) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, accessToken, nil)
}

// Post implements Connection
func (c *HTTPConnection) Post(ctx context.Context, path, accessToken string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, accessToken, body)
}

// BaseURL returns the service address requests are sent to
func (c *HTTPConnection) BaseURL() string {
	return c.baseURL
}

func (c *HTTPConnection) do(ctx context.Context, method, path, accessToken string, body any) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	var rawBody any
	if payload != nil {
		rawBody = bytes.NewReader(payload)
	}

	url := c.baseURL + "/" + strings.TrimPrefix(path, "/")
	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, rawBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", AuthorizationScheme+" "+accessToken)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	log := c.logger.WithValues("method", method, "path", path, "requestID", requestID)
	log.V(1).Info("sending request")

	// The passthrough error handler returns the last response together with
	// the retry error; a response always wins.
	resp, err := c.client.Do(req)
	if resp == nil {
		if err == nil {
			err = errors.New("no response")
		}
		log.V(1).Info("request failed", "error", err.Error())
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	log.V(1).Info("received response", "status", resp.StatusCode, "bytes", len(respBody))

	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}

var _ Connection = (*HTTPConnection)(nil)

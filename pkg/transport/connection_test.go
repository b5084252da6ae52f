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
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-logr/logr/funcr"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestConnection creates a connection with a mock server
func setupTestConnection(t *testing.T, handler http.HandlerFunc, opts ...Option) *HTTPConnection {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewHTTPConnection(server.URL, opts...)
}

func TestNewHTTPConnection(t *testing.T) {
	conn := NewHTTPConnection("https://example.com/")

	assert.Equal(t, "https://example.com", conn.BaseURL())
	assert.Equal(t, 0, conn.client.RetryMax)
	assert.Equal(t, DefaultTimeout, conn.client.HTTPClient.Timeout)
	assert.NotNil(t, conn.client.Logger)
	assert.Contains(t, conn.userAgent, "virgil-cards-go/")
}

func TestHTTPConnection_Get(t *testing.T) {
	// Test Case 1: GET sends the Virgil authorization and a request id
	conn := setupTestConnection(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/card/v5/abc", r.URL.Path)
		assert.Equal(t, "Virgil token-123", r.Header.Get("Authorization"))
		_, err := uuid.Parse(r.Header.Get(RequestIDHeader))
		assert.NoError(t, err)
		assert.Empty(t, r.Header.Get("Content-Type"))

		w.Header().Set("X-Virgil-Is-Superseeded", "true")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"content_snapshot":"YQ=="}`))
	})

	resp, err := conn.Get(context.Background(), "card/v5/abc", "token-123")
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, "true", resp.Header.Get("X-Virgil-Is-Superseeded"))

	var body map[string]string
	require.NoError(t, resp.JSON(&body))
	assert.Equal(t, "YQ==", body["content_snapshot"])
}

func TestHTTPConnection_Post(t *testing.T) {
	// Test Case 2: POST sends JSON
	conn := setupTestConnection(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"identities":["alice","bob"]}`, string(data))

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`[]`))
	})

	resp, err := conn.Post(context.Background(), "/card/v5/actions/search", "t", map[string][]string{"identities": {"alice", "bob"}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []byte(`[]`), resp.Body)
}

func TestHTTPConnection_ErrorStatus(t *testing.T) {
	// Test Case 3: 4xx responses are returned, not turned into errors
	conn := setupTestConnection(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{"code": 20304, "message": "expired"})
	})

	resp, err := conn.Get(context.Background(), "/card/v5/x", "t")
	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(resp.Body), "20304")
}

func TestHTTPConnection_NoRetryByDefault(t *testing.T) {
	// Test Case 4: 5xx is returned after a single attempt
	var calls int32
	conn := setupTestConnection(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("down"))
	})

	resp, err := conn.Get(context.Background(), "/card/v5/x", "t")
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, []byte("down"), resp.Body)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestHTTPConnection_RetryMax(t *testing.T) {
	// Test Case 5: Configured retries recover from transient 5xx
	var calls int32
	conn := setupTestConnection(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}, WithRetryMax(2), WithRetryWait(time.Millisecond, 5*time.Millisecond))

	resp, err := conn.Post(context.Background(), "/card/v5", "t", map[string]string{"a": "b"})
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHTTPConnection_ContextCanceled(t *testing.T) {
	// Test Case 6: Canceled context fails before any I/O
	conn := NewHTTPConnection("http://127.0.0.1:1")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := conn.Get(ctx, "/card/v5/x", "t")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTTPConnection_NetworkError(t *testing.T) {
	// Test Case 7: Unreachable server
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	conn := NewHTTPConnection(url)
	_, err := conn.Get(context.Background(), "/card/v5/x", "t")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP request failed")
}

func TestHTTPConnection_Logging(t *testing.T) {
	// Test Case 8: Requests are traced through the configured logger
	var lines []string
	logger := funcr.New(func(prefix, args string) {
		lines = append(lines, args)
	}, funcr.Options{Verbosity: 1})

	conn := setupTestConnection(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}, WithLogger(logger), WithUserAgent("test-agent"))

	_, err := conn.Get(context.Background(), "/card/v5/x", "")
	require.NoError(t, err)
	require.NotEmpty(t, lines)
	assert.Contains(t, lines[0], "requestID")
}

func TestResponse_JSON_Invalid(t *testing.T) {
	resp := &Response{StatusCode: 200, Body: []byte("nope")}
	var v map[string]any
	assert.Error(t, resp.JSON(&v))
}

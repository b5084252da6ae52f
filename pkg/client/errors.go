package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sage-x-project/virgil-cards-go/pkg/transport"
)

// CodeAccessTokenExpired is the service error code for an expired or
// otherwise unusable access token
const CodeAccessTokenExpired = 20304

var (
	// ErrEmptyCardID is returned when GetCard is called without an id
	ErrEmptyCardID = errors.New("card id is empty")

	// ErrNoIdentities is returned when SearchCards is called without identities
	ErrNoIdentities = errors.New("at least one identity is required")

	// ErrNilModel is returned when PublishCard is called without a model
	ErrNilModel = errors.New("raw signed model is nil")
)

// HTTPError is a non-2xx response of the Cards service
type HTTPError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("cards service error %d (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("cards service error (HTTP %d): %s", e.StatusCode, e.Message)
}

// IsAccessTokenExpired reports whether err is a service rejection of the
// access token (HTTP 401 with code 20304)
func IsAccessTokenExpired(err error) bool {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		return false
	}
	return httpErr.StatusCode == http.StatusUnauthorized && httpErr.Code == CodeAccessTokenExpired
}

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// newHTTPError builds an HTTPError from a failed response. Bodies that are
// not the {code, message} object keep their text as the message.
func newHTTPError(resp *transport.Response) *HTTPError {
	httpErr := &HTTPError{StatusCode: resp.StatusCode}

	var body errorBody
	if err := json.Unmarshal(resp.Body, &body); err == nil && (body.Code != 0 || body.Message != "") {
		httpErr.Code = body.Code
		httpErr.Message = body.Message
		return httpErr
	}

	httpErr.Message = strings.TrimSpace(string(resp.Body))
	if httpErr.Message == "" {
		httpErr.Message = http.StatusText(resp.StatusCode)
	}
	return httpErr
}

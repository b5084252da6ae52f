package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sage-x-project/virgil-cards-go/pkg/auth"
	"github.com/sage-x-project/virgil-cards-go/pkg/transport"
)

type contextKey string

const accessTokenKey contextKey = "virgil-access-token"

// TokenVerifier checks the signature and header of an access token
type TokenVerifier interface {
	VerifyToken(token *auth.Jwt) error
}

// ErrorHandler handles authentication errors
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// AuthMiddleware provides HTTP middleware for Virgil access token verification
type AuthMiddleware struct {
	verifier     TokenVerifier
	errorHandler ErrorHandler
	now          func() time.Time
}

// NewAuthMiddleware creates a new access token middleware
func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{
		verifier:     verifier,
		errorHandler: defaultErrorHandler,
		now:          time.Now,
	}
}

// SetErrorHandler sets a custom error handler
func (m *AuthMiddleware) SetErrorHandler(handler ErrorHandler) {
	m.errorHandler = handler
}

// SetClock replaces the time source used for expiry checks
func (m *AuthMiddleware) SetClock(now func() time.Time) {
	m.now = now
}

// Wrap wraps an HTTP handler with access token verification.
// Expired tokens are answered with code 20304 so that clients reload them.
func (m *AuthMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip verification for OPTIONS requests (CORS preflight)
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		prefix := transport.AuthorizationScheme + " "
		if !strings.HasPrefix(header, prefix) || len(header) == len(prefix) {
			m.errorHandler(w, r, newAPIError(http.StatusUnauthorized, CodeMissingAccessToken,
				"authorization header with a %s token is required", transport.AuthorizationScheme))
			return
		}

		token, err := auth.ParseJwt(strings.TrimPrefix(header, prefix))
		if err != nil {
			m.errorHandler(w, r, newAPIError(http.StatusUnauthorized, CodeInvalidAccessToken, "malformed access token"))
			return
		}

		if err := m.verifier.VerifyToken(token); err != nil {
			m.errorHandler(w, r, newAPIError(http.StatusUnauthorized, CodeInvalidAccessToken, "access token verification failed"))
			return
		}

		if token.IsExpired(m.now()) {
			m.errorHandler(w, r, newAPIError(http.StatusUnauthorized, CodeExpiredAccessToken, "access token is expired"))
			return
		}

		if _, err := token.Identity(); err != nil {
			m.errorHandler(w, r, newAPIError(http.StatusUnauthorized, CodeInvalidAccessToken, "access token has no identity"))
			return
		}

		ctx := context.WithValue(r.Context(), accessTokenKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetAccessTokenFromContext extracts the verified access token from request context
func GetAccessTokenFromContext(ctx context.Context) (*auth.Jwt, bool) {
	token, ok := ctx.Value(accessTokenKey).(*auth.Jwt)
	return token, ok
}

// defaultErrorHandler is the default error handler
func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		apiErr = newAPIError(http.StatusUnauthorized, CodeInvalidAccessToken, "%s", err.Error())
	}
	writeError(w, apiErr)
}

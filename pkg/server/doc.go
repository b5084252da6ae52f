// Package server provides an in-memory Cards v5 service and the access
// token middleware that guards it.
//
// The service is meant for tests, demos and local development. It implements
// the same three endpoints as the hosted service:
//
//	POST /card/v5                 publish a self-signed card
//	GET  /card/v5/{id}            fetch a card
//	POST /card/v5/actions/search  search cards by identity
//
// # Features
//
//   - Virgil access token verification ("Authorization: Virgil <jwt>")
//   - Expired tokens answered with code 20304
//   - Service ("virgil") countersignature on every published card
//   - Identity and self signature checks on publish
//   - Rotation: a card naming a previous card marks it superseded
//     (X-Virgil-Is-Superseeded: true on fetch)
//   - Duplicate publication rejected with HTTP 409
//
// # Basic Usage
//
//	tokenVerifier, _ := auth.NewJwtVerifier(auth.JwtVerifierParams{
//	    AccessTokenSigner: cardcrypto.NewAccessTokenSigner(crypto),
//	    APIPublicKey:      appKey.PublicKey,
//	    APIKeyID:          appKeyID,
//	})
//
//	service := server.NewCardService(crypto, serviceKey.PrivateKey, tokenVerifier)
//	srv := httptest.NewServer(service.Handler())
//	defer srv.Close()
//
// # Middleware
//
// AuthMiddleware can wrap any handler. The verified token is available to
// the wrapped handler:
//
//	token, ok := server.GetAccessTokenFromContext(r.Context())
//
// Errors are written as {code, message} JSON bodies by default; use
// SetErrorHandler to change that.
package server

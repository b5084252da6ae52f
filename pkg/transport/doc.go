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

// Package transport provides the HTTP connection used to talk to Virgil services.
//
// Every request carries the access token in the Authorization header using
// the Virgil scheme, and a random X-Request-Id for log correlation:
//
//	Authorization: Virgil eyJhbGciOiJWRURTNTEyIi...
//	X-Request-Id: 2f6c3a0e-...
//
// # Creating a Connection
//
//	conn := transport.NewHTTPConnection("https://api.virgilsecurity.com")
//
//	resp, err := conn.Post(ctx, "/card/v5", token.String(), rawCard)
//	if err != nil {
//	    return err
//	}
//	if !resp.OK() {
//	    // inspect resp.StatusCode and resp.Body
//	}
//
// # Retries
//
// The connection is built on go-retryablehttp. Retries of network errors and
// 5xx responses are off by default and can be enabled with WithRetryMax.
// Authorization failures are never retried here; the Card Manager owns that
// policy because it needs a fresh token.
//
// # Logging
//
// Requests are traced at V(1) through the logr.Logger given with WithLogger,
// which also receives the retry messages of go-retryablehttp.
package transport

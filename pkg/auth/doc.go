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

// Package auth provides Virgil access tokens.
//
// Requests to the Cards service carry a short lived JWT signed with an
// application API key:
//
//	header: {"alg":"VEDS512","cty":"virgil-jwt;v=1","kid":"<api key id>","typ":"JWT"}
//	body:   {"iss":"virgil-<app id>","sub":"identity-<identity>","iat":..., "exp":..., "ada":{...}}
//
// # Generating Tokens
//
//	generator, err := auth.NewJwtGenerator(auth.JwtGeneratorParams{
//	    AppID:             appID,
//	    APIKey:            apiKey,
//	    APIKeyID:          apiKeyID,
//	    AccessTokenSigner: cardcrypto.NewAccessTokenSigner(crypto),
//	})
//	token, err := generator.GenerateToken("alice@example.com", nil)
//
// # Verifying Tokens
//
//	verifier, err := auth.NewJwtVerifier(auth.JwtVerifierParams{
//	    AccessTokenSigner: cardcrypto.NewAccessTokenSigner(crypto),
//	    APIPublicKey:      apiPublicKey,
//	    APIKeyID:          apiKeyID,
//	})
//	token, err := auth.ParseJwt(str)
//	err = verifier.VerifyToken(token)
//
// A parsed Jwt keeps its original string; its signature is always checked
// against the bytes that were received, never against a re-encoding.
//
// # Providers
//
// The Card Manager obtains tokens through an AccessTokenProvider:
//
//   - ConstAccessTokenProvider: a fixed token
//   - GeneratorJwtProvider: signs a token locally for every request
//   - CallbackJwtProvider: asks a callback (e.g. the application backend)
//   - CachingJwtProvider: caches the callback result until it is about to expire
package auth

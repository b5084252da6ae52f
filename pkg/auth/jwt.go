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

package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/sage-x-project/virgil-cards-go/pkg/protocol"
)

const (
	// JwtType is the typ header of every Virgil token
	JwtType = "JWT"

	// JwtContentType is the cty header of every Virgil token
	JwtContentType = "virgil-jwt;v=1"

	// IdentityPrefix prefixes the identity in the sub claim
	IdentityPrefix = "identity-"

	// IssuerPrefix prefixes the application id in the iss claim
	IssuerPrefix = "virgil-"
)

// JwtHeader is the JOSE header of a Virgil token
type JwtHeader struct {
	Algorithm   string
	Type        string
	ContentType string
	APIKeyID    string
}

func (h JwtHeader) toMap() map[string]any {
	return map[string]any{
		"alg": h.Algorithm,
		"typ": h.Type,
		"cty": h.ContentType,
		"kid": h.APIKeyID,
	}
}

func headerFromMap(m map[string]any) JwtHeader {
	str := func(key string) string {
		s, _ := m[key].(string)
		return s
	}
	return JwtHeader{
		Algorithm:   str("alg"),
		Type:        str("typ"),
		ContentType: str("cty"),
		APIKeyID:    str("kid"),
	}
}

// JwtBody holds the claims of a Virgil token
type JwtBody struct {
	// Issuer is IssuerPrefix followed by the application id
	Issuer string `json:"iss"`

	// Subject is IdentityPrefix followed by the identity
	Subject string `json:"sub"`

	// IssuedAt and ExpiresAt are Unix seconds
	IssuedAt  int64 `json:"iat"`
	ExpiresAt int64 `json:"exp"`

	// AdditionalData is arbitrary signed application data
	AdditionalData map[string]any `json:"ada,omitempty"`
}

// NewJwtBody builds claims for identity issued by appID
func NewJwtBody(appID, identity string, issuedAt, expiresAt time.Time, additionalData map[string]any) JwtBody {
	return JwtBody{
		Issuer:         IssuerPrefix + appID,
		Subject:        IdentityPrefix + identity,
		IssuedAt:       issuedAt.Unix(),
		ExpiresAt:      expiresAt.Unix(),
		AdditionalData: additionalData,
	}
}

func (b *JwtBody) GetExpirationTime() (*jwtlib.NumericDate, error) {
	return jwtlib.NewNumericDate(time.Unix(b.ExpiresAt, 0)), nil
}

func (b *JwtBody) GetIssuedAt() (*jwtlib.NumericDate, error) {
	return jwtlib.NewNumericDate(time.Unix(b.IssuedAt, 0)), nil
}

func (b *JwtBody) GetNotBefore() (*jwtlib.NumericDate, error) {
	return nil, nil
}

func (b *JwtBody) GetIssuer() (string, error) {
	return b.Issuer, nil
}

func (b *JwtBody) GetSubject() (string, error) {
	return b.Subject, nil
}

func (b *JwtBody) GetAudience() (jwtlib.ClaimStrings, error) {
	return nil, nil
}

var _ jwtlib.Claims = (*JwtBody)(nil)

// Jwt is an immutable Virgil access token.
//
// The string form and the signed data are fixed at construction and never
// rebuilt from the header and body.
type Jwt struct {
	header       JwtHeader
	body         JwtBody
	signature    []byte
	unsignedData string
	str          string
}

// ParseJwt parses the compact form of a token. The signature is not verified.
func ParseJwt(token string) (*Jwt, error) {
	var body JwtBody
	parsed, parts, err := jwtlib.NewParser().ParseUnverified(token, &body)
	if err != nil && !errors.Is(err, jwtlib.ErrTokenUnverifiable) {
		return nil, &protocol.FormatError{Op: "parse jwt", Err: err}
	}

	signature, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, &protocol.FormatError{Op: "decode jwt signature", Err: err}
	}

	return &Jwt{
		header:       headerFromMap(parsed.Header),
		body:         body,
		signature:    signature,
		unsignedData: parts[0] + "." + parts[1],
		str:          token,
	}, nil
}

// NewJwt assembles a token from its parts. A nil signature yields an unsigned
// token whose UnsignedData can be signed.
func NewJwt(header JwtHeader, body JwtBody, signature []byte) (*Jwt, error) {
	token := &jwtlib.Token{
		Header: header.toMap(),
		Claims: &body,
	}

	unsignedData, err := token.SigningString()
	if err != nil {
		return nil, fmt.Errorf("failed to encode jwt: %w", err)
	}

	str := unsignedData
	if signature != nil {
		str += "." + token.EncodeSegment(signature)
	}

	return &Jwt{
		header:       header,
		body:         body,
		signature:    signature,
		unsignedData: unsignedData,
		str:          str,
	}, nil
}

// Header returns the token header
func (j *Jwt) Header() JwtHeader {
	return j.header
}

// Body returns the token claims
func (j *Jwt) Body() JwtBody {
	return j.body
}

// Signature returns the raw signature bytes
func (j *Jwt) Signature() []byte {
	return j.signature
}

// UnsignedData returns base64url(header) "." base64url(body)
func (j *Jwt) UnsignedData() []byte {
	return []byte(j.unsignedData)
}

// String returns the compact form of the token
func (j *Jwt) String() string {
	return j.str
}

// Identity returns the identity the token was issued for
func (j *Jwt) Identity() (string, error) {
	identity, ok := strings.CutPrefix(j.body.Subject, IdentityPrefix)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentity, j.body.Subject)
	}
	return identity, nil
}

// AppID returns the application id that issued the token
func (j *Jwt) AppID() (string, error) {
	appID, ok := strings.CutPrefix(j.body.Issuer, IssuerPrefix)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidAppID, j.body.Issuer)
	}
	return appID, nil
}

// IsExpired reports whether the token is no longer valid at the given time.
// The exp second itself counts as expired, matching the "exp" claim check.
func (j *Jwt) IsExpired(at time.Time) bool {
	return j.body.ExpiresAt <= at.Unix()
}

// ExpiresAt returns the expiration time
func (j *Jwt) ExpiresAt() time.Time {
	return time.Unix(j.body.ExpiresAt, 0)
}

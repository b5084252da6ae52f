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

package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/virgil-cards-go/pkg/cardcrypto"
	"github.com/sage-x-project/virgil-cards-go/pkg/client"
	"github.com/sage-x-project/virgil-cards-go/pkg/protocol"
	"github.com/sage-x-project/virgil-cards-go/pkg/signer"
	"github.com/sage-x-project/virgil-cards-go/pkg/verifier"
)

type testService struct {
	*testTokens
	service    *CardService
	serviceKey *cardcrypto.KeyPair
	userKey    *cardcrypto.KeyPair
	client     *client.CardClient
}

func setupTestService(t *testing.T) *testService {
	tokens := newTestTokens(t, nil)

	serviceKey, err := tokens.crypto.GenerateKeyPair()
	require.NoError(t, err)
	userKey, err := tokens.crypto.GenerateKeyPair()
	require.NoError(t, err)

	service := NewCardService(tokens.crypto, serviceKey.PrivateKey, tokens.verifier)
	srv := httptest.NewServer(service.Handler())
	t.Cleanup(srv.Close)

	return &testService{
		testTokens: tokens,
		service:    service,
		serviceKey: serviceKey,
		userKey:    userKey,
		client:     client.NewCardClientWithURL(srv.URL),
	}
}

func (ts *testService) rawCard(t *testing.T, identity, previousCardID string) *protocol.RawSignedModel {
	return ts.rawCardWithKey(t, identity, previousCardID, ts.userKey)
}

func (ts *testService) rawCardWithKey(t *testing.T, identity, previousCardID string, key *cardcrypto.KeyPair) *protocol.RawSignedModel {
	params := protocol.NewRawCardBuilder(identity, key.PublicKey).
		WithPreviousCardID(previousCardID).
		Build()
	model, err := protocol.GenerateRawSigned(ts.crypto, params)
	require.NoError(t, err)

	err = signer.NewModelSigner(ts.crypto).Sign(signer.SignParams{
		Model:            model,
		SignerPrivateKey: key.PrivateKey,
	})
	require.NoError(t, err)
	return model
}

func (ts *testService) servicePublicKeyBase64(t *testing.T) string {
	data, err := ts.crypto.ExportPublicKey(ts.serviceKey.PublicKey)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(data)
}

func requireAPIError(t *testing.T, err error, status, code int) {
	t.Helper()
	var httpErr *client.HTTPError
	require.True(t, errors.As(err, &httpErr), "expected HTTPError, got %v", err)
	assert.Equal(t, status, httpErr.StatusCode)
	assert.Equal(t, code, httpErr.Code)
}

func TestCardService_Publish(t *testing.T) {
	ts := setupTestService(t)
	ctx := context.Background()
	model := ts.rawCard(t, "alice", "")

	published, err := ts.client.PublishCard(ctx, model, ts.token(t, "alice"))
	require.NoError(t, err)
	assert.Equal(t, model.ContentSnapshot, published.ContentSnapshot)
	require.Len(t, published.Signatures, 2)
	assert.Equal(t, protocol.VirgilSigner, published.Signatures[1].Signer)
	assert.Equal(t, 1, ts.service.Len())

	// the countersignature verifies with the service key
	card, err := protocol.ParseRawSignedModel(ts.crypto, published)
	require.NoError(t, err)
	v := verifier.NewVirgilCardVerifier(ts.crypto, verifier.WithServicePublicKey(ts.servicePublicKeyBase64(t)))
	assert.True(t, v.VerifyCard(card))
}

func TestCardService_PublishRejections(t *testing.T) {
	ts := setupTestService(t)
	ctx := context.Background()

	// Test Case 1: Identity differs from the token
	_, err := ts.client.PublishCard(ctx, ts.rawCard(t, "alice", ""), ts.token(t, "bob"))
	requireAPIError(t, err, http.StatusBadRequest, CodeIdentityMismatch)

	// Test Case 2: Self signature missing
	unsigned, err := protocol.GenerateRawSigned(ts.crypto, protocol.NewRawCardBuilder("alice", ts.userKey.PublicKey).Build())
	require.NoError(t, err)
	_, err = ts.client.PublishCard(ctx, unsigned, ts.token(t, "alice"))
	requireAPIError(t, err, http.StatusBadRequest, CodeInvalidSelfSignature)

	// Test Case 3: Self signature over other content
	forged := ts.rawCard(t, "alice", "")
	forged.Signatures[0].Signature = bytes.Repeat([]byte{1}, 64)
	_, err = ts.client.PublishCard(ctx, forged, ts.token(t, "alice"))
	requireAPIError(t, err, http.StatusBadRequest, CodeInvalidSelfSignature)

	// Test Case 4: Card already countersigned
	signedTwice := ts.rawCard(t, "alice", "")
	err = signer.NewModelSigner(ts.crypto).Sign(signer.SignParams{
		Model:            signedTwice,
		SignerPrivateKey: ts.userKey.PrivateKey,
		Signer:           protocol.VirgilSigner,
	})
	require.NoError(t, err)
	_, err = ts.client.PublishCard(ctx, signedTwice, ts.token(t, "alice"))
	requireAPIError(t, err, http.StatusBadRequest, CodeServiceSignaturePresent)

	// Test Case 5: Duplicate publication
	model := ts.rawCard(t, "alice", "")
	_, err = ts.client.PublishCard(ctx, model, ts.token(t, "alice"))
	require.NoError(t, err)
	_, err = ts.client.PublishCard(ctx, ts.stripService(model), ts.token(t, "alice"))
	requireAPIError(t, err, http.StatusConflict, CodeCardExists)

	// Test Case 6: Unknown previous card
	_, err = ts.client.PublishCard(ctx, ts.rawCard(t, "alice", "00ff"), ts.token(t, "alice"))
	requireAPIError(t, err, http.StatusBadRequest, CodePreviousCardNotFound)

	// Test Case 7: Content that is not a card
	_, err = ts.client.PublishCard(ctx, protocol.NewRawSignedModel([]byte("{")), ts.token(t, "alice"))
	requireAPIError(t, err, http.StatusBadRequest, CodeInvalidCardContent)

	// Test Case 8: Missing token
	_, err = ts.client.PublishCard(ctx, ts.rawCard(t, "alice", ""), "")
	requireAPIError(t, err, http.StatusUnauthorized, CodeMissingAccessToken)
}

// stripService returns model without its service signature
func (ts *testService) stripService(model *protocol.RawSignedModel) *protocol.RawSignedModel {
	out := protocol.NewRawSignedModel(model.ContentSnapshot)
	for _, s := range model.Signatures {
		if s.Signer != protocol.VirgilSigner {
			out.Signatures = append(out.Signatures, s)
		}
	}
	return out
}

func TestCardService_GetAndRotate(t *testing.T) {
	ts := setupTestService(t)
	ctx := context.Background()
	token := ts.token(t, "alice")

	first, err := ts.client.PublishCard(ctx, ts.rawCard(t, "alice", ""), token)
	require.NoError(t, err)
	firstID := protocol.GenerateCardID(ts.crypto, first.ContentSnapshot)

	// Test Case 1: Current card
	got, superseded, err := ts.client.GetCard(ctx, firstID, token)
	require.NoError(t, err)
	assert.False(t, superseded)
	assert.Equal(t, first.ContentSnapshot, got.ContentSnapshot)

	// Test Case 2: Rotation marks the previous card
	_, err = ts.client.PublishCard(ctx, ts.rawCard(t, "alice", firstID), token)
	require.NoError(t, err)

	_, superseded, err = ts.client.GetCard(ctx, firstID, token)
	require.NoError(t, err)
	assert.True(t, superseded)

	// Test Case 3: A card can be replaced only once
	otherKey, err := ts.crypto.GenerateKeyPair()
	require.NoError(t, err)
	_, err = ts.client.PublishCard(ctx, ts.rawCardWithKey(t, "alice", firstID, otherKey), token)
	requireAPIError(t, err, http.StatusBadRequest, CodePreviousCardSuperseded)

	// Test Case 4: Previous card of another identity
	_, err = ts.client.PublishCard(ctx, ts.rawCard(t, "bob", firstID), ts.token(t, "bob"))
	requireAPIError(t, err, http.StatusBadRequest, CodePreviousCardNotFound)

	// Test Case 5: Unknown card
	_, _, err = ts.client.GetCard(ctx, "ffff", token)
	requireAPIError(t, err, http.StatusNotFound, CodeCardNotFound)
}

func TestCardService_Search(t *testing.T) {
	ts := setupTestService(t)
	ctx := context.Background()

	_, err := ts.client.PublishCard(ctx, ts.rawCard(t, "alice", ""), ts.token(t, "alice"))
	require.NoError(t, err)
	_, err = ts.client.PublishCard(ctx, ts.rawCard(t, "bob", ""), ts.token(t, "bob"))
	require.NoError(t, err)

	token := ts.token(t, "carol")

	// Test Case 1: Several identities, duplicates ignored
	models, err := ts.client.SearchCards(ctx, []string{"alice", "bob", "alice"}, token)
	require.NoError(t, err)
	assert.Len(t, models, 2)

	// Test Case 2: Nothing found
	models, err = ts.client.SearchCards(ctx, []string{"nobody"}, token)
	require.NoError(t, err)
	assert.Empty(t, models)

	// Test Case 3: Too many identities
	identities := make([]string, MaxSearchIdentities+1)
	for i := range identities {
		identities[i] = "user"
	}
	_, err = ts.client.SearchCards(ctx, identities, token)
	requireAPIError(t, err, http.StatusBadRequest, CodeInvalidSearchRequest)
}

func TestCardService_ExpiredToken(t *testing.T) {
	ts := setupTestService(t)
	ts.service.Auth().SetClock(func() time.Time { return time.Now().Add(time.Hour) })

	_, err := ts.client.SearchCards(context.Background(), []string{"alice"}, ts.token(t, "alice"))
	require.Error(t, err)
	assert.True(t, client.IsAccessTokenExpired(err))
}

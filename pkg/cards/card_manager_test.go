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

package cards

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/virgil-cards-go/pkg/auth"
	"github.com/sage-x-project/virgil-cards-go/pkg/cardcrypto"
	"github.com/sage-x-project/virgil-cards-go/pkg/client"
	"github.com/sage-x-project/virgil-cards-go/pkg/protocol"
	"github.com/sage-x-project/virgil-cards-go/pkg/signer"
	"github.com/sage-x-project/virgil-cards-go/pkg/verifier"
)

// fakeToken is an access token with a fixed identity
type fakeToken struct {
	identity string
	value    string
}

func (t *fakeToken) Identity() (string, error) { return t.identity, nil }
func (t *fakeToken) String() string             { return t.value }

// fakeProvider records every token request
type fakeProvider struct {
	mu       sync.Mutex
	identity string
	contexts []auth.TokenContext
	err      error
}

func (p *fakeProvider) GetToken(ctx context.Context, tokenContext *auth.TokenContext) (auth.AccessToken, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	p.contexts = append(p.contexts, *tokenContext)
	return &fakeToken{identity: p.identity, value: fmt.Sprintf("token-%d", len(p.contexts))}, nil
}

// fakeClient is an in-memory Cards service that countersigns published cards
type fakeClient struct {
	crypto     cardcrypto.Crypto
	serviceKey *cardcrypto.KeyPair

	order      []string
	cards      map[string]*protocol.RawSignedModel
	superseded map[string]bool

	// expiredCalls is the number of next calls rejected with code 20304
	expiredCalls int
	calls        int
	tokens       []string

	// tamper rewrites responses
	tamper func(*protocol.RawSignedModel) *protocol.RawSignedModel

	// leakAll makes search ignore the requested identities
	leakAll bool
}

func newFakeClient(t testing.TB, crypto cardcrypto.Crypto) *fakeClient {
	serviceKey, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	return &fakeClient{
		crypto:     crypto,
		serviceKey: serviceKey,
		cards:      make(map[string]*protocol.RawSignedModel),
		superseded: make(map[string]bool),
	}
}

func (c *fakeClient) servicePublicKey(t *testing.T) string {
	data, err := c.crypto.ExportPublicKey(c.serviceKey.PublicKey)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(data)
}

func (c *fakeClient) begin(token string) error {
	c.calls++
	c.tokens = append(c.tokens, token)
	if c.expiredCalls > 0 {
		c.expiredCalls--
		return &client.HTTPError{StatusCode: http.StatusUnauthorized, Code: client.CodeAccessTokenExpired, Message: "expired"}
	}
	return nil
}

func (c *fakeClient) respond(model *protocol.RawSignedModel) *protocol.RawSignedModel {
	if c.tamper != nil {
		return c.tamper(model)
	}
	return model
}

func (c *fakeClient) PublishCard(ctx context.Context, model *protocol.RawSignedModel, accessToken string) (*protocol.RawSignedModel, error) {
	if err := c.begin(accessToken); err != nil {
		return nil, err
	}

	stored := protocol.NewRawSignedModel(model.ContentSnapshot)
	stored.Signatures = append(stored.Signatures, model.Signatures...)
	err := signer.NewModelSigner(c.crypto).Sign(signer.SignParams{
		Model:            stored,
		SignerPrivateKey: c.serviceKey.PrivateKey,
		Signer:           protocol.VirgilSigner,
	})
	if err != nil {
		return nil, err
	}

	content, err := protocol.ParseRawCardContent(stored.ContentSnapshot)
	if err != nil {
		return nil, err
	}
	if content.PreviousCardID != "" {
		c.superseded[content.PreviousCardID] = true
	}

	id := protocol.GenerateCardID(c.crypto, stored.ContentSnapshot)
	c.order = append(c.order, id)
	c.cards[id] = stored
	return c.respond(stored), nil
}

func (c *fakeClient) GetCard(ctx context.Context, cardID, accessToken string) (*protocol.RawSignedModel, bool, error) {
	if err := c.begin(accessToken); err != nil {
		return nil, false, err
	}
	model, ok := c.cards[cardID]
	if !ok {
		return nil, false, &client.HTTPError{StatusCode: http.StatusNotFound, Code: 10001, Message: "card not found"}
	}
	return c.respond(model), c.superseded[cardID], nil
}

func (c *fakeClient) SearchCards(ctx context.Context, identities []string, accessToken string) ([]*protocol.RawSignedModel, error) {
	if err := c.begin(accessToken); err != nil {
		return nil, err
	}
	var out []*protocol.RawSignedModel
	for _, id := range c.order {
		model := c.cards[id]
		content, err := protocol.ParseRawCardContent(model.ContentSnapshot)
		if err != nil {
			return nil, err
		}
		for _, identity := range identities {
			if c.leakAll || content.Identity == identity {
				out = append(out, c.respond(model))
				break
			}
		}
	}
	return out, nil
}

type testEnv struct {
	crypto   *cardcrypto.SageCrypto
	keyPair  *cardcrypto.KeyPair
	client   *fakeClient
	provider *fakeProvider
	manager  *CardManager
}

func setupTestManager(t *testing.T, mutate func(*CardManagerParams, *fakeClient)) *testEnv {
	t.Helper()

	crypto := cardcrypto.NewSageCrypto()
	keyPair, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	fc := newFakeClient(t, crypto)
	provider := &fakeProvider{identity: "alice"}

	params := CardManagerParams{
		Crypto:              crypto,
		AccessTokenProvider: provider,
		CardVerifier:        verifier.NewVirgilCardVerifier(crypto, verifier.WithServicePublicKey(fc.servicePublicKey(t))),
		RetryOnUnauthorized: true,
		Client:              fc,
	}
	if mutate != nil {
		mutate(&params, fc)
	}

	manager, err := NewCardManager(params)
	require.NoError(t, err)

	return &testEnv{crypto: crypto, keyPair: keyPair, client: fc, provider: provider, manager: manager}
}

func (e *testEnv) cardParams(identity string) CardParams {
	return CardParams{
		Identity:   identity,
		PrivateKey: e.keyPair.PrivateKey,
		PublicKey:  e.keyPair.PublicKey,
	}
}

func TestNewCardManager_MissingParams(t *testing.T) {
	crypto := cardcrypto.NewSageCrypto()
	provider := &fakeProvider{}
	cardVerifier := verifier.NewVirgilCardVerifier(crypto)

	_, err := NewCardManager(CardManagerParams{AccessTokenProvider: provider, CardVerifier: cardVerifier})
	assert.ErrorIs(t, err, ErrMissingCrypto)

	_, err = NewCardManager(CardManagerParams{Crypto: crypto, CardVerifier: cardVerifier})
	assert.ErrorIs(t, err, ErrMissingAccessTokenProvider)

	_, err = NewCardManager(CardManagerParams{Crypto: crypto, AccessTokenProvider: provider})
	assert.ErrorIs(t, err, ErrMissingCardVerifier)

	manager, err := NewCardManager(CardManagerParams{Crypto: crypto, AccessTokenProvider: provider, CardVerifier: cardVerifier})
	require.NoError(t, err)
	assert.NotNil(t, manager.client)
}

func TestCardManager_GenerateRawCard(t *testing.T) {
	env := setupTestManager(t, nil)

	// Test Case 1: Self-signed raw card
	params := env.cardParams("alice")
	params.ExtraFields = protocol.NewExtraFields("device", "laptop")
	model, err := env.manager.GenerateRawCard(params)
	require.NoError(t, err)
	require.Len(t, model.Signatures, 1)
	assert.Equal(t, protocol.SelfSigner, model.Signatures[0].Signer)
	assert.Equal(t, `{"device":"laptop"}`, string(model.Signatures[0].Snapshot))
	assert.Empty(t, env.client.calls)

	card, err := protocol.ParseRawSignedModel(env.crypto, model)
	require.NoError(t, err)
	assert.Equal(t, "alice", card.Identity)
	assert.Equal(t, protocol.CardVersion, card.Version)

	// Test Case 2: Missing private key
	params.PrivateKey = nil
	_, err = env.manager.GenerateRawCard(params)
	assert.ErrorIs(t, err, ErrPrivateKeyRequired)

	// Test Case 3: Missing identity
	params = env.cardParams("")
	_, err = env.manager.GenerateRawCard(params)
	assert.ErrorIs(t, err, protocol.ErrIdentityRequired)
}

func TestCardManager_PublishCard(t *testing.T) {
	env := setupTestManager(t, nil)

	// Test Case 1: The token identity wins over the requested one
	card, err := env.manager.PublishCard(context.Background(), env.cardParams("someone-else"))
	require.NoError(t, err)
	assert.Equal(t, "alice", card.Identity)
	assert.False(t, card.IsOutdated)

	_, ok := card.Signature(protocol.SelfSigner)
	assert.True(t, ok)
	_, ok = card.Signature(protocol.VirgilSigner)
	assert.True(t, ok)

	require.Len(t, env.provider.contexts, 2)
	assert.Equal(t, "someone-else", env.provider.contexts[0].Identity)
	assert.Equal(t, OperationPublish, env.provider.contexts[0].Operation)
	assert.Equal(t, ServiceName, env.provider.contexts[0].Service)
	assert.Equal(t, "alice", env.provider.contexts[1].Identity)

	// Test Case 2: Missing keys fail before I/O
	calls := env.client.calls
	_, err = env.manager.PublishCard(context.Background(), CardParams{Identity: "alice", PublicKey: env.keyPair.PublicKey})
	assert.ErrorIs(t, err, ErrPrivateKeyRequired)
	_, err = env.manager.PublishCard(context.Background(), CardParams{Identity: "alice", PrivateKey: env.keyPair.PrivateKey})
	assert.ErrorIs(t, err, protocol.ErrPublicKeyRequired)
	assert.Equal(t, calls, env.client.calls)

	// Test Case 3: Token provider failure
	env.provider.err = errors.New("no token")
	_, err = env.manager.PublishCard(context.Background(), env.cardParams("alice"))
	assert.ErrorContains(t, err, "no token")
}

func TestCardManager_PublishRawCard_SignCallback(t *testing.T) {
	crypto := cardcrypto.NewSageCrypto()
	appKey, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	appPublicKey, err := crypto.ExportPublicKey(appKey.PublicKey)
	require.NoError(t, err)

	callback := func(ctx context.Context, model *protocol.RawSignedModel) (*protocol.RawSignedModel, error) {
		err := signer.NewModelSigner(crypto).Sign(signer.SignParams{
			Model:            model,
			SignerPrivateKey: appKey.PrivateKey,
			Signer:           "my-app",
		})
		return model, err
	}

	env := setupTestManager(t, func(p *CardManagerParams, fc *fakeClient) {
		p.SignCallback = callback
		p.CardVerifier = verifier.NewVirgilCardVerifier(crypto,
			verifier.WithServicePublicKey(fc.servicePublicKey(t)),
			verifier.WithWhitelists(verifier.NewWhitelist(verifier.VerifierCredentials{
				Signer:          "my-app",
				PublicKeyBase64: base64.StdEncoding.EncodeToString(appPublicKey),
			})),
		)
	})

	model, err := env.manager.GenerateRawCard(env.cardParams("alice"))
	require.NoError(t, err)

	card, err := env.manager.PublishRawCard(context.Background(), model)
	require.NoError(t, err)
	require.Len(t, card.Signatures, 3)
	assert.Equal(t, "my-app", card.Signatures[1].Signer)
	assert.Equal(t, protocol.VirgilSigner, card.Signatures[2].Signer)

	// Test Case 2: Callback failure stops the publish
	env = setupTestManager(t, func(p *CardManagerParams, _ *fakeClient) {
		p.SignCallback = func(ctx context.Context, model *protocol.RawSignedModel) (*protocol.RawSignedModel, error) {
			return nil, errors.New("hsm offline")
		}
	})
	model, err = env.manager.GenerateRawCard(env.cardParams("alice"))
	require.NoError(t, err)

	_, err = env.manager.PublishRawCard(context.Background(), model)
	assert.ErrorContains(t, err, "hsm offline")
	assert.Zero(t, env.client.calls)
}

func TestCardManager_PublishRawCard_Tampered(t *testing.T) {
	env := setupTestManager(t, nil)

	other, err := env.manager.GenerateRawCard(env.cardParams("mallory"))
	require.NoError(t, err)
	env.client.tamper = func(model *protocol.RawSignedModel) *protocol.RawSignedModel {
		return other
	}

	model, err := env.manager.GenerateRawCard(env.cardParams("alice"))
	require.NoError(t, err)

	_, err = env.manager.PublishRawCard(context.Background(), model)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCardVerification)

	var verr *VerificationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Reason, "content snapshot")
}

func TestCardManager_PublishRawCard_Errors(t *testing.T) {
	env := setupTestManager(t, nil)

	// Test Case 1: Nil model
	_, err := env.manager.PublishRawCard(context.Background(), nil)
	assert.ErrorIs(t, err, protocol.ErrNilModel)

	// Test Case 2: Content that is not a card
	_, err = env.manager.PublishRawCard(context.Background(), protocol.NewRawSignedModel([]byte("nope")))
	assert.ErrorIs(t, err, protocol.ErrFormat)
	assert.Zero(t, env.client.calls)

	// Test Case 3: Card without self signature is rejected after publish
	model, err := env.manager.GenerateRawCard(env.cardParams("alice"))
	require.NoError(t, err)
	model.Signatures = nil

	_, err = env.manager.PublishRawCard(context.Background(), model)
	assert.ErrorIs(t, err, ErrCardVerification)
}

func TestCardManager_GetCard(t *testing.T) {
	env := setupTestManager(t, nil)

	published, err := env.manager.PublishCard(context.Background(), env.cardParams("alice"))
	require.NoError(t, err)

	// Test Case 1: Fetch returns the same content
	card, err := env.manager.GetCard(context.Background(), published.ID)
	require.NoError(t, err)
	assert.Equal(t, published.ID, card.ID)
	assert.Equal(t, published.ContentSnapshot, card.ContentSnapshot)
	assert.False(t, card.IsOutdated)

	last := env.provider.contexts[len(env.provider.contexts)-1]
	assert.Equal(t, OperationGet, last.Operation)

	// Test Case 2: Superseded card is outdated
	params := env.cardParams("alice")
	params.PreviousCardID = published.ID
	_, err = env.manager.PublishCard(context.Background(), params)
	require.NoError(t, err)

	card, err = env.manager.GetCard(context.Background(), published.ID)
	require.NoError(t, err)
	assert.True(t, card.IsOutdated)

	// Test Case 3: Empty id
	_, err = env.manager.GetCard(context.Background(), "")
	assert.ErrorIs(t, err, ErrCardIDRequired)

	// Test Case 4: Unknown id surfaces the HTTP error
	_, err = env.manager.GetCard(context.Background(), "ffff")
	var httpErr *client.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
}

func TestCardManager_GetCard_IDMismatch(t *testing.T) {
	env := setupTestManager(t, nil)

	first, err := env.manager.PublishCard(context.Background(), env.cardParams("alice"))
	require.NoError(t, err)
	params := env.cardParams("alice")
	params.CreatedAt = time.Now().Add(-time.Hour)
	second, err := env.manager.PublishCard(context.Background(), params)
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	swapped := env.client.cards[second.ID]
	env.client.tamper = func(model *protocol.RawSignedModel) *protocol.RawSignedModel {
		return swapped
	}

	_, err = env.manager.GetCard(context.Background(), first.ID)
	assert.ErrorIs(t, err, ErrCardVerification)
}

func TestCardManager_SearchCards(t *testing.T) {
	env := setupTestManager(t, nil)
	ctx := context.Background()

	card1, err := env.manager.PublishCard(ctx, env.cardParams("alice"))
	require.NoError(t, err)

	params := env.cardParams("alice")
	params.PreviousCardID = card1.ID
	card2, err := env.manager.PublishCard(ctx, params)
	require.NoError(t, err)

	// Test Case 1: Rotation chain collapses to its head
	result, err := env.manager.SearchCards(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, card2.ID, result[0].ID)
	require.NotNil(t, result[0].PreviousCard)
	assert.Equal(t, card1.ContentSnapshot, result[0].PreviousCard.ContentSnapshot)
	assert.True(t, result[0].PreviousCard.IsOutdated)

	last := env.provider.contexts[len(env.provider.contexts)-1]
	assert.Equal(t, OperationSearch, last.Operation)
	assert.Equal(t, "alice", last.Identity)

	// Test Case 2: Unknown identity
	result, err = env.manager.SearchCards(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, result)

	// Test Case 3: No identities
	_, err = env.manager.SearchCards(ctx)
	assert.ErrorIs(t, err, ErrIdentitiesRequired)
}

func TestCardManager_SearchCards_IdentityLeak(t *testing.T) {
	env := setupTestManager(t, nil)
	ctx := context.Background()

	_, err := env.manager.PublishCard(ctx, env.cardParams("alice"))
	require.NoError(t, err)

	env.provider.identity = "bob"
	_, err = env.manager.PublishCard(ctx, env.cardParams("bob"))
	require.NoError(t, err)

	// Test Case 1: Both identities requested
	result, err := env.manager.SearchCards(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Len(t, result, 2)
	assert.Empty(t, env.provider.contexts[len(env.provider.contexts)-1].Identity)

	// Test Case 2: Service returns a card of an identity nobody asked for
	env.client.leakAll = true
	_, err = env.manager.SearchCards(ctx, "alice")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCardVerification)
	assert.Contains(t, err.Error(), `"bob"`)
}

func TestCardManager_RetryOnUnauthorized(t *testing.T) {
	ctx := context.Background()

	// Test Case 1: A single expiry is retried with ForceReload
	env := setupTestManager(t, nil)
	before := testutil.ToFloat64(tokenRefreshTotal.WithLabelValues("unauthorized"))
	env.client.expiredCalls = 1

	_, err := env.manager.SearchCards(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, env.client.calls)
	require.Len(t, env.provider.contexts, 2)
	assert.False(t, env.provider.contexts[0].ForceReload)
	assert.True(t, env.provider.contexts[1].ForceReload)
	assert.Equal(t, []string{"token-1", "token-2"}, env.client.tokens)
	assert.Equal(t, before+1, testutil.ToFloat64(tokenRefreshTotal.WithLabelValues("unauthorized")))

	// Test Case 2: A second expiry propagates
	env = setupTestManager(t, nil)
	env.client.expiredCalls = 2

	_, err = env.manager.SearchCards(ctx, "alice")
	assert.True(t, client.IsAccessTokenExpired(err))
	assert.Equal(t, 2, env.client.calls)

	// Test Case 3: Retry disabled
	env = setupTestManager(t, func(p *CardManagerParams, _ *fakeClient) { p.RetryOnUnauthorized = false })
	env.client.expiredCalls = 1

	_, err = env.manager.SearchCards(ctx, "alice")
	assert.True(t, client.IsAccessTokenExpired(err))
	assert.Equal(t, 1, env.client.calls)
	assert.Len(t, env.provider.contexts, 1)
}

func TestCardManager_ImportExport(t *testing.T) {
	env := setupTestManager(t, nil)

	published, err := env.manager.PublishCard(context.Background(), env.cardParams("alice"))
	require.NoError(t, err)

	// Test Case 1: String round trip
	str, err := env.manager.ExportCardAsString(published)
	require.NoError(t, err)
	imported, err := env.manager.ImportCardFromString(str)
	require.NoError(t, err)
	assert.Equal(t, published.ID, imported.ID)
	assert.Equal(t, published.ContentSnapshot, imported.ContentSnapshot)
	assert.Equal(t, published.CreatedAt, imported.CreatedAt)

	// Test Case 2: JSON round trip
	data, err := env.manager.ExportCardAsJSON(published)
	require.NoError(t, err)
	imported, err = env.manager.ImportCardFromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, published.ID, imported.ID)

	// Test Case 3: Raw model round trip
	model, err := env.manager.ExportCardAsRawCard(published)
	require.NoError(t, err)
	imported, err = env.manager.ImportCard(model)
	require.NoError(t, err)
	assert.Len(t, imported.Signatures, 2)

	// Test Case 4: Unpublished card lacks the service signature
	raw, err := env.manager.GenerateRawCard(env.cardParams("alice"))
	require.NoError(t, err)
	_, err = env.manager.ImportCard(raw)
	assert.ErrorIs(t, err, ErrCardVerification)

	// Test Case 5: Malformed input
	_, err = env.manager.ImportCardFromString("%%%")
	assert.ErrorIs(t, err, protocol.ErrFormat)
	_, err = env.manager.ExportCardAsJSON(nil)
	assert.ErrorIs(t, err, protocol.ErrNilCard)
}

func TestVerificationError(t *testing.T) {
	err := verificationError("abc", "reason %d", 1)
	assert.True(t, IsVerificationError(err))
	assert.Equal(t, "card verification failed: card abc: reason 1", err.Error())
	assert.Equal(t, "card verification failed: x", (&VerificationError{Reason: "x"}).Error())
	assert.False(t, IsVerificationError(errors.New("other")))
}

// Benchmark card generation
func BenchmarkCardManager_GenerateRawCard(b *testing.B) {
	crypto := cardcrypto.NewSageCrypto()
	keyPair, err := crypto.GenerateKeyPair()
	require.NoError(b, err)

	manager, err := NewCardManager(CardManagerParams{
		Crypto:              crypto,
		AccessTokenProvider: &fakeProvider{identity: "alice"},
		CardVerifier:        verifier.NewVirgilCardVerifier(crypto),
		Client:              newFakeClient(b, crypto),
	})
	require.NoError(b, err)

	params := CardParams{Identity: "alice", PrivateKey: keyPair.PrivateKey, PublicKey: keyPair.PublicKey}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := manager.GenerateRawCard(params); err != nil {
			b.Fatal(err)
		}
	}
}

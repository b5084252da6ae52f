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
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/sage-x-project/virgil-cards-go/pkg/auth"
	"github.com/sage-x-project/virgil-cards-go/pkg/cardcrypto"
	"github.com/sage-x-project/virgil-cards-go/pkg/client"
	"github.com/sage-x-project/virgil-cards-go/pkg/protocol"
	"github.com/sage-x-project/virgil-cards-go/pkg/signer"
	"github.com/sage-x-project/virgil-cards-go/pkg/transport"
	"github.com/sage-x-project/virgil-cards-go/pkg/verifier"
)

// Token context values used by the Card Manager
const (
	ServiceName = "cards"

	OperationPublish = "publish"
	OperationGet     = "get"
	OperationSearch  = "search"
)

// SignCallback adds signatures to a raw card before it is published
type SignCallback func(ctx context.Context, model *protocol.RawSignedModel) (*protocol.RawSignedModel, error)

// CardManagerParams configures a CardManager
type CardManagerParams struct {
	Crypto              cardcrypto.Crypto
	AccessTokenProvider auth.AccessTokenProvider
	CardVerifier        verifier.CardVerifier

	// SignCallback is called by PublishRawCard before sending, optional
	SignCallback SignCallback

	// RetryOnUnauthorized retries a request once with a reloaded token when
	// the service reports the access token as expired
	RetryOnUnauthorized bool

	// Client overrides the Cards service client. When nil, a client for
	// APIURL (or client.DefaultAPIURL) is created.
	Client client.Client
	APIURL string

	// TransportOptions configure the HTTP connection created for APIURL
	TransportOptions []transport.Option

	Logger logr.Logger
}

// CardParams describes a card to generate or publish
type CardParams struct {
	Identity   string
	PrivateKey cardcrypto.PrivateKey
	PublicKey  cardcrypto.PublicKey

	// PreviousCardID names the card this one replaces
	PreviousCardID string

	// ExtraFields are signed with the self signature, optional
	ExtraFields *protocol.ExtraFields

	// CreatedAt defaults to the current time
	CreatedAt time.Time
}

// CardManager generates, publishes, fetches and verifies cards
type CardManager struct {
	crypto              cardcrypto.Crypto
	accessTokenProvider auth.AccessTokenProvider
	cardVerifier        verifier.CardVerifier
	signCallback        SignCallback
	retryOnUnauthorized bool
	client              client.Client
	modelSigner         *signer.ModelSigner
	logger              logr.Logger
}

// NewCardManager creates a CardManager from params
func NewCardManager(params CardManagerParams) (*CardManager, error) {
	if params.Crypto == nil {
		return nil, ErrMissingCrypto
	}
	if params.AccessTokenProvider == nil {
		return nil, ErrMissingAccessTokenProvider
	}
	if params.CardVerifier == nil {
		return nil, ErrMissingCardVerifier
	}

	logger := params.Logger
	if logger.GetSink() == nil {
		logger = logr.Discard()
	}

	cardClient := params.Client
	if cardClient == nil {
		opts := append([]transport.Option{transport.WithLogger(logger)}, params.TransportOptions...)
		cardClient = client.NewCardClientWithURL(params.APIURL, opts...)
	}

	return &CardManager{
		crypto:              params.Crypto,
		accessTokenProvider: params.AccessTokenProvider,
		cardVerifier:        params.CardVerifier,
		signCallback:        params.SignCallback,
		retryOnUnauthorized: params.RetryOnUnauthorized,
		client:              cardClient,
		modelSigner:         signer.NewModelSigner(params.Crypto),
		logger:              logger,
	}, nil
}

// GenerateRawCard builds a self-signed raw card. It does no I/O.
func (m *CardManager) GenerateRawCard(params CardParams) (*protocol.RawSignedModel, error) {
	if params.PrivateKey == nil {
		return nil, ErrPrivateKeyRequired
	}

	model, err := protocol.GenerateRawSigned(m.crypto, protocol.RawCardParams{
		Identity:       params.Identity,
		PublicKey:      params.PublicKey,
		PreviousCardID: params.PreviousCardID,
		CreatedAt:      params.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate raw card: %w", err)
	}

	err = m.modelSigner.Sign(signer.SignParams{
		Model:            model,
		SignerPrivateKey: params.PrivateKey,
		Signer:           protocol.SelfSigner,
		ExtraFields:      params.ExtraFields,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to self-sign raw card: %w", err)
	}

	return model, nil
}

// PublishCard generates a card for the identity of the access token and
// publishes it. params.Identity only scopes the token request.
func (m *CardManager) PublishCard(ctx context.Context, params CardParams) (*protocol.Card, error) {
	if params.PrivateKey == nil {
		return nil, ErrPrivateKeyRequired
	}
	if params.PublicKey == nil {
		return nil, protocol.ErrPublicKeyRequired
	}

	token, err := m.accessTokenProvider.GetToken(ctx, &auth.TokenContext{
		Identity:  params.Identity,
		Operation: OperationPublish,
		Service:   ServiceName,
	})
	if err != nil {
		observe(OperationPublish, err)
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}

	identity, err := token.Identity()
	if err != nil {
		observe(OperationPublish, err)
		return nil, fmt.Errorf("failed to read access token identity: %w", err)
	}

	params.Identity = identity
	model, err := m.GenerateRawCard(params)
	if err != nil {
		observe(OperationPublish, err)
		return nil, err
	}

	return m.PublishRawCard(ctx, model)
}

// PublishRawCard publishes an already signed raw card.
//
// The service response must carry the exact content snapshot that was sent
// and pass the card verifier.
func (m *CardManager) PublishRawCard(ctx context.Context, model *protocol.RawSignedModel) (card *protocol.Card, err error) {
	defer func() { observe(OperationPublish, err) }()

	if model == nil {
		return nil, protocol.ErrNilModel
	}

	content, err := protocol.ParseRawCardContent(model.ContentSnapshot)
	if err != nil {
		return nil, err
	}

	if m.signCallback != nil {
		model, err = m.signCallback(ctx, model)
		if err != nil {
			return nil, fmt.Errorf("sign callback failed: %w", err)
		}
		if model == nil {
			return nil, protocol.ErrNilModel
		}
	}

	tokenContext := &auth.TokenContext{
		Identity:  content.Identity,
		Operation: OperationPublish,
		Service:   ServiceName,
	}

	var published *protocol.RawSignedModel
	err = m.tryDo(ctx, tokenContext, func(ctx context.Context, token auth.AccessToken) error {
		var err error
		published, err = m.client.PublishCard(ctx, model, token.String())
		return err
	})
	if err != nil {
		return nil, err
	}

	if !bytes.Equal(published.ContentSnapshot, model.ContentSnapshot) {
		return nil, verificationError("", "published content snapshot differs from the one sent")
	}

	card, err = m.parseAndVerify(published)
	if err != nil {
		return nil, err
	}

	m.logger.V(1).Info("Card published", "cardID", card.ID, "identity", card.Identity)
	return card, nil
}

// GetCard fetches a card by id and verifies it
func (m *CardManager) GetCard(ctx context.Context, cardID string) (card *protocol.Card, err error) {
	defer func() { observe(OperationGet, err) }()

	if cardID == "" {
		return nil, ErrCardIDRequired
	}

	tokenContext := &auth.TokenContext{
		Operation: OperationGet,
		Service:   ServiceName,
	}

	var (
		model      *protocol.RawSignedModel
		superseded bool
	)
	err = m.tryDo(ctx, tokenContext, func(ctx context.Context, token auth.AccessToken) error {
		var err error
		model, superseded, err = m.client.GetCard(ctx, cardID, token.String())
		return err
	})
	if err != nil {
		return nil, err
	}

	card, err = m.parseAndVerify(model)
	if err != nil {
		return nil, err
	}

	if card.ID != cardID {
		m.logger.Error(ErrCardVerification, "Fetched card id mismatch", "requested", cardID, "received", card.ID)
		return nil, verificationError(card.ID, "requested card %s", cardID)
	}

	card.IsOutdated = superseded
	return card, nil
}

// SearchCards returns the current cards of the given identities.
// Replaced cards are reachable through PreviousCard of their successors.
func (m *CardManager) SearchCards(ctx context.Context, identities ...string) (result []*protocol.Card, err error) {
	defer func() { observe(OperationSearch, err) }()

	if len(identities) == 0 {
		return nil, ErrIdentitiesRequired
	}

	tokenContext := &auth.TokenContext{
		Operation: OperationSearch,
		Service:   ServiceName,
	}
	if len(identities) == 1 {
		tokenContext.Identity = identities[0]
	}

	var models []*protocol.RawSignedModel
	err = m.tryDo(ctx, tokenContext, func(ctx context.Context, token auth.AccessToken) error {
		var err error
		models, err = m.client.SearchCards(ctx, identities, token.String())
		return err
	})
	if err != nil {
		return nil, err
	}

	requested := make(map[string]bool, len(identities))
	for _, identity := range identities {
		requested[identity] = true
	}

	cards := make([]*protocol.Card, 0, len(models))
	for _, model := range models {
		card, err := m.parseAndVerify(model)
		if err != nil {
			return nil, err
		}
		if !requested[card.Identity] {
			m.logger.Error(ErrCardVerification, "Search returned a card of another identity", "cardID", card.ID, "identity", card.Identity)
			return nil, verificationError(card.ID, "identity %q was not requested", card.Identity)
		}
		cards = append(cards, card)
	}

	return protocol.LinkCards(cards), nil
}

// ImportCard parses and verifies a raw card without contacting the service
func (m *CardManager) ImportCard(model *protocol.RawSignedModel) (*protocol.Card, error) {
	return m.parseAndVerify(model)
}

// ImportCardFromString imports the base64 form of a raw card
func (m *CardManager) ImportCardFromString(str string) (*protocol.Card, error) {
	model, err := protocol.RawSignedModelFromString(str)
	if err != nil {
		return nil, err
	}
	return m.ImportCard(model)
}

// ImportCardFromJSON imports the JSON form of a raw card
func (m *CardManager) ImportCardFromJSON(data []byte) (*protocol.Card, error) {
	model, err := protocol.RawSignedModelFromJSON(data)
	if err != nil {
		return nil, err
	}
	return m.ImportCard(model)
}

// ExportCardAsRawCard returns the raw card of card. Export does not verify.
func (m *CardManager) ExportCardAsRawCard(card *protocol.Card) (*protocol.RawSignedModel, error) {
	return protocol.CardToRawSignedModel(card)
}

// ExportCardAsString returns the base64 form of card
func (m *CardManager) ExportCardAsString(card *protocol.Card) (string, error) {
	model, err := m.ExportCardAsRawCard(card)
	if err != nil {
		return "", err
	}
	return model.ExportAsString()
}

// ExportCardAsJSON returns the JSON form of card
func (m *CardManager) ExportCardAsJSON(card *protocol.Card) ([]byte, error) {
	model, err := m.ExportCardAsRawCard(card)
	if err != nil {
		return nil, err
	}
	return model.ExportAsJSON()
}

func (m *CardManager) parseAndVerify(model *protocol.RawSignedModel) (*protocol.Card, error) {
	card, err := protocol.ParseRawSignedModel(m.crypto, model)
	if err != nil {
		return nil, fmt.Errorf("failed to parse card: %w", err)
	}

	if !m.cardVerifier.VerifyCard(card) {
		m.logger.Error(ErrCardVerification, "Card rejected by verifier", "cardID", card.ID, "identity", card.Identity)
		return nil, verificationError(card.ID, "signatures rejected by verifier")
	}
	return card, nil
}

// tryDo runs fn with a token for tokenContext. If the service rejects the
// token as expired and retries are enabled, fn runs once more with a token
// obtained with ForceReload. The second outcome is returned as is.
func (m *CardManager) tryDo(ctx context.Context, tokenContext *auth.TokenContext, fn func(context.Context, auth.AccessToken) error) error {
	token, err := m.accessTokenProvider.GetToken(ctx, tokenContext)
	if err != nil {
		return fmt.Errorf("failed to get access token: %w", err)
	}

	err = fn(ctx, token)
	if err == nil || !m.retryOnUnauthorized || !client.IsAccessTokenExpired(err) {
		return err
	}

	m.logger.Info("Access token expired, retrying with a reloaded token", "operation", tokenContext.Operation)
	tokenRefreshTotal.WithLabelValues("unauthorized").Inc()

	reload := *tokenContext
	reload.ForceReload = true
	token, err = m.accessTokenProvider.GetToken(ctx, &reload)
	if err != nil {
		return fmt.Errorf("failed to reload access token: %w", err)
	}

	return fn(ctx, token)
}

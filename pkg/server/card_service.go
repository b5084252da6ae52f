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
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"github.com/go-logr/logr"

	"github.com/sage-x-project/virgil-cards-go/pkg/cardcrypto"
	"github.com/sage-x-project/virgil-cards-go/pkg/client"
	"github.com/sage-x-project/virgil-cards-go/pkg/protocol"
	"github.com/sage-x-project/virgil-cards-go/pkg/signer"
	"github.com/sage-x-project/virgil-cards-go/pkg/transport"
	"github.com/sage-x-project/virgil-cards-go/pkg/verifier"
)

const (
	// MaxSearchIdentities limits the identities of one search request
	MaxSearchIdentities = 50

	maxBodySize = 1 << 20
)

// Option configures a CardService
type Option func(*CardService)

// WithLogger sets the logger of the service
func WithLogger(logger logr.Logger) Option {
	return func(s *CardService) {
		s.logger = logger
	}
}

// CardService is an in-memory Cards v5 service.
// Published cards are countersigned with the service key.
type CardService struct {
	crypto       cardcrypto.Crypto
	serviceKey   cardcrypto.PrivateKey
	modelSigner  *signer.ModelSigner
	selfVerifier *verifier.VirgilCardVerifier
	auth         *AuthMiddleware
	logger       logr.Logger

	mu         sync.RWMutex
	cards      map[string]*protocol.RawSignedModel
	byIdentity map[string][]string
	superseded map[string]bool
}

// NewCardService creates a service that signs with serviceKey and accepts
// access tokens approved by tokenVerifier
func NewCardService(crypto cardcrypto.Crypto, serviceKey cardcrypto.PrivateKey, tokenVerifier TokenVerifier, opts ...Option) *CardService {
	s := &CardService{
		crypto:       crypto,
		serviceKey:   serviceKey,
		modelSigner:  signer.NewModelSigner(crypto),
		selfVerifier: verifier.NewVirgilCardVerifier(crypto, verifier.WithoutVirgilSignature()),
		auth:         NewAuthMiddleware(tokenVerifier),
		logger:       logr.Discard(),
		cards:        make(map[string]*protocol.RawSignedModel),
		byIdentity:   make(map[string][]string),
		superseded:   make(map[string]bool),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Auth returns the middleware guarding the service, for clock or error
// handler configuration
func (s *CardService) Auth() *AuthMiddleware {
	return s.auth
}

// Handler returns the HTTP handler serving the Cards v5 endpoints
func (s *CardService) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+client.PublishPath, s.handlePublish)
	mux.HandleFunc("POST "+client.SearchPath, s.handleSearch)
	mux.HandleFunc("GET "+client.PublishPath+"/{id}", s.handleGet)
	return s.auth.Wrap(mux)
}

// Len returns the number of stored cards
func (s *CardService) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cards)
}

func (s *CardService) handlePublish(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get(transport.RequestIDHeader)

	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeError(w, newAPIError(http.StatusBadRequest, CodeMalformedBody, "failed to read body"))
		return
	}

	model, err := protocol.RawSignedModelFromJSON(data)
	if err != nil {
		writeError(w, newAPIError(http.StatusBadRequest, CodeMalformedBody, "body is not a raw signed card"))
		return
	}

	card, err := protocol.ParseRawSignedModel(s.crypto, model)
	if err != nil {
		writeError(w, newAPIError(http.StatusBadRequest, CodeInvalidCardContent, "card content is invalid"))
		return
	}

	token, _ := GetAccessTokenFromContext(r.Context())
	identity, _ := token.Identity()
	if card.Identity != identity {
		writeError(w, newAPIError(http.StatusBadRequest, CodeIdentityMismatch,
			"card identity %q does not match the access token", card.Identity))
		return
	}

	if !s.selfVerifier.VerifyCard(card) {
		writeError(w, newAPIError(http.StatusBadRequest, CodeInvalidSelfSignature, "self signature is missing or invalid"))
		return
	}

	if model.HasSigner(protocol.VirgilSigner) {
		writeError(w, newAPIError(http.StatusBadRequest, CodeServiceSignaturePresent, "card already carries a service signature"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.cards[card.ID]; exists {
		writeError(w, newAPIError(http.StatusConflict, CodeCardExists, "card %s already exists", card.ID))
		return
	}

	if card.PreviousCardID != "" {
		previous, ok := s.cards[card.PreviousCardID]
		if !ok || !s.belongsTo(previous, card.Identity) {
			writeError(w, newAPIError(http.StatusBadRequest, CodePreviousCardNotFound,
				"previous card %s not found", card.PreviousCardID))
			return
		}
		if s.superseded[card.PreviousCardID] {
			writeError(w, newAPIError(http.StatusBadRequest, CodePreviousCardSuperseded,
				"previous card %s is already superseded", card.PreviousCardID))
			return
		}
	}

	err = s.modelSigner.Sign(signer.SignParams{
		Model:            model,
		SignerPrivateKey: s.serviceKey,
		Signer:           protocol.VirgilSigner,
	})
	if err != nil {
		s.logger.Error(err, "Failed to countersign card", "cardID", card.ID, "requestID", requestID)
		writeError(w, newAPIError(http.StatusInternalServerError, 0, "failed to sign card"))
		return
	}

	s.cards[card.ID] = model
	s.byIdentity[card.Identity] = append(s.byIdentity[card.Identity], card.ID)
	if card.PreviousCardID != "" {
		s.superseded[card.PreviousCardID] = true
	}

	s.logger.V(1).Info("Card published", "cardID", card.ID, "identity", card.Identity, "requestID", requestID)
	writeJSON(w, http.StatusOK, model)
}

func (s *CardService) handleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	s.mu.RLock()
	model, ok := s.cards[id]
	superseded := s.superseded[id]
	s.mu.RUnlock()

	if !ok {
		writeError(w, newAPIError(http.StatusNotFound, CodeCardNotFound, "card %s not found", id))
		return
	}

	if superseded {
		w.Header().Set(client.SupersededHeader, "true")
	}
	writeJSON(w, http.StatusOK, model)
}

type searchRequest struct {
	Identities []string `json:"identities"`
}

func (s *CardService) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req); err != nil {
		writeError(w, newAPIError(http.StatusBadRequest, CodeMalformedBody, "body is not a search request"))
		return
	}

	if len(req.Identities) == 0 || len(req.Identities) > MaxSearchIdentities {
		writeError(w, newAPIError(http.StatusBadRequest, CodeInvalidSearchRequest,
			"between 1 and %d identities are required", MaxSearchIdentities))
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool, len(req.Identities))
	result := make([]*protocol.RawSignedModel, 0)
	for _, identity := range req.Identities {
		if seen[identity] {
			continue
		}
		seen[identity] = true
		for _, id := range s.byIdentity[identity] {
			result = append(result, s.cards[id])
		}
	}

	writeJSON(w, http.StatusOK, result)
}

// belongsTo must be called with s.mu held
func (s *CardService) belongsTo(model *protocol.RawSignedModel, identity string) bool {
	content, err := protocol.ParseRawCardContent(model.ContentSnapshot)
	return err == nil && content.Identity == identity
}

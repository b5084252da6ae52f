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

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/sage-x-project/virgil-cards-go/pkg/protocol"
	"github.com/sage-x-project/virgil-cards-go/pkg/transport"
)

const (
	// DefaultAPIURL is the production Cards service
	DefaultAPIURL = "https://api.virgilsecurity.com"

	// PublishPath is where new cards are posted
	PublishPath = "/card/v5"

	// SearchPath is the identity search action
	SearchPath = "/card/v5/actions/search"

	// SupersededHeader is set to "true" on a fetched card that has been replaced
	SupersededHeader = "X-Virgil-Is-Superseeded"
)

// Client is the Cards v5 API consumed by the Card Manager
type Client interface {
	// PublishCard posts model and returns the model as stored by the service
	PublishCard(ctx context.Context, model *protocol.RawSignedModel, accessToken string) (*protocol.RawSignedModel, error)

	// GetCard fetches a card by id. superseded reports whether a newer card replaced it.
	GetCard(ctx context.Context, cardID, accessToken string) (model *protocol.RawSignedModel, superseded bool, err error)

	// SearchCards returns all cards published for the given identities
	SearchCards(ctx context.Context, identities []string, accessToken string) ([]*protocol.RawSignedModel, error)
}

// CardClient talks to a Cards v5 service over a transport.Connection
type CardClient struct {
	conn transport.Connection
}

// NewCardClient creates a client over conn
func NewCardClient(conn transport.Connection) *CardClient {
	return &CardClient{conn: conn}
}

// NewCardClientWithURL creates a client with a new HTTP connection to apiURL.
// An empty apiURL selects DefaultAPIURL.
func NewCardClientWithURL(apiURL string, opts ...transport.Option) *CardClient {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return NewCardClient(transport.NewHTTPConnection(apiURL, opts...))
}

// PublishCard posts model to /card/v5
func (c *CardClient) PublishCard(ctx context.Context, model *protocol.RawSignedModel, accessToken string) (*protocol.RawSignedModel, error) {
	if model == nil {
		return nil, ErrNilModel
	}

	resp, err := c.conn.Post(ctx, PublishPath, accessToken, model)
	if err != nil {
		return nil, fmt.Errorf("failed to publish card: %w", err)
	}
	if !resp.OK() {
		return nil, newHTTPError(resp)
	}

	published, err := protocol.RawSignedModelFromJSON(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse published card: %w", err)
	}
	return published, nil
}

// GetCard fetches /card/v5/{cardID}
func (c *CardClient) GetCard(ctx context.Context, cardID, accessToken string) (*protocol.RawSignedModel, bool, error) {
	if cardID == "" {
		return nil, false, ErrEmptyCardID
	}

	resp, err := c.conn.Get(ctx, PublishPath+"/"+url.PathEscape(cardID), accessToken)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get card: %w", err)
	}
	if !resp.OK() {
		return nil, false, newHTTPError(resp)
	}

	model, err := protocol.RawSignedModelFromJSON(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("failed to parse card: %w", err)
	}

	superseded := resp.Header.Get(SupersededHeader) == "true"
	return model, superseded, nil
}

type searchRequest struct {
	Identities []string `json:"identities"`
}

// SearchCards posts the identities to /card/v5/actions/search. A null
// result is returned as an empty slice.
func (c *CardClient) SearchCards(ctx context.Context, identities []string, accessToken string) ([]*protocol.RawSignedModel, error) {
	if len(identities) == 0 {
		return nil, ErrNoIdentities
	}

	resp, err := c.conn.Post(ctx, SearchPath, accessToken, &searchRequest{Identities: identities})
	if err != nil {
		return nil, fmt.Errorf("failed to search cards: %w", err)
	}
	if !resp.OK() {
		return nil, newHTTPError(resp)
	}

	var raw []json.RawMessage
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return []*protocol.RawSignedModel{}, nil
	}
	if err := resp.JSON(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse search result: %w", err)
	}

	models := make([]*protocol.RawSignedModel, 0, len(raw))
	for i, item := range raw {
		model, err := protocol.RawSignedModelFromJSON(item)
		if err != nil {
			return nil, fmt.Errorf("failed to parse search result %d: %w", i, err)
		}
		models = append(models, model)
	}
	return models, nil
}

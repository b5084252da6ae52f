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

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sage-x-project/virgil-cards-go/internal/config"
	"github.com/sage-x-project/virgil-cards-go/pkg/auth"
	"github.com/sage-x-project/virgil-cards-go/pkg/cardcrypto"
	"github.com/sage-x-project/virgil-cards-go/pkg/cards"
	"github.com/sage-x-project/virgil-cards-go/pkg/storage"
	"github.com/sage-x-project/virgil-cards-go/pkg/transport"
	"github.com/sage-x-project/virgil-cards-go/pkg/verifier"
)

// openKeyStorage opens the configured key store. The returned func releases it.
func openKeyStorage(ctx context.Context) (*storage.PrivateKeyStorage, func(), error) {
	keys, err := storage.OpenPrivateKeyStorage(ctx, crypto, cfg.KeyStore)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open key store: %w", err)
	}

	release := func() {
		if err := keys.Close(); err != nil {
			logger.Error(err, "Failed to close key store")
		}
	}

	return keys, release, nil
}

// loadKeyPair loads a stored private key and derives its public half
func loadKeyPair(ctx context.Context, name string) (*cardcrypto.KeyPair, error) {
	keys, release, err := openKeyStorage(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	privateKey, _, err := keys.Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load key %q: %w", name, err)
	}

	publicKey, err := crypto.ExtractPublicKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to extract public key: %w", err)
	}

	return &cardcrypto.KeyPair{PrivateKey: privateKey, PublicKey: publicKey}, nil
}

func newJwtGenerator(ttl time.Duration) (*auth.JwtGenerator, error) {
	if err := cfg.RequireApp(); err != nil {
		return nil, fmt.Errorf("application credentials are incomplete: %w", err)
	}

	appKey, err := crypto.ImportPrivateKey(cfg.AppKey)
	if err != nil {
		return nil, fmt.Errorf("failed to import %s: %w", config.EnvAppKey, err)
	}

	params := auth.JwtGeneratorParams{
		AppID:             cfg.AppID,
		APIKey:            appKey,
		APIKeyID:          cfg.AppKeyID,
		AccessTokenSigner: cardcrypto.NewAccessTokenSigner(crypto),
		TTL:               cfg.TokenTTL,
	}
	if ttl > 0 {
		params.TTL = ttl
	}

	return auth.NewJwtGenerator(params)
}

// newJwtVerifier uses VIRGIL_APP_PUBLIC_KEY, or the public half of
// VIRGIL_APP_KEY when only the private key is configured
func newJwtVerifier() (*auth.JwtVerifier, error) {
	if cfg.AppKeyID == "" {
		return nil, fmt.Errorf("%s is required", config.EnvAppKeyID)
	}

	var (
		publicKey cardcrypto.PublicKey
		err       error
	)
	switch {
	case len(cfg.AppPublicKey) > 0:
		publicKey, err = crypto.ImportPublicKey(cfg.AppPublicKey)
		if err != nil {
			return nil, fmt.Errorf("failed to import %s: %w", config.EnvAppPublicKey, err)
		}
	case len(cfg.AppKey) > 0:
		appKey, err := crypto.ImportPrivateKey(cfg.AppKey)
		if err != nil {
			return nil, fmt.Errorf("failed to import %s: %w", config.EnvAppKey, err)
		}
		publicKey, err = crypto.ExtractPublicKey(appKey)
		if err != nil {
			return nil, fmt.Errorf("failed to extract public key: %w", err)
		}
	default:
		return nil, fmt.Errorf("%s or %s is required", config.EnvAppPublicKey, config.EnvAppKey)
	}

	return auth.NewJwtVerifier(auth.JwtVerifierParams{
		AccessTokenSigner: cardcrypto.NewAccessTokenSigner(crypto),
		APIPublicKey:      publicKey,
		APIKeyID:          cfg.AppKeyID,
	})
}

// newTokenProvider issues tokens for identity from the application key and
// caches them until shortly before expiry. Without application credentials
// every request fails, which still allows offline commands.
func newTokenProvider(identity string) auth.AccessTokenProvider {
	generator, err := newJwtGenerator(0)
	if err != nil {
		return auth.NewCallbackJwtProvider(func(ctx context.Context, tokenContext *auth.TokenContext) (string, error) {
			return "", err
		})
	}

	return auth.NewCachingJwtProvider(func(ctx context.Context, tokenContext *auth.TokenContext) (string, error) {
		id := tokenContext.Identity
		if id == "" {
			id = identity
		}
		logger.V(1).Info("Issuing access token", "identity", id, "operation", tokenContext.Operation)

		token, err := generator.GenerateToken(id, nil)
		if err != nil {
			return "", err
		}
		return token.String(), nil
	})
}

func newCardVerifier() verifier.CardVerifier {
	var opts []verifier.Option
	if cfg.ServicePublicKey != "" {
		opts = append(opts, verifier.WithServicePublicKey(cfg.ServicePublicKey))
	}
	return verifier.NewVirgilCardVerifier(crypto, opts...)
}

// newCardManager creates a manager acting as identity
func newCardManager(identity string) (*cards.CardManager, error) {
	return cards.NewCardManager(cards.CardManagerParams{
		Crypto:              crypto,
		AccessTokenProvider: newTokenProvider(identity),
		CardVerifier:        newCardVerifier(),
		RetryOnUnauthorized: cfg.RetryOnUnauthorized,
		APIURL:              cfg.APIURL,
		TransportOptions: []transport.Option{
			transport.WithRetryMax(cfg.HTTPRetries),
		},
		Logger: logger,
	})
}

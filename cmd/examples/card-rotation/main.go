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
	"encoding/base64"
	"fmt"
	"log"
	"net"
	"net/http"

	"github.com/sage-x-project/virgil-cards-go/pkg/auth"
	"github.com/sage-x-project/virgil-cards-go/pkg/cardcrypto"
	"github.com/sage-x-project/virgil-cards-go/pkg/cards"
	"github.com/sage-x-project/virgil-cards-go/pkg/server"
	"github.com/sage-x-project/virgil-cards-go/pkg/verifier"
)

func main() {
	fmt.Println("Virgil Cards Go - Card Rotation Example")
	fmt.Println("========================================")

	ctx := context.Background()
	crypto := cardcrypto.NewSageCrypto()

	// Application key issuing access tokens
	fmt.Println("\n1. Generating application and service keys...")
	appKey, err := crypto.GenerateKeyPair()
	if err != nil {
		log.Fatalf("Failed to generate application key: %v", err)
	}
	serviceKey, err := crypto.GenerateKeyPair()
	if err != nil {
		log.Fatalf("Failed to generate service key: %v", err)
	}
	servicePublicKey, err := crypto.ExportPublicKey(serviceKey.PublicKey)
	if err != nil {
		log.Fatalf("Failed to export service key: %v", err)
	}

	tokenSigner := cardcrypto.NewAccessTokenSigner(crypto)
	generator, err := auth.NewJwtGenerator(auth.JwtGeneratorParams{
		AppID:             "rotation-demo",
		APIKey:            appKey.PrivateKey,
		APIKeyID:          "demo-key",
		AccessTokenSigner: tokenSigner,
	})
	if err != nil {
		log.Fatalf("Failed to create token generator: %v", err)
	}
	tokenVerifier, err := auth.NewJwtVerifier(auth.JwtVerifierParams{
		AccessTokenSigner: tokenSigner,
		APIPublicKey:      appKey.PublicKey,
		APIKeyID:          "demo-key",
	})
	if err != nil {
		log.Fatalf("Failed to create token verifier: %v", err)
	}

	// Local Cards service
	fmt.Println("\n2. Starting a local Cards service...")
	service := server.NewCardService(crypto, serviceKey.PrivateKey, tokenVerifier)
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		log.Fatalf("Failed to listen: %v", err)
	}
	srv := &http.Server{Handler: service.Handler()}
	go func() { _ = srv.Serve(listener) }()
	defer srv.Close()
	apiURL := "http://" + listener.Addr().String()
	fmt.Printf("   Service URL: %s\n", apiURL)

	// Card manager trusting the local service key
	fmt.Println("\n3. Creating card manager...")
	manager, err := cards.NewCardManager(cards.CardManagerParams{
		Crypto:              crypto,
		AccessTokenProvider: auth.NewGeneratorJwtProvider(generator, "alice", nil),
		CardVerifier: verifier.NewVirgilCardVerifier(crypto,
			verifier.WithServicePublicKey(base64.StdEncoding.EncodeToString(servicePublicKey))),
		RetryOnUnauthorized: true,
		APIURL:              apiURL,
	})
	if err != nil {
		log.Fatalf("Failed to create card manager: %v", err)
	}

	// First card
	fmt.Println("\n4. Publishing the first card for alice...")
	firstKey, err := crypto.GenerateKeyPair()
	if err != nil {
		log.Fatalf("Failed to generate key pair: %v", err)
	}
	first, err := manager.PublishCard(ctx, cards.CardParams{
		Identity:   "alice",
		PrivateKey: firstKey.PrivateKey,
		PublicKey:  firstKey.PublicKey,
	})
	if err != nil {
		log.Fatalf("Failed to publish card: %v", err)
	}
	fmt.Printf("   Card ID: %s\n", first.ID)

	// The key was lost or compromised, replace the card
	fmt.Println("\n5. Rotating alice's key...")
	secondKey, err := crypto.GenerateKeyPair()
	if err != nil {
		log.Fatalf("Failed to generate key pair: %v", err)
	}
	second, err := manager.PublishCard(ctx, cards.CardParams{
		Identity:       "alice",
		PrivateKey:     secondKey.PrivateKey,
		PublicKey:      secondKey.PublicKey,
		PreviousCardID: first.ID,
	})
	if err != nil {
		log.Fatalf("Failed to publish replacement card: %v", err)
	}
	fmt.Printf("   Card ID: %s\n", second.ID)
	fmt.Printf("   Replaces: %s\n", second.PreviousCardID)

	// The old card is still readable but outdated
	fmt.Println("\n6. Fetching the first card again...")
	fetched, err := manager.GetCard(ctx, first.ID)
	if err != nil {
		log.Fatalf("Failed to get card: %v", err)
	}
	fmt.Printf("   Outdated: %v\n", fetched.IsOutdated)

	// Search links the chain
	fmt.Println("\n7. Searching alice's cards...")
	found, err := manager.SearchCards(ctx, "alice")
	if err != nil {
		log.Fatalf("Failed to search cards: %v", err)
	}
	for _, card := range found {
		fmt.Printf("   Current card: %s\n", card.ID)
		for previous := card.PreviousCard; previous != nil; previous = previous.PreviousCard {
			fmt.Printf("     replaces:   %s (outdated: %v)\n", previous.ID, previous.IsOutdated)
		}
	}

	// Cards travel as base64 strings between parties
	fmt.Println("\n8. Exporting the current card...")
	exported, err := manager.ExportCardAsString(second)
	if err != nil {
		log.Fatalf("Failed to export card: %v", err)
	}
	imported, err := manager.ImportCardFromString(exported)
	if err != nil {
		log.Fatalf("Failed to import card: %v", err)
	}
	fmt.Printf("   Exported %d bytes, re-imported card %s\n", len(exported), imported.ID)

	fmt.Println("\n✅ Example completed successfully!")
}

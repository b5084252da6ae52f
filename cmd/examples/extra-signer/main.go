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
	"github.com/sage-x-project/virgil-cards-go/pkg/protocol"
	"github.com/sage-x-project/virgil-cards-go/pkg/server"
	"github.com/sage-x-project/virgil-cards-go/pkg/signer"
	"github.com/sage-x-project/virgil-cards-go/pkg/verifier"
)

const notarySigner = "notary"

// This example adds a third party signature to cards before they are
// published, and only trusts cards carrying it
func main() {
	fmt.Println("=== Extra Signer Example ===")

	ctx := context.Background()
	crypto := cardcrypto.NewSageCrypto()

	// Step 1: Keys for the application, the service and the notary
	fmt.Println("Step 1: Generating keys...")
	appKey, err := crypto.GenerateKeyPair()
	if err != nil {
		log.Fatal(err)
	}
	serviceKey, err := crypto.GenerateKeyPair()
	if err != nil {
		log.Fatal(err)
	}
	notaryKey, err := crypto.GenerateKeyPair()
	if err != nil {
		log.Fatal(err)
	}
	servicePublicKey, _ := crypto.ExportPublicKey(serviceKey.PublicKey)
	notaryPublicKey, _ := crypto.ExportPublicKey(notaryKey.PublicKey)
	fmt.Printf("  ✓ Notary key %x\n\n", notaryKey.PublicKey.Identifier())

	// Step 2: Local Cards service
	fmt.Println("Step 2: Starting a local Cards service...")
	tokenSigner := cardcrypto.NewAccessTokenSigner(crypto)
	generator, err := auth.NewJwtGenerator(auth.JwtGeneratorParams{
		AppID:             "notary-demo",
		APIKey:            appKey.PrivateKey,
		APIKeyID:          "demo-key",
		AccessTokenSigner: tokenSigner,
	})
	if err != nil {
		log.Fatal(err)
	}
	tokenVerifier, err := auth.NewJwtVerifier(auth.JwtVerifierParams{
		AccessTokenSigner: tokenSigner,
		APIPublicKey:      appKey.PublicKey,
		APIKeyID:          "demo-key",
	})
	if err != nil {
		log.Fatal(err)
	}

	service := server.NewCardService(crypto, serviceKey.PrivateKey, tokenVerifier)
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		log.Fatal(err)
	}
	srv := &http.Server{Handler: service.Handler()}
	go func() { _ = srv.Serve(listener) }()
	defer srv.Close()
	fmt.Printf("  ✓ Listening on %s\n\n", listener.Addr())

	// Step 3: The sign callback adds the notary signature with its own extra fields
	fmt.Println("Step 3: Creating card manager with notary callback and whitelist...")
	modelSigner := signer.NewModelSigner(crypto)
	notarize := func(ctx context.Context, model *protocol.RawSignedModel) (*protocol.RawSignedModel, error) {
		err := modelSigner.Sign(signer.SignParams{
			Model:            model,
			SignerPrivateKey: notaryKey.PrivateKey,
			Signer:           notarySigner,
			ExtraFields:      protocol.NewExtraFields("checked_by", "notary-1"),
		})
		return model, err
	}

	trusted := verifier.NewWhitelist(verifier.VerifierCredentials{
		Signer:          notarySigner,
		PublicKeyBase64: base64.StdEncoding.EncodeToString(notaryPublicKey),
	})

	manager, err := cards.NewCardManager(cards.CardManagerParams{
		Crypto:              crypto,
		AccessTokenProvider: auth.NewGeneratorJwtProvider(generator, "bob", nil),
		CardVerifier: verifier.NewVirgilCardVerifier(crypto,
			verifier.WithServicePublicKey(base64.StdEncoding.EncodeToString(servicePublicKey)),
			verifier.WithWhitelists(trusted)),
		SignCallback: notarize,
		APIURL:       "http://" + listener.Addr().String(),
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("  ✓ Card manager ready")
	fmt.Println()

	// Step 4: Publish
	fmt.Println("Step 4: Publishing bob's card...")
	bobKey, err := crypto.GenerateKeyPair()
	if err != nil {
		log.Fatal(err)
	}
	card, err := manager.PublishCard(ctx, cards.CardParams{
		Identity:    "bob",
		PrivateKey:  bobKey.PrivateKey,
		PublicKey:   bobKey.PublicKey,
		ExtraFields: protocol.NewExtraFields("device", "phone"),
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("  ----------------------------------------")
	for _, s := range card.Signatures {
		fmt.Printf("  Signer: %-8s extra fields: %v\n", s.Signer, s.ExtraFields.Map())
	}
	fmt.Println("  ----------------------------------------")
	fmt.Println()

	// Step 5: A card without the notary signature is rejected by the whitelist
	fmt.Println("Step 5: Importing a card the notary never saw...")
	unsigned, err := manager.GenerateRawCard(cards.CardParams{
		Identity:   "bob",
		PrivateKey: bobKey.PrivateKey,
		PublicKey:  bobKey.PublicKey,
	})
	if err != nil {
		log.Fatal(err)
	}
	if _, err := manager.ImportCard(unsigned); err != nil {
		fmt.Printf("  ✓ Rejected: %v\n", err)
	} else {
		log.Fatal("card without notary signature was accepted")
	}

	fmt.Println("\n=== Example Complete ===")
}

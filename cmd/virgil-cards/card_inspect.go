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
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sage-x-project/virgil-cards-go/pkg/cards"
	"github.com/sage-x-project/virgil-cards-go/pkg/protocol"
	"github.com/sage-x-project/virgil-cards-go/pkg/verifier"
)

var cardInspectCmd = &cobra.Command{
	Use:   "inspect [raw-card]",
	Short: "Decode and verify a raw card in base64 string form",
	Example: `  # Inspect a card produced by "card generate"
  virgil-cards card generate --identity=alice --key=alice | virgil-cards card inspect - --verify=self`,
	Args: cobra.ExactArgs(1),
	RunE: cardInspectCmdRun,
}

type cardInspectFlags struct {
	verify string
}

var cardInspectArgs = cardInspectFlags{verify: verifyFull}

const (
	verifyFull = "full"
	verifySelf = "self"
	verifyNone = "none"
)

func init() {
	cardInspectCmd.Flags().StringVar(&cardInspectArgs.verify, "verify", verifyFull,
		"The signatures to check: full (self and service), self or none.")
	cardCmd.AddCommand(cardInspectCmd)
}

func cardInspectCmdRun(cmd *cobra.Command, args []string) error {
	raw := args[0]
	if raw == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		raw = string(data)
	}
	raw = strings.TrimSpace(raw)

	var (
		card *protocol.Card
		err  error
	)
	switch cardInspectArgs.verify {
	case verifyNone:
		var model *protocol.RawSignedModel
		model, err = protocol.RawSignedModelFromString(raw)
		if err == nil {
			card, err = protocol.ParseRawSignedModel(crypto, model)
		}
	case verifySelf:
		card, err = importCard(raw, verifier.NewVirgilCardVerifier(crypto, verifier.WithoutVirgilSignature()))
	case verifyFull:
		card, err = importCard(raw, newCardVerifier())
	default:
		return fmt.Errorf("invalid --verify value %q, must be one of: full, self, none", cardInspectArgs.verify)
	}
	if err != nil {
		return fmt.Errorf("failed to import card: %w", err)
	}

	return printJSON(rootCmd.OutOrStdout(), newCardView(card))
}

// importCard verifies offline, no access token is needed
func importCard(raw string, cardVerifier verifier.CardVerifier) (*protocol.Card, error) {
	manager, err := cards.NewCardManager(cards.CardManagerParams{
		Crypto:              crypto,
		AccessTokenProvider: newTokenProvider(defaultLookupIdentity),
		CardVerifier:        cardVerifier,
		Logger:              logger,
	})
	if err != nil {
		return nil, err
	}
	return manager.ImportCardFromString(raw)
}

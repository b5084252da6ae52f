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
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sage-x-project/virgil-cards-go/pkg/protocol"
)

var cardPublishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish a card to the Cards service",
	Example: `  # Generate and publish a card for a stored key
  virgil-cards card publish --identity=alice --key=alice

  # Replace an existing card
  virgil-cards card publish --identity=alice --key=alice-2 --previous=<card-id>

  # Publish a raw card produced by "card generate"
  virgil-cards card publish --identity=alice --raw=<base64>`,
	Args: cobra.NoArgs,
	RunE: cardPublishCmdRun,
}

type cardPublishFlags struct {
	cardParamsFlags
	raw string
}

var cardPublishArgs cardPublishFlags

func init() {
	bindCardParamsFlags(cardPublishCmd, &cardPublishArgs.cardParamsFlags)
	cardPublishCmd.Flags().StringVar(&cardPublishArgs.raw, "raw", "",
		"A raw card in base64 string form to publish as is.")
	cardCmd.AddCommand(cardPublishCmd)
}

func cardPublishCmdRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), rootArgs.timeout)
	defer cancel()

	if cardPublishArgs.raw != "" {
		return publishRawCard(ctx, cardPublishArgs.raw)
	}

	params, err := cardPublishArgs.cardParams(ctx)
	if err != nil {
		return err
	}

	manager, err := newCardManager(params.Identity)
	if err != nil {
		return fmt.Errorf("failed to create card manager: %w", err)
	}

	card, err := manager.PublishCard(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to publish card: %w", err)
	}

	logger.Info("Card published", "cardID", card.ID, "identity", card.Identity)
	return printJSON(rootCmd.OutOrStdout(), newCardView(card))
}

func publishRawCard(ctx context.Context, raw string) error {
	model, err := protocol.RawSignedModelFromString(raw)
	if err != nil {
		return fmt.Errorf("failed to import raw card: %w", err)
	}

	content, err := protocol.ParseRawCardContent(model.ContentSnapshot)
	if err != nil {
		return fmt.Errorf("failed to read raw card: %w", err)
	}
	if cardPublishArgs.identity != "" && cardPublishArgs.identity != content.Identity {
		return errors.New("--identity does not match the raw card identity")
	}

	manager, err := newCardManager(content.Identity)
	if err != nil {
		return fmt.Errorf("failed to create card manager: %w", err)
	}

	card, err := manager.PublishRawCard(ctx, model)
	if err != nil {
		return fmt.Errorf("failed to publish card: %w", err)
	}

	logger.Info("Card published", "cardID", card.ID, "identity", card.Identity)
	return printJSON(rootCmd.OutOrStdout(), newCardView(card))
}

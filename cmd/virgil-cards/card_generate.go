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

	"github.com/sage-x-project/virgil-cards-go/pkg/cards"
)

var cardGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a self-signed raw card without publishing it",
	Long: `The generate command builds a raw card for a stored key and prints it in
its base64 string form. The result can be signed by other parties and
published later with "card publish --raw".`,
	Example: `  virgil-cards card generate --identity=alice --key=alice --extra=device=laptop`,
	Args:    cobra.NoArgs,
	RunE:    cardGenerateCmdRun,
}

// cardParamsFlags are shared by generate and publish
type cardParamsFlags struct {
	identity string
	key      string
	previous string
	extra    []string
}

var cardGenerateArgs cardParamsFlags

func init() {
	bindCardParamsFlags(cardGenerateCmd, &cardGenerateArgs)
	cardCmd.AddCommand(cardGenerateCmd)
}

func bindCardParamsFlags(cmd *cobra.Command, flags *cardParamsFlags) {
	cmd.Flags().StringVar(&flags.identity, "identity", "",
		"The identity the card is issued for.")
	cmd.Flags().StringVar(&flags.key, "key", "",
		"The name of the private key in the key store.")
	cmd.Flags().StringVar(&flags.previous, "previous", "",
		"The id of the card the new card replaces.")
	cmd.Flags().StringArrayVar(&flags.extra, "extra", nil,
		"Extra field signed with the self signature in the format key=value, can be repeated.")
}

func (f cardParamsFlags) cardParams(ctx context.Context) (cards.CardParams, error) {
	if f.identity == "" {
		return cards.CardParams{}, errors.New("--identity is required")
	}
	if f.key == "" {
		return cards.CardParams{}, errors.New("--key is required")
	}

	extra, err := parseExtraFields(f.extra)
	if err != nil {
		return cards.CardParams{}, err
	}

	keyPair, err := loadKeyPair(ctx, f.key)
	if err != nil {
		return cards.CardParams{}, err
	}

	return cards.CardParams{
		Identity:       f.identity,
		PrivateKey:     keyPair.PrivateKey,
		PublicKey:      keyPair.PublicKey,
		PreviousCardID: f.previous,
		ExtraFields:    extra,
	}, nil
}

func cardGenerateCmdRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), rootArgs.timeout)
	defer cancel()

	params, err := cardGenerateArgs.cardParams(ctx)
	if err != nil {
		return err
	}

	manager, err := newCardManager(params.Identity)
	if err != nil {
		return fmt.Errorf("failed to create card manager: %w", err)
	}

	model, err := manager.GenerateRawCard(params)
	if err != nil {
		return fmt.Errorf("failed to generate card: %w", err)
	}

	str, err := model.ExportAsString()
	if err != nil {
		return fmt.Errorf("failed to export card: %w", err)
	}

	_, err = fmt.Fprintln(rootCmd.OutOrStdout(), str)
	return err
}

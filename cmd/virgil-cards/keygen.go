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
	"encoding/hex"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen [name]",
	Short: "Generate a key pair and keep the private key in the key store",
	Example: `  # Generate a key for card signing
  virgil-cards keygen alice

  # Generate an application key and print it for VIRGIL_APP_KEY
  virgil-cards keygen app --key-store=memory --export`,
	Args: cobra.ExactArgs(1),
	RunE: keygenCmdRun,
}

type keygenFlags struct {
	export bool
}

var keygenArgs keygenFlags

func init() {
	keygenCmd.Flags().BoolVar(&keygenArgs.export, "export", false,
		"Also print the exported private key in base64.")
	rootCmd.AddCommand(keygenCmd)
}

type keygenResult struct {
	Name       string `json:"name"`
	KeyID      string `json:"key_id"`
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"private_key,omitempty"`
}

func keygenCmdRun(cmd *cobra.Command, args []string) error {
	name := args[0]

	ctx, cancel := context.WithTimeout(context.Background(), rootArgs.timeout)
	defer cancel()

	keys, release, err := openKeyStorage(ctx)
	if err != nil {
		return err
	}
	defer release()

	keyPair, err := crypto.GenerateKeyPair()
	if err != nil {
		return fmt.Errorf("failed to generate key pair: %w", err)
	}

	publicKey, err := crypto.ExportPublicKey(keyPair.PublicKey)
	if err != nil {
		return fmt.Errorf("failed to export public key: %w", err)
	}

	result := keygenResult{
		Name:      name,
		KeyID:     hex.EncodeToString(keyPair.PublicKey.Identifier()),
		PublicKey: base64.StdEncoding.EncodeToString(publicKey),
	}

	meta := map[string]string{
		"public_key": result.PublicKey,
		"created_at": time.Now().UTC().Format(time.RFC3339),
	}
	if err := keys.Store(ctx, name, keyPair.PrivateKey, meta); err != nil {
		return fmt.Errorf("failed to store key %q: %w", name, err)
	}

	if keygenArgs.export {
		privateKey, err := crypto.ExportPrivateKey(keyPair.PrivateKey)
		if err != nil {
			return fmt.Errorf("failed to export private key: %w", err)
		}
		result.PrivateKey = base64.StdEncoding.EncodeToString(privateKey)
	}

	logger.Info("Key stored", "name", name, "store", cfg.KeyStore)
	return printJSON(rootCmd.OutOrStdout(), result)
}

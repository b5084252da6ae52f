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
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sage-x-project/virgil-cards-go/pkg/auth"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue and verify access tokens",
}

var tokenGenerateCmd = &cobra.Command{
	Use:     "generate",
	Short:   "Issue an access token signed with the application key",
	Example: `  virgil-cards token generate --identity=alice --ttl=5m`,
	Args:    cobra.NoArgs,
	RunE:    tokenGenerateCmdRun,
}

var tokenVerifyCmd = &cobra.Command{
	Use:   "verify [token]",
	Short: "Verify an access token and print its claims",
	Args:  cobra.ExactArgs(1),
	RunE:  tokenVerifyCmdRun,
}

type tokenGenerateFlags struct {
	identity string
	ttl      time.Duration
}

var tokenGenerateArgs tokenGenerateFlags

func init() {
	tokenGenerateCmd.Flags().StringVar(&tokenGenerateArgs.identity, "identity", "",
		"The identity the token is issued for.")
	tokenGenerateCmd.Flags().DurationVar(&tokenGenerateArgs.ttl, "ttl", 0,
		"The token lifetime, defaults to VIRGIL_TOKEN_TTL_SECONDS or 20m.")

	tokenCmd.AddCommand(tokenGenerateCmd)
	tokenCmd.AddCommand(tokenVerifyCmd)
	rootCmd.AddCommand(tokenCmd)
}

func tokenGenerateCmdRun(cmd *cobra.Command, args []string) error {
	if tokenGenerateArgs.identity == "" {
		return errors.New("--identity is required")
	}
	if tokenGenerateArgs.ttl < 0 {
		return errors.New("--ttl must be positive")
	}

	generator, err := newJwtGenerator(tokenGenerateArgs.ttl)
	if err != nil {
		return err
	}

	token, err := generator.GenerateToken(tokenGenerateArgs.identity, nil)
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	_, err = fmt.Fprintln(rootCmd.OutOrStdout(), token.String())
	return err
}

type tokenClaims struct {
	AppID     string         `json:"app_id"`
	Identity  string         `json:"identity"`
	KeyID     string         `json:"key_id"`
	IssuedAt  time.Time      `json:"issued_at"`
	ExpiresAt time.Time      `json:"expires_at"`
	Expired   bool           `json:"expired"`
	Data      map[string]any `json:"ada,omitempty"`
}

func tokenVerifyCmdRun(cmd *cobra.Command, args []string) error {
	raw := args[0]
	if raw == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		raw = string(data)
	}

	token, err := auth.ParseJwt(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("failed to parse token: %w", err)
	}

	jwtVerifier, err := newJwtVerifier()
	if err != nil {
		return err
	}

	if err := jwtVerifier.VerifyToken(token); err != nil {
		return fmt.Errorf("token verification failed: %w", err)
	}

	appID, _ := token.AppID()
	identity, _ := token.Identity()
	body := token.Body()
	claims := tokenClaims{
		AppID:     appID,
		Identity:  identity,
		KeyID:     token.Header().APIKeyID,
		IssuedAt:  time.Unix(body.IssuedAt, 0).UTC(),
		ExpiresAt: token.ExpiresAt().UTC(),
		Expired:   token.IsExpired(time.Now()),
		Data:      body.AdditionalData,
	}

	return printJSON(rootCmd.OutOrStdout(), claims)
}

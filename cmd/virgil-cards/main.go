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
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/spf13/cobra"

	"github.com/sage-x-project/virgil-cards-go/internal/config"
	"github.com/sage-x-project/virgil-cards-go/pkg/cardcrypto"
	"github.com/sage-x-project/virgil-cards-go/pkg/version"
)

var rootCmd = &cobra.Command{
	Use:               "virgil-cards",
	Version:           version.Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
	Short:             "Manage Virgil Cards and access tokens",
	Long: `virgil-cards generates, publishes and looks up Virgil Cards.

Application credentials are read from the environment (or .env files):
VIRGIL_APP_ID, VIRGIL_APP_KEY, VIRGIL_APP_KEY_ID and VIRGIL_APP_PUBLIC_KEY.`,
	PersistentPreRunE: rootCmdPreRun,
}

type rootFlags struct {
	timeout  time.Duration
	verbose  int
	apiURL   string
	keyStore string
}

const timeout = time.Minute

var (
	rootArgs = rootFlags{
		timeout: timeout,
	}

	// cfg and logger are set up before any subcommand runs
	cfg    config.Config
	logger = logr.Discard()
	crypto = cardcrypto.NewSageCrypto()
)

func init() {
	rootCmd.PersistentFlags().DurationVar(&rootArgs.timeout, "timeout", rootArgs.timeout,
		"The length of time to wait before giving up on the current operation.")
	rootCmd.PersistentFlags().CountVarP(&rootArgs.verbose, "verbose", "v",
		"Log to stderr, repeat for more detail.")
	rootCmd.PersistentFlags().StringVar(&rootArgs.apiURL, "api-url", "",
		"The Cards service base URL, overrides VIRGIL_API_URL.")
	rootCmd.PersistentFlags().StringVar(&rootArgs.keyStore, "key-store", "",
		"Where private keys are kept (memory, file:<dir>, redis://..., postgres://...), overrides VIRGIL_KEY_STORE.")
	rootCmd.SetOut(os.Stdout)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrf("✗ %v\n", err)
		os.Exit(1)
	}
}

func rootCmdPreRun(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if rootArgs.apiURL != "" {
		loaded.APIURL = rootArgs.apiURL
	}
	if rootArgs.keyStore != "" {
		loaded.KeyStore = rootArgs.keyStore
	}
	cfg = loaded

	logger = logr.Discard()
	if rootArgs.verbose > 0 {
		errOut := cmd.ErrOrStderr()
		logger = funcr.New(func(prefix, args string) {
			if prefix != "" {
				fmt.Fprintln(errOut, prefix, args)
				return
			}
			fmt.Fprintln(errOut, args)
		}, funcr.Options{Verbosity: rootArgs.verbose - 1})
	}

	return nil
}

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
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/sage-x-project/virgil-cards-go/internal/config"
	"github.com/sage-x-project/virgil-cards-go/pkg/cardcrypto"
	"github.com/sage-x-project/virgil-cards-go/pkg/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run an in-memory Cards service for development",
	Long: `The serve command runs a local Cards v5 service keeping cards in memory.
Access tokens are checked against the application key configuration and
published cards are countersigned with the service key. Point clients at it
with VIRGIL_API_URL and VIRGIL_SERVICE_PUBLIC_KEY.`,
	Example: `  virgil-cards serve --addr=127.0.0.1:8080 --service-key=service`,
	Args:    cobra.NoArgs,
	RunE:    serveCmdRun,
}

type serveFlags struct {
	addr       string
	serviceKey string
}

var serveArgs = serveFlags{addr: ":8080"}

func init() {
	serveCmd.Flags().StringVar(&serveArgs.addr, "addr", serveArgs.addr,
		"The address to listen on.")
	serveCmd.Flags().StringVar(&serveArgs.serviceKey, "service-key", "",
		"The name of the service private key in the key store, a fresh key is used when empty.")
	rootCmd.AddCommand(serveCmd)
}

func serveCmdRun(cmd *cobra.Command, args []string) error {
	tokenVerifier, err := newJwtVerifier()
	if err != nil {
		return err
	}

	serviceKey, err := loadServiceKey()
	if err != nil {
		return err
	}

	exported, err := crypto.ExportPublicKey(serviceKey.PublicKey)
	if err != nil {
		return fmt.Errorf("failed to export service public key: %w", err)
	}
	if _, err := fmt.Fprintf(rootCmd.OutOrStdout(), "%s=%s\n",
		config.EnvServicePublicKey, base64.StdEncoding.EncodeToString(exported)); err != nil {
		return err
	}

	service := server.NewCardService(crypto, serviceKey.PrivateKey, tokenVerifier, server.WithLogger(logger))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", service.Handler())

	srv := &http.Server{
		Addr:              serveArgs.addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Cards service starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("Cards service stopped", "cards", service.Len())
	return nil
}

func loadServiceKey() (*cardcrypto.KeyPair, error) {
	if serveArgs.serviceKey == "" {
		keyPair, err := crypto.GenerateKeyPair()
		if err != nil {
			return nil, fmt.Errorf("failed to generate service key: %w", err)
		}
		return keyPair, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), rootArgs.timeout)
	defer cancel()
	return loadKeyPair(ctx, serveArgs.serviceKey)
}

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
	"bytes"
	"encoding/base64"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/virgil-cards-go/internal/config"
	"github.com/sage-x-project/virgil-cards-go/pkg/auth"
	"github.com/sage-x-project/virgil-cards-go/pkg/cardcrypto"
	"github.com/sage-x-project/virgil-cards-go/pkg/server"
)

// executeCommand runs the root command with args and returns the output
func executeCommand(args []string) (string, error) {
	defer resetCmdArgs()

	buf := new(bytes.Buffer)

	cmd := rootCmd
	cmd.SetArgs(args)
	cmd.SetOut(buf)
	cmd.SetErr(buf)

	err := cmd.Execute()

	return buf.String(), err
}

// resetCmdArgs resets all command-specific flags to their default values
func resetCmdArgs() {
	rootArgs = rootFlags{timeout: timeout}

	keygenArgs = keygenFlags{}
	cardGenerateArgs = cardParamsFlags{}
	cardPublishArgs = cardPublishFlags{}
	cardGetArgs = cardLookupFlags{as: defaultLookupIdentity}
	cardSearchArgs = cardLookupFlags{as: defaultLookupIdentity}
	cardInspectArgs = cardInspectFlags{verify: verifyFull}
	tokenGenerateArgs = tokenGenerateFlags{}
	versionArgs = versionFlags{}
	serveArgs = serveFlags{addr: ":8080"}
}

type testEnv struct {
	appKey     *cardcrypto.KeyPair
	serviceKey *cardcrypto.KeyPair
	service    *server.CardService
	apiURL     string
}

// setupTestEnv configures application credentials, a file key store and a
// local Cards service through the environment
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	c := cardcrypto.NewSageCrypto()

	appKey, err := c.GenerateKeyPair()
	require.NoError(t, err)
	exportedAppKey, err := c.ExportPrivateKey(appKey.PrivateKey)
	require.NoError(t, err)

	serviceKey, err := c.GenerateKeyPair()
	require.NoError(t, err)
	exportedServiceKey, err := c.ExportPublicKey(serviceKey.PublicKey)
	require.NoError(t, err)

	signer := cardcrypto.NewAccessTokenSigner(c)
	tokenVerifier, err := auth.NewJwtVerifier(auth.JwtVerifierParams{
		AccessTokenSigner: signer,
		APIPublicKey:      appKey.PublicKey,
		APIKeyID:          "key-1",
	})
	require.NoError(t, err)

	service := server.NewCardService(c, serviceKey.PrivateKey, tokenVerifier)
	srv := httptest.NewServer(service.Handler())
	t.Cleanup(srv.Close)

	t.Setenv(config.EnvAppID, "app-1")
	t.Setenv(config.EnvAppKey, base64.StdEncoding.EncodeToString(exportedAppKey))
	t.Setenv(config.EnvAppKeyID, "key-1")
	t.Setenv(config.EnvAppPublicKey, "")
	t.Setenv(config.EnvAPIURL, srv.URL)
	t.Setenv(config.EnvServicePublicKey, base64.StdEncoding.EncodeToString(exportedServiceKey))
	t.Setenv(config.EnvKeyStore, "file:"+t.TempDir())
	t.Setenv(config.EnvTokenTTLSeconds, "")
	t.Setenv(config.EnvRetryOnUnauthorized, "")
	t.Setenv(config.EnvHTTPRetries, "")

	return &testEnv{
		appKey:     appKey,
		serviceKey: serviceKey,
		service:    service,
		apiURL:     srv.URL,
	}
}

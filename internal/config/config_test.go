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

package config

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		EnvAppID, EnvAppKey, EnvAppKeyID, EnvAppPublicKey, EnvAPIURL, EnvServicePublicKey,
		EnvTokenTTLSeconds, EnvKeyStore, EnvRetryOnUnauthorized, EnvHTTPRetries,
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, DefaultTokenTTL, cfg.TokenTTL)
	assert.Equal(t, DefaultKeyStore, cfg.KeyStore)
	assert.True(t, cfg.RetryOnUnauthorized)
	assert.Zero(t, cfg.HTTPRetries)
	assert.Empty(t, cfg.AppKey)

	assert.Error(t, cfg.RequireApp())
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvAppID, "app-1")
	t.Setenv(EnvAppKey, base64.StdEncoding.EncodeToString([]byte("key")))
	t.Setenv(EnvAppKeyID, "kid-1")
	t.Setenv(EnvAPIURL, "http://localhost:8080")
	t.Setenv(EnvTokenTTLSeconds, "60")
	t.Setenv(EnvKeyStore, "memory")
	t.Setenv(EnvRetryOnUnauthorized, "false")
	t.Setenv(EnvHTTPRetries, "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "app-1", cfg.AppID)
	assert.Equal(t, []byte("key"), cfg.AppKey)
	assert.Equal(t, "kid-1", cfg.AppKeyID)
	assert.Equal(t, "http://localhost:8080", cfg.APIURL)
	assert.Equal(t, time.Minute, cfg.TokenTTL)
	assert.Equal(t, "memory", cfg.KeyStore)
	assert.False(t, cfg.RetryOnUnauthorized)
	assert.Equal(t, 3, cfg.HTTPRetries)
	assert.NoError(t, cfg.RequireApp())
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		EnvAppKey:              "%%%",
		EnvAppPublicKey:        "%%%",
		EnvTokenTTLSeconds:     "0",
		EnvRetryOnUnauthorized: "maybe",
		EnvHTTPRetries:         "-1",
	}

	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestRequireApp(t *testing.T) {
	err := Config{AppID: "app"}.RequireApp()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvAppKey)
	assert.Contains(t, err.Error(), EnvAppKeyID)
	assert.NotContains(t, err.Error(), EnvAppID+" ")
}

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

// Package config loads the environment driven settings of the virgil-cards CLI.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read by Load
const (
	EnvAppID               = "VIRGIL_APP_ID"
	EnvAppKey              = "VIRGIL_APP_KEY"
	EnvAppKeyID            = "VIRGIL_APP_KEY_ID"
	EnvAppPublicKey        = "VIRGIL_APP_PUBLIC_KEY"
	EnvAPIURL              = "VIRGIL_API_URL"
	EnvServicePublicKey    = "VIRGIL_SERVICE_PUBLIC_KEY"
	EnvTokenTTLSeconds     = "VIRGIL_TOKEN_TTL_SECONDS"
	EnvKeyStore            = "VIRGIL_KEY_STORE"
	EnvRetryOnUnauthorized = "VIRGIL_RETRY_ON_UNAUTHORIZED"
	EnvHTTPRetries         = "VIRGIL_HTTP_RETRIES"
)

// Default configuration values used when environment variables are not set
const (
	DefaultAPIURL   = "https://api.virgilsecurity.com"
	DefaultTokenTTL = 20 * time.Minute
	DefaultKeyStore = "file:.virgil/keys"
)

// Config captures the settings shared by the CLI commands
type Config struct {
	AppID    string // Application id, the "virgil-" prefixed issuer of tokens
	AppKey   []byte // Exported application private key (PKCS#8 DER)
	AppKeyID string // Id of AppKey, the "kid" of tokens

	// AppPublicKey is the exported application public key used to verify tokens
	AppPublicKey []byte

	APIURL string

	// ServicePublicKey overrides the built-in Cards service key (base64), for local services
	ServicePublicKey string

	TokenTTL            time.Duration
	KeyStore            string // memory, file:<dir>, redis://..., postgres://...
	RetryOnUnauthorized bool
	HTTPRetries         int
}

var dotEnvOnce sync.Once

// loadDotEnv loads .env and .env.local when present.
// godotenv.Load does not override variables already set in the process.
func loadDotEnv() {
	dotEnvOnce.Do(func() {
		for _, file := range []string{".env.local", ".env"} {
			if _, err := os.Stat(file); err != nil {
				continue
			}
			if err := godotenv.Load(file); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s file: %v\n", file, err)
			}
		}
	})
}

// Load reads the environment, after .env files, and returns the Config.
// Application credentials are optional here; commands that need them call
// RequireApp.
func Load() (Config, error) {
	loadDotEnv()

	cfg := Config{
		AppID:               os.Getenv(EnvAppID),
		AppKeyID:            os.Getenv(EnvAppKeyID),
		APIURL:              getEnv(EnvAPIURL, DefaultAPIURL),
		ServicePublicKey:    os.Getenv(EnvServicePublicKey),
		KeyStore:            getEnv(EnvKeyStore, DefaultKeyStore),
		TokenTTL:            DefaultTokenTTL,
		RetryOnUnauthorized: true,
	}

	if raw, exists := os.LookupEnv(EnvAppKey); exists && raw != "" {
		key, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s base64: %w", EnvAppKey, err)
		}
		cfg.AppKey = key
	}

	if raw, exists := os.LookupEnv(EnvAppPublicKey); exists && raw != "" {
		key, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s base64: %w", EnvAppPublicKey, err)
		}
		cfg.AppPublicKey = key
	}

	if ttl, exists := os.LookupEnv(EnvTokenTTLSeconds); exists && ttl != "" {
		d, err := parseSeconds(ttl)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", EnvTokenTTLSeconds, err)
		}
		cfg.TokenTTL = d
	}

	if retry, exists := os.LookupEnv(EnvRetryOnUnauthorized); exists && retry != "" {
		b, err := strconv.ParseBool(retry)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", EnvRetryOnUnauthorized, err)
		}
		cfg.RetryOnUnauthorized = b
	}

	if retries, exists := os.LookupEnv(EnvHTTPRetries); exists && retries != "" {
		n, err := strconv.Atoi(retries)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("invalid %s: must be a non-negative integer", EnvHTTPRetries)
		}
		cfg.HTTPRetries = n
	}

	return cfg, nil
}

// RequireApp reports which application credentials are missing
func (c Config) RequireApp() error {
	var missing []error
	if c.AppID == "" {
		missing = append(missing, fmt.Errorf("%s is required", EnvAppID))
	}
	if len(c.AppKey) == 0 {
		missing = append(missing, fmt.Errorf("%s is required", EnvAppKey))
	}
	if c.AppKeyID == "" {
		missing = append(missing, fmt.Errorf("%s is required", EnvAppKeyID))
	}
	return errors.Join(missing...)
}

// getEnv retrieves an environment variable value, returning a fallback if not set or empty
func getEnv(key, fallback string) string {
	if v, exists := os.LookupEnv(key); exists && v != "" {
		return v
	}
	return fallback
}

// parseSeconds converts a string representation of seconds to a time.Duration
func parseSeconds(raw string) (time.Duration, error) {
	seconds, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if seconds <= 0 {
		return 0, errors.New("value must be > 0")
	}
	return time.Duration(seconds) * time.Second, nil
}

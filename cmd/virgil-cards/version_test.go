package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/virgil-cards-go/pkg/version"
)

func TestVersionCmd(t *testing.T) {
	setupTestEnv(t)

	t.Run("plain text", func(t *testing.T) {
		output, err := executeCommand([]string{"version"})
		require.NoError(t, err)
		assert.Contains(t, output, "version: "+version.Version)
		assert.Contains(t, output, "card: "+version.CardVersion)
	})

	t.Run("json", func(t *testing.T) {
		output, err := executeCommand([]string{"version", "-o", "json"})
		require.NoError(t, err)

		var info version.Info
		require.NoError(t, json.Unmarshal([]byte(output), &info))
		assert.Equal(t, version.Get(), info)
	})

	t.Run("invalid output", func(t *testing.T) {
		_, err := executeCommand([]string{"version", "-o", "yaml"})
		assert.Error(t, err)
	})
}

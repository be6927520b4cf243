package config

import (
	"os"
	"path/filepath"
	"testing"

	"wallet-indexer-sol/internal/consts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "watchlist.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadWatchlist(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		path := writeTempFile(t, `
wallets:
  - `+consts.WSOLMintStr+`
  - `+consts.TokenProgramStr+`
`)
		watch, err := LoadWatchlist(path)
		require.NoError(t, err)
		assert.Len(t, watch, 2)
		_, ok := watch[consts.WSOLMint]
		assert.True(t, ok)
	})

	t.Run("invalid address rejected", func(t *testing.T) {
		path := writeTempFile(t, `
wallets:
  - not-a-base58-pubkey!!!
`)
		_, err := LoadWatchlist(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid wallet")
	})

	t.Run("empty list rejected", func(t *testing.T) {
		path := writeTempFile(t, `wallets: []`)
		_, err := LoadWatchlist(path)
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadWatchlist(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})
}

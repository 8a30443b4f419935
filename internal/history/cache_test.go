package history

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-copytrade-analyzer/internal/helius"
)

func TestFileCache_MissOnEmptyDir(t *testing.T) {
	cache, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	txs, hit, err := cache.Load("walletA")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, txs)
}

func TestFileCache_RoundTrip(t *testing.T) {
	cache, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	want := []helius.EnhancedTransaction{
		{Signature: "sig1", Timestamp: 100, Slot: 10, Type: "SWAP"},
		{Signature: "sig2", Timestamp: 200, Slot: 20, Type: "TRANSFER"},
	}
	require.NoError(t, cache.Store("walletA", want))

	got, hit, err := cache.Load("walletA")
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, want, got)
}

func TestFileCache_CorruptFileIsMiss(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewFileCache(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "walletA.json"), []byte("{not json"), 0o644))

	_, hit, err := cache.Load("walletA")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCachedSource_FetchesOnceThenServesFromDisk(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode([]helius.EnhancedTransaction{
			{Signature: "sig1", Timestamp: 100, Slot: 10, Type: "SWAP"},
		})
	}))
	defer srv.Close()

	client := helius.NewClient("k", helius.WithBaseURL(srv.URL))
	cache, err := NewFileCache(t.TempDir())
	require.NoError(t, err)
	source := NewCachedSource(client, cache, zerolog.Nop())

	first, err := source.FetchHistory(context.Background(), "walletA", 0)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, calls)

	second, err := source.FetchHistory(context.Background(), "walletA", 0)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls, "second fetch must not hit the API")
}

func TestCachedSource_LimitAppliesToCachedHistory(t *testing.T) {
	cache, err := NewFileCache(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, cache.Store("walletA", []helius.EnhancedTransaction{
		{Signature: "a"}, {Signature: "b"}, {Signature: "c"},
	}))

	source := NewCachedSource(helius.NewClient("k"), cache, zerolog.Nop())

	txs, err := source.FetchHistory(context.Background(), "walletA", 2)
	require.NoError(t, err)
	assert.Len(t, txs, 2)
}

package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"solana-copytrade-analyzer/internal/domain"
	"solana-copytrade-analyzer/internal/helius"
	"solana-copytrade-analyzer/internal/observability"
)

// FileCache persists raw API-shape transaction lists, one JSON file per
// wallet, keyed by wallet address as filename. The pipeline processes
// one wallet at a time, so no cross-process locking is needed.
type FileCache struct {
	dir string
}

// NewFileCache creates a cache rooted at dir, creating it if absent.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileCache{dir: dir}, nil
}

func (c *FileCache) path(wallet string) string {
	return filepath.Join(c.dir, wallet+".json")
}

// Load reads the cached history for wallet. The second return value
// reports whether a cache file existed and decoded cleanly; a corrupt
// file counts as a miss, not an error.
func (c *FileCache) Load(wallet string) ([]helius.EnhancedTransaction, bool, error) {
	data, err := os.ReadFile(c.path(wallet))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read cache file: %w", err)
	}

	var txs []helius.EnhancedTransaction
	if err := json.Unmarshal(data, &txs); err != nil {
		return nil, false, nil
	}
	return txs, true, nil
}

// Store writes the raw history for wallet, replacing any previous file.
func (c *FileCache) Store(wallet string, txs []helius.EnhancedTransaction) error {
	data, err := json.MarshalIndent(txs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}
	if err := os.WriteFile(c.path(wallet), data, 0o644); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	return nil
}

// CachedSource is a read-through Source: cached histories are served
// from disk, misses are fetched from the API and written back.
type CachedSource struct {
	client *helius.Client
	cache  *FileCache
	logger zerolog.Logger
}

// NewCachedSource creates a read-through source.
func NewCachedSource(client *helius.Client, cache *FileCache, logger zerolog.Logger) *CachedSource {
	return &CachedSource{client: client, cache: cache, logger: logger}
}

// FetchHistory serves wallet's history from cache when present,
// otherwise fetches and caches it. A cache write failure is logged and
// swallowed: the fetched data is still returned.
func (s *CachedSource) FetchHistory(ctx context.Context, wallet string, limit int) ([]domain.RawTransaction, error) {
	cached, hit, err := s.cache.Load(wallet)
	if err != nil {
		return nil, err
	}
	observability.RecordCacheLookup(hit)

	if hit {
		s.logger.Debug().Str("wallet", wallet).Int("transactions", len(cached)).Msg("history served from cache")
		if limit > 0 && len(cached) > limit {
			cached = cached[:limit]
		}
		return helius.ToDomainBatch(cached), nil
	}

	txs, err := s.client.FetchHistory(ctx, wallet, limit)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Store(wallet, txs); err != nil {
		s.logger.Warn().Err(err).Str("wallet", wallet).Msg("could not write cache file")
	}

	return helius.ToDomainBatch(txs), nil
}

var _ Source = (*CachedSource)(nil)

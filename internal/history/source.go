// Package history provides wallet transaction-history sources: the
// Helius-backed fetcher and a read-through per-wallet file cache.
package history

import (
	"context"

	"solana-copytrade-analyzer/internal/domain"
	"solana-copytrade-analyzer/internal/helius"
)

// Source yields a wallet's transaction history, newest first.
// Implementations must tolerate repeated calls for the same wallet; the
// acquisition tracer re-fetches counterparty histories during matching.
type Source interface {
	FetchHistory(ctx context.Context, wallet string, limit int) ([]domain.RawTransaction, error)
}

// HeliusSource fetches histories directly from the Helius API.
type HeliusSource struct {
	client *helius.Client
}

// NewHeliusSource creates a source backed by the given API client.
func NewHeliusSource(client *helius.Client) *HeliusSource {
	return &HeliusSource{client: client}
}

// FetchHistory retrieves up to limit transactions for wallet.
func (s *HeliusSource) FetchHistory(ctx context.Context, wallet string, limit int) ([]domain.RawTransaction, error) {
	txs, err := s.client.FetchHistory(ctx, wallet, limit)
	if err != nil {
		return nil, err
	}
	return helius.ToDomainBatch(txs), nil
}

var _ Source = (*HeliusSource)(nil)

// Package trace resolves the economic cost basis of tokens that
// arrived by transfer, by walking the sending wallet's own history.
package trace

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"solana-copytrade-analyzer/internal/domain"
	"solana-copytrade-analyzer/internal/history"
	"solana-copytrade-analyzer/internal/normalization"
	"solana-copytrade-analyzer/internal/observability"
)

const (
	// DefaultMaxDepth bounds transfer-chain traversal: the direct
	// sender plus one hop behind it.
	DefaultMaxDepth = 2

	// DefaultHistoryLimit caps how much of a counterparty's history is
	// fetched per hop.
	DefaultHistoryLimit = 100
)

// CostBasis is the resolved acquisition of a transferred asset: the
// swap that originally bought it, possibly several wallets back.
type CostBasis struct {
	Signature    string // acquiring swap signature
	Timestamp    int64  // unix seconds of the acquiring swap
	Slot         int64
	Wallet       string  // wallet that executed the acquiring swap
	Amount       float64 // quantity of the asset acquired
	Cost         float64 // amount spent in the acquiring swap
	CostCurrency string  // symbol of the spent asset
	Hops         int     // transfer hops walked to reach the swap
}

// Tracer walks counterparty histories looking for the swap that
// acquired a transferred asset.
type Tracer struct {
	source       history.Source
	maxDepth     int
	historyLimit int
	logger       zerolog.Logger
}

// Option configures a Tracer.
type Option func(*Tracer)

// WithMaxDepth sets how many transfer hops the tracer will follow.
func WithMaxDepth(depth int) Option {
	return func(t *Tracer) { t.maxDepth = depth }
}

// WithHistoryLimit caps the per-hop history fetch size.
func WithHistoryLimit(limit int) Option {
	return func(t *Tracer) { t.historyLimit = limit }
}

// WithLogger sets the tracer's logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(t *Tracer) { t.logger = logger }
}

// New creates a Tracer reading counterparty histories from source.
func New(source history.Source, opts ...Option) *Tracer {
	t := &Tracer{
		source:       source,
		maxDepth:     DefaultMaxDepth,
		historyLimit: DefaultHistoryLimit,
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// visitKey guards against transfer cycles: each (wallet, mint) pair is
// examined at most once per trace.
type visitKey struct {
	wallet string
	mint   string
}

// Trace resolves where counterparty got the given mint before the
// transfer at beforeTimestamp. Returns nil when no acquisition is
// found within the hop budget; counterparty history fetch failures
// degrade to not-found rather than failing the caller.
func (t *Tracer) Trace(ctx context.Context, mint, counterparty string, beforeTimestamp int64) *CostBasis {
	if counterparty == "" {
		observability.RecordTraceLookup(false)
		return nil
	}
	basis := t.trace(ctx, mint, counterparty, beforeTimestamp, 1, make(map[visitKey]struct{}))
	observability.RecordTraceLookup(basis != nil)
	return basis
}

func (t *Tracer) trace(ctx context.Context, mint, wallet string, beforeTimestamp int64, depth int, visited map[visitKey]struct{}) *CostBasis {
	if depth > t.maxDepth {
		return nil
	}
	key := visitKey{wallet: wallet, mint: mint}
	if _, seen := visited[key]; seen {
		return nil
	}
	visited[key] = struct{}{}

	txs, err := t.source.FetchHistory(ctx, wallet, t.historyLimit)
	if err != nil {
		t.logger.Warn().Err(err).
			Str("wallet", wallet).
			Str("mint", mint).
			Msg("counterparty history unavailable, trace abandoned")
		return nil
	}

	acq, ok := latestAcquisition(normalization.NormalizeHistory(txs, wallet), mint, beforeTimestamp)
	if !ok {
		return nil
	}

	if acq.Kind == domain.TradeKindSwap {
		t.logger.Debug().
			Str("wallet", wallet).
			Str("mint", mint).
			Str("signature", acq.Signature).
			Int("hops", depth).
			Msg("cost basis resolved")
		return &CostBasis{
			Signature:    acq.Signature,
			Timestamp:    acq.Timestamp,
			Slot:         acq.Slot,
			Wallet:       wallet,
			Amount:       acq.AmountOut,
			Cost:         acq.AmountIn,
			CostCurrency: acq.InSymbol,
			Hops:         depth,
		}
	}

	// The counterparty also received the asset by transfer: follow the
	// chain one wallet further back.
	return t.trace(ctx, mint, acq.Counterparty, acq.Timestamp, depth+1, visited)
}

// latestAcquisition finds the most recent trade that put mint into the
// wallet strictly before the bound.
func latestAcquisition(trades []domain.NormalizedTrade, mint string, beforeTimestamp int64) (domain.NormalizedTrade, bool) {
	var best domain.NormalizedTrade
	found := false
	for _, trade := range trades {
		if trade.AssetOut != mint || trade.Timestamp >= beforeTimestamp {
			continue
		}
		if !found || trade.Timestamp > best.Timestamp {
			best = trade
			found = true
		}
	}
	return best, found
}

// Describe renders a cost basis for log and report output.
func (b *CostBasis) Describe() string {
	if b == nil {
		return "unresolved"
	}
	return fmt.Sprintf("%.6f %s via %s (%d hop(s))", b.Cost, b.CostCurrency, b.Wallet, b.Hops)
}

// Package normalization turns raw multi-leg transactions into
// directional trades relative to a single observer wallet.
package normalization

import (
	"solana-copytrade-analyzer/internal/domain"
	"solana-copytrade-analyzer/internal/observability"
)

// Discard reasons reported by the normalizer.
const (
	reasonUnsupportedType = "unsupported_type"
	reasonIncompleteSwap  = "incomplete_swap"
	reasonSameAssetSwap   = "same_asset_swap"
	reasonNoInbound       = "no_inbound"
)

// sideTotal accumulates all legs of one mint moving in one direction.
type sideTotal struct {
	mint     string
	symbol   string
	quantity float64
	sender   string // sender of the first leg of this mint
}

// NormalizeTransaction classifies one raw transaction relative to the
// observer wallet and reduces it to a canonical in/out asset pair.
// Returns false when the transaction yields no trade for this wallet.
// Pure function: malformed legs are skipped, nothing is mutated.
func NormalizeTransaction(tx domain.RawTransaction, wallet string) (domain.NormalizedTrade, bool) {
	trade, ok, _ := normalize(tx, wallet)
	return trade, ok
}

func normalize(tx domain.RawTransaction, wallet string) (domain.NormalizedTrade, bool, string) {
	if tx.Type != domain.TxTypeSwap && tx.Type != domain.TxTypeTransfer {
		return domain.NormalizedTrade{}, false, reasonUnsupportedType
	}

	// Sum legs per mint into out-of-wallet and into-wallet buckets.
	// Multi-hop routing and fee legs produce several legs of the same
	// mint in one direction; their quantities are summed.
	outOfWallet := newBucket()
	intoWallet := newBucket()

	for _, leg := range tx.Legs {
		if leg.Mint == "" || leg.Quantity <= 0 {
			continue
		}
		switch {
		case leg.From == wallet:
			// A self-leg (From == To == wallet) counts as outbound only,
			// so it never manufactures an inbound side on its own.
			outOfWallet.add(leg)
		case leg.To == wallet:
			intoWallet.add(leg)
		}
	}

	if tx.Type == domain.TxTypeTransfer {
		// Only the inbound side matters for a transfer.
		inbound := intoWallet.dominant()
		if inbound == nil {
			return domain.NormalizedTrade{}, false, reasonNoInbound
		}
		return domain.NormalizedTrade{
			Signature:    tx.Signature,
			Timestamp:    tx.Timestamp,
			Slot:         tx.Slot,
			Kind:         domain.TradeKindTransfer,
			AssetIn:      domain.UnknownCost,
			InSymbol:     domain.UnknownCost,
			AssetOut:     inbound.mint,
			OutSymbol:    inbound.symbol,
			AmountOut:    inbound.quantity,
			Fee:          tx.Fee,
			Success:      tx.Success,
			Counterparty: inbound.sender,
		}, true, ""
	}

	// SWAP: both sides must be present from this wallet's perspective.
	spent := outOfWallet.dominant()
	received := intoWallet.dominant()
	if spent == nil || received == nil {
		return domain.NormalizedTrade{}, false, reasonIncompleteSwap
	}
	if spent.mint == received.mint {
		// Self-transfer mislabeled as a swap.
		return domain.NormalizedTrade{}, false, reasonSameAssetSwap
	}

	return domain.NormalizedTrade{
		Signature: tx.Signature,
		Timestamp: tx.Timestamp,
		Slot:      tx.Slot,
		Kind:      domain.TradeKindSwap,
		AssetIn:   spent.mint,
		InSymbol:  spent.symbol,
		AmountIn:  spent.quantity,
		AssetOut:  received.mint,
		OutSymbol: received.symbol,
		AmountOut: received.quantity,
		Fee:       tx.Fee,
		Success:   tx.Success,
	}, true, ""
}

// NormalizeHistory normalizes a full history relative to wallet,
// dropping transactions that yield no trade. Ordering of the input is
// preserved.
func NormalizeHistory(txs []domain.RawTransaction, wallet string) []domain.NormalizedTrade {
	trades := make([]domain.NormalizedTrade, 0, len(txs))
	for _, tx := range txs {
		trade, ok, reason := normalize(tx, wallet)
		if !ok {
			observability.RecordDiscarded(reason)
			continue
		}
		observability.DefaultMetrics.TradesNormalized.Inc()
		trades = append(trades, trade)
	}
	return trades
}

// bucket accumulates per-mint totals for one direction, preserving
// first-seen order so dominant selection is deterministic.
type bucket struct {
	totals map[string]*sideTotal
	order  []string
}

func newBucket() *bucket {
	return &bucket{totals: make(map[string]*sideTotal)}
}

func (b *bucket) add(leg domain.AssetLeg) {
	t, ok := b.totals[leg.Mint]
	if !ok {
		t = &sideTotal{mint: leg.Mint, symbol: leg.Symbol, sender: leg.From}
		b.totals[leg.Mint] = t
		b.order = append(b.order, leg.Mint)
	}
	t.quantity += leg.Quantity
}

// dominant returns the mint with the largest summed quantity, or nil
// for an empty bucket. Ties keep the earliest mint.
func (b *bucket) dominant() *sideTotal {
	var best *sideTotal
	for _, mint := range b.order {
		t := b.totals[mint]
		if best == nil || t.quantity > best.quantity {
			best = t
		}
	}
	return best
}

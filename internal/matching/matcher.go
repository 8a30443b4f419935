// Package matching pairs buys and sells into closed positions using
// per-asset FIFO lot queues.
package matching

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"solana-copytrade-analyzer/internal/domain"
	"solana-copytrade-analyzer/internal/observability"
	"solana-copytrade-analyzer/internal/trace"
)

// CostResolver resolves the acquisition cost of a transferred asset.
// *trace.Tracer implements it; matching works without one, in which
// case transfers never establish a lot.
type CostResolver interface {
	Trace(ctx context.Context, mint, counterparty string, beforeTimestamp int64) *trace.CostBasis
}

// Config controls matching policy.
type Config struct {
	// RequeueRemainder keeps partial fills alive: when buy and sell
	// quantities differ, the unmatched remainder is requeued (lot) or
	// matched against further lots (sell). When false, the remainder is
	// dropped after the first pairing, one lot per sell at most.
	RequeueRemainder bool

	// Resolver, when set, turns traceable transfers into synthetic buy
	// lots priced at the traced acquisition cost.
	Resolver CostResolver

	Logger zerolog.Logger
}

// Result is the output of one matching run.
type Result struct {
	Matched  []domain.MatchedTrade
	OpenLots map[string][]domain.OpenLot // unrealized positions by mint

	UnmatchedSells      int // sells that exhausted the lot queue
	SkippedLots         int // lots discarded for currency incompatibility
	TracedTransfers     int
	UnresolvedTransfers int
}

// Matcher runs FIFO matching over a wallet's normalized trades.
type Matcher struct {
	cfg Config
}

// New creates a Matcher.
func New(cfg Config) *Matcher {
	return &Matcher{cfg: cfg}
}

// sellEvent is one disposal awaiting lots.
type sellEvent struct {
	signature string
	timestamp int64
	slot      int64
	quantity  float64 // asset amount sold
	proceeds  float64 // amount received
	currency  string  // proceeds symbol
}

// assetBook holds one asset's lot queue and sell list. The lot slice
// is an array-backed deque: head marks the oldest live lot, consumed
// lots are never re-read.
type assetBook struct {
	mint   string
	symbol string

	lots  []domain.OpenLot
	head  int
	sells []sellEvent

	buyQuantities  []float64
	sellQuantities []float64
}

// Match scans trades in ascending timestamp order, classifies each as
// a buy or sell of its non-base asset, and consumes sells against
// per-asset FIFO queues. Ties in timestamp keep input order.
func (m *Matcher) Match(ctx context.Context, trades []domain.NormalizedTrade) Result {
	ordered := make([]domain.NormalizedTrade, len(trades))
	copy(ordered, trades)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp < ordered[j].Timestamp
	})

	books := make(map[string]*assetBook)
	var mintOrder []string
	book := func(mint, symbol string) *assetBook {
		b, ok := books[mint]
		if !ok {
			b = &assetBook{mint: mint, symbol: symbol}
			books[mint] = b
			mintOrder = append(mintOrder, mint)
		}
		return b
	}

	result := Result{OpenLots: make(map[string][]domain.OpenLot)}

	for _, trade := range ordered {
		if trade.Kind == domain.TradeKindTransfer {
			m.ingestTransfer(ctx, trade, book, &result)
			continue
		}

		dir, ok := trade.Direction()
		if !ok {
			continue
		}
		switch dir {
		case domain.DirectionBuy:
			b := book(trade.AssetOut, trade.OutSymbol)
			b.lots = append(b.lots, domain.OpenLot{
				Signature:    trade.Signature,
				Timestamp:    trade.Timestamp,
				Slot:         trade.Slot,
				Quantity:     trade.AmountOut,
				Cost:         trade.AmountIn,
				CostCurrency: trade.InSymbol,
			})
			b.buyQuantities = append(b.buyQuantities, trade.AmountOut)
		case domain.DirectionSell:
			b := book(trade.AssetIn, trade.InSymbol)
			b.sells = append(b.sells, sellEvent{
				signature: trade.Signature,
				timestamp: trade.Timestamp,
				slot:      trade.Slot,
				quantity:  trade.AmountIn,
				proceeds:  trade.AmountOut,
				currency:  trade.OutSymbol,
			})
			b.sellQuantities = append(b.sellQuantities, trade.AmountIn)
		}
	}

	openCount := 0
	for _, mint := range mintOrder {
		b := books[mint]
		m.matchAsset(b, &result)
		if open := b.lots[b.head:]; len(open) > 0 {
			result.OpenLots[mint] = open
			openCount += len(open)
		}
	}
	observability.DefaultMetrics.OpenLots.Set(float64(openCount))

	return result
}

// ingestTransfer converts a traceable inbound transfer into a
// synthetic buy lot priced per-unit at the traced acquisition cost.
// Unresolved transfers establish no lot and stay invisible to P&L.
func (m *Matcher) ingestTransfer(ctx context.Context, trade domain.NormalizedTrade, book func(mint, symbol string) *assetBook, result *Result) {
	if m.cfg.Resolver == nil {
		result.UnresolvedTransfers++
		return
	}
	basis := m.cfg.Resolver.Trace(ctx, trade.AssetOut, trade.Counterparty, trade.Timestamp)
	if basis == nil || basis.Amount <= 0 {
		result.UnresolvedTransfers++
		m.cfg.Logger.Debug().
			Str("signature", trade.Signature).
			Str("mint", trade.AssetOut).
			Msg("transfer cost basis unresolved, inflow excluded from matching")
		return
	}
	result.TracedTransfers++

	b := book(trade.AssetOut, trade.OutSymbol)
	b.lots = append(b.lots, domain.OpenLot{
		Signature:    trade.Signature,
		Timestamp:    trade.Timestamp,
		Slot:         trade.Slot,
		Quantity:     trade.AmountOut,
		Cost:         basis.Cost / basis.Amount * trade.AmountOut,
		CostCurrency: basis.CostCurrency,
		FromTransfer: true,
	})
	b.buyQuantities = append(b.buyQuantities, trade.AmountOut)
}

// matchAsset consumes one asset's sells against its lot queue.
func (m *Matcher) matchAsset(b *assetBook, result *Result) {
	numBuys := len(b.buyQuantities)
	numSells := len(b.sellQuantities)
	largestBuyPct := largestSharePct(b.buyQuantities)
	largestSellPct := largestSharePct(b.sellQuantities)

	for _, sell := range b.sells {
		matchedAny := false

		for b.head < len(b.lots) {
			lot := b.lots[b.head]

			if !compatibleCurrencies(lot.CostCurrency, sell.currency) {
				b.head++
				result.SkippedLots++
				observability.DefaultMetrics.LotsSkipped.Inc()
				m.cfg.Logger.Debug().
					Str("mint", b.mint).
					Str("lot_currency", lot.CostCurrency).
					Str("sell_currency", sell.currency).
					Msg("incompatible lot discarded")
				continue
			}

			matchedQty := lot.Quantity
			if sell.quantity < matchedQty {
				matchedQty = sell.quantity
			}
			costPerUnit := lot.Cost / lot.Quantity
			proceedsPerUnit := sell.proceeds / sell.quantity

			pnlPct := 0.0
			if costPerUnit > 0 {
				pnlPct = (proceedsPerUnit/costPerUnit - 1) * 100
			}

			result.Matched = append(result.Matched, domain.MatchedTrade{
				Asset:            b.mint,
				Symbol:           b.symbol,
				BuySignature:     lot.Signature,
				SellSignature:    sell.signature,
				BuyTimestamp:     lot.Timestamp,
				SellTimestamp:    sell.timestamp,
				BuySlot:          lot.Slot,
				SellSlot:         sell.slot,
				BuyQuantity:      lot.Quantity,
				SellQuantity:     sell.quantity,
				MatchedQuantity:  matchedQty,
				Cost:             lot.Cost,
				Proceeds:         sell.proceeds,
				CostCurrency:     lot.CostCurrency,
				ProceedsCurrency: sell.currency,
				Profit:           (proceedsPerUnit - costPerUnit) * matchedQty,
				PnlPct:           pnlPct,
				HoldSeconds:      sell.timestamp - lot.Timestamp,
				NumBuys:          numBuys,
				NumSells:         numSells,
				LargestBuyPct:    largestBuyPct,
				LargestSellPct:   largestSellPct,
			})
			observability.DefaultMetrics.TradesMatched.Inc()
			matchedAny = true

			if !m.cfg.RequeueRemainder {
				// One lot per sell; both remainders are dropped.
				b.head++
				break
			}

			if lot.Quantity > matchedQty {
				// Requeue the lot remainder at the front, cost scaled
				// to the remaining quantity.
				remainder := lot.Quantity - matchedQty
				b.lots[b.head] = domain.OpenLot{
					Signature:    lot.Signature,
					Timestamp:    lot.Timestamp,
					Slot:         lot.Slot,
					Quantity:     remainder,
					Cost:         costPerUnit * remainder,
					CostCurrency: lot.CostCurrency,
					FromTransfer: lot.FromTransfer,
				}
			} else {
				b.head++
			}

			if sell.quantity > matchedQty {
				sell.quantity -= matchedQty
				sell.proceeds -= proceedsPerUnit * matchedQty
				continue
			}
			break
		}

		if !matchedAny {
			result.UnmatchedSells++
			observability.DefaultMetrics.UnmatchedSells.Inc()
			m.cfg.Logger.Debug().
				Str("mint", b.mint).
				Str("signature", sell.signature).
				Msg("sell with no matchable lot")
		}
	}
}

// compatibleCurrencies reports whether a lot costed in one currency may
// settle against proceeds in another: equal symbols always match, and
// any two base currencies are treated as fungible value.
func compatibleCurrencies(cost, proceeds string) bool {
	if cost == proceeds {
		return true
	}
	return domain.IsBaseCurrency(cost) && domain.IsBaseCurrency(proceeds)
}

// largestSharePct returns the largest element as a percentage of the
// total, or 0 for an empty slice.
func largestSharePct(quantities []float64) float64 {
	var total, largest float64
	for _, q := range quantities {
		total += q
		if q > largest {
			largest = q
		}
	}
	if total <= 0 {
		return 0
	}
	return largest / total * 100
}

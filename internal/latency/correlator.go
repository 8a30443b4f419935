// Package latency estimates copy-trading delay by correlating an
// observer wallet's trades with a reference wallet's trades.
package latency

import (
	"github.com/rs/zerolog"

	"solana-copytrade-analyzer/internal/domain"
	"solana-copytrade-analyzer/internal/observability"
)

// DefaultWindowSeconds is how far apart in wall-clock time two trades
// may be and still count as a copy pair.
const DefaultWindowSeconds = 300

// Correlator matches observer trades to preceding reference trades on
// the same asset and direction.
type Correlator struct {
	windowSeconds int64
	logger        zerolog.Logger
}

// Option configures a Correlator.
type Option func(*Correlator)

// WithWindow sets the correlation time window in seconds.
func WithWindow(seconds int64) Option {
	return func(c *Correlator) { c.windowSeconds = seconds }
}

// WithLogger sets the correlator's logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Correlator) { c.logger = logger }
}

// New creates a Correlator.
func New(opts ...Option) *Correlator {
	c := &Correlator{windowSeconds: DefaultWindowSeconds, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// tradeKey groups trades that could plausibly be copies of each other.
type tradeKey struct {
	mint      string
	direction string
}

// Correlate pairs each observer trade with the closest preceding
// reference trade on the same (asset, direction): reference slot
// strictly below the observer's, reference timestamp no more than the
// window before the observer's, largest reference slot wins. Observer trades with no qualifying reference
// trade are silently excluded. Transfers carry no direction and never
// correlate.
func (c *Correlator) Correlate(observer, reference []domain.NormalizedTrade) []domain.LatencyRecord {
	byKey := make(map[tradeKey][]domain.NormalizedTrade)
	for _, trade := range reference {
		dir, ok := trade.Direction()
		if !ok {
			continue
		}
		mint, _, _ := trade.TradedAsset()
		key := tradeKey{mint: mint, direction: dir}
		byKey[key] = append(byKey[key], trade)
	}

	var records []domain.LatencyRecord
	for _, trade := range observer {
		dir, ok := trade.Direction()
		if !ok {
			continue
		}
		mint, symbol, _ := trade.TradedAsset()

		ref, found := closestPreceding(byKey[tradeKey{mint: mint, direction: dir}], trade, c.windowSeconds)
		if !found {
			continue
		}

		records = append(records, domain.LatencyRecord{
			Asset:              mint,
			Symbol:             symbol,
			Direction:          dir,
			ObserverSignature:  trade.Signature,
			ReferenceSignature: ref.Signature,
			ObserverSlot:       trade.Slot,
			ReferenceSlot:      ref.Slot,
			SlotLatency:        trade.Slot - ref.Slot,
			TimeLatency:        trade.Timestamp - ref.Timestamp,
		})
		observability.DefaultMetrics.LatencyMatches.WithLabelValues(dir).Inc()
	}

	c.logger.Debug().
		Int("observer_trades", len(observer)).
		Int("correlated", len(records)).
		Msg("latency correlation complete")
	return records
}

// closestPreceding picks the candidate with the largest slot among
// reference trades strictly earlier in slot order whose timestamp is
// no more than the window before the observer's. The delta is signed:
// a reference in an earlier slot but with a later wall-clock timestamp
// (clock skew across slots) still qualifies, slot order is what
// establishes precedence.
func closestPreceding(candidates []domain.NormalizedTrade, observer domain.NormalizedTrade, windowSeconds int64) (domain.NormalizedTrade, bool) {
	var best domain.NormalizedTrade
	found := false
	for _, ref := range candidates {
		if ref.Slot >= observer.Slot {
			continue
		}
		if observer.Timestamp-ref.Timestamp > windowSeconds {
			continue
		}
		if !found || ref.Slot > best.Slot {
			best = ref
			found = true
		}
	}
	return best, found
}

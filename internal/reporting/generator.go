package reporting

import (
	"sort"
	"time"

	"solana-copytrade-analyzer/internal/domain"
	"solana-copytrade-analyzer/internal/pipeline"
)

// Generator turns pipeline results into renderable reports.
type Generator struct {
	now func() time.Time // injectable clock for deterministic output
}

// NewGenerator creates a report generator.
func NewGenerator() *Generator {
	return &Generator{now: func() time.Time { return time.Now().UTC() }}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds the report view of one analysis run.
func (g *Generator) Generate(result *pipeline.Result, referenceWallet string) *Report {
	r := &Report{
		GeneratedAt:     g.now(),
		Wallet:          result.Wallet,
		ReferenceWallet: referenceWallet,
		Transactions:    result.Transactions,
		TradeCount:      len(result.Trades),
		Performance:     result.Summary,
		Matching: MatchingSection{
			UnmatchedSells:  result.UnmatchedSells,
			SkippedLots:     result.SkippedLots,
			TracedTransfers: result.TracedTransfers,
			OutliersRemoved: result.OutliersRemoved,
		},
	}

	r.Trades = make([]TradeRow, 0, len(result.Matched))
	for _, mt := range result.Matched {
		r.Trades = append(r.Trades, TradeRow{
			Symbol:        mt.Symbol,
			Asset:         mt.Asset,
			BuySignature:  mt.BuySignature,
			SellSignature: mt.SellSignature,
			BuyTime:       time.Unix(mt.BuyTimestamp, 0).UTC(),
			SellTime:      time.Unix(mt.SellTimestamp, 0).UTC(),
			Quantity:      mt.MatchedQuantity,
			Cost:          mt.Cost,
			Proceeds:      mt.Proceeds,
			Currency:      mt.CostCurrency,
			Profit:        mt.Profit,
			PnlPct:        mt.PnlPct,
			HoldSeconds:   mt.HoldSeconds,
		})
	}
	sort.SliceStable(r.Trades, func(i, j int) bool {
		return r.Trades[i].SellTime.Before(r.Trades[j].SellTime)
	})

	mints := make([]string, 0, len(result.OpenLots))
	for mint := range result.OpenLots {
		mints = append(mints, mint)
	}
	sort.Strings(mints)
	for _, mint := range mints {
		for _, lot := range result.OpenLots[mint] {
			r.OpenPositions = append(r.OpenPositions, OpenPositionRow{
				Asset:        mint,
				Symbol:       symbolForLots(result, mint),
				Quantity:     lot.Quantity,
				Cost:         lot.Cost,
				CostCurrency: lot.CostCurrency,
				OpenedAt:     time.Unix(lot.Timestamp, 0).UTC(),
				FromTransfer: lot.FromTransfer,
			})
		}
	}

	if len(result.Latency) > 0 {
		r.Latency = &LatencySection{
			Summary: result.LatencySummary,
			Records: result.Latency,
		}
	}

	return r
}

// symbolForLots recovers a display symbol for an open position's mint
// from the normalized trade list.
func symbolForLots(result *pipeline.Result, mint string) string {
	for _, trade := range result.Trades {
		if trade.AssetOut == mint {
			return trade.OutSymbol
		}
		if trade.AssetIn == mint {
			return trade.InSymbol
		}
	}
	return domain.SymbolForMint(mint)
}

package reporting

import (
	"time"

	"solana-copytrade-analyzer/internal/domain"
	"solana-copytrade-analyzer/internal/stats"
)

// Report is the renderable view of one analysis run.
type Report struct {
	// Metadata
	GeneratedAt     time.Time
	Wallet          string
	ReferenceWallet string

	// Input summary
	Transactions int // raw transactions analyzed
	TradeCount   int // normalized trades

	// Aggregates
	Performance stats.Summary
	Matching    MatchingSection

	// Detail rows (sorted by sell time ascending)
	Trades        []TradeRow
	OpenPositions []OpenPositionRow

	// Latency is nil when no reference wallet was correlated.
	Latency *LatencySection
}

// MatchingSection reports what the matcher dropped along the way.
type MatchingSection struct {
	UnmatchedSells  int
	SkippedLots     int
	TracedTransfers int
	OutliersRemoved int
}

// TradeRow is one closed trade in display order.
type TradeRow struct {
	Symbol        string
	Asset         string
	BuySignature  string
	SellSignature string
	BuyTime       time.Time
	SellTime      time.Time
	Quantity      float64
	Cost          float64
	Proceeds      float64
	Currency      string // cost currency; proceeds may differ across base currencies
	Profit        float64
	PnlPct        float64
	HoldSeconds   int64
}

// OpenPositionRow is one unrealized position left after matching.
type OpenPositionRow struct {
	Asset        string
	Symbol       string
	Quantity     float64
	Cost         float64
	CostCurrency string
	OpenedAt     time.Time
	FromTransfer bool
}

// LatencySection summarizes copy-latency correlation.
type LatencySection struct {
	Summary stats.LatencySummary
	Records []domain.LatencyRecord
}

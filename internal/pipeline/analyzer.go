// Package pipeline orchestrates the full analysis of one wallet:
// fetch, normalize, match, and aggregate, plus latency correlation
// against an optional reference wallet.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"solana-copytrade-analyzer/internal/domain"
	"solana-copytrade-analyzer/internal/history"
	"solana-copytrade-analyzer/internal/latency"
	"solana-copytrade-analyzer/internal/matching"
	"solana-copytrade-analyzer/internal/normalization"
	"solana-copytrade-analyzer/internal/observability"
	"solana-copytrade-analyzer/internal/stats"
	"solana-copytrade-analyzer/internal/trace"
)

// Default outlier band: trades below -80% or above 50000% are treated
// as data artifacts (rounding on dust positions, broken decimals).
const (
	DefaultOutlierMinPct = -80
	DefaultOutlierMaxPct = 50000
)

// Config selects what to analyze and how.
type Config struct {
	Wallet          string
	ReferenceWallet string // empty disables latency correlation
	MaxTransactions int    // 0 means full history

	// TraceTransfers resolves inbound transfers to their acquisition
	// cost via the counterparty's history. Costs extra fetches.
	TraceTransfers bool

	// RequeueRemainder enables partial-fill requeueing in the matcher.
	RequeueRemainder bool

	FilterOutliers bool
	OutlierMinPct  float64
	OutlierMaxPct  float64

	// FilterToMatchedOnly restricts P&L to assets that latency-matched
	// the reference wallet, isolating the copied part of the activity.
	// Needs a reference wallet to have any effect.
	FilterToMatchedOnly bool

	LatencyWindowSeconds int64 // 0 uses the correlator default
}

// Result is the complete output of one analysis run.
type Result struct {
	Wallet      string
	GeneratedAt time.Time

	Transactions int // raw transactions fetched
	Trades       []domain.NormalizedTrade

	Matched         []domain.MatchedTrade
	OpenLots        map[string][]domain.OpenLot
	UnmatchedSells  int
	SkippedLots     int
	TracedTransfers int
	OutliersRemoved int

	Summary stats.Summary

	// Latency fields are populated only when a reference wallet was
	// configured and its history could be fetched.
	Latency        []domain.LatencyRecord
	LatencySummary stats.LatencySummary
}

// Analyzer runs the synchronous analysis pipeline. Each stage fully
// consumes its input before the next starts.
type Analyzer struct {
	source history.Source
	cfg    Config
	logger zerolog.Logger
	clock  func() time.Time
}

// NewAnalyzer creates an Analyzer reading histories from source.
func NewAnalyzer(source history.Source, cfg Config, logger zerolog.Logger) *Analyzer {
	return &Analyzer{
		source: source,
		cfg:    cfg,
		logger: logger,
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (a *Analyzer) WithClock(clock func() time.Time) *Analyzer {
	a.clock = clock
	return a
}

// Run executes the pipeline. The only fatal failure is being unable to
// fetch the observer wallet's history; everything downstream degrades
// to dropped records or empty aggregates.
func (a *Analyzer) Run(ctx context.Context) (*Result, error) {
	start := a.clock()

	if err := domain.ValidateAddress(a.cfg.Wallet); err != nil {
		observability.RecordPipelineRun("invalid_input", 0)
		return nil, fmt.Errorf("wallet address %q: %w", a.cfg.Wallet, err)
	}
	if !domain.IsOnCurve(a.cfg.Wallet) {
		a.logger.Warn().Str("wallet", a.cfg.Wallet).
			Msg("address is off-curve, likely a program account rather than a user wallet")
	}

	txs, err := a.source.FetchHistory(ctx, a.cfg.Wallet, a.cfg.MaxTransactions)
	if err != nil {
		observability.RecordPipelineRun("error", a.clock().Sub(start).Seconds())
		return nil, fmt.Errorf("fetch history for %s: %w", a.cfg.Wallet, err)
	}
	a.logger.Info().Str("wallet", a.cfg.Wallet).Int("transactions", len(txs)).Msg("history fetched")

	trades := normalization.NormalizeHistory(txs, a.cfg.Wallet)

	matchCfg := matching.Config{
		RequeueRemainder: a.cfg.RequeueRemainder,
		Logger:           a.logger,
	}
	if a.cfg.TraceTransfers {
		matchCfg.Resolver = trace.New(a.source, trace.WithLogger(a.logger))
	}
	matchResult := matching.New(matchCfg).Match(ctx, trades)

	result := &Result{
		Wallet:          a.cfg.Wallet,
		GeneratedAt:     start,
		Transactions:    len(txs),
		Trades:          trades,
		Matched:         matchResult.Matched,
		OpenLots:        matchResult.OpenLots,
		UnmatchedSells:  matchResult.UnmatchedSells,
		SkippedLots:     matchResult.SkippedLots,
		TracedTransfers: matchResult.TracedTransfers,
	}

	if a.cfg.FilterOutliers {
		kept := stats.FilterOutliers(result.Matched, a.cfg.OutlierMinPct, a.cfg.OutlierMaxPct)
		result.OutliersRemoved = len(result.Matched) - len(kept)
		result.Matched = kept
		if result.OutliersRemoved > 0 {
			a.logger.Info().Int("removed", result.OutliersRemoved).
				Float64("min_pct", a.cfg.OutlierMinPct).
				Float64("max_pct", a.cfg.OutlierMaxPct).
				Msg("outlier trades filtered")
		}
	}

	if a.cfg.ReferenceWallet != "" {
		a.correlateLatency(ctx, result)
	}

	if a.cfg.FilterToMatchedOnly && len(result.Latency) > 0 {
		copied := make(map[string]struct{}, len(result.Latency))
		for _, rec := range result.Latency {
			copied[rec.Asset] = struct{}{}
		}
		kept := result.Matched[:0:0]
		for _, mt := range result.Matched {
			if _, ok := copied[mt.Asset]; ok {
				kept = append(kept, mt)
			}
		}
		a.logger.Info().Int("kept", len(kept)).Int("dropped", len(result.Matched)-len(kept)).
			Msg("restricted P&L to latency-matched assets")
		result.Matched = kept
	}

	result.Summary = stats.Compute(result.Matched)

	observability.RecordPipelineRun("success", a.clock().Sub(start).Seconds())
	return result, nil
}

// correlateLatency fetches the reference wallet's history and fills
// the latency fields. A reference fetch failure is logged and skipped:
// the P&L half of the result is still valid.
func (a *Analyzer) correlateLatency(ctx context.Context, result *Result) {
	if err := domain.ValidateAddress(a.cfg.ReferenceWallet); err != nil {
		a.logger.Warn().Err(err).Str("reference", a.cfg.ReferenceWallet).
			Msg("invalid reference wallet, latency correlation skipped")
		return
	}

	refTxs, err := a.source.FetchHistory(ctx, a.cfg.ReferenceWallet, a.cfg.MaxTransactions)
	if err != nil {
		a.logger.Warn().Err(err).Str("reference", a.cfg.ReferenceWallet).
			Msg("reference history unavailable, latency correlation skipped")
		return
	}
	refTrades := normalization.NormalizeHistory(refTxs, a.cfg.ReferenceWallet)

	opts := []latency.Option{latency.WithLogger(a.logger)}
	if a.cfg.LatencyWindowSeconds > 0 {
		opts = append(opts, latency.WithWindow(a.cfg.LatencyWindowSeconds))
	}
	result.Latency = latency.New(opts...).Correlate(result.Trades, refTrades)
	result.LatencySummary = stats.ComputeLatency(result.Latency)
}

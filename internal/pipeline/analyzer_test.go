package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-copytrade-analyzer/internal/domain"
)

// Structurally valid 32-byte base58 addresses.
const (
	observerWallet  = "Vote111111111111111111111111111111111111111"
	referenceWallet = "Stake11111111111111111111111111111111111111"
	senderWallet    = "SysvarC1ock11111111111111111111111111111111"

	pool      = "PoolVault2222222222222222222222222222222222"
	tokenMint = "TokenMint44444444444444444444444444444444444"
)

type fakeSource struct {
	histories map[string][]domain.RawTransaction
	errors    map[string]error
}

func (f *fakeSource) FetchHistory(_ context.Context, wallet string, _ int) ([]domain.RawTransaction, error) {
	if err := f.errors[wallet]; err != nil {
		return nil, err
	}
	return f.histories[wallet], nil
}

func swap(sig string, ts, slot int64, wallet, inMint, inSym string, inQty float64, outMint, outSym string, outQty float64) domain.RawTransaction {
	return domain.RawTransaction{
		Signature: sig,
		Timestamp: ts,
		Slot:      slot,
		Type:      domain.TxTypeSwap,
		Success:   true,
		Legs: []domain.AssetLeg{
			{Mint: inMint, Symbol: inSym, Quantity: inQty, From: wallet, To: pool},
			{Mint: outMint, Symbol: outSym, Quantity: outQty, From: pool, To: wallet},
		},
	}
}

func roundTrip(wallet string, mint string, cost, proceeds float64, ts int64) []domain.RawTransaction {
	return []domain.RawTransaction{
		swap(mint+"-buy", ts, ts, wallet, domain.WSOLMint, "SOL", cost, mint, "TOKEN", 100),
		swap(mint+"-sell", ts+100, ts+100, wallet, mint, "TOKEN", 100, domain.WSOLMint, "SOL", proceeds),
	}
}

func TestRun_EndToEnd(t *testing.T) {
	source := &fakeSource{histories: map[string][]domain.RawTransaction{
		observerWallet: {
			swap("buy", 100, 10, observerWallet, domain.WSOLMint, "SOL", 5, tokenMint, "TOKEN", 100),
			swap("sell", 200, 20, observerWallet, tokenMint, "TOKEN", 100, domain.WSOLMint, "SOL", 8),
		},
	}}

	analyzer := NewAnalyzer(source, Config{Wallet: observerWallet}, zerolog.Nop())
	result, err := analyzer.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Transactions)
	require.Len(t, result.Matched, 1)
	mt := result.Matched[0]

	assert.Equal(t, 5.0, mt.Cost)
	assert.Equal(t, 8.0, mt.Proceeds)
	assert.InDelta(t, 3.0, mt.Profit, 1e-9)
	assert.InDelta(t, 60.0, mt.PnlPct, 1e-9)

	assert.Equal(t, 1, result.Summary.TotalTrades)
	assert.Equal(t, 1.0, result.Summary.WinRate)
	assert.Empty(t, result.Latency)
}

func TestRun_InvalidWallet(t *testing.T) {
	analyzer := NewAnalyzer(&fakeSource{}, Config{Wallet: "not-an-address"}, zerolog.Nop())
	_, err := analyzer.Run(context.Background())
	require.Error(t, err)
}

func TestRun_FetchFailureIsFatal(t *testing.T) {
	source := &fakeSource{errors: map[string]error{observerWallet: errors.New("boom")}}
	analyzer := NewAnalyzer(source, Config{Wallet: observerWallet}, zerolog.Nop())

	_, err := analyzer.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch history")
}

func TestRun_OutlierFilter(t *testing.T) {
	// pnl_pct per round-trip: 10, -90, 60000, 25.
	var txs []domain.RawTransaction
	txs = append(txs, roundTrip(observerWallet, "MintA333333333333333333333333333333333333333", 1, 1.1, 1000)...)
	txs = append(txs, roundTrip(observerWallet, "MintB333333333333333333333333333333333333333", 1, 0.1, 2000)...)
	txs = append(txs, roundTrip(observerWallet, "MintC333333333333333333333333333333333333333", 1, 601, 3000)...)
	txs = append(txs, roundTrip(observerWallet, "MintD333333333333333333333333333333333333333", 1, 1.25, 4000)...)

	source := &fakeSource{histories: map[string][]domain.RawTransaction{observerWallet: txs}}
	analyzer := NewAnalyzer(source, Config{
		Wallet:         observerWallet,
		FilterOutliers: true,
		OutlierMinPct:  DefaultOutlierMinPct,
		OutlierMaxPct:  DefaultOutlierMaxPct,
	}, zerolog.Nop())

	result, err := analyzer.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Matched, 2)
	assert.Equal(t, 2, result.OutliersRemoved)
	assert.InDelta(t, 10.0, result.Matched[0].PnlPct, 1e-9)
	assert.InDelta(t, 25.0, result.Matched[1].PnlPct, 1e-9)
	assert.Equal(t, 2, result.Summary.TotalTrades)
}

func TestRun_LatencyAgainstReference(t *testing.T) {
	source := &fakeSource{histories: map[string][]domain.RawTransaction{
		observerWallet: {
			swap("obs-buy", 100, 10, observerWallet, domain.WSOLMint, "SOL", 5, tokenMint, "TOKEN", 100),
		},
		referenceWallet: {
			swap("ref-buy", 90, 5, referenceWallet, domain.WSOLMint, "SOL", 50, tokenMint, "TOKEN", 1000),
		},
	}}

	analyzer := NewAnalyzer(source, Config{
		Wallet:          observerWallet,
		ReferenceWallet: referenceWallet,
	}, zerolog.Nop())

	result, err := analyzer.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Latency, 1)
	rec := result.Latency[0]
	assert.Equal(t, "obs-buy", rec.ObserverSignature)
	assert.Equal(t, "ref-buy", rec.ReferenceSignature)
	assert.Equal(t, int64(5), rec.SlotLatency)
	assert.Equal(t, 1, result.LatencySummary.BuyCount)
}

func TestRun_FilterToMatchedOnly(t *testing.T) {
	copiedMint := "MintA333333333333333333333333333333333333333"
	soloMint := "MintB333333333333333333333333333333333333333"

	var txs []domain.RawTransaction
	txs = append(txs, roundTrip(observerWallet, copiedMint, 1, 2, 1000)...)
	txs = append(txs, roundTrip(observerWallet, soloMint, 1, 3, 5000)...)

	source := &fakeSource{histories: map[string][]domain.RawTransaction{
		observerWallet: txs,
		referenceWallet: {
			swap("ref-buy", 990, 990, referenceWallet, domain.WSOLMint, "SOL", 10, copiedMint, "TOKEN", 1000),
		},
	}}

	analyzer := NewAnalyzer(source, Config{
		Wallet:              observerWallet,
		ReferenceWallet:     referenceWallet,
		FilterToMatchedOnly: true,
	}, zerolog.Nop())

	result, err := analyzer.Run(context.Background())
	require.NoError(t, err)

	// Only the copied asset's round-trip survives the restriction.
	require.Len(t, result.Matched, 1)
	assert.Equal(t, copiedMint, result.Matched[0].Asset)
	assert.Equal(t, 1, result.Summary.TotalTrades)
}

func TestRun_ReferenceFetchFailureDegrades(t *testing.T) {
	source := &fakeSource{
		histories: map[string][]domain.RawTransaction{
			observerWallet: {
				swap("buy", 100, 10, observerWallet, domain.WSOLMint, "SOL", 5, tokenMint, "TOKEN", 100),
				swap("sell", 200, 20, observerWallet, tokenMint, "TOKEN", 100, domain.WSOLMint, "SOL", 8),
			},
		},
		errors: map[string]error{referenceWallet: errors.New("rate limited")},
	}

	analyzer := NewAnalyzer(source, Config{
		Wallet:          observerWallet,
		ReferenceWallet: referenceWallet,
	}, zerolog.Nop())

	result, err := analyzer.Run(context.Background())
	require.NoError(t, err, "latency is best-effort, P&L must survive")
	assert.Len(t, result.Matched, 1)
	assert.Empty(t, result.Latency)
}

func TestRun_TracedTransferEndToEnd(t *testing.T) {
	source := &fakeSource{histories: map[string][]domain.RawTransaction{
		observerWallet: {
			{
				Signature: "incoming",
				Timestamp: 150,
				Slot:      15,
				Type:      domain.TxTypeTransfer,
				Success:   true,
				Legs: []domain.AssetLeg{
					{Mint: tokenMint, Symbol: "TOKEN", Quantity: 100, From: senderWallet, To: observerWallet},
				},
			},
			swap("sell", 200, 20, observerWallet, tokenMint, "TOKEN", 100, domain.WSOLMint, "SOL", 8),
		},
		senderWallet: {
			swap("origin", 100, 10, senderWallet, domain.WSOLMint, "SOL", 5, tokenMint, "TOKEN", 100),
		},
	}}

	analyzer := NewAnalyzer(source, Config{
		Wallet:         observerWallet,
		TraceTransfers: true,
	}, zerolog.Nop())

	result, err := analyzer.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.TracedTransfers)
	require.Len(t, result.Matched, 1)
	assert.InDelta(t, 5.0, result.Matched[0].Cost, 1e-9)
	assert.InDelta(t, 3.0, result.Matched[0].Profit, 1e-9)
}

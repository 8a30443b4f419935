// Package stats aggregates matched trades and latency records into
// performance, behavior, and risk metrics.
package stats

import (
	"math"
	"sort"

	"solana-copytrade-analyzer/internal/domain"
)

const (
	secondsPerYear = 365 * 24 * 3600
	secondsPerDay  = 24 * 3600

	// slotSeconds is the approximate wall-clock duration of one ledger
	// slot, used to express slot latency in seconds.
	slotSeconds = 0.4
)

// Summary is the aggregate view over a closed-trade collection.
// Compute is a pure function of its input: the same trades always
// produce the same Summary.
type Summary struct {
	TotalTrades int
	Wins        int
	Losses      int
	WinRate     float64 // fraction of trades with pnl_pct > 0

	MeanPnlPct   float64
	MedianPnlPct float64
	BestPnlPct   float64
	WorstPnlPct  float64
	TotalProfit  float64 // summed per-trade profit, mixed base units

	MeanHoldSeconds   float64
	MedianHoldSeconds float64

	// Entry/exit fragmentation, counted per distinct asset: instant
	// means the largest single buy (or sell) covered the full volume,
	// partial at least half, gradual less than half.
	EntryInstant int
	EntryPartial int
	EntryGradual int
	ExitInstant  int
	ExitPartial  int
	ExitGradual  int

	// Risk metrics over the cumulative pnl_pct series in sell order.
	SharpeRatio    float64
	MaxDrawdownPct float64 // most negative peak-to-trough move, <= 0
	MaxDrawupPct   float64 // largest trough-to-peak move, >= 0
	DrawdownDays   float64
	DrawupDays     float64
	TradesPerYear  float64
	ElapsedDays    float64
}

// Compute aggregates the matched-trade collection. An empty input
// yields the zero Summary.
func Compute(trades []domain.MatchedTrade) Summary {
	if len(trades) == 0 {
		return Summary{}
	}

	ordered := make([]domain.MatchedTrade, len(trades))
	copy(ordered, trades)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SellTimestamp < ordered[j].SellTimestamp
	})

	s := Summary{TotalTrades: len(ordered)}

	pnls := make([]float64, len(ordered))
	holds := make([]float64, len(ordered))
	s.BestPnlPct = ordered[0].PnlPct
	s.WorstPnlPct = ordered[0].PnlPct
	for i, trade := range ordered {
		pnls[i] = trade.PnlPct
		holds[i] = float64(trade.HoldSeconds)
		s.TotalProfit += trade.Profit
		if trade.PnlPct > 0 {
			s.Wins++
		} else {
			s.Losses++
		}
		if trade.PnlPct > s.BestPnlPct {
			s.BestPnlPct = trade.PnlPct
		}
		if trade.PnlPct < s.WorstPnlPct {
			s.WorstPnlPct = trade.PnlPct
		}
	}
	s.WinRate = float64(s.Wins) / float64(s.TotalTrades)
	s.MeanPnlPct = mean(pnls)
	s.MedianPnlPct = median(pnls)
	s.MeanHoldSeconds = mean(holds)
	s.MedianHoldSeconds = median(holds)

	s.countFragmentation(ordered)
	s.computeRisk(ordered, pnls)
	return s
}

// countFragmentation buckets per-asset entry/exit style. The
// fragmentation fields are stamped identically on every trade of an
// asset, so each asset is counted once.
func (s *Summary) countFragmentation(ordered []domain.MatchedTrade) {
	seen := make(map[string]struct{})
	for _, trade := range ordered {
		if _, done := seen[trade.Asset]; done {
			continue
		}
		seen[trade.Asset] = struct{}{}

		switch {
		case trade.LargestBuyPct >= 100:
			s.EntryInstant++
		case trade.LargestBuyPct >= 50:
			s.EntryPartial++
		default:
			s.EntryGradual++
		}
		switch {
		case trade.LargestSellPct >= 100:
			s.ExitInstant++
		case trade.LargestSellPct >= 50:
			s.ExitPartial++
		default:
			s.ExitGradual++
		}
	}
}

// computeRisk derives Sharpe, drawdown, and draw-up from the
// cumulative pnl_pct series in sell order. The elapsed span runs from
// first sell to last sell, and the running max/min accumulate from the
// first cumulative value, not from a zero baseline.
func (s *Summary) computeRisk(ordered []domain.MatchedTrade, pnls []float64) {
	elapsed := ordered[len(ordered)-1].SellTimestamp - ordered[0].SellTimestamp
	if elapsed > 0 {
		s.ElapsedDays = float64(elapsed) / secondsPerDay
		s.TradesPerYear = float64(len(ordered)) / (float64(elapsed) / secondsPerYear)
	}

	if sd := stddev(pnls); sd > 0 && s.TradesPerYear > 0 {
		s.SharpeRatio = s.MeanPnlPct / sd * math.Sqrt(s.TradesPerYear)
	}

	var cumulative, runningMax, runningMin float64
	var maxTime, minTime int64
	for i, trade := range ordered {
		cumulative += pnls[i]
		if i == 0 || cumulative > runningMax {
			runningMax = cumulative
			maxTime = trade.SellTimestamp
		}
		if i == 0 || cumulative < runningMin {
			runningMin = cumulative
			minTime = trade.SellTimestamp
		}
		if dd := cumulative - runningMax; dd < s.MaxDrawdownPct {
			s.MaxDrawdownPct = dd
			s.DrawdownDays = float64(trade.SellTimestamp-maxTime) / secondsPerDay
		}
		if du := cumulative - runningMin; du > s.MaxDrawupPct {
			s.MaxDrawupPct = du
			s.DrawupDays = float64(trade.SellTimestamp-minTime) / secondsPerDay
		}
	}
}

// Flatten exports the summary as a flat key to value mapping for
// reporting collaborators.
func (s Summary) Flatten() map[string]float64 {
	return map[string]float64{
		"total_trades":        float64(s.TotalTrades),
		"wins":                float64(s.Wins),
		"losses":              float64(s.Losses),
		"win_rate":            s.WinRate,
		"mean_pnl_pct":        s.MeanPnlPct,
		"median_pnl_pct":      s.MedianPnlPct,
		"best_pnl_pct":        s.BestPnlPct,
		"worst_pnl_pct":       s.WorstPnlPct,
		"total_profit":        s.TotalProfit,
		"mean_hold_seconds":   s.MeanHoldSeconds,
		"median_hold_seconds": s.MedianHoldSeconds,
		"entry_instant":       float64(s.EntryInstant),
		"entry_partial":       float64(s.EntryPartial),
		"entry_gradual":       float64(s.EntryGradual),
		"exit_instant":        float64(s.ExitInstant),
		"exit_partial":        float64(s.ExitPartial),
		"exit_gradual":        float64(s.ExitGradual),
		"sharpe_ratio":        s.SharpeRatio,
		"max_drawdown_pct":    s.MaxDrawdownPct,
		"max_drawup_pct":      s.MaxDrawupPct,
		"drawdown_days":       s.DrawdownDays,
		"drawup_days":         s.DrawupDays,
		"trades_per_year":     s.TradesPerYear,
		"elapsed_days":        s.ElapsedDays,
	}
}

// FilterOutliers drops trades with pnl_pct outside [minPct, maxPct].
// The input is not modified.
func FilterOutliers(trades []domain.MatchedTrade, minPct, maxPct float64) []domain.MatchedTrade {
	kept := make([]domain.MatchedTrade, 0, len(trades))
	for _, trade := range trades {
		if trade.PnlPct < minPct || trade.PnlPct > maxPct {
			continue
		}
		kept = append(kept, trade)
	}
	return kept
}

// LatencySummary aggregates correlated latency records.
type LatencySummary struct {
	Count     int
	BuyCount  int
	SellCount int

	MeanSlotLatency   float64
	MedianSlotLatency float64
	MeanTimeLatency   float64 // seconds

	// EstimatedDelaySeconds converts the mean slot latency to seconds
	// using the approximate slot duration.
	EstimatedDelaySeconds float64
}

// ComputeLatency aggregates latency records into a summary.
func ComputeLatency(records []domain.LatencyRecord) LatencySummary {
	if len(records) == 0 {
		return LatencySummary{}
	}

	s := LatencySummary{Count: len(records)}
	slots := make([]float64, len(records))
	var timeSum float64
	for i, rec := range records {
		slots[i] = float64(rec.SlotLatency)
		timeSum += float64(rec.TimeLatency)
		switch rec.Direction {
		case domain.DirectionBuy:
			s.BuyCount++
		case domain.DirectionSell:
			s.SellCount++
		}
	}
	s.MeanSlotLatency = mean(slots)
	s.MedianSlotLatency = median(slots)
	s.MeanTimeLatency = timeSum / float64(len(records))
	s.EstimatedDelaySeconds = s.MeanSlotLatency * slotSeconds
	return s
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// stddev is the sample standard deviation (n-1 denominator).
func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

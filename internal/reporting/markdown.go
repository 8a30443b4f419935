package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Wallet Analysis Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Wallet: `%s`\n\n", r.Wallet))
	if r.ReferenceWallet != "" {
		sb.WriteString(fmt.Sprintf("Reference: `%s`\n\n", r.ReferenceWallet))
	}

	// Overview
	sb.WriteString("## Overview\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Transactions | %d |\n", r.Transactions))
	sb.WriteString(fmt.Sprintf("| Normalized Trades | %d |\n", r.TradeCount))
	sb.WriteString(fmt.Sprintf("| Closed Trades | %d |\n", r.Performance.TotalTrades))
	sb.WriteString(fmt.Sprintf("| Open Positions | %d |\n", len(r.OpenPositions)))
	sb.WriteString(fmt.Sprintf("| Unmatched Sells | %d |\n", r.Matching.UnmatchedSells))
	sb.WriteString(fmt.Sprintf("| Skipped Lots | %d |\n", r.Matching.SkippedLots))
	sb.WriteString(fmt.Sprintf("| Traced Transfers | %d |\n", r.Matching.TracedTransfers))
	sb.WriteString(fmt.Sprintf("| Outliers Removed | %d |\n", r.Matching.OutliersRemoved))
	sb.WriteString("\n")

	// Performance
	p := r.Performance
	sb.WriteString("## Performance\n\n")
	if p.TotalTrades == 0 {
		sb.WriteString("No closed trades.\n\n")
	} else {
		sb.WriteString("| Metric | Value |\n")
		sb.WriteString("|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Win Rate | %.1f%% (%d/%d) |\n", p.WinRate*100, p.Wins, p.TotalTrades))
		sb.WriteString(fmt.Sprintf("| Mean PnL | %.2f%% |\n", p.MeanPnlPct))
		sb.WriteString(fmt.Sprintf("| Median PnL | %.2f%% |\n", p.MedianPnlPct))
		sb.WriteString(fmt.Sprintf("| Best Trade | %.2f%% |\n", p.BestPnlPct))
		sb.WriteString(fmt.Sprintf("| Worst Trade | %.2f%% |\n", p.WorstPnlPct))
		sb.WriteString(fmt.Sprintf("| Total Profit | %.4f (base units) |\n", p.TotalProfit))
		sb.WriteString(fmt.Sprintf("| Mean Hold | %s |\n", formatDuration(p.MeanHoldSeconds)))
		sb.WriteString(fmt.Sprintf("| Median Hold | %s |\n", formatDuration(p.MedianHoldSeconds)))
		sb.WriteString("\n")

		sb.WriteString("### Risk\n\n")
		sb.WriteString("| Metric | Value |\n")
		sb.WriteString("|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Sharpe Ratio | %.2f |\n", p.SharpeRatio))
		sb.WriteString(fmt.Sprintf("| Max Drawdown | %.2f%% over %.1f days |\n", p.MaxDrawdownPct, p.DrawdownDays))
		sb.WriteString(fmt.Sprintf("| Max Draw-up | %.2f%% over %.1f days |\n", p.MaxDrawupPct, p.DrawupDays))
		sb.WriteString(fmt.Sprintf("| Trades/Year | %.0f |\n", p.TradesPerYear))
		sb.WriteString(fmt.Sprintf("| Elapsed | %.1f days |\n", p.ElapsedDays))
		sb.WriteString("\n")

		sb.WriteString("### Entry / Exit Style\n\n")
		sb.WriteString("| Style | Entries | Exits |\n")
		sb.WriteString("|-------|---------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Instant | %d | %d |\n", p.EntryInstant, p.ExitInstant))
		sb.WriteString(fmt.Sprintf("| Partial | %d | %d |\n", p.EntryPartial, p.ExitPartial))
		sb.WriteString(fmt.Sprintf("| Gradual | %d | %d |\n", p.EntryGradual, p.ExitGradual))
		sb.WriteString("\n")
	}

	// Closed trades
	if len(r.Trades) > 0 {
		sb.WriteString("## Closed Trades\n\n")
		sb.WriteString("| Symbol | Sell Time | Qty | Cost | Proceeds | Profit | PnL | Hold |\n")
		sb.WriteString("|--------|-----------|-----|------|----------|--------|-----|------|\n")
		for _, t := range r.Trades {
			sb.WriteString(fmt.Sprintf("| %s | %s | %.4f | %.4f %s | %.4f | %.4f | %.2f%% | %s |\n",
				t.Symbol,
				t.SellTime.Format("2006-01-02 15:04"),
				t.Quantity,
				t.Cost, t.Currency,
				t.Proceeds,
				t.Profit,
				t.PnlPct,
				formatDuration(float64(t.HoldSeconds)),
			))
		}
		sb.WriteString("\n")
	}

	// Open positions
	if len(r.OpenPositions) > 0 {
		sb.WriteString("## Open Positions\n\n")
		sb.WriteString("| Symbol | Qty | Cost | Opened | Origin |\n")
		sb.WriteString("|--------|-----|------|--------|--------|\n")
		for _, pos := range r.OpenPositions {
			origin := "swap"
			if pos.FromTransfer {
				origin = "transfer"
			}
			sb.WriteString(fmt.Sprintf("| %s | %.4f | %.4f %s | %s | %s |\n",
				pos.Symbol,
				pos.Quantity,
				pos.Cost, pos.CostCurrency,
				pos.OpenedAt.Format("2006-01-02 15:04"),
				origin,
			))
		}
		sb.WriteString("\n")
	}

	// Latency
	if r.Latency != nil {
		ls := r.Latency.Summary
		sb.WriteString("## Copy Latency\n\n")
		sb.WriteString("| Metric | Value |\n")
		sb.WriteString("|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Correlated Trades | %d (%d buys, %d sells) |\n", ls.Count, ls.BuyCount, ls.SellCount))
		sb.WriteString(fmt.Sprintf("| Mean Slot Latency | %.1f slots |\n", ls.MeanSlotLatency))
		sb.WriteString(fmt.Sprintf("| Median Slot Latency | %.1f slots |\n", ls.MedianSlotLatency))
		sb.WriteString(fmt.Sprintf("| Mean Time Latency | %.1fs |\n", ls.MeanTimeLatency))
		sb.WriteString(fmt.Sprintf("| Estimated Delay | %.2fs |\n", ls.EstimatedDelaySeconds))
		sb.WriteString("\n")
	} else if r.ReferenceWallet != "" {
		sb.WriteString("## Copy Latency\n\nNo correlated trades within the window.\n\n")
	}

	return sb.String()
}

// formatDuration renders seconds as a compact human duration.
func formatDuration(seconds float64) string {
	switch {
	case seconds < 60:
		return fmt.Sprintf("%.0fs", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%.1fm", seconds/60)
	case seconds < 86400:
		return fmt.Sprintf("%.1fh", seconds/3600)
	default:
		return fmt.Sprintf("%.1fd", seconds/86400)
	}
}

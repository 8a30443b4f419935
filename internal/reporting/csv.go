package reporting

import (
	"fmt"
	"strings"
	"time"

	"solana-copytrade-analyzer/internal/domain"
)

// RenderTradesCSV renders closed trades as CSV string.
func RenderTradesCSV(trades []TradeRow) string {
	var sb strings.Builder

	sb.WriteString("symbol,asset,buy_signature,sell_signature,buy_time,sell_time,")
	sb.WriteString("quantity,cost,proceeds,currency,profit,pnl_pct,hold_seconds\n")

	for _, t := range trades {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%s,%s,%.9f,%.9f,%.9f,%s,%.9f,%.4f,%d\n",
			t.Symbol,
			t.Asset,
			t.BuySignature,
			t.SellSignature,
			t.BuyTime.Format(time.RFC3339),
			t.SellTime.Format(time.RFC3339),
			t.Quantity,
			t.Cost,
			t.Proceeds,
			t.Currency,
			t.Profit,
			t.PnlPct,
			t.HoldSeconds,
		))
	}

	return sb.String()
}

// RenderLatencyCSV renders latency records as CSV string.
func RenderLatencyCSV(records []domain.LatencyRecord) string {
	var sb strings.Builder

	sb.WriteString("asset,symbol,direction,observer_signature,reference_signature,")
	sb.WriteString("observer_slot,reference_slot,slot_latency,time_latency_seconds\n")

	for _, r := range records {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%s,%d,%d,%d,%d\n",
			r.Asset,
			r.Symbol,
			r.Direction,
			r.ObserverSignature,
			r.ReferenceSignature,
			r.ObserverSlot,
			r.ReferenceSlot,
			r.SlotLatency,
			r.TimeLatency,
		))
	}

	return sb.String()
}

package domain

// Trade kind constants for NormalizedTrade.
const (
	TradeKindSwap     = "SWAP"
	TradeKindTransfer = "TRANSFER"
)

// UnknownCost is the sentinel AssetIn value on TRANSFER-kind trades:
// the inbound asset arrived without an economic cost attached.
const UnknownCost = "TRANSFER"

// Trade direction constants.
const (
	DirectionBuy  = "BUY"
	DirectionSell = "SELL"
)

// NormalizedTrade is one RawTransaction viewed from a single observer
// wallet, reduced to a canonical in/out asset pair.
type NormalizedTrade struct {
	Signature string
	Timestamp int64 // Unix seconds
	Slot      int64
	Kind      string // TradeKindSwap | TradeKindTransfer

	// Asset leaving the wallet. For TRANSFER-kind trades AssetIn is the
	// UnknownCost sentinel and AmountIn is zero.
	AssetIn   string
	InSymbol  string
	AmountIn  float64
	AssetOut  string // asset entering the wallet
	OutSymbol string
	AmountOut float64

	Fee          float64 // network fee in SOL
	Success      bool
	Counterparty string // sender address, TRANSFER kind only
}

// OpenLot is one unmatched buy sitting in a per-asset FIFO queue.
// Quantity is the only field the matcher mutates in place.
type OpenLot struct {
	Signature    string
	Timestamp    int64
	Slot         int64
	Quantity     float64
	Cost         float64
	CostCurrency string
	FromTransfer bool // cost basis came from the acquisition tracer
}

// MatchedTrade is one closed buy→sell round-trip. Created exactly once
// per (lot, sell) pairing and immutable afterwards.
type MatchedTrade struct {
	Asset  string // token mint address
	Symbol string

	BuySignature  string
	SellSignature string
	BuyTimestamp  int64
	SellTimestamp int64
	BuySlot       int64
	SellSlot      int64

	BuyQuantity     float64
	SellQuantity    float64
	MatchedQuantity float64 // min(BuyQuantity, SellQuantity)

	Cost             float64
	Proceeds         float64
	CostCurrency     string
	ProceedsCurrency string

	Profit float64
	PnlPct float64

	HoldSeconds int64 // SellTimestamp - BuyTimestamp

	// Per-asset fragmentation statistics, identical across all matched
	// trades of the same asset.
	NumBuys        int
	NumSells       int
	LargestBuyPct  float64 // largest single buy as % of total bought volume
	LargestSellPct float64 // largest single sell as % of total sold volume
}

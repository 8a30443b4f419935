package domain

// Transaction type tags as delivered by the Helius enhanced transactions API.
const (
	TxTypeSwap     = "SWAP"
	TxTypeTransfer = "TRANSFER"
	TxTypeUnknown  = "UNKNOWN"
)

// AssetLeg is one token movement inside a transaction.
type AssetLeg struct {
	Mint     string  // token mint address
	Symbol   string  // display symbol, may be empty
	Quantity float64 // UI amount, must be > 0 to be processed
	From     string  // sender user account
	To       string  // receiver user account
}

// RawTransaction is an immutable record as delivered by the upstream API.
type RawTransaction struct {
	Signature string // unique transaction id
	Timestamp int64  // Unix timestamp in seconds
	Slot      int64  // ledger slot, finer-grained than Timestamp for ordering
	Type      string // TxTypeSwap | TxTypeTransfer | other
	Fee       float64
	Success   bool
	Legs      []AssetLeg
}

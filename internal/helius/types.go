package helius

import (
	"solana-copytrade-analyzer/internal/domain"
)

// lamportsPerSOL converts the fee field from lamports to SOL.
const lamportsPerSOL = 1e9

// EnhancedTransaction is the API-native shape of one transaction from
// the Helius enhanced transactions endpoint. This is also the shape
// persisted verbatim in the per-wallet cache file.
type EnhancedTransaction struct {
	Signature        string          `json:"signature"`
	Timestamp        int64           `json:"timestamp"`
	Slot             int64           `json:"slot"`
	Type             string          `json:"type"`
	Fee              int64           `json:"fee"` // lamports
	FeePayer         string          `json:"feePayer,omitempty"`
	TransactionError interface{}     `json:"transactionError,omitempty"`
	TokenTransfers   []TokenTransfer `json:"tokenTransfers"`
}

// TokenTransfer is one token movement within an enhanced transaction.
type TokenTransfer struct {
	FromUserAccount string  `json:"fromUserAccount"`
	ToUserAccount   string  `json:"toUserAccount"`
	Mint            string  `json:"mint"`
	TokenSymbol     string  `json:"tokenSymbol,omitempty"`
	TokenAmount     float64 `json:"tokenAmount"`
}

// ToDomain converts the API shape into the pipeline's raw transaction
// record. No filtering happens here; malformed legs are dropped by the
// normalizer.
func (tx *EnhancedTransaction) ToDomain() domain.RawTransaction {
	legs := make([]domain.AssetLeg, 0, len(tx.TokenTransfers))
	for _, tt := range tx.TokenTransfers {
		symbol := tt.TokenSymbol
		if symbol == "" {
			symbol = domain.SymbolForMint(tt.Mint)
		}
		legs = append(legs, domain.AssetLeg{
			Mint:     tt.Mint,
			Symbol:   symbol,
			Quantity: tt.TokenAmount,
			From:     tt.FromUserAccount,
			To:       tt.ToUserAccount,
		})
	}

	return domain.RawTransaction{
		Signature: tx.Signature,
		Timestamp: tx.Timestamp,
		Slot:      tx.Slot,
		Type:      tx.Type,
		Fee:       float64(tx.Fee) / lamportsPerSOL,
		Success:   tx.TransactionError == nil,
		Legs:      legs,
	}
}

// ToDomainBatch converts a page of enhanced transactions.
func ToDomainBatch(txs []EnhancedTransaction) []domain.RawTransaction {
	out := make([]domain.RawTransaction, 0, len(txs))
	for i := range txs {
		out = append(out, txs[i].ToDomain())
	}
	return out
}

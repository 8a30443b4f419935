package domain

// Direction classifies a SWAP-kind trade under the base-currency rule:
// spending a base currency is a BUY of the received asset, anything
// else is a SELL of the spent asset. The second return is false for
// TRANSFER-kind trades, which carry no direction.
func (t NormalizedTrade) Direction() (string, bool) {
	if t.Kind != TradeKindSwap {
		return "", false
	}
	if IsBaseCurrency(t.InSymbol) {
		return DirectionBuy, true
	}
	return DirectionSell, true
}

// TradedAsset returns the non-base asset a SWAP trade is buying or
// selling: AssetOut for a BUY, AssetIn for a SELL.
func (t NormalizedTrade) TradedAsset() (mint, symbol string, ok bool) {
	dir, ok := t.Direction()
	if !ok {
		return "", "", false
	}
	if dir == DirectionBuy {
		return t.AssetOut, t.OutSymbol, true
	}
	return t.AssetIn, t.InSymbol, true
}

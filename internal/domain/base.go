package domain

// WSOLMint is the wrapped SOL mint address.
const WSOLMint = "So11111111111111111111111111111111111111112"

// wsolPrefix is how the upstream API abbreviates native SOL legs that
// carry no symbol: the first eight characters of the WSOL mint.
const wsolPrefix = "So111111"

// baseCurrencies are the symbols treated as fungible "base value" for
// cross-currency matching: the chain's native coin plus major
// stablecoins. Buying with SOL and selling for USDC is treated as a
// comparable round-trip, a stated approximation.
var baseCurrencies = map[string]struct{}{
	"SOL":      {},
	"WSOL":     {},
	"USDC":     {},
	"USDT":     {},
	wsolPrefix: {},
}

// IsBaseCurrency reports whether symbol belongs to the base-currency
// allow-list.
func IsBaseCurrency(symbol string) bool {
	_, ok := baseCurrencies[symbol]
	return ok
}

// knownMints maps well-known mints to their display symbols, used when
// the upstream API omits the token symbol.
var knownMints = map[string]string{
	WSOLMint: "SOL",
	"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": "USDC",
	"Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB": "USDT",
}

// SymbolForMint returns the display symbol for a mint: the well-known
// symbol if there is one, otherwise the first eight characters of the
// mint address.
func SymbolForMint(mint string) string {
	if sym, ok := knownMints[mint]; ok {
		return sym
	}
	if len(mint) > 8 {
		return mint[:8]
	}
	return mint
}

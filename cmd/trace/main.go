// Command trace resolves where a wallet acquired a token: the swap
// that bought it, walked back through up to two transfer hops.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"solana-copytrade-analyzer/internal/domain"
	"solana-copytrade-analyzer/internal/helius"
	"solana-copytrade-analyzer/internal/history"
	"solana-copytrade-analyzer/internal/trace"
)

func main() {
	_ = godotenv.Load()

	var (
		mint     = pflag.String("mint", "", "Token mint to trace (required)")
		from     = pflag.String("from", "", "Wallet that sent the token (required)")
		before   = pflag.Int64("before", time.Now().Unix(), "Only consider acquisitions before this unix timestamp")
		apiKey   = pflag.String("api-key", os.Getenv("HELIUS_API_KEY"), "Helius API key (defaults to HELIUS_API_KEY)")
		maxDepth = pflag.Int("max-depth", trace.DefaultMaxDepth, "Transfer hops to follow")
		verbose  = pflag.Bool("verbose", false, "Enable debug logging")
	)
	pflag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).With().Timestamp().Logger()

	if *mint == "" || *from == "" {
		logger.Fatal().Msg("--mint and --from are required")
	}
	if *apiKey == "" {
		logger.Fatal().Msg("no API key: set --api-key or HELIUS_API_KEY")
	}
	for _, addr := range []string{*mint, *from} {
		if err := domain.ValidateAddress(addr); err != nil {
			logger.Fatal().Err(err).Str("address", addr).Msg("invalid address")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := helius.NewClient(*apiKey, helius.WithLogger(logger))
	tracer := trace.New(history.NewHeliusSource(client),
		trace.WithMaxDepth(*maxDepth),
		trace.WithLogger(logger))

	basis := tracer.Trace(ctx, *mint, *from, *before)
	if basis == nil {
		fmt.Printf("no acquisition found for %s via %s\n", domain.SymbolForMint(*mint), *from)
		os.Exit(1)
	}

	fmt.Printf("%s acquired: %s\n", domain.SymbolForMint(*mint), basis.Describe())
	fmt.Printf("  signature: %s\n", basis.Signature)
	fmt.Printf("  at:        %s (slot %d)\n", time.Unix(basis.Timestamp, 0).UTC().Format(time.RFC3339), basis.Slot)
	fmt.Printf("  amount:    %.6f\n", basis.Amount)
}

// Command analyze reconstructs a wallet's trading history, FIFO-matches
// it into closed positions, and reports P&L plus copy latency against
// an optional reference wallet.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"solana-copytrade-analyzer/internal/helius"
	"solana-copytrade-analyzer/internal/history"
	"solana-copytrade-analyzer/internal/observability"
	"solana-copytrade-analyzer/internal/pipeline"
	"solana-copytrade-analyzer/internal/reporting"
)

func main() {
	_ = godotenv.Load()

	var (
		wallet         = pflag.String("wallet", "", "Wallet address to analyze (required)")
		reference      = pflag.String("reference", "", "Reference wallet for copy-latency correlation")
		apiKey         = pflag.String("api-key", os.Getenv("HELIUS_API_KEY"), "Helius API key (defaults to HELIUS_API_KEY)")
		cacheDir       = pflag.String("cache-dir", ".cache", "Directory for per-wallet history cache files")
		noCache        = pflag.Bool("no-cache", false, "Bypass the on-disk history cache")
		limit          = pflag.Int("limit", 0, "Maximum transactions to fetch (0 = full history)")
		traceTransfers = pflag.Bool("trace-transfers", false, "Resolve transferred tokens to their acquisition cost (extra fetches)")
		requeue        = pflag.Bool("requeue-remainder", false, "Requeue partial-fill remainders instead of dropping them")
		filterOutliers = pflag.Bool("filter-outliers", true, "Drop trades with pnl_pct outside the outlier band")
		outlierMin     = pflag.Float64("outlier-min", pipeline.DefaultOutlierMinPct, "Outlier band lower bound (pnl %)")
		outlierMax     = pflag.Float64("outlier-max", pipeline.DefaultOutlierMaxPct, "Outlier band upper bound (pnl %)")
		latencyWindow  = pflag.Int64("latency-window", 0, "Latency correlation window in seconds (0 = default)")
		matchedOnly    = pflag.Bool("matched-only", false, "Restrict P&L to assets that latency-matched the reference wallet")
		outputDir      = pflag.String("output-dir", "", "Write report.md and CSV exports to this directory")
		metricsAddr    = pflag.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
		verbose        = pflag.Bool("verbose", false, "Enable debug logging")
	)
	pflag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).With().Timestamp().Logger()

	if *wallet == "" {
		logger.Fatal().Msg("--wallet is required")
	}
	if *apiKey == "" {
		logger.Fatal().Msg("no API key: set --api-key or HELIUS_API_KEY")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				logger.Error().Err(err).Msg("metrics listener failed")
			}
		}()
		logger.Info().Str("addr", *metricsAddr).Msg("serving metrics")
	}

	client := helius.NewClient(*apiKey, helius.WithLogger(logger))
	var source history.Source = history.NewHeliusSource(client)
	if !*noCache {
		cache, err := history.NewFileCache(*cacheDir)
		if err != nil {
			logger.Fatal().Err(err).Str("dir", *cacheDir).Msg("cache directory unusable")
		}
		source = history.NewCachedSource(client, cache, logger)
	}

	analyzer := pipeline.NewAnalyzer(source, pipeline.Config{
		Wallet:               *wallet,
		ReferenceWallet:      *reference,
		MaxTransactions:      *limit,
		TraceTransfers:       *traceTransfers,
		RequeueRemainder:     *requeue,
		FilterOutliers:       *filterOutliers,
		OutlierMinPct:        *outlierMin,
		OutlierMaxPct:        *outlierMax,
		FilterToMatchedOnly:  *matchedOnly,
		LatencyWindowSeconds: *latencyWindow,
	}, logger)

	result, err := analyzer.Run(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("analysis failed")
	}

	report := reporting.NewGenerator().Generate(result, *reference)
	markdown := reporting.RenderMarkdown(report)

	if *outputDir == "" {
		fmt.Print(markdown)
		return
	}

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		logger.Fatal().Err(err).Msg("create output directory")
	}
	writeFile(logger, filepath.Join(*outputDir, "report.md"), markdown)
	writeFile(logger, filepath.Join(*outputDir, "trades.csv"), reporting.RenderTradesCSV(report.Trades))
	if report.Latency != nil {
		writeFile(logger, filepath.Join(*outputDir, "latency.csv"), reporting.RenderLatencyCSV(report.Latency.Records))
	}
	logger.Info().Str("dir", *outputDir).Int("closed_trades", len(report.Trades)).Msg("report written")
}

func writeFile(logger zerolog.Logger, path, content string) {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		logger.Fatal().Err(err).Str("path", path).Msg("write output file")
	}
}

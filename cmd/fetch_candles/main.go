package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"silverSignalBot/config"
	"silverSignalBot/internal/adapters/binanceclient"
	"silverSignalBot/internal/adapters/logger"
	"silverSignalBot/internal/adapters/yahoo"
	"silverSignalBot/internal/ports"
	"silverSignalBot/internal/utils"
)

// fetch_candles dumps a candle history to CSV for offline analysis of the
// signal rules.
func main() {
	symbol := flag.String("symbol", "SI=F", "symbol to fetch")
	lookback := flag.Int("lookback", 60, "lookback window in days")
	interval := flag.String("interval", "15m", "candle interval")
	source := flag.String("source", "yahoo", "data source: yahoo or binance")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	ctx := context.Background()
	appLogger.Info(ctx, "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Candle Source
	var client ports.CandleSource
	switch *source {
	case "binance":
		client, err = binanceclient.New(binanceclient.Config{
			APIKey:     cfg.BinanceAPIKey,
			SecretKey:  cfg.BinanceSecretKey,
			UseTestnet: cfg.BinanceTestnet,
			Logger:     appLogger,
		})
	default:
		client, err = yahoo.New(yahoo.Config{Logger: appLogger})
	}
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize candle source")
		log.Fatalf("FATAL: Failed to initialize candle source: %v", err)
	}

	fmt.Printf("Fetching %s candles for %s over the last %d days...\n", *interval, *symbol, *lookback)
	series, err := client.FetchCandles(ctx, *symbol, *lookback, []string{*interval})
	if err != nil {
		appLogger.Error(ctx, err, "Error fetching candles")
		log.Fatalf("Error fetching candles: %v", err)
	}
	appLogger.Info(ctx, "Fetched candles", map[string]interface{}{"count": series.Len()})

	filename := fmt.Sprintf("data/%s_%s_%s.csv", *symbol, *interval, time.Now().Format("20060102"))
	if err := utils.WriteCandlesToCSV(series.Candles(), filename); err != nil {
		appLogger.Error(ctx, err, "Error writing CSV")
		log.Fatalf("Error writing CSV: %v", err)
	}
	appLogger.Info(ctx, "Saved to", map[string]interface{}{"filename": filename})
}

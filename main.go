package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"silverSignalBot/config"
	"silverSignalBot/internal/adapters/binanceclient"
	"silverSignalBot/internal/adapters/logger"
	"silverSignalBot/internal/adapters/redisstore"
	"silverSignalBot/internal/adapters/sqlite"
	"silverSignalBot/internal/adapters/whatsapp"
	"silverSignalBot/internal/adapters/yahoo"
	"silverSignalBot/internal/app"
	"silverSignalBot/internal/indicator"
	"silverSignalBot/internal/ports"
	"silverSignalBot/internal/server"
	"silverSignalBot/internal/signal"
	"silverSignalBot/internal/trade"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	ctx := context.Background()
	appLogger.Info(ctx, "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize database repository")
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(ctx, err, "Error closing database repository")
		}
	}()
	appLogger.Info(ctx, "Database repository initialized")

	// 4. Select Position Store (SQLite by default, Redis for shared deployments)
	var positions ports.PositionStore = repo
	if cfg.PositionStore == "redis" {
		redisStore, err := redisstore.New(ctx, redisstore.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			Logger:   appLogger,
		})
		if err != nil {
			appLogger.Error(ctx, err, "FATAL: Failed to initialize Redis position store")
			log.Fatalf("FATAL: Failed to initialize Redis position store: %v", err)
		}
		defer func() {
			if err := redisStore.Close(); err != nil {
				appLogger.Error(ctx, err, "Error closing Redis position store")
			}
		}()
		positions = redisStore
	}

	// 5. Select Candle Source (Yahoo by default, Binance for crypto symbols)
	var source ports.CandleSource
	switch cfg.DataSource {
	case "binance":
		source, err = binanceclient.New(binanceclient.Config{
			APIKey:     cfg.BinanceAPIKey,
			SecretKey:  cfg.BinanceSecretKey,
			UseTestnet: cfg.BinanceTestnet,
			Logger:     appLogger,
		})
	default:
		source, err = yahoo.New(yahoo.Config{Logger: appLogger})
	}
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize candle source")
		log.Fatalf("FATAL: Failed to initialize candle source: %v", err)
	}
	appLogger.Info(ctx, "Candle source initialized", map[string]interface{}{"source": cfg.DataSource})

	// 6. Initialize Indicator Engine, Classifier and Trend Reporter
	engine, err := indicator.NewEngine(indicator.DefaultConfig(), appLogger)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize indicator engine")
		log.Fatalf("FATAL: Failed to initialize indicator engine: %v", err)
	}

	classifierCfg := signal.DefaultClassifierConfig()
	classifierCfg.TrendWindow = cfg.TrendWindow
	classifier, err := signal.NewClassifier(classifierCfg, appLogger)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize signal classifier")
		log.Fatalf("FATAL: Failed to initialize signal classifier: %v", err)
	}

	trendCfg := signal.DefaultTrendConfig()
	trendCfg.Window = cfg.TrendWindow
	trendCfg.ThresholdPct = cfg.TrendThresholdPct
	reporter, err := signal.NewTrendReporter(trendCfg, appLogger)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize trend reporter")
		log.Fatalf("FATAL: Failed to initialize trend reporter: %v", err)
	}

	// 7. Initialize Trade Machine (conversation state)
	machine, err := trade.NewMachine(positions, trade.NewParser(trade.DefaultBuyMarker), appLogger)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize trade machine")
		log.Fatalf("FATAL: Failed to initialize trade machine: %v", err)
	}

	// 8. Initialize WhatsApp Client
	messenger, err := whatsapp.New(whatsapp.Config{
		AccessToken:   cfg.WhatsAppToken,
		PhoneNumberID: cfg.PhoneNumberID,
		APIVersion:    cfg.GraphAPIVersion,
		MaxRetries:    2,
		Logger:        appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize WhatsApp client")
		log.Fatalf("FATAL: Failed to initialize WhatsApp client: %v", err)
	}
	appLogger.Info(ctx, "WhatsApp client initialized")

	// 9. Initialize Application Service
	svc, err := app.New(cfg, appLogger, source, repo, engine, classifier, reporter, machine, messenger)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize application service")
		log.Fatalf("FATAL: Failed to initialize application service: %v", err)
	}
	appLogger.Info(ctx, "Application service initialized")

	// 10. Start HTTP Server (webhook, status, metrics)
	srv, err := server.New(server.Config{
		Addr:        cfg.ServerAddr,
		VerifyToken: cfg.WebhookVerifyToken,
		Logger:      appLogger,
	}, svc)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize HTTP server")
		log.Fatalf("FATAL: Failed to initialize HTTP server: %v", err)
	}
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Run()
	}()

	// 11. Schedule the Signal Cycle
	scheduler := cron.New()
	_, err = scheduler.AddFunc("@every "+cfg.CycleInterval.String(), func() {
		cycleCtx, cancel := context.WithTimeout(context.Background(), cfg.CycleInterval)
		defer cancel()
		if err := svc.RunCycle(cycleCtx); err != nil {
			appLogger.Error(cycleCtx, err, "Signal cycle failed")
		}
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to schedule signal cycle")
		log.Fatalf("FATAL: Failed to schedule signal cycle: %v", err)
	}
	scheduler.Start()
	appLogger.Info(ctx, "Signal cycle scheduled", map[string]interface{}{"interval": cfg.CycleInterval.String()})

	// Run the first cycle immediately instead of waiting a full interval.
	go func() {
		cycleCtx, cancel := context.WithTimeout(context.Background(), cfg.CycleInterval)
		defer cancel()
		if err := svc.RunCycle(cycleCtx); err != nil {
			appLogger.Error(cycleCtx, err, "Initial signal cycle failed")
		}
	}()

	// 12. Wait for Shutdown
	quit := make(chan os.Signal, 1)
	ossignal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		appLogger.Info(ctx, "Shutdown signal received", map[string]interface{}{"signal": sig.String()})
	case err := <-serverErr:
		if err != nil {
			appLogger.Error(ctx, err, "HTTP server exited with error")
		}
	}

	stopCtx := scheduler.Stop()
	<-stopCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(ctx, err, "HTTP server shutdown failed")
	}

	appLogger.Info(ctx, "Application finished gracefully.")
}

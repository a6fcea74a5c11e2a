package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"DayTradeBot/config"
	"DayTradeBot/internal/handlers"
	"DayTradeBot/internal/models"
	"DayTradeBot/internal/operations/alerts"
	"DayTradeBot/internal/operations/cycle"
	"DayTradeBot/internal/operations/market"
	"DayTradeBot/internal/operations/position"
	"DayTradeBot/internal/repositories"
	"DayTradeBot/internal/scheduler"
	"DayTradeBot/internal/services/momentum"
	"DayTradeBot/internal/services/portfolio"
	"DayTradeBot/internal/services/risk"
	"DayTradeBot/internal/services/riskguard"

	"github.com/adshao/go-binance/v2"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	// Configuration errors are fatal: a cycle must never run with broken
	// weights or thresholds.
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	db := setupDatabase(cfg.Database, log)

	positionRepo := repositories.NewPositionRepository(db)
	tradeRepo := repositories.NewTradeRepository(db)
	analysisRepo := repositories.NewAnalysisRepository(db)
	priceRepo := repositories.NewPriceRepository(db)

	binanceClient := binance.NewClient(cfg.Exchange.APIKey, cfg.Exchange.SecretKey)
	fetcher := market.NewFetcher(binanceClient, log)

	momentumAnalyzer := momentum.NewAnalyzer(cfg.Momentum)
	riskAnalyzer := risk.NewAnalyzer(cfg.Risk)
	allocator := portfolio.NewAllocator(cfg.Trading)
	guard := riskguard.New(cfg.Limits, cfg.Trading)

	executor := position.NewExecutor(positionRepo, tradeRepo, guard, log)

	runner := cycle.NewRunner(cfg, fetcher, momentumAnalyzer, riskAnalyzer, allocator,
		positionRepo, analysisRepo, executor, log)
	runner.SetGuard(guard)

	notifier := alerts.NewNotifier(cfg.Alerts, log)
	if notifier.Enabled() {
		runner.SetAlerter(notifier)
		log.Info().Msg("alert channels configured")
	}

	sched := scheduler.New(log)
	schedule := fmt.Sprintf("@every %s", cfg.Trading.RebalanceInterval)
	if err := sched.AddJob(schedule, scheduler.NewCycleJob(runner, cfg.Trading.RebalanceInterval)); err != nil {
		log.Fatal().Err(err).Msg("failed to register cycle job")
	}
	sched.Start()

	handler := handlers.NewHandler(cfg, runner, momentumAnalyzer, riskAnalyzer, allocator,
		guard, positionRepo, tradeRepo, priceRepo, fetcher, log)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: handlers.NewRouter(handler),
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Info().Msg("shutting down...")
	sched.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	log.Info().Msg("shutdown complete")
}

func setupDatabase(dbConfig config.DatabaseConfig, log zerolog.Logger) *gorm.DB {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		dbConfig.Host,
		dbConfig.Port,
		dbConfig.User,
		dbConfig.Password,
		dbConfig.DBName)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Error),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	err = db.AutoMigrate(
		&models.Position{},
		&models.Trade{},
		&models.Analysis{},
		&models.Price{},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	return db
}

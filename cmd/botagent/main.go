package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/edgecomet/botagent/internal/common/config"
	"github.com/edgecomet/botagent/internal/common/logger"
	"github.com/edgecomet/botagent/internal/common/metricsserver"
	"github.com/edgecomet/botagent/internal/metrics"
	"github.com/edgecomet/botagent/internal/server"
	"github.com/edgecomet/botagent/pkg/botagent"
)

func main() {
	configPath := flag.String("c", "", "path to configuration file (defaults only when empty)")
	testMode := flag.Bool("t", false, "test configuration and pattern source, then exit")
	sourceOverride := flag.String("p", "", "pattern source: file path or builtin:<Alias>")
	userAgent := flag.String("ua", "", "classify one user agent, print JSON and exit")
	flag.Parse()

	overrides := sourceOverrides(*sourceOverride)

	if *testMode {
		os.Exit(runConfigTest(os.Stdout, os.Stderr, *configPath, overrides...))
	}

	if *userAgent != "" {
		os.Exit(runOneShot(os.Stdout, os.Stderr, *configPath, *userAgent, overrides...))
	}

	initialLogger, err := logger.NewDefaultLogger()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	initialLogger.Info("Starting bot agent", zap.String("config_path", *configPath))

	configManager, err := config.NewConfigManager(*configPath, initialLogger.Logger, overrides...)
	if err != nil {
		initialLogger.Fatal("Failed to create config manager", zap.Error(err))
	}
	cfg := configManager.GetConfig()

	dynamicLogger, err := logger.NewLoggerWithStartupOverride(cfg.Log)
	if err != nil {
		initialLogger.Fatal("Failed to create configured logger", zap.Error(err))
	}
	defer dynamicLogger.Sync()

	appLogger := dynamicLogger.With(zap.String("source", cfg.Patterns.Source))

	var metricsCollector *metrics.MetricsCollector
	if cfg.Metrics.Enabled {
		metricsCollector = metrics.NewMetricsCollector(cfg.Metrics.Namespace, appLogger)
	}
	metricsServer, err := metricsserver.Start(cfg.Metrics, metricsCollector, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to start metrics server", zap.Error(err))
	}

	detector := botagent.Default()

	if *cfg.Patterns.Warmup {
		start := time.Now()
		if _, err := detector.Combined(cfg.Patterns.Source); err != nil {
			appLogger.Fatal("Failed to build combined matcher", zap.Error(err))
		}
		info, _ := detector.Cache().Info()
		appLogger.Info("Combined matcher ready",
			zap.Int("patterns", info.Patterns),
			zap.Uint64("fingerprint", info.Fingerprint),
			zap.Duration("duration", time.Since(start)))
	}
	metricsCollector.UpdateMatcherState(detector.Cache())

	srv := server.NewServer(cfg.Server, detector, cfg.Patterns.Source, metricsCollector, appLogger)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(cfg.Server.Listen); err != nil {
			serverErr <- err
		}
	}()

	dynamicLogger.SwitchToConfiguredLevel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		dynamicLogger.EnsureInfoLevelForShutdown()
		appLogger.Info("Shutdown signal received", zap.String("signal", sig.String()))
	case err := <-serverErr:
		dynamicLogger.EnsureInfoLevelForShutdown()
		appLogger.Error("API server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Warn("Metrics server shutdown failed", zap.Error(err))
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Warn("API server shutdown failed", zap.Error(err))
	}

	appLogger.Info("Bot agent stopped")
}

func sourceOverrides(src string) []func(*config.Config) {
	if src == "" {
		return nil
	}
	return []func(*config.Config){
		func(cfg *config.Config) { cfg.Patterns.Source = src },
	}
}

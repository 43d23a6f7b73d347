package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"entrenos/internal/amqp"
	"entrenos/internal/auth"
	"entrenos/internal/backend"
	"entrenos/internal/config"
	"entrenos/internal/export"
	apphttp "entrenos/internal/http"
	applog "entrenos/internal/log"
	"entrenos/internal/report"
	"entrenos/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	applog.Setup()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	factory := backend.NewFactory(slog.Default())
	result, err := factory.CreateBackend(context.Background(), backend.Config{
		Type:            backend.Type(cfg.DataBackend),
		SQLiteDBPath:    cfg.SQLiteDBPath,
		SupabaseURL:     cfg.SupabaseURL,
		SupabaseAnonKey: cfg.SupabaseAnonKey,
	})
	if err != nil {
		slog.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				slog.Error("Backend cleanup failed", "error", err)
			}
		}()
	}
	slog.Info("Backend initialized", "backend", cfg.DataBackend)

	// Mirroring is a local-backend concern: hosted deployments already
	// hold the authoritative copy.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" && backend.Type(cfg.DataBackend) == backend.Local {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			slog.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		slog.Info("AMQP mirroring enabled", "exchange", cfg.AMQPExchange)
	}

	books := services.NewBookkeeper(result.Backend, amqpClient)
	engine := report.New(result.Backend, result.Backend)

	opts := apphttp.Options{}
	if backend.Type(cfg.DataBackend).RequiresLogin() {
		opts.AuthClient = auth.NewClient(cfg.SupabaseURL, cfg.SupabaseAnonKey)
		slog.Info("Login gate enabled")
	}
	if cfg.SheetsSpreadsheetID != "" {
		exporter, err := export.NewSheetsExporterFromEnv(context.Background(), cfg.SheetsSpreadsheetID, cfg.SheetsSheetName)
		if err != nil {
			slog.Error("Failed to initialize Sheets exporter", "error", err)
			os.Exit(1)
		}
		opts.Sheets = exporter
		slog.Info("Sheets export enabled", "spreadsheet_id", cfg.SheetsSpreadsheetID)
	}

	srv := apphttp.NewServer(":"+cfg.Port, engine, books, result.Backend, opts)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		slog.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	slog.Info("Starting entrenos server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	slog.Info("Server stopped gracefully")
}

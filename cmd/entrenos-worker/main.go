// entrenos-worker consumes mirror events from the local deployment and
// replays them against the hosted backend, keeping the remote copy in
// step without putting the hosted service on the request path.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"entrenos/internal/amqp"
	"entrenos/internal/backend"
	"entrenos/internal/config"
	applog "entrenos/internal/log"
	"entrenos/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	applog.Setup()
	slog.Info("Starting entrenos-worker")

	cfg := config.Load()
	if cfg.AMQPURL == "" {
		slog.Error("AMQP_URL is required for the mirror worker")
		os.Exit(1)
	}
	if cfg.SupabaseURL == "" || cfg.SupabaseAnonKey == "" {
		slog.Error("SUPABASE_URL and SUPABASE_ANON_KEY are required for the mirror worker")
		os.Exit(1)
	}

	// The worker always writes to the hosted backend with the anon key;
	// there is no interactive login on this path.
	factory := backend.NewFactory(slog.Default())
	result, err := factory.CreateBackend(context.Background(), backend.Config{
		Type:            backend.RemoteNoAuth,
		SupabaseURL:     cfg.SupabaseURL,
		SupabaseAnonKey: cfg.SupabaseAnonKey,
	})
	if err != nil {
		slog.Error("Failed to initialize hosted backend", "error", err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		slog.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	mirror := worker.NewMirrorWorker(result.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.Consume(ctx, mirror.HandleEvent)
	})
	g.Go(func() error {
		<-ctx.Done()
		return amqpClient.Close()
	})

	slog.Info("Mirror worker running", "queue", cfg.AMQPQueue)
	if err := g.Wait(); err != nil && err != context.Canceled {
		slog.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Worker stopped gracefully")
}

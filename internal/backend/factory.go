package backend

import (
	"context"
	"fmt"
	"log/slog"

	"entrenos/internal/storage"
	"entrenos/internal/supabase"
)

// DefaultFactory builds the variant named by the config.
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

func (f *DefaultFactory) CreateBackend(_ context.Context, config Config) (*Result, error) {
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}

	switch config.Type {
	case Local:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite repository: %w", err)
		}
		f.logger.Info("Initialized local backend", "db_path", config.SQLiteDBPath)
		return &Result{Backend: repo, Cleanup: repo.Close}, nil

	case Remote, RemoteNoAuth:
		if config.SupabaseURL == "" || config.SupabaseAnonKey == "" {
			return nil, fmt.Errorf("backend %s needs SUPABASE_URL and SUPABASE_ANON_KEY", config.Type)
		}
		cli := supabase.NewClient(config.SupabaseURL, config.SupabaseAnonKey, config.Type.RequiresLogin())
		f.logger.Info("Initialized hosted backend",
			"url", config.SupabaseURL,
			"auth_context", config.Type.RequiresLogin())
		return &Result{Backend: cli, Cleanup: nil}, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

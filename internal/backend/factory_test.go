package backend

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestCreateBackend_Local(t *testing.T) {
	f := NewFactory(nil)
	result, err := f.CreateBackend(context.Background(), Config{
		Type:         Local,
		SQLiteDBPath: filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	if result.Cleanup == nil {
		t.Fatalf("local backend has no cleanup")
	}
	defer result.Cleanup()

	// The backend is usable straight away.
	id, err := result.Backend.Add(context.Background(), "Ana",
		time.Date(2025, 3, 10, 10, 0, 0, 0, time.Local), 100)
	if err != nil {
		t.Fatalf("Add through factory-built backend: %v", err)
	}
	if id == 0 {
		t.Fatalf("id = 0")
	}
}

func TestCreateBackend_Remote(t *testing.T) {
	f := NewFactory(nil)
	result, err := f.CreateBackend(context.Background(), Config{
		Type:            Remote,
		SupabaseURL:     "https://project.supabase.co",
		SupabaseAnonKey: "anon-key",
	})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	if result.Cleanup != nil {
		t.Fatalf("hosted backend should not need cleanup")
	}
}

func TestCreateBackend_RemoteMissingConfig(t *testing.T) {
	f := NewFactory(nil)
	if _, err := f.CreateBackend(context.Background(), Config{Type: Remote}); err == nil {
		t.Fatalf("missing supabase config accepted")
	}
}

func TestCreateBackend_InvalidType(t *testing.T) {
	f := NewFactory(nil)
	if _, err := f.CreateBackend(context.Background(), Config{Type: "postgres"}); err == nil {
		t.Fatalf("invalid type accepted")
	}
}

func TestTypeFlags(t *testing.T) {
	tests := []struct {
		t            Type
		valid, login bool
	}{
		{Local, true, false},
		{Remote, true, true},
		{RemoteNoAuth, true, false},
		{Type("postgres"), false, false},
	}
	for _, tt := range tests {
		if got := tt.t.IsValid(); got != tt.valid {
			t.Fatalf("%s.IsValid() = %v, want %v", tt.t, got, tt.valid)
		}
		if got := tt.t.RequiresLogin(); got != tt.login {
			t.Fatalf("%s.RequiresLogin() = %v, want %v", tt.t, got, tt.login)
		}
	}
}

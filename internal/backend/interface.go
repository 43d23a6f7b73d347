package backend

import (
	"context"

	"entrenos/internal/store"
)

// Backend bundles the two storage ports a deployment variant must provide.
type Backend interface {
	store.SessionStore
	store.PaymentLedger
}

// CleanupFunc releases backend resources at shutdown.
type CleanupFunc func() error

// Result carries the backend instance and its optional cleanup.
type Result struct {
	Backend Backend
	Cleanup CleanupFunc
}

// Factory creates backends from configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds what each variant needs to come up.
type Config struct {
	Type Type

	// Local embedded variant
	SQLiteDBPath string

	// Hosted variants
	SupabaseURL     string
	SupabaseAnonKey string
}

// Type selects one of the three deployment variants.
type Type string

const (
	// Local is the embedded file database.
	Local Type = "local"
	// Remote is the hosted backend with per-request auth context.
	Remote Type = "remote"
	// RemoteNoAuth is the hosted backend using the anon key only.
	RemoteNoAuth Type = "remote-noauth"
)

func (t Type) String() string { return string(t) }

// IsValid reports whether the type names a known variant.
func (t Type) IsValid() bool {
	switch t {
	case Local, Remote, RemoteNoAuth:
		return true
	default:
		return false
	}
}

// RequiresLogin reports whether this variant gates the UI behind the OTP
// login flow.
func (t Type) RequiresLogin() bool { return t == Remote }

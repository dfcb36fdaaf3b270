// Package secrets encrypts provider credentials at rest and resolves them at
// startup, preferring environment variables over vault entries.
package secrets

import (
	"context"
	"os"
)

// Vault stores provider credentials encrypted at rest (AES-256-GCM) and
// resolves them in-memory only.
type Vault interface {
	Resolve(ctx context.Context, key string) ([]byte, error)
	Store(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]string, error)
}

// SecretStore is the minimal persistence interface needed by the vault.
// Satisfied by store.Store.
type SecretStore interface {
	StoreSecret(ctx context.Context, key string, value []byte) error
	GetSecret(ctx context.Context, key string) ([]byte, error)
	DeleteSecret(ctx context.Context, key string) error
	ListSecrets(ctx context.Context) ([]string, error)
}

// Credentials resolves one provider credential per lookup: the environment
// variable wins, the vault entry is the fallback, and a missing credential
// resolves to the empty string so the provider reports it as unconfigured.
type Credentials struct {
	vault Vault
}

// NewCredentials creates a resolver backed by the given vault. A nil vault
// restricts resolution to the environment.
func NewCredentials(v Vault) *Credentials {
	return &Credentials{vault: v}
}

// Lookup resolves envVar first, then vaultKey.
func (c *Credentials) Lookup(ctx context.Context, envVar, vaultKey string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	if c.vault == nil || vaultKey == "" {
		return ""
	}
	value, err := c.vault.Resolve(ctx, vaultKey)
	if err != nil {
		return ""
	}
	return string(value)
}

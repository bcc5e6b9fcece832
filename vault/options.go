package vault

import (
	"log/slog"

	"github.com/awnumar/memguard"
	"github.com/jmcleod/confidant/archive"
	"github.com/jmcleod/confidant/internal/util"
	"github.com/jmcleod/confidant/storage"
)

// VaultOption configures a Vault.
type VaultOption func(*Vault)

// WithLogger sets the logger for lifecycle events. Secrets are never logged.
func WithLogger(logger *slog.Logger) VaultOption {
	return func(v *Vault) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithStore replaces the directory-backed artifact store.
func WithStore(store storage.Store) VaultOption {
	return func(v *Vault) {
		v.store = store
	}
}

// WithArchiver sets the archiver used to compress and restore payloads.
// Default: archive.Zip.
func WithArchiver(a archive.Archiver) VaultOption {
	return func(v *Vault) {
		v.archiver = a
	}
}

// WithAppSecrets sets the application key and canary phrase. Every vault
// created with one pair is unreadable with any other, so both must stay
// stable across builds.
func WithAppSecrets(appKey []byte, canaryPhrase string) VaultOption {
	return func(v *Vault) {
		v.appKey = nil
		if len(appKey) > 0 {
			v.appKey = memguard.NewEnclave(util.CopyBytes(appKey))
		}
		v.canary = canaryPhrase
	}
}

// WithIterationRange sets the range [lo, hi) from which the per-vault
// PBKDF2 iteration count is drawn at initialization.
func WithIterationRange(lo, hi int) VaultOption {
	return func(v *Vault) {
		v.minIterations = lo
		v.maxIterations = hi
	}
}

// WithPhraseGenerator overrides the recovery phrase source.
func WithPhraseGenerator(gen func() (string, error)) VaultOption {
	return func(v *Vault) {
		if gen != nil {
			v.newPhrase = gen
		}
	}
}

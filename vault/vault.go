package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/awnumar/memguard"
	"github.com/jmcleod/confidant/archive"
	"github.com/jmcleod/confidant/crypto"
	icrypto "github.com/jmcleod/confidant/internal/crypto"
	"github.com/jmcleod/confidant/internal/util"
	"github.com/jmcleod/confidant/internal/uuid"
	"github.com/jmcleod/confidant/storage"
	"github.com/jmcleod/confidant/storage/disk"
)

// Vault manages the vaults kept in one working directory. Payload
// directories live directly under the root; artifacts go to the store,
// which defaults to the root as well. The recovery and ignore files are
// always written to the root.
type Vault struct {
	root          string
	store         storage.Store
	files         *disk.Store
	archiver      archive.Archiver
	logger        *slog.Logger
	appKey        *memguard.Enclave
	canary        string
	minIterations int
	maxIterations int
	newPhrase     func() (string, error)
}

// New creates a Vault handle for the working directory root. The
// application secrets must be supplied with WithAppSecrets.
func New(root string, opts ...VaultOption) (*Vault, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrDirectoryNotFound, abs)
	}

	v := &Vault{
		root:          abs,
		archiver:      archive.Zip{},
		logger:        slog.New(slog.DiscardHandler),
		minIterations: DefaultMinIterations,
		maxIterations: DefaultMaxIterations,
		newPhrase:     crypto.NewRecoveryPhrase,
	}
	for _, opt := range opts {
		opt(v)
	}

	files, err := disk.NewStore(abs)
	if err != nil {
		return nil, err
	}
	v.files = files
	if v.store == nil {
		v.store = files
	}
	if v.archiver == nil {
		return nil, fmt.Errorf("archiver must not be nil")
	}
	if v.appKey == nil || v.appKey.Size() < crypto.MinAppKeyLength {
		return nil, fmt.Errorf("application key must be at least %d bytes", crypto.MinAppKeyLength)
	}
	if v.canary == "" {
		return nil, fmt.Errorf("canary phrase must not be empty")
	}
	if v.minIterations < 1 || v.maxIterations <= v.minIterations {
		return nil, fmt.Errorf("invalid iteration range [%d, %d)", v.minIterations, v.maxIterations)
	}
	return v, nil
}

// Root returns the absolute working directory.
func (v *Vault) Root() string {
	return v.root
}

// PayloadDir returns the path the vault's payload is extracted to.
func (v *Vault) PayloadDir(id string) string {
	return filepath.Join(v.root, id)
}

// Initialize seals the directory dir (a direct child of the root) into a
// new vault named after it, removes the plaintext directory and returns
// the recovery phrase. The phrase is also written to the recovery file.
func (v *Vault) Initialize(ctx context.Context, password, dir string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := validateCredential(password, "password"); err != nil {
		return "", err
	}
	id := filepath.Clean(dir)
	if filepath.IsAbs(id) {
		rel, err := filepath.Rel(v.root, id)
		if err != nil {
			return "", validationErrorf("directory %q is not inside %s", dir, v.root)
		}
		id = rel
	}
	if err := validateID(id, "directory"); err != nil {
		return "", err
	}
	payloadPath := v.PayloadDir(id)
	if info, err := os.Stat(payloadPath); err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrDirectoryNotFound, dir)
	}
	for _, name := range []string{containerName(id), keyFileName(id), markerName(id)} {
		ok, err := v.store.Exists(name)
		if err != nil {
			return "", err
		}
		if ok {
			return "", fmt.Errorf("%w: %s", ErrVaultAlreadyExists, name)
		}
	}

	instanceID := uuid.New()

	containerKP, err := util.GenerateX25519Keypair()
	if err != nil {
		return "", err
	}
	defer util.WipeArray32(&containerKP.Private)
	archiveKP, err := util.GenerateX25519Keypair()
	if err != nil {
		return "", err
	}
	defer util.WipeArray32(&archiveKP.Private)

	salt, err := util.RandomBytes(icrypto.ArchiveSaltSize)
	if err != nil {
		return "", err
	}
	iterations, err := util.RandomIntRange(v.minIterations, v.maxIterations)
	if err != nil {
		return "", err
	}
	archiveKey, err := icrypto.DeriveArchiveKey(containerKP.Private[:], archiveKP.Public[:], salt, iterations)
	if err != nil {
		return "", err
	}
	defer util.WipeBytes(archiveKey)

	zipped, err := v.archiver.Compress(ctx, v.root, id)
	if err != nil {
		return "", err
	}
	sealedArchive, err := icrypto.SealArchive(zipped, archiveKey, icrypto.AADArchive(instanceID, configVersion))
	util.WipeBytes(zipped)
	if err != nil {
		return "", err
	}

	authSecret, err := icrypto.NewAuthSecret()
	if err != nil {
		return "", err
	}
	defer util.WipeBytes(authSecret)
	confSalt, err := util.RandomBytes(icrypto.ConfSaltSize)
	if err != nil {
		return "", err
	}
	phrase, err := v.newPhrase()
	if err != nil {
		return "", err
	}

	cfg := &Config{
		Ver:                configVersion,
		InstanceID:         instanceID,
		Dir:                id,
		ContainerPublicKey: util.CopyBytes(containerKP.Public[:]),
		ConfSalt:           confSalt,
		KeyFile:            keyFileName(id),
		CreatedAt:          time.Now().UTC(),
	}
	if err := v.wrapCredentials(cfg, authSecret, password, phrase); err != nil {
		return "", err
	}

	kf := &icrypto.KeyFile{
		PrivateKey: util.CopyBytes(archiveKP.Private[:]),
		Salt:       salt,
		Iterations: iterations,
	}
	defer kf.Wipe()
	sealedKeyFile, err := icrypto.SealKeyFile(kf, authSecret, confSalt, icrypto.AADKeyFile(instanceID, configVersion))
	if err != nil {
		return "", err
	}
	container, err := encodeContainer(cfg, sealedArchive)
	if err != nil {
		return "", err
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := v.store.Put(cfg.KeyFile, sealedKeyFile); err != nil {
		return "", fmt.Errorf("writing key-file: %w", err)
	}
	if err := v.store.Put(containerName(id), container); err != nil {
		_ = v.store.Delete(cfg.KeyFile)
		return "", fmt.Errorf("writing container: %w", err)
	}
	if err := v.files.Put(recoveryName(id), recoveryFileContents(id, phrase)); err != nil {
		return phrase, fmt.Errorf("writing recovery file: %w", err)
	}
	if err := v.mergeIgnoreFile(id); err != nil {
		v.logger.Warn("could not update ignore file", "vault", id, "error", err)
	}
	if err := os.RemoveAll(payloadPath); err != nil {
		return phrase, fmt.Errorf("removing plaintext directory: %w", err)
	}

	v.logger.Info("vault initialized", "vault", id, "instance", instanceID)
	return phrase, nil
}

// Unlock restores the payload directory of vault id and records the
// unlocked state in the unlock marker. A wrong password fails with
// ErrIncorrectPassword before anything is written.
func (v *Vault) Unlock(ctx context.Context, password, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateID(id, "vault ID"); err != nil {
		return err
	}
	if err := validateCredential(password, "password"); err != nil {
		return err
	}
	if err := v.requireLocked(id); err != nil {
		return err
	}

	cfg, payload, err := v.loadContainer(id)
	if err != nil {
		return err
	}
	if err := validateID(cfg.Dir, "payload directory"); err != nil {
		return v.corrupt(id, err)
	}
	payloadPath := v.PayloadDir(cfg.Dir)
	if _, err := os.Lstat(payloadPath); err == nil {
		return fmt.Errorf("%w: %s", ErrPayloadExists, cfg.Dir)
	}

	secret, err := v.openAuthSecret(id, cfg, password, icrypto.PathPassword)
	if err != nil {
		return err
	}
	archiveKey, err := v.recoverArchiveKey(id, cfg, secret)
	if err != nil {
		return err
	}
	keyBuf, err := archiveKey.Open()
	if err != nil {
		return fmt.Errorf("opening archive key enclave: %w", err)
	}
	defer keyBuf.Destroy()

	zipped, err := icrypto.OpenArchive(payload, keyBuf.Bytes(), icrypto.AADArchive(cfg.InstanceID, cfg.Ver))
	if err != nil {
		return v.corrupt(id, err)
	}
	defer util.WipeBytes(zipped)

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := v.archiver.Decompress(ctx, zipped, v.root); err != nil {
		_ = os.RemoveAll(payloadPath)
		return err
	}

	if err := v.writeMarker(cfg, &icrypto.Marker{Dir: cfg.Dir, ArchiveKey: keyBuf.Bytes()}, id); err != nil {
		_ = os.RemoveAll(payloadPath)
		return err
	}

	v.logger.Info("vault unlocked", "vault", id, "dir", cfg.Dir)
	return nil
}

// Lock re-seals the payload directory recorded in the unlock marker,
// splices the new ciphertext into the container and removes the marker
// and the plaintext directory.
func (v *Vault) Lock(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateID(id, "vault ID"); err != nil {
		return err
	}

	sealedMarker, err := v.store.Get(markerName(id))
	if errors.Is(err, storage.ErrNotFound) {
		if ok, _ := v.store.Exists(containerName(id)); !ok {
			return fmt.Errorf("%w: %s", ErrVaultNotFound, id)
		}
		return fmt.Errorf("%w: %s", ErrNotUnlocked, id)
	}
	if err != nil {
		return err
	}

	raw, err := v.store.Get(containerName(id))
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrVaultNotFound, id)
	}
	if err != nil {
		return err
	}
	cfg, _, err := splitContainer(raw)
	if err != nil {
		return v.corrupt(id, err)
	}

	var marker *icrypto.Marker
	err = v.withAppKey(func(appKey []byte) error {
		var err error
		marker, err = icrypto.OpenMarker(sealedMarker, appKey, icrypto.AADMarker(cfg.InstanceID, cfg.Ver))
		return err
	})
	if err != nil {
		return v.corrupt(id, err)
	}
	defer util.WipeBytes(marker.ArchiveKey)
	if err := validateID(marker.Dir, "payload directory"); err != nil {
		return v.corrupt(id, err)
	}

	payloadPath := v.PayloadDir(marker.Dir)
	if info, err := os.Stat(payloadPath); err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrDirectoryNotFound, marker.Dir)
	}

	zipped, err := v.archiver.Compress(ctx, v.root, marker.Dir)
	if err != nil {
		return err
	}
	sealedArchive, err := icrypto.SealArchive(zipped, marker.ArchiveKey, icrypto.AADArchive(cfg.InstanceID, cfg.Ver))
	util.WipeBytes(zipped)
	if err != nil {
		return err
	}
	updated, err := spliceContainer(raw, sealedArchive)
	if err != nil {
		return v.corrupt(id, err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := v.store.Put(containerName(id), updated); err != nil {
		return fmt.Errorf("writing container: %w", err)
	}
	if err := v.store.Delete(markerName(id)); err != nil {
		return fmt.Errorf("removing unlock marker: %w", err)
	}
	if err := os.RemoveAll(payloadPath); err != nil {
		return fmt.Errorf("removing plaintext directory: %w", err)
	}

	v.logger.Info("vault locked", "vault", id)
	return nil
}

// Reset replaces the password of a locked vault. The recovery phrase
// unwraps the AuthSecret, which is re-wrapped under newPassword and a
// fresh recovery phrase. The old phrase and password stop working.
func (v *Vault) Reset(ctx context.Context, recoveryPhrase, id, newPassword string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := validateID(id, "vault ID"); err != nil {
		return "", err
	}
	if err := validateCredential(recoveryPhrase, "recovery phrase"); err != nil {
		return "", err
	}
	if err := validateCredential(newPassword, "new password"); err != nil {
		return "", err
	}
	if err := v.requireLocked(id); err != nil {
		return "", err
	}

	cfg, payload, err := v.loadContainer(id)
	if err != nil {
		return "", err
	}
	secret, err := v.openAuthSecret(id, cfg, crypto.NormalizeRecoveryPhrase(recoveryPhrase), icrypto.PathRecovery)
	if err != nil {
		return "", err
	}
	// The key-file must open before the old wrappings are discarded.
	kf, err := v.openKeyFile(id, cfg, secret)
	if err != nil {
		return "", err
	}
	kf.Wipe()

	phrase, err := v.newPhrase()
	if err != nil {
		return "", err
	}
	secretBuf, err := secret.Open()
	if err != nil {
		return "", fmt.Errorf("opening auth secret enclave: %w", err)
	}
	err = v.wrapCredentials(cfg, secretBuf.Bytes(), newPassword, phrase)
	secretBuf.Destroy()
	if err != nil {
		return "", err
	}
	cfg.ResetAt = time.Now().UTC()

	container, err := encodeContainer(cfg, payload)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := v.store.Put(containerName(id), container); err != nil {
		return "", fmt.Errorf("writing container: %w", err)
	}
	if err := v.files.Put(recoveryName(id), recoveryFileContents(id, phrase)); err != nil {
		return phrase, fmt.Errorf("writing recovery file: %w", err)
	}

	v.logger.Info("vault password reset", "vault", id)
	return phrase, nil
}

// Status reports whether vault id is absent, locked or unlocked.
func (v *Vault) Status(id string) (State, error) {
	if err := validateID(id, "vault ID"); err != nil {
		return StateAbsent, err
	}
	ok, err := v.store.Exists(markerName(id))
	if err != nil {
		return StateAbsent, err
	}
	if ok {
		return StateUnlocked, nil
	}
	ok, err = v.store.Exists(containerName(id))
	if err != nil {
		return StateAbsent, err
	}
	if ok {
		return StateLocked, nil
	}
	return StateAbsent, nil
}

// List returns the names of the vaults in the working directory, sorted.
func (v *Vault) List() ([]string, error) {
	names, err := v.store.List(containerSuffix)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(names))
	for _, name := range names {
		id := strings.TrimSuffix(name, containerSuffix)
		if validateID(id, "vault ID") != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (v *Vault) requireLocked(id string) error {
	state, err := v.Status(id)
	if err != nil {
		return err
	}
	switch state {
	case StateAbsent:
		return fmt.Errorf("%w: %s", ErrVaultNotFound, id)
	case StateUnlocked:
		return fmt.Errorf("%w: %s", ErrAlreadyUnlocked, id)
	}
	return nil
}

func (v *Vault) loadContainer(id string) (*Config, []byte, error) {
	raw, err := v.store.Get(containerName(id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: %s", ErrVaultNotFound, id)
	}
	if err != nil {
		return nil, nil, err
	}
	cfg, payload, err := splitContainer(raw)
	if err != nil {
		return nil, nil, v.corrupt(id, err)
	}
	return cfg, payload, nil
}

// corrupt collapses a failure past the canary check into ErrVaultCorrupt.
// The cause is logged at debug level only.
func (v *Vault) corrupt(id string, cause error) error {
	v.logger.Debug("vault operation failed", "vault", id, "cause", cause)
	return ErrVaultCorrupt
}

func (v *Vault) withAppKey(fn func(appKey []byte) error) error {
	buf, err := v.appKey.Open()
	if err != nil {
		return fmt.Errorf("opening app key enclave: %w", err)
	}
	defer buf.Destroy()
	return fn(buf.Bytes())
}

// wrapCredentials sets both wrapped copies of authSecret and both canaries
// on cfg.
func (v *Vault) wrapCredentials(cfg *Config, authSecret []byte, password, phrase string) error {
	return v.withAppKey(func(appKey []byte) error {
		pwKey := crypto.AuthKey(password, appKey)
		recKey := crypto.AuthKey(crypto.NormalizeRecoveryPhrase(phrase), appKey)

		keyStore, err := icrypto.WrapAuthSecret(authSecret, pwKey,
			icrypto.AADAuthSecret(cfg.InstanceID, icrypto.PathPassword, cfg.Ver))
		if err != nil {
			return err
		}
		recoveryStore, err := icrypto.WrapAuthSecret(authSecret, recKey,
			icrypto.AADAuthSecret(cfg.InstanceID, icrypto.PathRecovery, cfg.Ver))
		if err != nil {
			return err
		}
		phraseStore, err := crypto.MakeCanary(pwKey, v.canary,
			icrypto.AADCanary(cfg.InstanceID, icrypto.PathPassword, cfg.Ver))
		if err != nil {
			return err
		}
		recPhraseStore, err := crypto.MakeCanary(recKey, v.canary,
			icrypto.AADCanary(cfg.InstanceID, icrypto.PathRecovery, cfg.Ver))
		if err != nil {
			return err
		}

		cfg.KeyStore = keyStore
		cfg.RecoveryStore = recoveryStore
		cfg.PhraseStore = phraseStore
		cfg.RecPhraseStore = recPhraseStore
		return nil
	})
}

// openAuthSecret checks credential against the canary of path and unwraps
// the AuthSecret. A failed canary check is a credential error; anything
// after it is ErrVaultCorrupt.
func (v *Vault) openAuthSecret(id string, cfg *Config, credential string, path icrypto.CredentialPath) (*memguard.Enclave, error) {
	canary, wrapped, credErr := cfg.PhraseStore, cfg.KeyStore, ErrIncorrectPassword
	if path == icrypto.PathRecovery {
		canary, wrapped, credErr = cfg.RecPhraseStore, cfg.RecoveryStore, ErrIncorrectRecoveryPhrase
	}

	var secret []byte
	err := v.withAppKey(func(appKey []byte) error {
		authKey := crypto.AuthKey(credential, appKey)
		if !crypto.VerifyCanary(authKey, canary, v.canary, icrypto.AADCanary(cfg.InstanceID, path, cfg.Ver)) {
			return credErr
		}
		var err error
		secret, err = icrypto.UnwrapAuthSecret(authKey, wrapped, icrypto.AADAuthSecret(cfg.InstanceID, path, cfg.Ver))
		if err != nil {
			return v.corrupt(id, err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrIncorrectCredential) {
			v.logger.Info("credential rejected", "vault", id, "path", string(path))
		}
		return nil, err
	}
	// NewEnclave wipes secret.
	return memguard.NewEnclave(secret), nil
}

func (v *Vault) openKeyFile(id string, cfg *Config, secret *memguard.Enclave) (*icrypto.KeyFile, error) {
	if err := storage.ValidateName(cfg.KeyFile); err != nil {
		return nil, v.corrupt(id, err)
	}
	sealed, err := v.store.Get(cfg.KeyFile)
	if err != nil {
		return nil, v.corrupt(id, err)
	}
	buf, err := secret.Open()
	if err != nil {
		return nil, fmt.Errorf("opening auth secret enclave: %w", err)
	}
	defer buf.Destroy()

	kf, err := icrypto.OpenKeyFile(sealed, buf.Bytes(), cfg.ConfSalt, icrypto.AADKeyFile(cfg.InstanceID, cfg.Ver))
	if err != nil {
		return nil, v.corrupt(id, err)
	}
	return kf, nil
}

// recoverArchiveKey unwraps the key-file and reconstructs the archive key
// from the archive private key and the container public key.
func (v *Vault) recoverArchiveKey(id string, cfg *Config, secret *memguard.Enclave) (*memguard.Enclave, error) {
	kf, err := v.openKeyFile(id, cfg, secret)
	if err != nil {
		return nil, err
	}
	defer kf.Wipe()

	key, err := icrypto.DeriveArchiveKey(kf.PrivateKey, cfg.ContainerPublicKey, kf.Salt, kf.Iterations)
	if err != nil {
		return nil, v.corrupt(id, err)
	}
	return memguard.NewEnclave(key), nil
}

func (v *Vault) writeMarker(cfg *Config, m *icrypto.Marker, id string) error {
	var sealed []byte
	err := v.withAppKey(func(appKey []byte) error {
		var err error
		sealed, err = icrypto.SealMarker(m, appKey, icrypto.AADMarker(cfg.InstanceID, cfg.Ver))
		return err
	})
	if err != nil {
		return err
	}
	if err := v.store.Put(markerName(id), sealed); err != nil {
		return fmt.Errorf("writing unlock marker: %w", err)
	}
	return nil
}

// VerifyRecoveryPhrase checks a recovery phrase against vault id without
// unwrapping anything, so a caller can reject it before asking for a new
// password.
func (v *Vault) VerifyRecoveryPhrase(recoveryPhrase, id string) error {
	if err := validateID(id, "vault ID"); err != nil {
		return err
	}
	if err := validateCredential(recoveryPhrase, "recovery phrase"); err != nil {
		return err
	}
	cfg, _, err := v.loadContainer(id)
	if err != nil {
		return err
	}
	return v.withAppKey(func(appKey []byte) error {
		authKey := crypto.AuthKey(crypto.NormalizeRecoveryPhrase(recoveryPhrase), appKey)
		aad := icrypto.AADCanary(cfg.InstanceID, icrypto.PathRecovery, cfg.Ver)
		if !crypto.VerifyCanary(authKey, cfg.RecPhraseStore, v.canary, aad) {
			return ErrIncorrectRecoveryPhrase
		}
		return nil
	})
}

// Package icrypto implements the key-wrap chain of a vault: the AuthSecret
// wrapped under each credential, the key-file wrapped under the AuthSecret,
// the archive key reconstructed from the two identity keypairs, and the
// unlock marker.
package icrypto

import (
	"encoding/json"
	"fmt"

	"github.com/jmcleod/confidant/internal/util"
	"github.com/jmcleod/confidant/storage"
)

const (
	AuthSecretSize  = 32
	ConfSaltSize    = 64
	ArchiveSaltSize = 32
)

// KeyFile is the archive-identity material persisted in the key-file.
type KeyFile struct {
	PrivateKey []byte `json:"private_key"`
	Salt       []byte `json:"salt"`
	Iterations int    `json:"iterations"`
}

// Wipe zeroes the private key and salt.
func (k *KeyFile) Wipe() {
	if k == nil {
		return
	}
	util.WipeBytes(k.PrivateKey)
	util.WipeBytes(k.Salt)
	k.Iterations = 0
}

func (k *KeyFile) validate() error {
	if len(k.PrivateKey) != 32 {
		return fmt.Errorf("key-file private key has %d bytes", len(k.PrivateKey))
	}
	if len(k.Salt) == 0 {
		return fmt.Errorf("key-file salt is empty")
	}
	if k.Iterations < 1 {
		return fmt.Errorf("key-file iteration count %d", k.Iterations)
	}
	return nil
}

// Marker is the content of the unlock marker: the payload directory name
// and the archive key needed to lock it again.
type Marker struct {
	Dir        string `json:"dir"`
	ArchiveKey []byte `json:"archive_key"`
}

// NewAuthSecret generates the random root of password-based access.
func NewAuthSecret() ([]byte, error) {
	return util.RandomBytes(AuthSecretSize)
}

// WrapAuthSecret seals authSecret under a credential's auth key.
func WrapAuthSecret(authSecret []byte, authKey string, aad []byte) (*storage.Envelope, error) {
	if len(authSecret) != AuthSecretSize {
		return nil, fmt.Errorf("auth secret must be %d bytes, got %d", AuthSecretSize, len(authSecret))
	}
	return storage.SealRecord([]byte(authKey), authSecret, aad)
}

// UnwrapAuthSecret opens a wrapped AuthSecret. Callers verify the canary first.
func UnwrapAuthSecret(authKey string, wrapped *storage.Envelope, aad []byte) ([]byte, error) {
	secret, err := storage.OpenRecord([]byte(authKey), wrapped, aad)
	if err != nil {
		return nil, fmt.Errorf("unwrapping auth secret: %w", err)
	}
	if len(secret) != AuthSecretSize {
		util.WipeBytes(secret)
		return nil, fmt.Errorf("unwrapped auth secret has %d bytes", len(secret))
	}
	return secret, nil
}

// keyFileKey computes D_keyfile = HMAC(AuthSecret, confsalt).
func keyFileKey(authSecret, confSalt []byte) ([]byte, error) {
	if len(authSecret) != AuthSecretSize {
		return nil, fmt.Errorf("auth secret must be %d bytes, got %d", AuthSecretSize, len(authSecret))
	}
	if len(confSalt) == 0 {
		return nil, fmt.Errorf("confsalt must not be empty")
	}
	return util.HMACSHA256(authSecret, confSalt), nil
}

// SealKeyFile serialises and encrypts kf under HMAC(authSecret, confSalt).
func SealKeyFile(kf *KeyFile, authSecret, confSalt, aad []byte) ([]byte, error) {
	if err := kf.validate(); err != nil {
		return nil, err
	}
	key, err := keyFileKey(authSecret, confSalt)
	if err != nil {
		return nil, err
	}
	defer util.WipeBytes(key)

	plain, err := json.Marshal(kf)
	if err != nil {
		return nil, fmt.Errorf("marshaling key-file: %w", err)
	}
	defer util.WipeBytes(plain)

	return sealBinary(key, plain, aad)
}

// OpenKeyFile decrypts and parses a key-file.
func OpenKeyFile(data, authSecret, confSalt, aad []byte) (*KeyFile, error) {
	key, err := keyFileKey(authSecret, confSalt)
	if err != nil {
		return nil, err
	}
	defer util.WipeBytes(key)

	plain, err := openBinary(key, data, aad)
	if err != nil {
		return nil, fmt.Errorf("opening key-file: %w", err)
	}
	defer util.WipeBytes(plain)

	var kf KeyFile
	if err := json.Unmarshal(plain, &kf); err != nil {
		return nil, fmt.Errorf("parsing key-file: %w", err)
	}
	if err := kf.validate(); err != nil {
		kf.Wipe()
		return nil, err
	}
	return &kf, nil
}

// DeriveArchiveKey reconstructs the archive key:
// PBKDF2(X25519(priv, pub), salt, iterations, 64). Either identity may
// supply the private half.
func DeriveArchiveKey(priv, pub, salt []byte, iterations int) ([]byte, error) {
	shared, err := util.SharedSecret(priv, pub)
	if err != nil {
		return nil, err
	}
	defer util.WipeArray32(&shared)
	return util.Stretch(shared[:], salt, iterations)
}

// SealArchive encrypts the compressed payload under the archive key.
func SealArchive(archive, archiveKey, aad []byte) ([]byte, error) {
	return sealBinary(archiveKey, archive, aad)
}

// OpenArchive decrypts the payload region of a container.
func OpenArchive(data, archiveKey, aad []byte) ([]byte, error) {
	archive, err := openBinary(archiveKey, data, aad)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	return archive, nil
}

// SealMarker encrypts the unlock marker under the application key.
func SealMarker(m *Marker, appKey, aad []byte) ([]byte, error) {
	if m.Dir == "" || len(m.ArchiveKey) == 0 {
		return nil, fmt.Errorf("unlock marker requires a directory and an archive key")
	}
	plain, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshaling unlock marker: %w", err)
	}
	defer util.WipeBytes(plain)
	return sealBinary(appKey, plain, aad)
}

// OpenMarker decrypts an unlock marker.
func OpenMarker(data, appKey, aad []byte) (*Marker, error) {
	plain, err := openBinary(appKey, data, aad)
	if err != nil {
		return nil, fmt.Errorf("opening unlock marker: %w", err)
	}
	defer util.WipeBytes(plain)

	var m Marker
	if err := json.Unmarshal(plain, &m); err != nil {
		return nil, fmt.Errorf("parsing unlock marker: %w", err)
	}
	if m.Dir == "" || len(m.ArchiveKey) == 0 {
		return nil, fmt.Errorf("unlock marker is incomplete")
	}
	return &m, nil
}

func sealBinary(key, plain, aad []byte) ([]byte, error) {
	env, err := storage.SealRecord(key, plain, aad)
	if err != nil {
		return nil, err
	}
	return env.MarshalBinary()
}

func openBinary(key, data, aad []byte) ([]byte, error) {
	var env storage.Envelope
	if err := env.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return storage.OpenRecord(key, &env, aad)
}

package storage

import (
	"fmt"

	"github.com/jmcleod/confidant/internal/util"
)

const (
	envelopeVersion = 1
	envelopeScheme  = "hkdf-sha256+aes256gcm"
	envelopeSaltLen = 16
	envelopeInfo    = "confidant:envelope:v1"
)

// ErrDecryptionFailed is returned by OpenRecord for a wrong key, a
// tampered envelope or malformed input alike.
var ErrDecryptionFailed = util.ErrDecryptionFailed

// Envelope is a sealed record. The AES-256-GCM key is derived from the
// caller's key material and a per-envelope salt, so key material of any
// length (a Base64 auth key, a 64-byte archive key) can seal records.
type Envelope struct {
	Ver        int    `json:"ver"`
	Scheme     string `json:"scheme"`
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

func envelopeKey(keyMaterial, salt []byte) ([]byte, error) {
	if len(keyMaterial) == 0 {
		return nil, fmt.Errorf("envelope key material must not be empty")
	}
	return util.HKDF(keyMaterial, salt, []byte(envelopeInfo))
}

// SealRecord encrypts plaintext into an Envelope bound to aad.
func SealRecord(keyMaterial, plaintext, aad []byte) (*Envelope, error) {
	salt, err := util.RandomBytes(envelopeSaltLen)
	if err != nil {
		return nil, err
	}
	key, err := envelopeKey(keyMaterial, salt)
	if err != nil {
		return nil, err
	}
	defer util.WipeBytes(key)

	sealed, err := util.EncryptAESWithAAD(plaintext, key, aad)
	if err != nil {
		return nil, err
	}

	// util.EncryptAESWithAAD returns nonce || ciphertext.
	return &Envelope{
		Ver:        envelopeVersion,
		Scheme:     envelopeScheme,
		Salt:       salt,
		Nonce:      sealed[:util.GCMNonceSize],
		Ciphertext: sealed[util.GCMNonceSize:],
	}, nil
}

// OpenRecord decrypts an Envelope. Every failure wraps ErrDecryptionFailed.
func OpenRecord(keyMaterial []byte, envelope *Envelope, aad []byte) ([]byte, error) {
	if envelope == nil {
		return nil, fmt.Errorf("%w: missing envelope", ErrDecryptionFailed)
	}
	if envelope.Ver != envelopeVersion {
		return nil, fmt.Errorf("%w: unsupported envelope version %d", ErrDecryptionFailed, envelope.Ver)
	}
	if envelope.Scheme != envelopeScheme {
		return nil, fmt.Errorf("%w: unsupported envelope scheme %q", ErrDecryptionFailed, envelope.Scheme)
	}
	if len(envelope.Salt) != envelopeSaltLen || len(envelope.Nonce) != util.GCMNonceSize {
		return nil, fmt.Errorf("%w: malformed envelope", ErrDecryptionFailed)
	}

	key, err := envelopeKey(keyMaterial, envelope.Salt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	defer util.WipeBytes(key)

	// Reconstruct nonce || ciphertext without mutating envelope fields.
	full := make([]byte, len(envelope.Nonce)+len(envelope.Ciphertext))
	copy(full, envelope.Nonce)
	copy(full[len(envelope.Nonce):], envelope.Ciphertext)

	return util.DecryptAESWithAAD(full, key, aad)
}

// MarshalBinary encodes the envelope as ver || salt || nonce || ciphertext.
func (e *Envelope) MarshalBinary() ([]byte, error) {
	if e.Ver != envelopeVersion || len(e.Salt) != envelopeSaltLen || len(e.Nonce) != util.GCMNonceSize {
		return nil, fmt.Errorf("cannot encode envelope version %d", e.Ver)
	}
	out := make([]byte, 0, 1+envelopeSaltLen+util.GCMNonceSize+len(e.Ciphertext))
	out = append(out, byte(e.Ver))
	out = append(out, e.Salt...)
	out = append(out, e.Nonce...)
	out = append(out, e.Ciphertext...)
	return out, nil
}

// UnmarshalBinary decodes the form written by MarshalBinary.
func (e *Envelope) UnmarshalBinary(data []byte) error {
	const headerLen = 1 + envelopeSaltLen + util.GCMNonceSize
	if len(data) < headerLen {
		return fmt.Errorf("%w: envelope too short", ErrDecryptionFailed)
	}
	if data[0] != envelopeVersion {
		return fmt.Errorf("%w: unsupported envelope version %d", ErrDecryptionFailed, data[0])
	}
	e.Ver = int(data[0])
	e.Scheme = envelopeScheme
	e.Salt = util.CopyBytes(data[1 : 1+envelopeSaltLen])
	e.Nonce = util.CopyBytes(data[1+envelopeSaltLen : headerLen])
	e.Ciphertext = util.CopyBytes(data[headerLen:])
	return nil
}

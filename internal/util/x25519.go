package util

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/curve25519"
)

// ErrInvalidKeyMaterial is returned when a key has the wrong size or
// the agreement yields the all-zero (low-order point) secret.
var ErrInvalidKeyMaterial = errors.New("invalid key material")

type KeyPair struct {
	Private [32]byte
	Public  [32]byte
}

func GenerateX25519Keypair() (KeyPair, error) {
	priv, err := RandomBytes(curve25519.ScalarSize)
	if err != nil {
		return KeyPair{}, fmt.Errorf("generating X25519 private key: %w", err)
	}
	defer WipeBytes(priv)

	var kp KeyPair
	copy(kp.Private[:], priv)
	pub, err := PublicKey(kp.Private)
	if err != nil {
		return KeyPair{}, err
	}
	kp.Public = pub
	return kp, nil
}

// PublicKey returns the X25519 public key for priv.
func PublicKey(priv [32]byte) ([32]byte, error) {
	pub, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		return [32]byte{}, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}
	var res [32]byte
	copy(res[:], pub)
	return res, nil
}

// SharedSecret performs X25519(priv, pub). Slices of the wrong length and
// low-order public keys are rejected with ErrInvalidKeyMaterial.
func SharedSecret(priv, pub []byte) ([32]byte, error) {
	if len(priv) != curve25519.ScalarSize || len(pub) != curve25519.PointSize {
		return [32]byte{}, fmt.Errorf("%w: want %d-byte keys, got %d and %d",
			ErrInvalidKeyMaterial, curve25519.ScalarSize, len(priv), len(pub))
	}
	secret, err := curve25519.X25519(priv, pub)
	if err != nil {
		return [32]byte{}, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}
	var res [32]byte
	copy(res[:], secret)
	WipeBytes(secret)
	return res, nil
}

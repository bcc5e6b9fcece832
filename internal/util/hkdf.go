package util

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"
)

const (
	HKDFKeyLength    = 32
	StretchKeyLength = 64
)

func HKDF(seed []byte, salt []byte, info []byte) ([]byte, error) {
	h := hkdf.New(sha256.New, seed, salt, info)
	k := make([]byte, HKDFKeyLength)
	if _, err := io.ReadFull(h, k); err != nil {
		return nil, fmt.Errorf("reading from HKDF: %w", err)
	}
	return k, nil
}

// HMACSHA256 returns HMAC-SHA256(message) keyed with key.
func HMACSHA256(message, key []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(message)
	return mac.Sum(nil)
}

// Stretch runs PBKDF2-HMAC-SHA256 over secret and returns StretchKeyLength bytes.
func Stretch(secret, salt []byte, iterations int) ([]byte, error) {
	if iterations < 1 {
		return nil, fmt.Errorf("invalid PBKDF2 iteration count %d", iterations)
	}
	if len(salt) == 0 {
		return nil, fmt.Errorf("PBKDF2 salt must not be empty")
	}
	return pbkdf2.Key(secret, salt, iterations, StretchKeyLength, sha256.New), nil
}

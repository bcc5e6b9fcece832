// Package crypto derives the credential-bound keys that gate a vault:
// auth keys for passwords and recovery phrases, and the canaries that
// prove an auth key was derived from the right credential.
package crypto

import (
	"crypto/subtle"
	"fmt"

	"github.com/jmcleod/confidant/internal/util"
	"github.com/jmcleod/confidant/storage"
)

// MinAppKeyLength is the shortest accepted application key.
const MinAppKeyLength = 32

// AuthKey derives the wrapping key for a password or recovery phrase:
// Base64(HMAC-SHA256(NFKD(credential), appKey)). The same derivation serves
// both credential kinds.
func AuthKey(credential string, appKey []byte) string {
	normalized := []byte(util.Normalize(credential))
	defer util.WipeBytes(normalized)
	mac := util.HMACSHA256(normalized, appKey)
	defer util.WipeBytes(mac)
	return util.Base64Encode(mac)
}

// NewAppKey generates a fresh application key. Every vault produced with
// one key is unreadable with any other.
func NewAppKey() ([]byte, error) {
	key, err := util.RandomBytes(MinAppKeyLength)
	if err != nil {
		return nil, fmt.Errorf("generating app key: %w", err)
	}
	return key, nil
}

// MakeCanary seals the application canary phrase under authKey.
func MakeCanary(authKey, canaryPhrase string, aad []byte) (*storage.Envelope, error) {
	if authKey == "" {
		return nil, fmt.Errorf("auth key must not be empty")
	}
	if canaryPhrase == "" {
		return nil, fmt.Errorf("canary phrase must not be empty")
	}
	return storage.SealRecord([]byte(authKey), []byte(canaryPhrase), aad)
}

// VerifyCanary reports whether canary opens under authKey to exactly
// canaryPhrase. Decryption failure and a wrong plaintext both yield false.
func VerifyCanary(authKey string, canary *storage.Envelope, canaryPhrase string, aad []byte) bool {
	if authKey == "" || canary == nil {
		return false
	}
	plain, err := storage.OpenRecord([]byte(authKey), canary, aad)
	if err != nil {
		return false
	}
	defer util.WipeBytes(plain)
	return subtle.ConstantTimeCompare(plain, []byte(canaryPhrase)) == 1
}

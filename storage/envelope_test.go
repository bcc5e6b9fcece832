package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestEnvelope(t *testing.T) {
	key := []byte("arbitrary-length key material, e.g. a base64 auth key")
	plain := []byte("top secret")
	aad := []byte("context")

	env, err := SealRecord(key, plain, aad)
	if err != nil {
		t.Fatalf("SealRecord failed: %v", err)
	}

	if env.Ver != 1 {
		t.Errorf("expected version 1, got %d", env.Ver)
	}

	decrypted, err := OpenRecord(key, env, aad)
	if err != nil {
		t.Fatalf("OpenRecord failed: %v", err)
	}

	if !bytes.Equal(plain, decrypted) {
		t.Errorf("expected %s, got %s", plain, decrypted)
	}

	t.Run("FreshSaltPerSeal", func(t *testing.T) {
		other, err := SealRecord(key, plain, aad)
		if err != nil {
			t.Fatalf("SealRecord failed: %v", err)
		}
		if bytes.Equal(other.Salt, env.Salt) || bytes.Equal(other.Ciphertext, env.Ciphertext) {
			t.Error("two seals of the same plaintext should differ")
		}
	})

	t.Run("WrongAAD", func(t *testing.T) {
		_, err := OpenRecord(key, env, []byte("wrong context"))
		if !errors.Is(err, ErrDecryptionFailed) {
			t.Errorf("expected ErrDecryptionFailed with wrong AAD, got %v", err)
		}
	})

	t.Run("WrongKey", func(t *testing.T) {
		_, err := OpenRecord([]byte("another key"), env, aad)
		if !errors.Is(err, ErrDecryptionFailed) {
			t.Errorf("expected ErrDecryptionFailed with wrong key, got %v", err)
		}
	})

	t.Run("EmptyKey", func(t *testing.T) {
		if _, err := SealRecord(nil, plain, aad); err == nil {
			t.Error("expected error sealing with empty key material")
		}
	})

	t.Run("UnsupportedVersion", func(t *testing.T) {
		badEnv := *env
		badEnv.Ver = 99
		_, err := OpenRecord(key, &badEnv, aad)
		if !errors.Is(err, ErrDecryptionFailed) {
			t.Errorf("expected ErrDecryptionFailed with unsupported version, got %v", err)
		}
	})

	t.Run("UnsupportedScheme", func(t *testing.T) {
		badEnv := *env
		badEnv.Scheme = "unknown"
		_, err := OpenRecord(key, &badEnv, aad)
		if !errors.Is(err, ErrDecryptionFailed) {
			t.Errorf("expected ErrDecryptionFailed with unsupported scheme, got %v", err)
		}
	})

	t.Run("BinaryRoundTrip", func(t *testing.T) {
		raw, err := env.MarshalBinary()
		if err != nil {
			t.Fatalf("MarshalBinary failed: %v", err)
		}
		var parsed Envelope
		if err := parsed.UnmarshalBinary(raw); err != nil {
			t.Fatalf("UnmarshalBinary failed: %v", err)
		}
		got, err := OpenRecord(key, &parsed, aad)
		if err != nil {
			t.Fatalf("OpenRecord after binary round trip failed: %v", err)
		}
		if !bytes.Equal(got, plain) {
			t.Errorf("expected %s, got %s", plain, got)
		}
	})

	t.Run("BinaryTamper", func(t *testing.T) {
		raw, _ := env.MarshalBinary()
		raw[len(raw)-3] ^= 0x01
		var parsed Envelope
		if err := parsed.UnmarshalBinary(raw); err != nil {
			t.Fatalf("UnmarshalBinary failed: %v", err)
		}
		if _, err := OpenRecord(key, &parsed, aad); !errors.Is(err, ErrDecryptionFailed) {
			t.Errorf("expected ErrDecryptionFailed for flipped bit, got %v", err)
		}
	})

	t.Run("BinaryTooShort", func(t *testing.T) {
		var parsed Envelope
		if err := parsed.UnmarshalBinary([]byte{1, 2, 3}); !errors.Is(err, ErrDecryptionFailed) {
			t.Errorf("expected ErrDecryptionFailed for short input, got %v", err)
		}
	})

	t.Run("JSONRoundTrip", func(t *testing.T) {
		raw, err := json.Marshal(env)
		if err != nil {
			t.Fatalf("json.Marshal failed: %v", err)
		}
		var parsed Envelope
		if err := json.Unmarshal(raw, &parsed); err != nil {
			t.Fatalf("json.Unmarshal failed: %v", err)
		}
		if _, err := OpenRecord(key, &parsed, aad); err != nil {
			t.Errorf("OpenRecord after JSON round trip failed: %v", err)
		}
	})
}

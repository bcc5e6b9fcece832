package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/confidant/internal/util"
)

var testAppKey = []byte("0123456789abcdef0123456789abcdef")

const testCanary = "May the Force be with you!"

func TestAuthKey(t *testing.T) {
	k1 := AuthKey("Secret123", testAppKey)
	k2 := AuthKey("Secret123", testAppKey)
	assert.Equal(t, k1, k2, "AuthKey must be deterministic")

	raw, err := util.Base64Decode(k1)
	require.NoError(t, err)
	assert.Len(t, raw, 32)

	assert.NotEqual(t, k1, AuthKey("Secret124", testAppKey))
	assert.NotEqual(t, k1, AuthKey("Secret123", []byte("another application key.........")))

	// Composed and decomposed forms of the same text derive the same key.
	assert.Equal(t, AuthKey("caf\u00e9", testAppKey), AuthKey("cafe\u0301", testAppKey))
}

func TestNewAppKey(t *testing.T) {
	a, err := NewAppKey()
	require.NoError(t, err)
	b, err := NewAppKey()
	require.NoError(t, err)
	assert.Len(t, a, MinAppKeyLength)
	assert.NotEqual(t, a, b)
}

func TestCanary(t *testing.T) {
	aad := []byte("vault-1/phrasestore")
	authKey := AuthKey("Secret123", testAppKey)

	canary, err := MakeCanary(authKey, testCanary, aad)
	require.NoError(t, err)

	t.Run("CorrectKey", func(t *testing.T) {
		assert.True(t, VerifyCanary(authKey, canary, testCanary, aad))
	})

	t.Run("WrongKey", func(t *testing.T) {
		assert.False(t, VerifyCanary(AuthKey("wrong", testAppKey), canary, testCanary, aad))
	})

	t.Run("WrongPhrase", func(t *testing.T) {
		assert.False(t, VerifyCanary(authKey, canary, "These aren't the droids", aad))
	})

	t.Run("WrongAAD", func(t *testing.T) {
		assert.False(t, VerifyCanary(authKey, canary, testCanary, []byte("vault-1/recphrasestore")))
	})

	t.Run("NilAndEmpty", func(t *testing.T) {
		assert.False(t, VerifyCanary(authKey, nil, testCanary, aad))
		assert.False(t, VerifyCanary("", canary, testCanary, aad))
	})

	t.Run("Tampered", func(t *testing.T) {
		bad := *canary
		bad.Ciphertext = append([]byte(nil), canary.Ciphertext...)
		bad.Ciphertext[0] ^= 0x80
		assert.False(t, VerifyCanary(authKey, &bad, testCanary, aad))
	})

	t.Run("RejectEmptyInputs", func(t *testing.T) {
		_, err := MakeCanary("", testCanary, aad)
		assert.Error(t, err)
		_, err = MakeCanary(authKey, "", aad)
		assert.Error(t, err)
	})
}

func TestRecoveryPhrase(t *testing.T) {
	require.Len(t, wordList, 256)
	for _, w := range wordList {
		assert.GreaterOrEqual(t, len(w), 5, "word %q too short", w)
		assert.LessOrEqual(t, len(w), 7, "word %q too long", w)
	}

	p1, err := NewRecoveryPhrase()
	require.NoError(t, err)
	p2, err := NewRecoveryPhrase()
	require.NoError(t, err)

	assert.Len(t, strings.Fields(p1), RecoveryPhraseWords)
	assert.NotEqual(t, p1, p2)
	assert.Equal(t, p1, NormalizeRecoveryPhrase(p1))
}

func TestNormalizeRecoveryPhrase(t *testing.T) {
	got := NormalizeRecoveryPhrase("  Amber\tangle\n\nAPPLE  ")
	assert.Equal(t, "amber angle apple", got)
}

func TestGeneratePassword(t *testing.T) {
	pw, err := GeneratePassword(14)
	require.NoError(t, err)
	assert.Len(t, pw, 14)
}

func TestPasswordStrength(t *testing.T) {
	assert.Equal(t, 0, PasswordStrength(""))
	assert.LessOrEqual(t, PasswordStrength("password"), StrengthWeak)
	assert.GreaterOrEqual(t, PasswordStrength("correct horse battery staple lantern"), StrengthStrong)
}

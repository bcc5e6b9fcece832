package crypto

import (
	"github.com/Picocrypt/zxcvbn-go"

	"github.com/jmcleod/confidant/internal/util"
)

// Password strength scores as reported by zxcvbn.
const (
	StrengthWeak   = 1
	StrengthStrong = 3
)

// GeneratePassword returns a random password of n characters from an
// alphabet without look-alike glyphs.
func GeneratePassword(n int) (string, error) {
	return util.RandomChars(n)
}

// PasswordStrength scores pw from 0 (trivially guessable) to 4.
func PasswordStrength(pw string) int {
	if pw == "" {
		return 0
	}
	return zxcvbn.PasswordStrength(pw, nil).Score
}

package crypto

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/jmcleod/confidant/internal/util"
)

// RecoveryPhraseWords is the number of words in a recovery phrase.
const RecoveryPhraseWords = 12

//go:embed words.txt
var wordsFile string

var wordList = strings.Fields(wordsFile)

// NewRecoveryPhrase draws RecoveryPhraseWords words uniformly from the
// embedded word list using crypto/rand.
func NewRecoveryPhrase() (string, error) {
	parts := make([]string, RecoveryPhraseWords)
	for i := range parts {
		idx, err := util.RandomIntn(len(wordList))
		if err != nil {
			return "", fmt.Errorf("generating recovery phrase: %w", err)
		}
		parts[i] = wordList[idx]
	}
	return strings.Join(parts, " "), nil
}

// NormalizeRecoveryPhrase lower-cases the phrase and collapses runs of
// whitespace, so a phrase copied with stray spaces or line breaks still
// derives the same auth key.
func NormalizeRecoveryPhrase(phrase string) string {
	return strings.Join(strings.Fields(strings.ToLower(phrase)), " ")
}

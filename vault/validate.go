package vault

import (
	"unicode"
	"unicode/utf8"
)

// validateID checks a vault name. The name doubles as the payload
// directory name and the artifact prefix, so it must be a single path
// element.
func validateID(id, label string) error {
	if id == "" {
		return validationErrorf("%s must not be empty", label)
	}
	if len(id) > MaxIDLength {
		return validationErrorf("%s exceeds maximum length of %d", label, MaxIDLength)
	}
	if !utf8.ValidString(id) {
		return validationErrorf("%s contains invalid UTF-8", label)
	}
	if id == "." || id == ".." {
		return validationErrorf("%s must not be %q", label, id)
	}
	for _, r := range id {
		if r == '/' || r == '\\' {
			return validationErrorf("%s contains forbidden character %q", label, r)
		}
		if unicode.IsControl(r) {
			return validationErrorf("%s contains control character", label)
		}
	}
	return nil
}

func validateCredential(credential, label string) error {
	if credential == "" {
		return validationErrorf("%s must not be empty", label)
	}
	if !utf8.ValidString(credential) {
		return validationErrorf("%s contains invalid UTF-8", label)
	}
	return nil
}

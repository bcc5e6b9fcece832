package vault

import (
	"errors"
	"fmt"

	"github.com/jmcleod/confidant/archive"
	"github.com/jmcleod/confidant/internal/util"
)

// credentialError is a credential failure that also matches
// ErrIncorrectCredential.
type credentialError struct{ msg string }

func (e *credentialError) Error() string { return e.msg }

func (e *credentialError) Is(target error) bool { return target == ErrIncorrectCredential }

var (
	// ErrIncorrectCredential indicates a password or recovery phrase failed the canary check.
	ErrIncorrectCredential = errors.New("incorrect credential")
	// ErrIncorrectPassword is the password-path variant of ErrIncorrectCredential.
	ErrIncorrectPassword error = &credentialError{"incorrect password"}
	// ErrIncorrectRecoveryPhrase is the recovery-path variant of ErrIncorrectCredential.
	ErrIncorrectRecoveryPhrase error = &credentialError{"incorrect recovery phrase"}
	// ErrVaultCorrupt covers every failure past a successful canary check.
	// A corrupted file and a wrong key are reported the same way.
	ErrVaultCorrupt = errors.New("vault is corrupt or the password is wrong")
	// ErrVaultAlreadyExists indicates the target artifacts are already present.
	ErrVaultAlreadyExists = errors.New("vault already exists")
	// ErrVaultNotFound indicates no container exists for the vault name.
	ErrVaultNotFound = errors.New("vault not found")
	// ErrPayloadExists indicates Unlock would overwrite an existing payload directory.
	ErrPayloadExists = errors.New("payload directory already exists")
	// ErrDirectoryNotFound indicates the payload directory does not exist.
	ErrDirectoryNotFound = errors.New("directory not found")
	// ErrNotUnlocked indicates Lock was called without an unlock marker.
	ErrNotUnlocked = errors.New("vault is not unlocked")
	// ErrAlreadyUnlocked indicates the operation requires a locked vault.
	ErrAlreadyUnlocked = errors.New("vault is already unlocked")
	// ErrPasswordConfirmationMismatch indicates the two password entries differ.
	ErrPasswordConfirmationMismatch = errors.New("passwords do not match")
	// ErrArchiveTool indicates the archiver failed to compress or extract the payload.
	ErrArchiveTool = archive.ErrToolFailure
	// ErrInvalidKeyMaterial indicates a malformed or low-order public key.
	ErrInvalidKeyMaterial = util.ErrInvalidKeyMaterial
	// ErrValidation indicates a rejected argument such as a malformed vault name.
	ErrValidation = errors.New("validation failed")
)

func validationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

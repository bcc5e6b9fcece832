// Package vault implements the lifecycle of a password-protected directory:
// Initialize seals it, Unlock restores it, Lock re-seals it and Reset
// replaces the password using the recovery phrase.
package vault

import (
	"time"

	"github.com/jmcleod/confidant/storage"
)

// State is the lifecycle state of a named vault.
type State int

const (
	StateAbsent State = iota
	StateLocked
	StateUnlocked
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateLocked:
		return "locked"
	case StateUnlocked:
		return "unlocked"
	default:
		return "unknown"
	}
}

// Config is the container header. It holds only public or wrapped
// material: the container public key, the confsalt, the AuthSecret wrapped
// under each credential and one canary per credential.
type Config struct {
	Ver                int               `json:"ver"`
	InstanceID         string            `json:"instance_id"`
	Dir                string            `json:"dir"`
	ContainerPublicKey []byte            `json:"container_public_key"`
	ConfSalt           []byte            `json:"confsalt"`
	KeyStore           *storage.Envelope `json:"keystore"`
	RecoveryStore      *storage.Envelope `json:"recoverystore"`
	PhraseStore        *storage.Envelope `json:"phrasestore"`
	RecPhraseStore     *storage.Envelope `json:"recphrasestore"`
	KeyFile            string            `json:"keyfile"`
	CreatedAt          time.Time         `json:"created_at,omitzero"`
	ResetAt            time.Time         `json:"reset_at,omitzero"`
}

const configVersion = 1

// Validation constants.
const (
	MaxIDLength = 255
)

// Default PBKDF2 iteration range, lower bound inclusive.
const (
	DefaultMinIterations = 10000
	DefaultMaxIterations = 100000
)

// Artifact name suffixes.
const (
	containerSuffix = ".vault"
	keyFileSuffix   = ".key"
	markerSuffix    = ".confidant"
	recoverySuffix  = "_recovery.txt"
	ignoreFileName  = ".gitignore"
)

// DatabaseFileName is the artifact database used when artifacts are kept in
// BBolt instead of loose files.
const DatabaseFileName = ".confidant.db"

func containerName(id string) string { return id + containerSuffix }
func keyFileName(id string) string   { return id + keyFileSuffix }
func markerName(id string) string    { return "." + id + markerSuffix }
func recoveryName(id string) string  { return id + recoverySuffix }

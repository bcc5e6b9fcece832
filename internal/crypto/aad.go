package icrypto

import (
	"encoding/binary"
)

// CredentialPath names one of the two routes to the AuthSecret.
type CredentialPath string

const (
	PathPassword CredentialPath = "password"
	PathRecovery CredentialPath = "recovery"
)

const (
	aadAuthSecret = "AUTHSECRET"
	aadCanary     = "CANARY"
	aadKeyFile    = "KEYFILE"
	aadArchive    = "ARCHIVE"
	aadMarker     = "MARKER"
)

// AADAuthSecret binds a wrapped AuthSecret to its vault and credential path,
// so the keystore and recoverystore cannot be swapped.
func AADAuthSecret(vaultID string, path CredentialPath, ver int) []byte {
	return buildAAD(aadAuthSecret, vaultID, string(path), ver)
}

// AADCanary binds a canary to its vault and credential path.
func AADCanary(vaultID string, path CredentialPath, ver int) []byte {
	return buildAAD(aadCanary, vaultID, string(path), ver)
}

// AADKeyFile binds the sealed key-file to its vault.
func AADKeyFile(vaultID string, ver int) []byte {
	return buildAAD(aadKeyFile, vaultID, ver)
}

// AADArchive binds the archive payload to its vault.
func AADArchive(vaultID string, ver int) []byte {
	return buildAAD(aadArchive, vaultID, ver)
}

// AADMarker binds an unlock marker to its vault.
func AADMarker(vaultID string, ver int) []byte {
	return buildAAD(aadMarker, vaultID, ver)
}

func buildAAD(parts ...any) []byte {
	var res []byte
	for _, p := range parts {
		switch v := p.(type) {
		case string:
			res = appendLenPrefix(res, []byte(v))
		case []byte:
			res = appendLenPrefix(res, v)
		case int:
			res = binary.BigEndian.AppendUint32(res, uint32(v))
		}
	}
	return res
}

func appendLenPrefix(b, data []byte) []byte {
	b = binary.BigEndian.AppendUint32(b, uint32(len(data)))
	return append(b, data...)
}

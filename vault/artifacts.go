package vault

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/jmcleod/confidant/storage"
)

// ignoreEntries returns the lines that keep a vault's plaintext and
// operator secrets out of version control.
func ignoreEntries(id string) []string {
	return []string{
		"/" + id + "/",
		"*" + recoverySuffix,
		".*" + markerSuffix,
		DatabaseFileName,
		".*" + storage.TempSuffix,
	}
}

// mergeIgnoreFile appends the vault's entries to the ignore file, keeping
// every line already present.
func (v *Vault) mergeIgnoreFile(id string) error {
	existing, err := v.files.Get(ignoreFileName)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("reading %s: %w", ignoreFileName, err)
	}

	have := make(map[string]bool)
	for _, line := range strings.Split(string(existing), "\n") {
		have[strings.TrimSpace(line)] = true
	}

	var buf bytes.Buffer
	buf.Write(existing)
	if len(existing) == 0 {
		buf.WriteString("# confidant\n")
	} else if existing[len(existing)-1] != '\n' {
		buf.WriteByte('\n')
	}
	added := false
	for _, entry := range ignoreEntries(id) {
		if have[entry] {
			continue
		}
		buf.WriteString(entry)
		buf.WriteByte('\n')
		added = true
	}
	if !added && len(existing) > 0 {
		return nil
	}
	return v.files.Put(ignoreFileName, buf.Bytes())
}

func recoveryFileContents(id, phrase string) []byte {
	return []byte(fmt.Sprintf("Recovery phrase for vault %q:\n\n%s\n", id, phrase))
}

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/jmcleod/confidant/vault"
)

// selectVault returns name when given, otherwise the only vault in one of
// the wanted states.
func (a *app) selectVault(name string, want ...vault.State) (string, error) {
	if name != "" {
		return name, nil
	}
	ids, err := a.vault.List()
	if err != nil {
		return "", err
	}
	var matches []string
	for _, id := range ids {
		state, err := a.vault.Status(id)
		if err != nil {
			return "", err
		}
		for _, w := range want {
			if state == w {
				matches = append(matches, id)
				break
			}
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w in %s", vault.ErrVaultNotFound, a.vault.Root())
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("found vaults %s; choose one with --vault", strings.Join(matches, ", "))
	}
}

// candidateDirs lists subdirectories of the root that are not vault
// payloads already.
func (a *app) candidateDirs() ([]string, error) {
	entries, err := os.ReadDir(a.vault.Root())
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if state, err := a.vault.Status(e.Name()); err != nil || state != vault.StateAbsent {
			continue
		}
		dirs = append(dirs, e.Name())
	}
	return dirs, nil
}

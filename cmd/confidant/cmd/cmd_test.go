package cmd

import (
	"bytes"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmcleod/confidant/internal/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setup prepares a working directory holding notes/a.txt and configures
// the application secrets through the environment.
func setup(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("CONFIDANT_APP_KEY", base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{9}, 32)))
	t.Setenv("CONFIDANT_APP_CANARY", "cli canary")
	t.Setenv("CONFIDANT_KDF_MIN_ITERATIONS", "10")
	t.Setenv("CONFIDANT_KDF_MAX_ITERATIONS", "20")

	require.NoError(t, os.Mkdir(filepath.Join(dir, "notes"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes", "a.txt"), []byte("hello"), 0o600))
	return dir
}

type result struct {
	stdout string
	stderr string
	code   int
}

func execute(t *testing.T, answers []string, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	a := &app{
		prompter: &prompt.Static{Answers: answers},
		stdout:   &out,
		stderr:   &errOut,
	}
	code := run(t.Context(), a, args)
	return result{stdout: out.String(), stderr: errOut.String(), code: code}
}

func recoveryPhrase(t *testing.T, dir string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "notes_recovery.txt"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	return lines[len(lines)-1]
}

func TestCLILifecycle(t *testing.T) {
	dir := setup(t)

	res := execute(t, []string{"Secret123", "Secret123"}, "init", "notes")
	require.Equal(t, 0, res.code, res.stderr)
	phrase := recoveryPhrase(t, dir)
	assert.Contains(t, res.stdout, phrase)
	assert.Contains(t, res.stdout, "Vault notes created")
	assert.NoDirExists(t, filepath.Join(dir, "notes"))

	res = execute(t, nil, "status")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "locked")

	res = execute(t, []string{"wrong"}, "decrypt")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "incorrect password")
	assert.NoDirExists(t, filepath.Join(dir, "notes"))

	res = execute(t, []string{"Secret123"}, "unlock", "--vault", "notes")
	require.Equal(t, 0, res.code, res.stderr)
	data, err := os.ReadFile(filepath.Join(dir, "notes", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	res = execute(t, nil, "encrypt")
	require.Equal(t, 0, res.code, res.stderr)
	assert.NoDirExists(t, filepath.Join(dir, "notes"))

	res = execute(t, []string{phrase, "NewPass456", "NewPass456"}, "recover")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Suggested password")
	assert.NotEqual(t, phrase, recoveryPhrase(t, dir))

	res = execute(t, []string{"Secret123"}, "decrypt")
	assert.Equal(t, 1, res.code)

	res = execute(t, []string{"NewPass456", ""}, "decrypt", "--live")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Locked notes")
	assert.NoDirExists(t, filepath.Join(dir, "notes"))
}

func TestCLIInitPromptsForDirectory(t *testing.T) {
	dir := setup(t)

	res := execute(t, []string{"", "pw", "pw"}, "init")
	require.Equal(t, 0, res.code, res.stderr)
	assert.FileExists(t, filepath.Join(dir, "notes.vault"))
	assert.Contains(t, res.stdout, "easy to guess")

	res = execute(t, nil, "list")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "notes\n", res.stdout)
}

func TestCLIErrors(t *testing.T) {
	dir := setup(t)

	res := execute(t, []string{"a", "b"}, "init", "notes")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "passwords do not match")
	assert.DirExists(t, filepath.Join(dir, "notes"))

	res = execute(t, nil, "encrypt")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "vault not found")

	res = execute(t, []string{"pw", "pw"}, "init", "notes")
	require.Equal(t, 0, res.code, res.stderr)

	res = execute(t, []string{"not the phrase"}, "recover")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "incorrect recovery phrase")
}

func TestCLIRequiresAppKey(t *testing.T) {
	setup(t)
	t.Setenv("CONFIDANT_APP_KEY", "")

	res := execute(t, nil, "status")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "app.key is required")

	res = execute(t, nil, "appkey")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "key: ")
	assert.Contains(t, res.stdout, "canary: ")
}

func TestCLIBoltStore(t *testing.T) {
	dir := setup(t)
	t.Setenv("CONFIDANT_STORE", "bbolt")

	res := execute(t, []string{"pw", "pw"}, "init", "notes")
	require.Equal(t, 0, res.code, res.stderr)
	assert.FileExists(t, filepath.Join(dir, ".confidant.db"))
	assert.NoFileExists(t, filepath.Join(dir, "notes.vault"))
	assert.FileExists(t, filepath.Join(dir, "notes_recovery.txt"))
	assert.FileExists(t, filepath.Join(dir, ".gitignore"))

	res = execute(t, []string{"pw"}, "decrypt")
	require.Equal(t, 0, res.code, res.stderr)
	assert.DirExists(t, filepath.Join(dir, "notes"))

	res = execute(t, nil, "status")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "unlocked")

	res = execute(t, nil, "lock")
	require.Equal(t, 0, res.code, res.stderr)
	assert.NoDirExists(t, filepath.Join(dir, "notes"))
}

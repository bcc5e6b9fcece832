package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jmcleod/confidant/archive"
	"github.com/jmcleod/confidant/internal/config"
	"github.com/jmcleod/confidant/internal/prompt"
	bboltstore "github.com/jmcleod/confidant/storage/bbolt"
	"github.com/jmcleod/confidant/vault"
	"github.com/spf13/cobra"
	"go.etcd.io/bbolt"
)

// Set at build time with -ldflags "-X".
var (
	Version     = "dev"
	BuildAppKey string
	BuildCanary string
)


// noVault marks commands that run without loading configuration.
const noVault = "no-vault"

type app struct {
	configPath string
	prompter   prompt.Prompter
	stdout     io.Writer
	stderr     io.Writer

	cfg    *config.Config
	vault  *vault.Vault
	closer io.Closer
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "confidant",
		Short: "Confidant keeps a directory encrypted behind a password",
		Long: `Confidant compresses and encrypts a directory into a single vault file.
The vault opens with a password or with the recovery phrase shown once at
initialization, which can also reset a forgotten password.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[noVault] != "" || cmd.Name() == "help" {
				return nil
			}
			return a.load(cmd)
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default ./confidant.yaml or ~/.config/confidant/confidant.yaml)")
	flags.String("dir", ".", "working directory holding the vaults")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newInitCmd(a),
		newDecryptCmd(a),
		newEncryptCmd(a),
		newRecoverCmd(a),
		newStatusCmd(a),
		newListCmd(a),
		newAppKeyCmd(a),
		newVersionCmd(a),
	)
	return rootCmd
}

// load resolves configuration and opens the vault handle.
func (a *app) load(cmd *cobra.Command) error {
	flags := cmd.Flags()
	loader := config.NewLoader(a.configPath).
		BindFlag("dir", flags.Lookup("dir")).
		BindFlag("log.level", flags.Lookup("log-level"))
	if BuildAppKey != "" {
		loader.SetDefault("app.key", BuildAppKey)
	}
	if BuildCanary != "" {
		loader.SetDefault("app.canary", BuildCanary)
	}
	cfg, err := loader.Load()
	if err != nil {
		return err
	}

	logger, err := cfg.Log.NewLogger(a.stderr)
	if err != nil {
		return err
	}
	if used := loader.ConfigFileUsed(); used != "" {
		logger.Debug("loaded config file", "path", used)
	}
	arch, err := archive.New(cfg.Archiver)
	if err != nil {
		return err
	}
	appKey, err := cfg.AppKey()
	if err != nil {
		return err
	}

	opts := []vault.VaultOption{
		vault.WithLogger(logger),
		vault.WithArchiver(arch),
		vault.WithAppSecrets(appKey, cfg.App.Canary),
		vault.WithIterationRange(cfg.KDF.MinIterations, cfg.KDF.MaxIterations),
	}
	if cfg.Store == "bbolt" {
		store, err := bboltstore.NewStoreFromFile(filepath.Join(cfg.Dir, vault.DatabaseFileName), &bbolt.Options{Timeout: time.Second})
		if err != nil {
			return err
		}
		a.closer = store
		opts = append(opts, vault.WithStore(store))
	}

	v, err := vault.New(cfg.Dir, opts...)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.vault = v
	return nil
}

// run executes the command tree against args and returns the process exit
// code.
func run(ctx context.Context, a *app, args []string) int {
	rootCmd := newRootCmd(a)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	if a.closer != nil {
		_ = a.closer.Close()
	}
	if err != nil {
		failure(a.stderr, describe(err))
		return 1
	}
	return 0
}

// describe turns lifecycle errors into the message shown to the operator.
func describe(err error) error {
	switch {
	case errors.Is(err, vault.ErrIncorrectPassword):
		return errors.New("incorrect password. Try again or reset it with `confidant recover`")
	case errors.Is(err, vault.ErrIncorrectRecoveryPhrase):
		return errors.New("incorrect recovery phrase")
	case errors.Is(err, vault.ErrVaultCorrupt):
		return fmt.Errorf("%w; nothing was changed", err)
	case errors.Is(err, config.ErrMissingAppKey):
		return fmt.Errorf("%w, then set it in confidant.yaml or CONFIDANT_APP_KEY", err)
	}
	return err
}

// Execute runs the CLI on the process arguments and returns the exit code.
func Execute() int {
	a := &app{
		prompter: prompt.NewTerminal(),
		stdout:   os.Stdout,
		stderr:   os.Stderr,
	}
	return run(context.Background(), a, os.Args[1:])
}

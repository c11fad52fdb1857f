package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ericfisherdev/pwvault/internal/adapter/driven/saltcipher"
	sqliteadapter "github.com/ericfisherdev/pwvault/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/pwvault/internal/adapter/driving/cli"
	"github.com/ericfisherdev/pwvault/internal/application"
	"github.com/ericfisherdev/pwvault/internal/config"
	"github.com/ericfisherdev/pwvault/internal/keyfile"
)

// app is the wired vault for one command invocation.
type app struct {
	cfg      *config.Config
	db       *sqliteadapter.DB
	cipher   *saltcipher.Cipher
	vault    *application.VaultService
	shell    *cli.Shell
	prompter *cli.TerminalPrompter
}

// openApp loads configuration, bootstraps the passphrase, opens and migrates
// the database and wires the service. Callers must close the returned app.
func openApp(ctx context.Context) (*app, error) {
	// 1. Load configuration (fail fast on invalid env vars).
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))
	slog.Info("config loaded",
		"db_path", cfg.DBPath,
		"key_file", cfg.KeyFile,
		"cipher_mode", cfg.CipherMode,
	)

	// 2. Bootstrap the passphrase from the key file or the terminal.
	prompter := cli.NewTerminalPrompter(os.Stdin, os.Stderr)
	passphrase, err := keyfile.Load(cfg.KeyFile, prompter)
	if err != nil {
		return nil, err
	}

	c, err := saltcipher.New(passphrase, cfg.CipherMode)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	// 3. Open database and apply migrations on the writer connection.
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o700); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	slog.Info("database opened", "path", cfg.DBPath)

	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		db.Close()
		return nil, err
	}
	slog.Info("migrations complete")

	// 4. Wire store, service and shell.
	store := sqliteadapter.NewCredentialRepo(db, c)
	vault := application.NewVaultService(store, cfg.DBPath+".credentials", slog.Default())

	return &app{
		cfg:      cfg,
		db:       db,
		cipher:   c,
		vault:    vault,
		shell:    cli.NewShell(vault, os.Stdout),
		prompter: prompter,
	}, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

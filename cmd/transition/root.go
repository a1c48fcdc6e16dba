package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atomworks/nucrm/internal/config"
	"github.com/atomworks/nucrm/internal/keystore"
	"github.com/atomworks/nucrm/internal/logger"
	"github.com/atomworks/nucrm/internal/migrator"
	"github.com/atomworks/nucrm/internal/store"
)

// errRunFailed marks a run that completed but left unresolved rows behind.
// It maps to a non-zero exit code without cobra printing a usage block.
var errRunFailed = errors.New("run finished with unresolved rows")

// app holds everything a subcommand needs after startup wiring.
type app struct {
	cfg *config.EngineConfig
	log *logger.Logger
	db  *store.DB
	mig *migrator.Migrator
}

// setup performs the startup sequence shared by every subcommand: load
// config, connect storage, apply schema migrations, and load the key
// store. Key problems surface here, before any row is read or written.
func setup(ctx context.Context) (*app, error) {
	cfg, err := config.GetEngineConfigNoFlags()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.NewLogger("transition")

	var db *store.DB
	switch cfg.Storage.DB.Driver {
	case "sqlite3":
		db, err = store.NewConnectSQLite(ctx, cfg.Storage.DB, log)
	default:
		db, err = store.NewConnectPostgres(ctx, cfg.Storage.DB, log)
	}
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, err
	}

	keys, err := keystore.Load(cfg.Keys, log)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &app{
		cfg: cfg,
		log: log,
		db:  db,
		mig: migrator.New(store.NewTransitionRepository(db, log), keys, log),
	}, nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.log.Err(err).Str("func", "app.close").Msg("error closing database connection")
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "transition",
		Short: "Move legacy plaintext columns into their encrypted counterparts",
		Long: `transition operates the plaintext-to-ciphertext migration of the
protected field set. Runs are idempotent and safe to repeat: a row is
either fully migrated or untouched, and already-migrated rows are never
re-encrypted.

Configuration (database, master keys, batch size) comes from the
environment and the optional JSON config file; master keys are accepted
from the environment only.`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(newScanCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newVerifyCmd())

	return root
}

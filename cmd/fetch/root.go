package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JonMunkholm/snepalysis/internal/config"
	"github.com/JonMunkholm/snepalysis/internal/core"
	"github.com/JonMunkholm/snepalysis/internal/core/layouts"
	"github.com/JonMunkholm/snepalysis/internal/logging"
	"github.com/JonMunkholm/snepalysis/internal/mirror"
	"github.com/JonMunkholm/snepalysis/internal/store"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type fetchOptions struct {
	country string
	state   string
	force   bool
	offline bool
}

// errFlagValue is returned when a value flag is followed by another flag
// instead of a value, as in "-c -f".
var errFlagValue = errors.New("invalid use of flag")

func newRootCmd() *cobra.Command {
	var opts fetchOptions

	cmd := &cobra.Command{
		Use:           "fetch",
		Short:         "Sync daily report locations into the database",
		Long:          "Clones or pulls the daily report dataset, extracts location records within the selected scope, and inserts the ones not yet stored.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return validateFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd.Context(), cmd.Flags(), opts)
		},
	}

	bindFlags(cmd.Flags(), &opts)
	return cmd
}

func bindFlags(flags *pflag.FlagSet, opts *fetchOptions) {
	flags.StringVarP(&opts.country, "country", "c", "", `Country to sync, or "any" (default from INGEST_COUNTRY)`)
	flags.StringVarP(&opts.state, "state", "s", "", `State or province to sync, or "any" (default from INGEST_STATE)`)
	flags.BoolVarP(&opts.force, "force", "f", false, "Sync even when the dataset is unchanged")
	flags.BoolVarP(&opts.offline, "offline", "o", false, "Skip pulling updates and use the local copy")
}

// validateFlags rejects scope values that look like flags.
func validateFlags(flags *pflag.FlagSet) error {
	var err error
	flags.Visit(func(f *pflag.Flag) {
		if err != nil || f.Value.Type() != "string" {
			return
		}
		if v := f.Value.String(); strings.HasPrefix(v, "-") {
			err = fmt.Errorf("%w '-%s', found flag '%s'", errFlagValue, f.Shorthand, v)
		}
	})
	return err
}

// scopeFor resolves the run scope. Flags win over configured defaults.
func scopeFor(flags *pflag.FlagSet, opts fetchOptions, cfg config.IngestConfig) core.Scope {
	country, state := cfg.Country, cfg.State
	if flags.Changed("country") {
		country = opts.country
	}
	if flags.Changed("state") {
		state = opts.state
	}
	return core.NewScope(country, state)
}

func runFetch(ctx context.Context, flags *pflag.FlagSet, opts fetchOptions) error {
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	if opts.force {
		slog.Warn("force specified, will update database")
	}
	if opts.offline {
		slog.Warn("offline specified, will not attempt to pull updates")
	}

	scope := scopeFor(flags, opts, cfg.Ingest)
	slog.Info("syncing records", "country", scope.Country, "state", scope.State, "data_dir", cfg.Dataset.DataDir())

	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	entries := store.New(pool)
	if err := entries.EnsureSchema(ctx); err != nil {
		return err
	}

	runCtx, cancel := context.WithTimeout(ctx, cfg.Dataset.Timeout)
	defer cancel()

	dataset := mirror.New(cfg.Dataset.Dir, cfg.Dataset.RemoteURL, cfg.Dataset.Branch, cfg.Dataset.DataPath)
	runner := core.NewRunner(dataset, entries, layouts.Default())

	res, err := runner.Run(runCtx, core.RunOptions{
		Scope:   scope,
		Force:   opts.force,
		Offline: opts.offline,
		Ingest: core.IngestOptions{
			MaxOpenFiles: cfg.Ingest.MaxOpenFiles,
			Extension:    cfg.Ingest.FileExtension,
		},
	})
	if err != nil {
		return err
	}

	slog.Info(fmt.Sprintf("Done in %.2fs", res.Duration.Seconds()),
		"run_id", res.ID,
		"skipped", res.Skipped,
		"files", res.Stats.FilesSeen,
		"files_skipped", res.Stats.FilesSkipped,
		"rows_matched", res.Stats.RowsMatched,
		"rows_rejected", res.Stats.RowsRejected,
		"inserted", res.Inserted,
	)
	return nil
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/starford/dayvault/internal"
	"github.com/starford/dayvault/internal/converter"
	"github.com/starford/dayvault/internal/history"
	"github.com/starford/dayvault/internal/mcpserver"
	"github.com/starford/dayvault/internal/models"
	"github.com/starford/dayvault/internal/storage"
	"github.com/starford/dayvault/internal/watch"
	pkgconfig "github.com/starford/dayvault/pkg/config"
)

var errUsage = errors.New("expected <input> <output>")

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func paths(cmd *cli.Command) (string, string, error) {
	if cmd.Args().Len() != 2 {
		return "", "", fmt.Errorf("%s: %w", cmd.Name, errUsage)
	}
	return cmd.Args().Get(0), cmd.Args().Get(1), nil
}

// openLedger opens the history database. Conversions still run when it
// cannot be opened; they are just not recorded.
func openLedger(cfg *internal.Config, logger *slog.Logger) *history.DB {
	db, err := history.Open(cfg.History.Path)
	if err != nil {
		logger.Warn("history disabled", slog.String("path", cfg.History.Path), slog.String("error", err.Error()))
		return nil
	}
	return db
}

// convertAndRecord runs one conversion and stores its outcome when db is
// non-nil.
func convertAndRecord(ctx context.Context, db *history.DB, logger *slog.Logger, input, output string, dedup bool) (converter.Result, error) {
	run := models.Run{
		ID:        uuid.NewString(),
		Source:    input,
		Output:    output,
		Dedup:     dedup,
		StartedAt: time.Now().UTC(),
	}
	res, err := converter.New(input, output, dedup, converter.WithLogger(logger)).Convert(ctx)
	run.Converted, run.Skipped = res.Converted, res.Skipped
	run.Attachments, run.MissingMedia = res.Attachments, res.MissingMedia
	run.Finish(err)

	if db != nil {
		if recErr := db.Record(run); recErr != nil {
			logger.Warn("record conversion failed", slog.String("id", run.ID), slog.String("error", recErr.Error()))
		}
	}
	return res, err
}

func convertCommand() *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "Convert an export archive or directory into a vault",
		ArgsUsage: "<input> <output>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-dedup",
				Usage: "Write repeated entries even when their text is identical",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			input, output, err := paths(cmd)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := internal.NewLogger(os.Stdout, cfg.App.LogLevel)

			db := openLedger(cfg, logger)
			if db != nil {
				defer db.Close()
			}

			dedup := cfg.Convert.Dedup && !cmd.Bool("no-dedup")
			res, err := convertAndRecord(ctx, db, logger, input, output, dedup)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "converted %d entries (%d skipped, %d attachments, %d missing media) into %s\n",
				res.Converted, res.Skipped, res.Attachments, res.MissingMedia, output)
			return nil
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Re-convert an extracted export directory whenever it changes",
		ArgsUsage: "<input> <output>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-dedup",
				Usage: "Write repeated entries even when their text is identical",
			},
			&cli.DurationFlag{
				Name:  "debounce",
				Usage: "Quiet period before a run starts",
				Value: watch.DefaultDebounce,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			input, output, err := paths(cmd)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := internal.NewLogger(os.Stdout, cfg.App.LogLevel)

			db := openLedger(cfg, logger)
			if db != nil {
				defer db.Close()
			}

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			dedup := cfg.Convert.Dedup && !cmd.Bool("no-dedup")
			w := watch.New(input, func(ctx context.Context) error {
				_, err := convertAndRecord(ctx, db, logger, input, output, dedup)
				return err
			},
				watch.WithDebounce(cmd.Duration("debounce")),
				watch.WithLogger(logger),
				watch.WithIgnore(output),
			)
			if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP upload service",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
				return fmt.Errorf("app run error: %w", err)
			}
			return nil
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve conversion tools over MCP stdio",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "vault",
				Usage:   "Vault directory the tools convert into and read from",
				Value:   "./vault",
				Sources: cli.EnvVars("DAYVAULT_VAULT"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			// stdout carries the protocol.
			logger := internal.NewLogger(os.Stderr, cfg.App.LogLevel)

			store, err := storage.NewFS(cmd.String("vault"))
			if err != nil {
				return err
			}
			db := openLedger(cfg, logger)
			var ledger history.Ledger
			if db != nil {
				defer db.Close()
				ledger = db
			}

			logger.Info("MCP server starting", slog.String("vault", store.Root()))
			return mcpserver.New(store, ledger, logger).ServeStdio()
		},
	}
}

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Print recent conversion runs as JSON",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs",
				Value: history.DefaultLimit,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			db, err := history.Open(cfg.History.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			runs, err := db.List(int(cmd.Int("limit")))
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(runs)
		},
	}
}

// Command arecord generates and runs migrations for the application's
// entities.
//
//	arecord make:migration User Post
//	arecord migrate
//	arecord migrate:rollback
//	arecord migrate:status
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/syssam/arecord"
	"github.com/syssam/arecord/dialect"
	"github.com/syssam/arecord/dialect/sql"
	"github.com/syssam/arecord/internal/config"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}
	a := &app{
		stdout: os.Stdout,
		stderr: os.Stderr,
		open:   openDriver,
		now:    time.Now,
	}
	if err := a.command().Run(context.Background(), args); err != nil {
		if errors.Is(err, arecord.ErrConnection) {
			fmt.Fprintln(os.Stderr, "arecord: cannot continue without a database:", err)
		} else {
			fmt.Fprintln(os.Stderr, "arecord:", err)
		}
		os.Exit(1)
	}
}

// app holds the process-level dependencies of the commands.
type app struct {
	stdout io.Writer
	stderr io.Writer
	open   func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (dialect.Driver, error)
	now    func() time.Time
}

func (a *app) command() *cli.Command {
	return &cli.Command{
		Name:      "arecord",
		Usage:     "Generate and run database migrations",
		Writer:    a.stdout,
		ErrWriter: a.stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML or JSON config file",
				Sources: cli.EnvVars("ARECORD_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			a.makeMigrationCommand(),
			a.migrateCommand(),
			a.rollbackCommand(),
			a.statusCommand(),
		},
	}
}

// setup loads the configuration and builds the logger.
func (a *app) setup(cmd *cli.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, nil, err
	}
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewTextHandler(a.stderr, opts)
	if cfg.Log.Format == "json" {
		h = slog.NewJSONHandler(a.stderr, opts)
	}
	return cfg, slog.New(h), nil
}

// openDriver connects to MySQL. Statements are counted and slow ones
// logged; with debug enabled every statement is logged instead.
func openDriver(ctx context.Context, cfg *config.Config, logger *slog.Logger) (dialect.Driver, error) {
	drv, err := sql.Open(ctx, dialect.MySQL, cfg.DSN())
	if err != nil {
		var ce *arecord.ConnectionError
		if errors.As(err, &ce) {
			ce.Addr = cfg.Addr()
		}
		return nil, err
	}
	if cfg.Database.Debug {
		return sql.NewDebugDriver(drv, logger), nil
	}
	var opts []sql.StatsOption
	if cfg.Database.SlowQuery > 0 {
		opts = append(opts, sql.WithSlowThreshold(cfg.Database.SlowQuery), sql.WithSlowQueryLog(logger))
	}
	return sql.NewStatsDriver(drv, opts...), nil
}

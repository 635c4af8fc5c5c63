package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/syssam/arecord/compiler/gen"
	"github.com/syssam/arecord/dialect"
	"github.com/syssam/arecord/dialect/sql"
	"github.com/syssam/arecord/dialect/sql/schema"
	"github.com/syssam/arecord/internal/config"
	"github.com/syssam/arecord/internal/models"
	"github.com/syssam/arecord/migrations"
)

func (a *app) makeMigrationCommand() *cli.Command {
	return &cli.Command{
		Name:      "make:migration",
		Usage:     "Generate create-table migrations for the named entities",
		ArgsUsage: "<Entity>...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Usage: "output directory (overrides migrations.dir)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			names := cmd.Args().Slice()
			if len(names) == 0 {
				return errors.New("make:migration requires at least one entity name")
			}
			cfg, _, err := a.setup(cmd)
			if err != nil {
				return err
			}
			dir := cfg.Migrations.Dir
			if d := cmd.String("dir"); d != "" {
				dir = d
			}
			registry, err := models.NewRegistry()
			if err != nil {
				return err
			}
			results, err := gen.NewGenerator(registry, dir, gen.WithClock(a.now)).Generate(ctx, names...)
			if err != nil {
				return err
			}
			for _, r := range results {
				fmt.Fprintf(a.stdout, "Migration %s created successfully at %s\n", r.Name, r.Path)
			}
			return nil
		},
	}
}

func (a *app) migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply every pending migration",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return a.withMigrator(ctx, cmd, func(m *schema.Migrator) error {
				report, err := m.Up(ctx)
				if report != nil {
					for _, name := range report.Skipped {
						fmt.Fprintf(a.stdout, "Migration already applied: %s\n", name)
					}
					for _, name := range report.Applied {
						fmt.Fprintf(a.stdout, "Applied %s\n", name)
					}
					if err == nil && len(report.Applied) == 0 {
						fmt.Fprintln(a.stdout, "Nothing to migrate")
					}
				}
				return err
			})
		},
	}
}

func (a *app) rollbackCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate:rollback",
		Usage: "Revert the most recently applied migration",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return a.withMigrator(ctx, cmd, func(m *schema.Migrator) error {
				name, err := m.Rollback(ctx)
				if err != nil {
					return err
				}
				if name == "" {
					fmt.Fprintln(a.stdout, "Nothing to roll back")
					return nil
				}
				fmt.Fprintf(a.stdout, "Rolled back %s\n", name)
				return nil
			})
		},
	}
}

func (a *app) statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate:status",
		Usage: "Show which migrations have been applied",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return a.withMigrator(ctx, cmd, func(m *schema.Migrator) error {
				status, err := m.Status(ctx)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "Ran?\tMigration")
				for _, s := range status {
					ran := "No"
					if s.Applied {
						ran = "Yes"
					}
					name := s.Name
					if s.Orphan {
						name += " (no matching unit)"
					}
					fmt.Fprintf(w, "%s\t%s\n", ran, name)
				}
				return w.Flush()
			})
		},
	}
}

// withMigrator opens the database, runs fn with a Migrator over the
// registered units and closes the database.
func (a *app) withMigrator(ctx context.Context, cmd *cli.Command, fn func(*schema.Migrator) error) error {
	cfg, logger, err := a.setup(cmd)
	if err != nil {
		return err
	}
	drv, err := a.open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer drv.Close()
	defer logStats(ctx, logger, drv)

	m, err := newMigrator(drv, cfg, logger)
	if err != nil {
		return err
	}
	return fn(m)
}

func newMigrator(drv dialect.ExecQuerier, cfg *config.Config, logger *slog.Logger) (*schema.Migrator, error) {
	return schema.NewMigrator(drv, migrations.All(),
		schema.WithLedgerTable(cfg.Migrations.Table),
		schema.WithLogger(logger),
	)
}

func logStats(ctx context.Context, logger *slog.Logger, drv dialect.Driver) {
	if sd, ok := drv.(*sql.StatsDriver); ok {
		logger.DebugContext(ctx, "database statistics", "stats", sd.QueryStats().Snapshot().String())
	}
}

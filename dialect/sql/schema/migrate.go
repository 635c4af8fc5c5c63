package schema

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/syssam/arecord/dialect"
	"github.com/syssam/arecord/dialect/sql"
)

// DefaultLedgerTable is the table recording applied migrations.
const DefaultLedgerTable = "migrations"

// Migration is a named, reversible schema change. Names sort in apply
// order, which is why generated units carry a timestamp prefix.
type Migration interface {
	Name() string
	Up(ctx context.Context, drv dialect.ExecQuerier) error
	Down(ctx context.Context, drv dialect.ExecQuerier) error
}

// TableMigration creates Table on Up and drops it on Down.
type TableMigration struct {
	ID    string
	Table *Table
}

// Name implements Migration.
func (m *TableMigration) Name() string { return m.ID }

// Up implements Migration.
func (m *TableMigration) Up(ctx context.Context, drv dialect.ExecQuerier) error {
	return CreateTable(ctx, drv, m.Table)
}

// Down implements Migration.
func (m *TableMigration) Down(ctx context.Context, drv dialect.ExecQuerier) error {
	return DropTable(ctx, drv, m.Table.Name)
}

// Migrator applies and reverts migrations, recording applied units in a
// ledger table.
type Migrator struct {
	drv    dialect.ExecQuerier
	ledger string
	logger *slog.Logger
	units  []Migration
}

// MigrateOption configures a Migrator.
type MigrateOption func(*Migrator)

// WithLedgerTable overrides the ledger table name.
func WithLedgerTable(name string) MigrateOption {
	return func(m *Migrator) {
		m.ledger = name
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) MigrateOption {
	return func(m *Migrator) {
		m.logger = l
	}
}

// NewMigrator returns a Migrator for the given units. Units are sorted by
// name and names must be unique.
func NewMigrator(drv dialect.ExecQuerier, units []Migration, opts ...MigrateOption) (*Migrator, error) {
	m := &Migrator{drv: drv, ledger: DefaultLedgerTable, logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	if err := sql.ValidIdentifier("table", m.ledger); err != nil {
		return nil, err
	}
	m.units = append([]Migration(nil), units...)
	sort.SliceStable(m.units, func(i, j int) bool { return m.units[i].Name() < m.units[j].Name() })
	for i := 1; i < len(m.units); i++ {
		if m.units[i].Name() == m.units[i-1].Name() {
			return nil, fmt.Errorf("migrate: duplicate migration %q", m.units[i].Name())
		}
	}
	return m, nil
}

// Report summarizes a run of Up.
type Report struct {
	RunID   string
	Applied []string
	Skipped []string
}

// Status is the state of a single migration.
type Status struct {
	Name    string
	Applied bool
	// Orphan marks a ledger entry without a matching unit.
	Orphan bool
}

func (m *Migrator) ledgerSQL() string {
	return "CREATE TABLE IF NOT EXISTS " + m.ledger +
		" (id INT AUTO_INCREMENT PRIMARY KEY, migration VARCHAR(255) NOT NULL UNIQUE, applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP)"
}

func (m *Migrator) ensureLedger(ctx context.Context) error {
	if err := m.drv.Exec(ctx, m.ledgerSQL(), []any{}, nil); err != nil {
		return fmt.Errorf("migrate: create ledger %s: %w", m.ledger, err)
	}
	return nil
}

// applied returns the ledger entries in apply order.
func (m *Migrator) applied(ctx context.Context) ([]string, error) {
	values, err := sql.Table(m.drv, m.ledger).OrderBy("id").Pluck(ctx, "migration")
	if err != nil {
		return nil, fmt.Errorf("migrate: read ledger: %w", err)
	}
	names := make([]string, 0, len(values))
	for _, v := range values {
		names = append(names, fmt.Sprint(v))
	}
	return names, nil
}

// Up applies every pending migration in name order. It stops at the first
// failure; units applied before it stay recorded.
func (m *Migrator) Up(ctx context.Context) (*Report, error) {
	report := &Report{RunID: uuid.NewString()}
	logger := m.logger.With("run", report.RunID)
	if err := m.ensureLedger(ctx); err != nil {
		return report, err
	}
	names, err := m.applied(ctx)
	if err != nil {
		return report, err
	}
	done := make(map[string]bool, len(names))
	for _, n := range names {
		done[n] = true
	}
	for _, u := range m.units {
		name := u.Name()
		if done[name] {
			logger.InfoContext(ctx, "skipping migration, already applied", "migration", name)
			report.Skipped = append(report.Skipped, name)
			continue
		}
		if err := u.Up(ctx, m.drv); err != nil {
			logger.ErrorContext(ctx, "migration failed", "migration", name, "error", err)
			return report, fmt.Errorf("migrate: apply %s: %w", name, err)
		}
		if _, err := sql.Table(m.drv, m.ledger).Insert(ctx, map[string]any{"migration": name}); err != nil {
			return report, fmt.Errorf("migrate: record %s: %w", name, err)
		}
		logger.InfoContext(ctx, "applied migration", "migration", name)
		report.Applied = append(report.Applied, name)
	}
	return report, nil
}

// Rollback reverts the most recently applied migration and removes its
// ledger entry. It returns the reverted name, or "" when nothing is applied.
func (m *Migrator) Rollback(ctx context.Context) (string, error) {
	logger := m.logger.With("run", uuid.NewString())
	if err := m.ensureLedger(ctx); err != nil {
		return "", err
	}
	row, err := sql.Table(m.drv, m.ledger).Select("id", "migration").OrderBy("id", "DESC").First(ctx)
	if err != nil {
		return "", fmt.Errorf("migrate: read ledger: %w", err)
	}
	if row == nil {
		logger.InfoContext(ctx, "no migrations to roll back")
		return "", nil
	}
	name := fmt.Sprint(row["migration"])
	u := m.lookup(name)
	if u == nil {
		return "", fmt.Errorf("migrate: ledger entry %q has no matching migration", name)
	}
	if err := u.Down(ctx, m.drv); err != nil {
		return "", fmt.Errorf("migrate: revert %s: %w", name, err)
	}
	if _, err := sql.Table(m.drv, m.ledger).Where("migration", "=", name).Delete(ctx); err != nil {
		return "", fmt.Errorf("migrate: unrecord %s: %w", name, err)
	}
	logger.InfoContext(ctx, "rolled back migration", "migration", name)
	return name, nil
}

// Status lists every known migration with its state, followed by ledger
// entries that no unit matches.
func (m *Migrator) Status(ctx context.Context) ([]Status, error) {
	if err := m.ensureLedger(ctx); err != nil {
		return nil, err
	}
	names, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}
	done := make(map[string]bool, len(names))
	for _, n := range names {
		done[n] = true
	}
	out := make([]Status, 0, len(m.units))
	for _, u := range m.units {
		out = append(out, Status{Name: u.Name(), Applied: done[u.Name()]})
	}
	for _, n := range names {
		if m.lookup(n) == nil {
			out = append(out, Status{Name: n, Applied: true, Orphan: true})
		}
	}
	return out, nil
}

// Migrations returns the units in apply order.
func (m *Migrator) Migrations() []Migration {
	return append([]Migration(nil), m.units...)
}

func (m *Migrator) lookup(name string) Migration {
	i := sort.Search(len(m.units), func(i int) bool { return m.units[i].Name() >= name })
	if i < len(m.units) && m.units[i].Name() == name {
		return m.units[i]
	}
	return nil
}

package schema

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/arecord/dialect"
	"github.com/syssam/arecord/dialect/sql"
	"github.com/syssam/arecord/schema/field"
)

func escape(query string) string {
	rows := strings.Split(query, "\n")
	for i := range rows {
		rows[i] = strings.TrimPrefix(rows[i], " ")
	}
	query = strings.Join(rows, " ")
	return strings.TrimSpace(regexp.QuoteMeta(query)) + "$"
}

const ledgerDDL = "CREATE TABLE IF NOT EXISTS migrations (id INT AUTO_INCREMENT PRIMARY KEY, migration VARCHAR(255) NOT NULL UNIQUE, applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP)"

func usersUnit() *TableMigration {
	return &TableMigration{
		ID: "2025_02_21_125414_CreateUsersTable",
		Table: NewTable("users",
			field.Int("id").PrimaryKey().Descriptor(),
			field.String("email").Unique().Required().Descriptor(),
		),
	}
}

func postsUnit() *TableMigration {
	return &TableMigration{
		ID: "2025_02_22_090000_CreatePostsTable",
		Table: NewTable("posts",
			field.Int("id").PrimaryKey().Descriptor(),
			field.Ref("user_id", "users").Descriptor(),
		),
	}
}

func newMigrator(t *testing.T, units ...Migration) (*Migrator, sqlmock.Sqlmock, *bytes.Buffer) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	var buf bytes.Buffer
	m, err := NewMigrator(sql.OpenDB(dialect.MySQL, db), units, WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	require.NoError(t, err)
	return m, mock, &buf
}

func TestMigratorUp(t *testing.T) {
	// Units are registered out of order on purpose.
	m, mock, logs := newMigrator(t, postsUnit(), usersUnit())

	mock.ExpectExec(escape(ledgerDDL)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(escape("SELECT migration FROM migrations ORDER BY id ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"migration"}))
	mock.ExpectExec(escape(usersUnit().Table.CreateSQL())).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(escape("INSERT INTO migrations (migration) VALUES (?)")).
		WithArgs("2025_02_21_125414_CreateUsersTable").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(escape(postsUnit().Table.CreateSQL())).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(escape("INSERT INTO migrations (migration) VALUES (?)")).
		WithArgs("2025_02_22_090000_CreatePostsTable").
		WillReturnResult(sqlmock.NewResult(2, 1))

	report, err := m.Up(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2025_02_21_125414_CreateUsersTable", "2025_02_22_090000_CreatePostsTable"}, report.Applied)
	assert.Empty(t, report.Skipped)
	assert.NotEmpty(t, report.RunID)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Contains(t, logs.String(), "applied migration")
	assert.Contains(t, logs.String(), "run="+report.RunID)
}

func TestMigratorUpSkipsApplied(t *testing.T) {
	m, mock, _ := newMigrator(t, usersUnit(), postsUnit())

	mock.ExpectExec(escape(ledgerDDL)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(escape("SELECT migration FROM migrations ORDER BY id ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"migration"}).
			AddRow([]byte("2025_02_21_125414_CreateUsersTable")).
			AddRow([]byte("2025_02_22_090000_CreatePostsTable")))

	report, err := m.Up(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Applied)
	assert.Len(t, report.Skipped, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigratorUpStopsAtFailure(t *testing.T) {
	m, mock, logs := newMigrator(t, usersUnit(), postsUnit())

	mock.ExpectExec(escape(ledgerDDL)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(escape("SELECT migration FROM migrations ORDER BY id ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"migration"}))
	mock.ExpectExec(escape(usersUnit().Table.CreateSQL())).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(escape("INSERT INTO migrations (migration) VALUES (?)")).
		WithArgs("2025_02_21_125414_CreateUsersTable").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(escape(postsUnit().Table.CreateSQL())).WillReturnError(errors.New("table exists"))

	report, err := m.Up(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apply 2025_02_22_090000_CreatePostsTable")
	assert.Equal(t, []string{"2025_02_21_125414_CreateUsersTable"}, report.Applied)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Contains(t, logs.String(), "migration failed")
}

func TestMigratorRollback(t *testing.T) {
	m, mock, _ := newMigrator(t, usersUnit(), postsUnit())

	// Only the newest unit is reverted.
	mock.ExpectExec(escape(ledgerDDL)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(escape("SELECT id, migration FROM migrations ORDER BY id DESC LIMIT 1")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "migration"}).AddRow(int64(2), "2025_02_22_090000_CreatePostsTable"))
	mock.ExpectExec(escape("DROP TABLE IF EXISTS posts")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(escape("DELETE FROM migrations WHERE migration = ?")).
		WithArgs("2025_02_22_090000_CreatePostsTable").
		WillReturnResult(sqlmock.NewResult(0, 1))

	name, err := m.Rollback(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2025_02_22_090000_CreatePostsTable", name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigratorRollbackEmpty(t *testing.T) {
	m, mock, logs := newMigrator(t, usersUnit())

	mock.ExpectExec(escape(ledgerDDL)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(escape("SELECT id, migration FROM migrations ORDER BY id DESC LIMIT 1")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "migration"}))

	name, err := m.Rollback(context.Background())
	require.NoError(t, err)
	assert.Empty(t, name)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Contains(t, logs.String(), "no migrations to roll back")
}

func TestMigratorRollbackUnknown(t *testing.T) {
	m, mock, _ := newMigrator(t, usersUnit())

	mock.ExpectExec(escape(ledgerDDL)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(escape("SELECT id, migration FROM migrations ORDER BY id DESC LIMIT 1")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "migration"}).AddRow(int64(7), "2024_01_01_000000_CreateGoneTable"))

	_, err := m.Rollback(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no matching migration")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigratorStatus(t *testing.T) {
	m, mock, _ := newMigrator(t, usersUnit(), postsUnit())

	mock.ExpectExec(escape(ledgerDDL)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(escape("SELECT migration FROM migrations ORDER BY id ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"migration"}).
			AddRow("2025_02_21_125414_CreateUsersTable").
			AddRow("2024_01_01_000000_CreateGoneTable"))

	status, err := m.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Status{
		{Name: "2025_02_21_125414_CreateUsersTable", Applied: true},
		{Name: "2025_02_22_090000_CreatePostsTable", Applied: false},
		{Name: "2024_01_01_000000_CreateGoneTable", Applied: true, Orphan: true},
	}, status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewMigrator(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	drv := sql.OpenDB(dialect.MySQL, db)

	_, err = NewMigrator(drv, []Migration{usersUnit(), usersUnit()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate migration")

	_, err = NewMigrator(drv, nil, WithLedgerTable("bad name"))
	require.Error(t, err)

	m, err := NewMigrator(drv, []Migration{postsUnit(), usersUnit()}, WithLedgerTable("schema_log"))
	require.NoError(t, err)
	units := m.Migrations()
	require.Len(t, units, 2)
	assert.Equal(t, "2025_02_21_125414_CreateUsersTable", units[0].Name())
	assert.Contains(t, m.ledgerSQL(), "CREATE TABLE IF NOT EXISTS schema_log (")
}

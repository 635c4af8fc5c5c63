package sql

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/syssam/arecord"
	"github.com/syssam/arecord/dialect"
)

// ErrColumnMismatch is returned by BatchInsert when rows do not share the
// column set of the first row.
var ErrColumnMismatch = errors.New("arecord: batch rows must share the same columns")

// Builder accumulates the clauses of a single statement against one table
// and executes it. A Builder is meant for one call chain: build, execute,
// discard. Reusing it leaks filter state into the next statement.
//
//	rows, err := sql.Table(drv, "users").
//	    Select("id", "email").
//	    Where("active", "=", true).
//	    OrderBy("id", "DESC").
//	    Limit(10).
//	    Get(ctx)
//
// Chained calls never fail immediately. The first invalid operator or
// identifier is recorded and returned by the terminal call, before any
// statement reaches the database.
type Builder struct {
	drv     dialect.ExecQuerier
	table   string
	columns []string
	joins   []string
	wheres  []string
	args    []any
	order   string
	group   []string
	limit   int
	offset  int
	err     error
}

// Table returns a Builder for the given table.
func Table(drv dialect.ExecQuerier, name string) *Builder {
	b := &Builder{drv: drv, table: name, columns: []string{"*"}}
	if err := ValidIdentifier("table", name); err != nil {
		b.err = err
	}
	return b
}

// TableName returns the target table.
func (b *Builder) TableName() string { return b.table }

// Err returns the first error recorded while building, if any.
func (b *Builder) Err() error { return b.err }

func (b *Builder) setErr(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Select replaces the selected columns. No arguments selects `*`.
func (b *Builder) Select(columns ...string) *Builder {
	if len(columns) == 0 {
		columns = []string{"*"}
	}
	for _, c := range columns {
		if !validSelectColumn(c) {
			b.setErr(arecord.NewIdentifierError("column", c))
			return b
		}
	}
	b.columns = append([]string(nil), columns...)
	return b
}

// Where appends the predicate `column op ?` and binds value. IN and NOT IN
// expand a slice value into one placeholder per element.
func (b *Builder) Where(column, op string, value any) *Builder {
	if err := ValidIdentifier("column", column); err != nil {
		b.setErr(err)
		return b
	}
	op, err := NormalizeOperator(op)
	if err != nil {
		b.setErr(err)
		return b
	}
	if op != OpIn && op != OpNotIn {
		b.wheres = append(b.wheres, column+" "+op+" ?")
		b.args = append(b.args, value)
		return b
	}
	vs, ok := listArgs(value)
	if !ok {
		vs = []any{value}
	}
	if len(vs) == 0 {
		b.setErr(fmt.Errorf("arecord: %s on column %q requires a non-empty list", op, column))
		return b
	}
	b.wheres = append(b.wheres, fmt.Sprintf("%s %s (%s)", column, op, placeholders(len(vs))))
	b.args = append(b.args, vs...)
	return b
}

// WhereRaw appends a literal predicate and its bindings verbatim. The
// fragment is not inspected beyond matching its `?` count against args;
// never build it from user input.
func (b *Builder) WhereRaw(fragment string, args ...any) *Builder {
	if n := strings.Count(fragment, "?"); n != len(args) {
		b.setErr(fmt.Errorf("arecord: raw predicate %q has %d placeholders but %d arguments", fragment, n, len(args)))
		return b
	}
	b.wheres = append(b.wheres, fragment)
	b.args = append(b.args, args...)
	return b
}

// OrderBy sets the ordering column and direction (ASC or DESC, default ASC).
func (b *Builder) OrderBy(column string, direction ...string) *Builder {
	if err := ValidIdentifier("column", column); err != nil {
		b.setErr(err)
		return b
	}
	dir := "ASC"
	if len(direction) > 0 && direction[0] != "" {
		dir = strings.ToUpper(direction[0])
	}
	if dir != "ASC" && dir != "DESC" {
		b.setErr(arecord.NewIdentifierError("order direction", direction[0]))
		return b
	}
	b.order = column + " " + dir
	return b
}

// GroupBy appends grouping columns.
func (b *Builder) GroupBy(columns ...string) *Builder {
	for _, c := range columns {
		if err := ValidIdentifier("column", c); err != nil {
			b.setErr(err)
			return b
		}
	}
	b.group = append(b.group, columns...)
	return b
}

// Limit sets the row limit. Zero means no limit.
func (b *Builder) Limit(n int) *Builder {
	b.limit = n
	return b
}

// Offset sets the row offset. Zero means no offset.
func (b *Builder) Offset(n int) *Builder {
	b.offset = n
	return b
}

// InnerJoin appends `INNER JOIN table ON on`. The ON fragment is raw SQL.
func (b *Builder) InnerJoin(table, on string) *Builder {
	return b.join("INNER", table, on)
}

// LeftJoin appends `LEFT JOIN table ON on`. The ON fragment is raw SQL.
func (b *Builder) LeftJoin(table, on string) *Builder {
	return b.join("LEFT", table, on)
}

func (b *Builder) join(kind, table, on string) *Builder {
	if err := ValidIdentifier("table", table); err != nil {
		b.setErr(err)
		return b
	}
	b.joins = append(b.joins, kind+" JOIN "+table+" ON "+on)
	return b
}

// Query renders the SELECT statement and its bindings.
func (b *Builder) Query() (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(b.columns, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(b.table)
	b.writeTail(&sb)
	return sb.String(), append([]any(nil), b.args...)
}

// String implements fmt.Stringer.
func (b *Builder) String() string {
	q, _ := b.Query()
	return q
}

// writeTail renders everything after the FROM clause, in clause order.
func (b *Builder) writeTail(sb *strings.Builder) {
	for _, j := range b.joins {
		sb.WriteString(" ")
		sb.WriteString(j)
	}
	b.writeWhere(sb)
	if b.order != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(b.order)
	}
	if len(b.group) > 0 {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(b.group, ", "))
	}
	if b.limit > 0 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(b.limit))
	}
	if b.offset > 0 {
		sb.WriteString(" OFFSET ")
		sb.WriteString(strconv.Itoa(b.offset))
	}
}

func (b *Builder) writeWhere(sb *strings.Builder) {
	if len(b.wheres) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(b.wheres, " AND "))
	}
}

// Get executes the SELECT and returns every row keyed by column name.
func (b *Builder) Get(ctx context.Context) ([]map[string]any, error) {
	if b.err != nil {
		return nil, b.err
	}
	query, args := b.Query()
	return b.queryMaps(ctx, "select", query, args)
}

// First limits the query to one row and returns it, or nil when the
// result is empty.
func (b *Builder) First(ctx context.Context) (map[string]any, error) {
	rows, err := b.Limit(1).Get(ctx)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// Count returns the number of rows matching the joins and predicates.
// On a grouped builder it returns the number of groups. Order, limit and
// offset are ignored.
func (b *Builder) Count(ctx context.Context) (int64, error) {
	if b.err != nil {
		return 0, b.err
	}
	var sb strings.Builder
	if len(b.group) > 0 {
		sb.WriteString("SELECT COUNT(*) FROM (SELECT 1 FROM ")
	} else {
		sb.WriteString("SELECT COUNT(*) FROM ")
	}
	sb.WriteString(b.table)
	for _, j := range b.joins {
		sb.WriteString(" ")
		sb.WriteString(j)
	}
	b.writeWhere(&sb)
	if len(b.group) > 0 {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(b.group, ", "))
		sb.WriteString(") grouped")
	}
	rows := &Rows{}
	if err := b.drv.Query(ctx, sb.String(), append([]any(nil), b.args...), rows); err != nil {
		return 0, arecord.NewQueryError(b.table, "count", err)
	}
	defer rows.Close()
	var n int64
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, arecord.NewQueryError(b.table, "count", err)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, arecord.NewQueryError(b.table, "count", err)
	}
	return n, nil
}

// Pluck returns the values of one column in row order.
func (b *Builder) Pluck(ctx context.Context, column string) ([]any, error) {
	rows, err := b.Select(column).Get(ctx)
	if err != nil {
		return nil, err
	}
	name := bareColumn(column)
	out := make([]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, r[name])
	}
	return out, nil
}

// PluckMap returns column values keyed by the key column. When two rows
// share a key, the later row wins.
func (b *Builder) PluckMap(ctx context.Context, column, key string) (map[any]any, error) {
	cols := []string{column}
	if key != column {
		cols = append(cols, key)
	}
	rows, err := b.Select(cols...).Get(ctx)
	if err != nil {
		return nil, err
	}
	name, kname := bareColumn(column), bareColumn(key)
	out := make(map[any]any, len(rows))
	for _, r := range rows {
		out[r[kname]] = r[name]
	}
	return out, nil
}

// Insert inserts one row and returns the generated identity.
func (b *Builder) Insert(ctx context.Context, data map[string]any) (int64, error) {
	if b.err != nil {
		return 0, b.err
	}
	columns, err := sortedColumns(data)
	if err != nil {
		return 0, err
	}
	args := make([]any, 0, len(columns))
	for _, c := range columns {
		args = append(args, data[c])
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", b.table, strings.Join(columns, ", "), placeholders(len(columns)))
	res, err := b.exec(ctx, "insert", query, args)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, arecord.NewMutationError(b.table, "insert", err)
	}
	return id, nil
}

// BatchInsert inserts all rows with a single statement. The column set is
// taken from the first row and every other row must match it. An empty
// input returns false without issuing a statement.
func (b *Builder) BatchInsert(ctx context.Context, rows []map[string]any) (bool, error) {
	if b.err != nil {
		return false, b.err
	}
	if len(rows) == 0 {
		return false, nil
	}
	columns, err := sortedColumns(rows[0])
	if err != nil {
		return false, err
	}
	if len(columns) == 0 {
		return false, fmt.Errorf("%w: first row is empty", ErrColumnMismatch)
	}
	group := "(" + placeholders(len(columns)) + ")"
	groups := make([]string, 0, len(rows))
	args := make([]any, 0, len(rows)*len(columns))
	for i, r := range rows {
		if len(r) != len(columns) {
			return false, fmt.Errorf("%w: row %d has %d columns, want %d", ErrColumnMismatch, i, len(r), len(columns))
		}
		for _, c := range columns {
			v, ok := r[c]
			if !ok {
				return false, fmt.Errorf("%w: row %d is missing column %q", ErrColumnMismatch, i, c)
			}
			args = append(args, v)
		}
		groups = append(groups, group)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", b.table, strings.Join(columns, ", "), strings.Join(groups, ", "))
	res, err := b.exec(ctx, "batch insert", query, args)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, arecord.NewMutationError(b.table, "batch insert", err)
	}
	return n > 0, nil
}

// Update sets data on every row matching the accumulated predicates and
// returns the number of affected rows. At least one predicate is required.
func (b *Builder) Update(ctx context.Context, data map[string]any) (int64, error) {
	if b.err != nil {
		return 0, b.err
	}
	if len(b.wheres) == 0 {
		return 0, arecord.NewMissingWhereError(b.table, "update")
	}
	columns, err := sortedColumns(data)
	if err != nil {
		return 0, err
	}
	if len(columns) == 0 {
		return 0, fmt.Errorf("arecord: update on %s has no columns to set", b.table)
	}
	sets := make([]string, len(columns))
	args := make([]any, 0, len(columns)+len(b.args))
	for i, c := range columns {
		sets[i] = c + " = ?"
		args = append(args, data[c])
	}
	args = append(args, b.args...)
	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(b.table)
	sb.WriteString(" SET ")
	sb.WriteString(strings.Join(sets, ", "))
	b.writeWhere(&sb)
	res, err := b.exec(ctx, "update", sb.String(), args)
	if err != nil {
		return 0, err
	}
	return rowsAffected(b.table, "update", res)
}

// Delete removes every row matching the accumulated predicates and returns
// the number of affected rows. At least one predicate is required.
func (b *Builder) Delete(ctx context.Context) (int64, error) {
	if b.err != nil {
		return 0, b.err
	}
	if len(b.wheres) == 0 {
		return 0, arecord.NewMissingWhereError(b.table, "delete")
	}
	var sb strings.Builder
	sb.WriteString("DELETE FROM ")
	sb.WriteString(b.table)
	b.writeWhere(&sb)
	res, err := b.exec(ctx, "delete", sb.String(), append([]any(nil), b.args...))
	if err != nil {
		return 0, err
	}
	return rowsAffected(b.table, "delete", res)
}

func (b *Builder) queryMaps(ctx context.Context, op, query string, args []any) ([]map[string]any, error) {
	rows := &Rows{}
	if err := b.drv.Query(ctx, query, args, rows); err != nil {
		return nil, arecord.NewQueryError(b.table, op, err)
	}
	defer rows.Close()
	out, err := ScanMaps(rows)
	if err != nil {
		return nil, arecord.NewQueryError(b.table, op, err)
	}
	return out, nil
}

func (b *Builder) exec(ctx context.Context, op, query string, args []any) (Result, error) {
	var res Result
	if err := b.drv.Exec(ctx, query, args, &res); err != nil {
		if msg, ok := constraintViolation(err); ok {
			err = arecord.NewConstraintError(msg, err)
		}
		return nil, arecord.NewMutationError(b.table, op, err)
	}
	return res, nil
}

func rowsAffected(table, op string, res Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, arecord.NewMutationError(table, op, err)
	}
	return n, nil
}

// sortedColumns validates and orders the keys of a payload so the
// rendered statement is deterministic.
func sortedColumns(data map[string]any) ([]string, error) {
	columns := make([]string, 0, len(data))
	for c := range data {
		if err := ValidIdentifier("column", c); err != nil {
			return nil, err
		}
		columns = append(columns, c)
	}
	sort.Strings(columns)
	return columns, nil
}

// bareColumn strips a table qualifier, matching the key drivers report.
func bareColumn(c string) string {
	if i := strings.LastIndexByte(c, '.'); i >= 0 {
		return c[i+1:]
	}
	return c
}

// MySQL server error numbers reported as constraint violations.
const (
	mysqlDupEntry        = 1062
	mysqlRowIsReferenced = 1451
	mysqlNoReferencedRow = 1452
)

// constraintViolation reports whether err is a unique or foreign-key
// violation, returning a short description.
func constraintViolation(err error) (string, bool) {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlDupEntry:
			return "unique: " + me.Message, true
		case mysqlRowIsReferenced, mysqlNoReferencedRow:
			return "foreign key: " + me.Message, true
		}
		return "", false
	}
	// SQLite reports constraint failures only through the message text.
	msg := err.Error()
	if i := strings.Index(msg, "constraint failed"); i >= 0 {
		return strings.TrimSpace(msg[i:]), true
	}
	return "", false
}

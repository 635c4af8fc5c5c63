package schema

import (
	"context"
	"strings"

	"github.com/syssam/arecord/dialect"
	"github.com/syssam/arecord/schema/field"
)

// Column options, in the order they are rendered.
const (
	OptPrimaryKey = "PRIMARY KEY AUTO_INCREMENT"
	OptUnique     = "UNIQUE"
	OptNotNull    = "NOT NULL"
)

// ForeignKey is a table-level FOREIGN KEY reference.
type ForeignKey struct {
	Table  string
	Column string
}

// Column is the snapshot of one column of a table.
type Column struct {
	Name    string
	Type    string
	Options []string
	// Foreign is set for explicit foreign keys and renders a table-level
	// FOREIGN KEY clause.
	Foreign *ForeignKey
	// Index renders a table-level INDEX(column) clause.
	Index bool
}

// SQL renders the column definition.
func (c *Column) SQL() string {
	if len(c.Options) == 0 {
		return c.Name + " " + c.Type
	}
	return c.Name + " " + c.Type + " " + strings.Join(c.Options, " ")
}

func (c *Column) addOption(opt string) {
	for _, o := range c.Options {
		if o == opt {
			return
		}
	}
	c.Options = append(c.Options, opt)
}

// Table is the snapshot of a table as created by a migration.
type Table struct {
	Name    string
	Columns []*Column
}

// NewTable translates field descriptors into a table snapshot.
func NewTable(name string, fields ...*field.Descriptor) *Table {
	t := &Table{Name: name, Columns: make([]*Column, 0, len(fields))}
	for _, fd := range fields {
		t.Columns = append(t.Columns, NewColumn(fd))
	}
	return t
}

// ColumnType returns the default column type of a field type.
func ColumnType(t field.Type) string {
	switch t {
	case field.TypeInt, field.TypeRef:
		return "INT"
	case field.TypeString:
		return "VARCHAR(255)"
	case field.TypeFloat:
		return "FLOAT"
	case field.TypeBool:
		return "TINYINT(1)"
	case field.TypeTime:
		return "DATETIME"
	default:
		return "TEXT"
	}
}

// NewColumn translates a single field descriptor. Options are added at
// most once each, in the order: primary key, unique, not null,
// reference. An explicit foreign key replaces the implicit reference of a
// ref field and forces the type to INT.
func NewColumn(fd *field.Descriptor) *Column {
	c := &Column{Name: fd.Name, Type: ColumnType(fd.Type), Index: fd.Indexed}
	if fd.PrimaryKey {
		c.addOption(OptPrimaryKey)
	}
	if fd.Unique {
		c.addOption(OptUnique)
	}
	if fd.Required {
		c.addOption(OptNotNull)
	}
	switch {
	case fd.Foreign != nil:
		c.Type = "INT"
		c.Foreign = &ForeignKey{Table: fd.Foreign.Table, Column: fd.Foreign.Column}
		c.addOption("REFERENCES " + fd.Foreign.String())
	case fd.Type == field.TypeRef:
		fk, _ := fd.References()
		c.addOption("REFERENCES " + fk.String())
	}
	return c
}

// Column returns the named column.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// CreateSQL renders the CREATE TABLE statement: column definitions, then
// foreign keys, then indexes.
func (t *Table) CreateSQL() string {
	defs := make([]string, 0, len(t.Columns))
	var fks, idx []string
	for _, c := range t.Columns {
		defs = append(defs, c.SQL())
		if c.Foreign != nil {
			fks = append(fks, "FOREIGN KEY ("+c.Name+") REFERENCES "+c.Foreign.Table+"("+c.Foreign.Column+")")
		}
		if c.Index {
			idx = append(idx, "INDEX("+c.Name+")")
		}
	}
	defs = append(defs, fks...)
	defs = append(defs, idx...)
	return "CREATE TABLE IF NOT EXISTS " + t.Name + " (" + strings.Join(defs, ", ") + ")"
}

// DropSQL renders the DROP TABLE statement.
func (t *Table) DropSQL() string {
	return "DROP TABLE IF EXISTS " + t.Name
}

// CreateTable validates t and creates it.
func CreateTable(ctx context.Context, drv dialect.ExecQuerier, t *Table) error {
	if res := ValidateTable(t); res.HasErrors() {
		return res.Err()
	}
	return drv.Exec(ctx, t.CreateSQL(), []any{}, nil)
}

// DropTable drops the named table if it exists.
func DropTable(ctx context.Context, drv dialect.ExecQuerier, name string) error {
	return drv.Exec(ctx, (&Table{Name: name}).DropSQL(), []any{}, nil)
}

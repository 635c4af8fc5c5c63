package field

import (
	"errors"
	"fmt"
)

// Type is the semantic type of a field. It drives both the column type
// emitted in DDL and the type check applied during validation.
type Type uint8

// Field types.
const (
	TypeInvalid Type = iota
	TypeInt
	TypeFloat
	TypeString
	TypeBool
	TypeTime
	TypeJSON
	TypeText
	TypeRef
)

var typeNames = [...]string{
	TypeInvalid: "invalid",
	TypeInt:     "int",
	TypeFloat:   "float",
	TypeString:  "string",
	TypeBool:    "bool",
	TypeTime:    "time",
	TypeJSON:    "json",
	TypeText:    "text",
	TypeRef:     "ref",
}

// String returns the type name.
func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("type(%d)", t)
}

// Valid reports if the type is a known field type.
func (t Type) Valid() bool { return t > TypeInvalid && t <= TypeRef }

// Numeric reports if the type holds numbers.
func (t Type) Numeric() bool { return t == TypeInt || t == TypeFloat }

// ForeignKey names the column a field references.
type ForeignKey struct {
	Table  string
	Column string
}

// String renders the reference as `table(column)`.
func (fk ForeignKey) String() string { return fk.Table + "(" + fk.Column + ")" }

// A Descriptor holds the configuration of a single field.
type Descriptor struct {
	Name       string      // column name.
	Type       Type        // semantic type.
	PrimaryKey bool        // auto-increment primary key.
	Unique     bool        // unique column.
	Required   bool        // must be present and non-empty on create.
	Indexed    bool        // secondary index.
	Ref        string      // referenced table of a TypeRef field.
	Foreign    *ForeignKey // explicit foreign key.
	Comment    string      // free-form comment, not rendered.
	Err        error
}

// References returns the foreign reference of the field, if any. An
// explicit foreign key wins over the implicit reference of a ref field.
func (d *Descriptor) References() (ForeignKey, bool) {
	switch {
	case d.Foreign != nil:
		return *d.Foreign, true
	case d.Type == TypeRef:
		return ForeignKey{Table: d.Ref, Column: "id"}, true
	}
	return ForeignKey{}, false
}

// Field is implemented by every field builder.
type Field interface {
	Descriptor() *Descriptor
}

// Builder is the fluent builder returned by the field constructors.
type Builder struct {
	desc *Descriptor
}

func newBuilder(name string, t Type) *Builder {
	b := &Builder{desc: &Descriptor{Name: name, Type: t}}
	if name == "" {
		b.desc.Err = errors.New("field: missing field name")
	}
	return b
}

// Int returns a new integer field.
func Int(name string) *Builder { return newBuilder(name, TypeInt) }

// Float returns a new floating point field.
func Float(name string) *Builder { return newBuilder(name, TypeFloat) }

// String returns a new short string field, stored as VARCHAR(255).
func String(name string) *Builder { return newBuilder(name, TypeString) }

// Text returns a new unbounded text field.
func Text(name string) *Builder { return newBuilder(name, TypeText) }

// Bool returns a new boolean field.
func Bool(name string) *Builder { return newBuilder(name, TypeBool) }

// Time returns a new date-time field.
func Time(name string) *Builder { return newBuilder(name, TypeTime) }

// JSON returns a new structured field. Values are stored as JSON text and
// decoded on hydration.
func JSON(name string) *Builder { return newBuilder(name, TypeJSON) }

// Ref returns a new field referencing the `id` column of table.
//
//	field.Ref("user_id", "users").Required()
func Ref(name, table string) *Builder {
	b := newBuilder(name, TypeRef)
	b.desc.Ref = table
	if table == "" && b.desc.Err == nil {
		b.desc.Err = fmt.Errorf("field %q: missing referenced table", name)
	}
	return b
}

// PrimaryKey marks the field as the auto-increment primary key.
func (b *Builder) PrimaryKey() *Builder {
	b.desc.PrimaryKey = true
	return b
}

// Unique adds a unique constraint.
func (b *Builder) Unique() *Builder {
	b.desc.Unique = true
	return b
}

// Required makes the field mandatory on create and NOT NULL in DDL.
func (b *Builder) Required() *Builder {
	b.desc.Required = true
	return b
}

// Index adds a secondary index on the field.
func (b *Builder) Index() *Builder {
	b.desc.Indexed = true
	return b
}

// ForeignKey adds a foreign key to table(column). An empty column
// defaults to `id`.
func (b *Builder) ForeignKey(table, column string) *Builder {
	if table == "" {
		b.desc.Err = fmt.Errorf("field %q: foreign key without table", b.desc.Name)
		return b
	}
	if column == "" {
		column = "id"
	}
	b.desc.Foreign = &ForeignKey{Table: table, Column: column}
	return b
}

// Comment sets the comment of the field.
func (b *Builder) Comment(c string) *Builder {
	b.desc.Comment = c
	return b
}

// Descriptor implements the Field interface.
func (b *Builder) Descriptor() *Descriptor { return b.desc }

var _ Field = (*Builder)(nil)

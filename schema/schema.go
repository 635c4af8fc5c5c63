package schema

import (
	"errors"
	"fmt"
	"regexp"
	"slices"

	"github.com/syssam/arecord/schema/edge"
	"github.com/syssam/arecord/schema/field"
)

// Interface is implemented by every entity declaration.
type Interface interface {
	// Name returns the entity name, used by edges and the registry.
	Name() string
	// Table returns the backing table name. It must not be empty.
	Table() string
	Fields() []field.Field
	Edges() []edge.Edge
	Mixin() []Mixin
	// Protected returns the field names that callers may never write.
	// A nil result selects DefaultProtected.
	Protected() []string
}

// Mixin is a reusable set of fields.
type Mixin interface {
	Fields() []field.Field
}

// Schema provides defaults for every method of Interface except Name. It
// should be embedded in entity declarations.
//
//	type User struct{ schema.Schema }
//
//	func (User) Name() string  { return "User" }
//	func (User) Table() string { return "users" }
type Schema struct{}

// Table returns no table; entities must override it.
func (Schema) Table() string { return "" }

// Fields returns the fields of the entity.
func (Schema) Fields() []field.Field { return nil }

// Edges returns the edges of the entity.
func (Schema) Edges() []edge.Edge { return nil }

// Mixin returns the mixins of the entity.
func (Schema) Mixin() []Mixin { return nil }

// Protected returns nil, selecting DefaultProtected.
func (Schema) Protected() []string { return nil }

// DefaultProtected are the fields protected when an entity does not list its own.
var DefaultProtected = []string{"id", "created_at", "updated_at"}

// ErrNoTable is returned by Load for an entity without a table name.
var ErrNoTable = errors.New("schema: entity has no table")

// Entity is the loaded, validated form of an entity declaration.
type Entity struct {
	Name      string
	Table     string
	Fields    []*field.Descriptor
	Edges     []*edge.Descriptor
	Protected []string
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Load resolves an entity declaration. Mixin fields come first, followed
// by the entity's own fields.
func Load(s Interface) (*Entity, error) {
	name := s.Name()
	if !identRe.MatchString(name) {
		return nil, fmt.Errorf("schema: invalid entity name %q", name)
	}
	e := &Entity{Name: name, Table: s.Table()}
	if e.Table == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoTable, name)
	}
	if !identRe.MatchString(e.Table) {
		return nil, fmt.Errorf("schema: entity %s: invalid table name %q", name, e.Table)
	}
	var fields []field.Field
	for _, m := range s.Mixin() {
		fields = append(fields, m.Fields()...)
	}
	fields = append(fields, s.Fields()...)
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		fd := f.Descriptor()
		if fd.Err != nil {
			return nil, fmt.Errorf("schema: entity %s: %w", name, fd.Err)
		}
		if !identRe.MatchString(fd.Name) {
			return nil, fmt.Errorf("schema: entity %s: invalid field name %q", name, fd.Name)
		}
		if seen[fd.Name] {
			return nil, fmt.Errorf("schema: entity %s: duplicate field %q", name, fd.Name)
		}
		seen[fd.Name] = true
		if fd.PrimaryKey && e.PrimaryKey() != nil {
			return nil, fmt.Errorf("schema: entity %s: multiple primary keys (%s, %s)", name, e.PrimaryKey().Name, fd.Name)
		}
		e.Fields = append(e.Fields, fd)
	}
	for _, ed := range s.Edges() {
		d := ed.Descriptor()
		if d.Err != nil {
			return nil, fmt.Errorf("schema: entity %s: %w", name, d.Err)
		}
		d.Defaults(name)
		e.Edges = append(e.Edges, d)
	}
	if p := s.Protected(); p != nil {
		e.Protected = slices.Clone(p)
	} else {
		e.Protected = slices.Clone(DefaultProtected)
	}
	return e, nil
}

// MustLoad is like Load but panics on error.
func MustLoad(s Interface) *Entity {
	e, err := Load(s)
	if err != nil {
		panic(err)
	}
	return e
}

// Field returns the named field.
func (e *Entity) Field(name string) (*field.Descriptor, bool) {
	for _, f := range e.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// PrimaryKey returns the primary key field, or nil.
func (e *Entity) PrimaryKey() *field.Descriptor {
	for _, f := range e.Fields {
		if f.PrimaryKey {
			return f
		}
	}
	return nil
}

// PrimaryKeyName returns the primary key column, `id` when none is declared.
func (e *Entity) PrimaryKeyName() string {
	if pk := e.PrimaryKey(); pk != nil {
		return pk.Name
	}
	return "id"
}

// IsProtected reports whether name is a protected field.
func (e *Entity) IsProtected(name string) bool {
	return slices.Contains(e.Protected, name)
}

// Edge returns the named edge.
func (e *Entity) Edge(name string) (*edge.Descriptor, bool) {
	for _, d := range e.Edges {
		if d.Name == name {
			return d, true
		}
	}
	return nil, false
}

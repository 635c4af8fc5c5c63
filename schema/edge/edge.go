package edge

import (
	"errors"
	"fmt"

	"github.com/go-openapi/inflect"
)

// Kind is the cardinality of a relationship.
type Kind uint8

// Relationship kinds. HasOne and ManyToMany are declarable but not loaded
// yet; loading them yields an empty result.
const (
	KindInvalid Kind = iota
	KindHasMany
	KindBelongsTo
	KindHasOne
	KindManyToMany
)

func (k Kind) String() string {
	switch k {
	case KindHasMany:
		return "has_many"
	case KindBelongsTo:
		return "belongs_to"
	case KindHasOne:
		return "has_one"
	case KindManyToMany:
		return "many_to_many"
	}
	return "invalid"
}

// A Descriptor holds the configuration of a relationship.
type Descriptor struct {
	Name       string // accessor name, e.g. "posts".
	Kind       Kind
	Target     string // related entity name, e.g. "Post".
	ForeignKey string // has-many: column on the target; belongs-to: column on the owner.
	LocalKey   string // has-many: owner column matched against ForeignKey.
	Comment    string
	Err        error
}

// Defaults fills the keys that were not set explicitly. owner is the name
// of the declaring entity.
//
//	User  HasMany("posts", "Post")      posts.user_id = users.id
//	Post  BelongsTo("author", "User")   posts.user_id -> users
func (d *Descriptor) Defaults(owner string) {
	if d.ForeignKey == "" {
		switch d.Kind {
		case KindHasMany, KindHasOne:
			d.ForeignKey = inflect.Underscore(owner) + "_id"
		case KindBelongsTo:
			d.ForeignKey = inflect.Underscore(d.Target) + "_id"
		}
	}
	if d.LocalKey == "" {
		d.LocalKey = "id"
	}
}

// Edge is implemented by every edge builder.
type Edge interface {
	Descriptor() *Descriptor
}

// Builder is the fluent builder returned by the edge constructors.
type Builder struct {
	desc *Descriptor
}

func newBuilder(kind Kind, name, target string) *Builder {
	b := &Builder{desc: &Descriptor{Name: name, Kind: kind, Target: target}}
	switch {
	case name == "":
		b.desc.Err = errors.New("edge: missing edge name")
	case target == "":
		b.desc.Err = fmt.Errorf("edge %q: missing target entity", name)
	}
	return b
}

// HasMany declares a one-to-many relationship whose target rows carry the
// foreign key.
func HasMany(name, target string) *Builder { return newBuilder(KindHasMany, name, target) }

// BelongsTo declares the inverse side: the owner row carries the foreign key.
func BelongsTo(name, target string) *Builder { return newBuilder(KindBelongsTo, name, target) }

// HasOne declares a one-to-one relationship.
func HasOne(name, target string) *Builder { return newBuilder(KindHasOne, name, target) }

// ManyToMany declares a relationship through a join table.
func ManyToMany(name, target string) *Builder { return newBuilder(KindManyToMany, name, target) }

// ForeignKey overrides the foreign key column.
func (b *Builder) ForeignKey(column string) *Builder {
	b.desc.ForeignKey = column
	return b
}

// LocalKey overrides the owner column matched by a has-many edge.
func (b *Builder) LocalKey(column string) *Builder {
	b.desc.LocalKey = column
	return b
}

// Comment sets the edge comment.
func (b *Builder) Comment(c string) *Builder {
	b.desc.Comment = c
	return b
}

// Descriptor implements the Edge interface.
func (b *Builder) Descriptor() *Descriptor { return b.desc }

var _ Edge = (*Builder)(nil)

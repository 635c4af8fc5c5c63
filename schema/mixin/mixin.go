package mixin

import (
	"github.com/syssam/arecord/schema"
	"github.com/syssam/arecord/schema/field"
)

// Schema is the default implementation of schema.Mixin. It should be
// embedded in custom mixins.
type Schema struct{}

// Fields returns the fields of the mixin.
func (Schema) Fields() []field.Field { return nil }

var _ schema.Mixin = (*Schema)(nil)

// ID adds the `id` auto-increment primary key.
type ID struct {
	Schema
}

// Fields returns the id field.
func (ID) Fields() []field.Field {
	return []field.Field{
		field.Int("id").PrimaryKey(),
	}
}

// Time adds created_at and updated_at. Both are protected by default, so
// callers cannot write them; the database or hooks outside the model
// layer own their values.
type Time struct {
	Schema
}

// Fields returns the timestamp fields.
func (Time) Fields() []field.Field {
	return []field.Field{
		field.Time("created_at").Comment("Timestamp when the row was created"),
		field.Time("updated_at").Comment("Timestamp when the row was last updated"),
	}
}

// Compose returns a mixin with the fields of all given mixins, in order.
func Compose(mixins ...schema.Mixin) schema.Mixin {
	return composed(mixins)
}

type composed []schema.Mixin

func (c composed) Fields() []field.Field {
	var fields []field.Field
	for _, m := range c {
		fields = append(fields, m.Fields()...)
	}
	return fields
}

// Package schema declares entities: their table, fields, relationships and
// protected fields.
//
//   - [field]: field builders
//   - [edge]: relationship builders
//   - [mixin]: reusable field sets
//
// # Declaring an entity
//
//	type User struct{ schema.Schema }
//
//	func (User) Name() string  { return "User" }
//	func (User) Table() string { return "users" }
//
//	func (User) Mixin() []schema.Mixin {
//	    return []schema.Mixin{mixin.ID{}, mixin.Time{}}
//	}
//
//	func (User) Fields() []field.Field {
//	    return []field.Field{
//	        field.String("email").Unique().Required(),
//	        field.String("name"),
//	    }
//	}
//
//	func (User) Edges() []edge.Edge {
//	    return []edge.Edge{
//	        edge.HasMany("posts", "Post"),
//	    }
//	}
//
// Load turns a declaration into an Entity once, validating it: the name and
// table must be identifiers, field names must be unique identifiers and at most one field
// may be the primary key. Protected fields default to id, created_at and
// updated_at.
//
// A Registry collects entities by name and Check verifies that references
// between them resolve.
package schema

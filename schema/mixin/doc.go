// Package mixin provides reusable field sets for entity declarations.
//
//	func (User) Mixin() []schema.Mixin {
//	    return []schema.Mixin{
//	        mixin.ID{},
//	        mixin.Time{},
//	    }
//	}
//
// The resulting entity starts with:
//   - id (int, auto-increment primary key)
//   - created_at (datetime)
//   - updated_at (datetime)
//
// Mixins are applied in the order they are listed and their fields come
// before the entity's own fields. A field name may appear only once across
// mixins and the entity.
//
// Custom mixins embed Schema and override Fields:
//
//	type Audit struct{ mixin.Schema }
//
//	func (Audit) Fields() []field.Field {
//	    return []field.Field{
//	        field.String("created_by"),
//	        field.String("updated_by"),
//	    }
//	}
package mixin

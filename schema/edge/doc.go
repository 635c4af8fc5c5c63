// Package edge provides fluent builders for declaring relationships
// between entities.
//
//	// User
//	edge.HasMany("posts", "Post")
//
//	// Post
//	edge.BelongsTo("author", "User")
//
// Targets are referenced by entity name, so entities may point at each
// other without import cycles. Keys default from the entity names when not
// set: a has-many edge of User looks for `user_id` on the target table, a
// belongs-to edge to User reads `user_id` on the owner row. Both can be
// overridden:
//
//	edge.HasMany("articles", "Post").ForeignKey("writer_id")
//	edge.BelongsTo("writer", "User").ForeignKey("writer_id")
//
// HasOne and ManyToMany edges can be declared, but loading them returns an
// empty result.
package edge

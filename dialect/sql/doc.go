// Package sql implements the dialect.Driver interface on top of
// database/sql and provides the fluent statement Builder.
//
// # Builder
//
// A Builder targets one table and accumulates clauses. Values are always
// bound through `?` placeholders; only validated identifiers and
// whitelisted operators appear as literal SQL text.
//
//	rows, err := sql.Table(drv, "users").
//	    Select("users.id", "posts.title").
//	    InnerJoin("posts", "posts.user_id = users.id").
//	    Where("users.email", "LIKE", "%@example.com").
//	    OrderBy("users.id", "DESC").
//	    Limit(20).
//	    Get(ctx)
//
// Clauses render in a fixed order regardless of call order: SELECT, FROM,
// joins, WHERE (predicates joined with AND), ORDER BY, GROUP BY, LIMIT,
// OFFSET. Absent clauses are omitted.
//
// Accepted operators are =, !=, >, <, >=, <=, LIKE, IN and NOT IN. IN and
// NOT IN take a slice and expand to one placeholder per element.
//
// Update and Delete refuse to run without at least one predicate.
//
// # Drivers
//
// Driver wraps a *sql.DB. StatsDriver and DebugDriver decorate a Driver
// with statement counters and slog output respectively.
package sql

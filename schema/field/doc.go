// Package field provides fluent builders for declaring entity fields.
//
// Field names are column names (snake_case):
//
//	field.Int("id").PrimaryKey()
//	field.String("email").Unique().Required()
//	field.Text("bio")
//	field.Bool("active")
//	field.Time("published_at").Index()
//	field.JSON("tags")
//
// # Types
//
// Each constructor fixes the semantic type of the field, which decides
// both the column type in DDL and the type check run on validation:
//
//	Int     INT           numeric
//	Float   FLOAT         numeric
//	String  VARCHAR(255)  string
//	Bool    TINYINT(1)    bool
//	Time    DATETIME      not checked
//	JSON    TEXT          slice or map
//	Text    TEXT          not checked
//	Ref     INT           not checked, REFERENCES table(id)
//
// # References
//
// A reference to another table is declared either through a ref field,
// which points at the `id` column of the target table, or through an
// explicit foreign key on an integer field:
//
//	field.Ref("user_id", "users")
//	field.Int("owner_id").ForeignKey("users", "id")
//
// Only the explicit form also adds a table-level FOREIGN KEY constraint.
package field

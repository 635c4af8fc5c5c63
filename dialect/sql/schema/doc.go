// Package schema translates entity fields into MySQL table definitions and
// runs migrations against a ledger table.
//
// NewTable maps field descriptors to columns:
//
//	t := schema.NewTable("posts",
//	    field.Int("id").PrimaryKey().Descriptor(),
//	    field.String("title").Required().Index().Descriptor(),
//	    field.Int("user_id").ForeignKey("users", "id").Descriptor(),
//	)
//	t.CreateSQL()
//	// CREATE TABLE IF NOT EXISTS posts (id INT PRIMARY KEY AUTO_INCREMENT,
//	//   title VARCHAR(255) NOT NULL, user_id INT REFERENCES users(id),
//	//   FOREIGN KEY (user_id) REFERENCES users(id), INDEX(title))
//
// A Migrator applies Migration units in name order and records each one in
// the ledger table once it succeeded:
//
//	m, err := schema.NewMigrator(drv, migrations.All())
//	report, err := m.Up(ctx)
//	name, err := m.Rollback(ctx)
package schema

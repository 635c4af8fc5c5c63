// Package dialect defines the database abstraction used by arecord.
//
// arecord targets a single relational backend (MySQL). The SQLite name is
// kept so the query builder can be exercised against an in-memory database
// in tests; the builder only renders `?` placeholders, which both accept.
//
// # Driver Interface
//
// The Driver interface is the handle every query builder, model and
// migrator is constructed with:
//
//	type Driver interface {
//	    ExecQuerier
//	    Close() error
//	    Dialect() string
//	}
//
// The handle is opened explicitly by the application entry point and
// closed when it returns:
//
//	drv, err := sql.Open(dialect.MySQL, cfg.DSN())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
//
// # Sub-packages
//
//   - dialect/sql: driver implementation and the fluent query builder
//   - dialect/sql/schema: DDL translation and migrations
package dialect

package gen

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"time"

	"github.com/dave/jennifer/jen"
	"github.com/go-openapi/inflect"
	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/imports"

	"github.com/syssam/arecord/dialect/sql/schema"
	entschema "github.com/syssam/arecord/schema"
)

// TimeFormat is the timestamp prefix of generated unit names.
const TimeFormat = "2006_01_02_150405"

const schemaPkg = "github.com/syssam/arecord/dialect/sql/schema"

// Generator writes migration units for registered entities.
type Generator struct {
	registry *entschema.Registry
	outDir   string
	pkg      string
	now      func() time.Time
	workers  int
}

// Option configures a Generator.
type Option func(*Generator)

// WithPackage sets the package name of generated files. Defaults to "migrations".
func WithPackage(pkg string) Option {
	return func(g *Generator) { g.pkg = pkg }
}

// WithClock sets the time source used for unit names.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithWorkers sets the number of files written in parallel.
func WithWorkers(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.workers = n
		}
	}
}

// NewGenerator returns a Generator writing into outDir.
func NewGenerator(r *entschema.Registry, outDir string, opts ...Option) *Generator {
	g := &Generator{
		registry: r,
		outDir:   outDir,
		pkg:      "migrations",
		now:      time.Now,
		workers:  runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// MigrationName returns the unit name for creating table at the given time.
func MigrationName(table string, at time.Time) string {
	return at.Format(TimeFormat) + "_Create" + inflect.Camelize(table) + "Table"
}

// Result describes one generated file.
type Result struct {
	Entity string
	Name   string
	Path   string
}

// Generate writes one migration file per named entity and returns the
// results in argument order. All names are resolved before any file is
// written.
func (g *Generator) Generate(ctx context.Context, names ...string) ([]Result, error) {
	entities := make([]*entschema.Entity, 0, len(names))
	for _, name := range names {
		e, ok := g.registry.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, name)
		}
		if e.Table == "" {
			return nil, NewGenerationError(name, "", "entity has no table", entschema.ErrNoTable)
		}
		entities = append(entities, e)
	}
	if err := os.MkdirAll(g.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	base := g.now()
	results := make([]Result, len(entities))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)
	for i, e := range entities {
		at := base.Add(time.Duration(i) * time.Second)
		name := MigrationName(e.Table, at)
		results[i] = Result{
			Entity: e.Name,
			Name:   name,
			Path:   filepath.Join(g.outDir, name+".go"),
		}
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return g.writeFile(e, name, results[i].Path)
			}
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Source returns the formatted source of the unit creating e's table.
func (g *Generator) Source(e *entschema.Entity, name string) ([]byte, error) {
	var buf bytes.Buffer
	if err := g.file(e, name).Render(&buf); err != nil {
		return nil, NewGenerationError(e.Name, name, "render", err)
	}
	out, err := imports.Process(name+".go", buf.Bytes(), nil)
	if err != nil {
		return nil, NewGenerationError(e.Name, name, "format", err)
	}
	return out, nil
}

func (g *Generator) writeFile(e *entschema.Entity, name, path string) error {
	src, err := g.Source(e, name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, src, 0o644); err != nil {
		return NewGenerationError(e.Name, path, "write", err)
	}
	return nil
}

// file builds the unit source: an init function registering the table
// snapshot of e.
func (g *Generator) file(e *entschema.Entity, name string) *jen.File {
	f := jen.NewFile(g.pkg)
	f.HeaderComment("Code generated by arecord. DO NOT EDIT.")
	f.ImportName(schemaPkg, "schema")

	t := schema.NewTable(e.Table, e.Fields...)
	f.Func().Id("init").Params().Block(
		jen.Id("register").Call(jen.Op("&").Qual(schemaPkg, "TableMigration").Values(jen.Dict{
			jen.Id("ID"):    jen.Lit(name),
			jen.Id("Table"): tableLit(t),
		})),
	)
	return f
}

func tableLit(t *schema.Table) jen.Code {
	return jen.Op("&").Qual(schemaPkg, "Table").Values(jen.Dict{
		jen.Id("Name"): jen.Lit(t.Name),
		jen.Id("Columns"): jen.Index().Op("*").Qual(schemaPkg, "Column").ValuesFunc(func(grp *jen.Group) {
			for _, c := range t.Columns {
				grp.Values(columnDict(c))
			}
		}),
	})
}

// columnDict renders the non-zero fields of c.
func columnDict(c *schema.Column) jen.Dict {
	d := jen.Dict{
		jen.Id("Name"): jen.Lit(c.Name),
		jen.Id("Type"): jen.Lit(c.Type),
	}
	if len(c.Options) > 0 {
		opts := slices.Clone(c.Options)
		d[jen.Id("Options")] = jen.Index().String().ValuesFunc(func(grp *jen.Group) {
			for _, o := range opts {
				grp.Lit(o)
			}
		})
	}
	if c.Foreign != nil {
		d[jen.Id("Foreign")] = jen.Op("&").Qual(schemaPkg, "ForeignKey").Values(jen.Dict{
			jen.Id("Table"):  jen.Lit(c.Foreign.Table),
			jen.Id("Column"): jen.Lit(c.Foreign.Column),
		})
	}
	if c.Index {
		d[jen.Id("Index")] = jen.True()
	}
	return d
}

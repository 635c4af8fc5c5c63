package schema

import (
	"errors"
	"fmt"
	"sort"
)

// Registry holds loaded entities by name.
type Registry struct {
	entities map[string]*Entity
}

// NewRegistry loads and registers the given declarations.
func NewRegistry(schemas ...Interface) (*Registry, error) {
	r := &Registry{entities: make(map[string]*Entity, len(schemas))}
	for _, s := range schemas {
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register loads s and adds it to the registry.
func (r *Registry) Register(s Interface) error {
	e, err := Load(s)
	if err != nil {
		return err
	}
	if _, ok := r.entities[e.Name]; ok {
		return fmt.Errorf("schema: entity %s registered twice", e.Name)
	}
	r.entities[e.Name] = e
	return nil
}

// Lookup returns the named entity.
func (r *Registry) Lookup(name string) (*Entity, bool) {
	e, ok := r.entities[name]
	return e, ok
}

// Entities returns all entities sorted by name.
func (r *Registry) Entities() []*Entity {
	out := make([]*Entity, 0, len(r.entities))
	for _, e := range r.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Check verifies that every foreign reference points at the table of a
// registered entity and every edge targets a registered entity.
func (r *Registry) Check() error {
	tables := make(map[string]bool, len(r.entities))
	for _, e := range r.entities {
		tables[e.Table] = true
	}
	var errs []error
	for _, e := range r.Entities() {
		for _, f := range e.Fields {
			if fk, ok := f.References(); ok && !tables[fk.Table] {
				errs = append(errs, fmt.Errorf("schema: %s.%s references unknown table %q", e.Name, f.Name, fk.Table))
			}
		}
		for _, d := range e.Edges {
			if _, ok := r.entities[d.Target]; !ok {
				errs = append(errs, fmt.Errorf("schema: %s edge %q targets unknown entity %q", e.Name, d.Name, d.Target))
			}
		}
	}
	return errors.Join(errs...)
}

package model

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/syssam/arecord"
	"github.com/syssam/arecord/dialect"
	"github.com/syssam/arecord/dialect/sql"
	"github.com/syssam/arecord/schema"
	"github.com/syssam/arecord/schema/field"
)

// Model runs entity operations for one table.
type Model[T Entity] struct {
	drv    dialect.ExecQuerier
	entity *schema.Entity
	build  func(Values) T
}

// New returns a Model for entity. build receives an already-cast mapping
// and returns a fully initialized instance.
func New[T Entity](drv dialect.ExecQuerier, entity *schema.Entity, build func(Values) T) *Model[T] {
	return &Model[T]{drv: drv, entity: entity, build: build}
}

// Entity returns the loaded entity definition.
func (m *Model[T]) Entity() *schema.Entity { return m.entity }

// Driver returns the connection handle used by the model.
func (m *Model[T]) Driver() dialect.ExecQuerier { return m.drv }

// Query returns a fresh builder over the model's table.
func (m *Model[T]) Query() *sql.Builder {
	return sql.Table(m.drv, m.entity.Table)
}

// Find returns the row with the given primary key. A missing row is not an
// error: the zero T is returned together with a nil error.
func (m *Model[T]) Find(ctx context.Context, id any) (T, error) {
	v, _, err := m.find(ctx, id)
	return v, err
}

// FindOrFail is like Find but returns a NotFoundError for a missing row.
func (m *Model[T]) FindOrFail(ctx context.Context, id any) (T, error) {
	v, ok, err := m.find(ctx, id)
	if err == nil && !ok {
		err = arecord.NewNotFoundError(m.entity.Table, id)
	}
	return v, err
}

func (m *Model[T]) find(ctx context.Context, id any) (T, bool, error) {
	var zero T
	row, err := m.Query().Where(m.entity.PrimaryKeyName(), "=", id).First(ctx)
	if err != nil || row == nil {
		return zero, false, err
	}
	v, err := m.Hydrate(row)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

// All returns every row of the table.
func (m *Model[T]) All(ctx context.Context) ([]T, error) {
	return m.Get(ctx, m.Query())
}

// Get runs b and hydrates every returned row.
func (m *Model[T]) Get(ctx context.Context, b *sql.Builder) ([]T, error) {
	rows, err := b.Get(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		v, err := m.Hydrate(r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// First runs b limited to one row. An empty result yields the zero T.
func (m *Model[T]) First(ctx context.Context, b *sql.Builder) (T, error) {
	var zero T
	row, err := b.First(ctx)
	if err != nil || row == nil {
		return zero, err
	}
	return m.Hydrate(row)
}

// Count returns the number of rows in the table.
func (m *Model[T]) Count(ctx context.Context) (int64, error) {
	return m.Query().Count(ctx)
}

// Create validates data, inserts it and returns the stored row. Payloads
// that write protected fields are rejected before any statement runs.
func (m *Model[T]) Create(ctx context.Context, data Values) (T, error) {
	var zero T
	if err := m.checkProtected(data); err != nil {
		return zero, err
	}
	if err := m.Validate(ctx, data); err != nil {
		return zero, err
	}
	row, err := m.encode(data)
	if err != nil {
		return zero, err
	}
	id, err := m.Query().Insert(ctx, row)
	if err != nil {
		return zero, err
	}
	return m.FindOrFail(ctx, id)
}

// Update merges data into inst, validates the merged values and writes
// data to inst's row. inst is refreshed in place from the stored row, which
// is also returned. An empty payload is a no-op.
func (m *Model[T]) Update(ctx context.Context, inst T, data Values) (T, error) {
	var zero T
	current := inst.Values()
	pk := m.entity.PrimaryKeyName()
	id := current[pk]
	if id == nil {
		return zero, fmt.Errorf("%w: %s instance has no %s", arecord.ErrMissingPrimaryKey, m.entity.Name, pk)
	}
	if err := m.checkProtected(data); err != nil {
		return zero, err
	}
	if len(data) == 0 {
		return inst, nil
	}
	if err := m.Validate(ctx, current.Merge(data)); err != nil {
		return zero, err
	}
	row, err := m.encode(data)
	if err != nil {
		return zero, err
	}
	if _, err := m.Query().Where(pk, "=", id).Update(ctx, row); err != nil {
		return zero, err
	}
	fresh, err := m.FindOrFail(ctx, id)
	if err != nil {
		return zero, err
	}
	inst.SetValues(fresh.Values())
	return fresh, nil
}

// UpdateBy writes data to every row whose columns equal the values in
// where, and returns the number of affected rows. An empty where is
// rejected.
func (m *Model[T]) UpdateBy(ctx context.Context, data Values, where Values) (int64, error) {
	if len(where) == 0 {
		return 0, arecord.NewMissingWhereError(m.entity.Table, "update")
	}
	if err := m.checkProtected(data); err != nil {
		return 0, err
	}
	row, err := m.encode(data)
	if err != nil {
		return 0, err
	}
	b := m.Query()
	for _, k := range where.Keys() {
		b.Where(k, "=", where[k])
	}
	return b.Update(ctx, row)
}

// Delete removes inst's row and reports whether a row was removed.
func (m *Model[T]) Delete(ctx context.Context, inst T) (bool, error) {
	pk := m.entity.PrimaryKeyName()
	id := inst.Values()[pk]
	if id == nil {
		return false, fmt.Errorf("%w: %s instance has no %s", arecord.ErrMissingPrimaryKey, m.entity.Name, pk)
	}
	n, err := m.Query().Where(pk, "=", id).Delete(ctx)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Hydrate casts every declared column of row to its field type and builds
// an instance. Columns without a declared field are ignored.
func (m *Model[T]) Hydrate(row map[string]any) (T, error) {
	var zero T
	values := make(Values, len(row))
	for _, fd := range m.entity.Fields {
		raw, ok := row[fd.Name]
		if !ok {
			continue
		}
		v, err := Cast(fd, raw)
		if err != nil {
			return zero, fmt.Errorf("model: hydrating %s.%s: %w", m.entity.Table, fd.Name, err)
		}
		values[fd.Name] = v
	}
	return m.build(values), nil
}

// ToArray returns the declared, non-protected field values of inst.
func (m *Model[T]) ToArray(inst T) map[string]any {
	values := inst.Values()
	out := make(map[string]any, len(values))
	for _, fd := range m.entity.Fields {
		if m.entity.IsProtected(fd.Name) {
			continue
		}
		out[fd.Name] = values[fd.Name]
	}
	return out
}

// encode returns a copy of data with structured fields serialized to JSON
// text, the form Hydrate decodes.
func (m *Model[T]) encode(data Values) (Values, error) {
	out := data.Clone()
	for _, fd := range m.entity.Fields {
		v, ok := out[fd.Name]
		if !ok || v == nil || fd.Type != field.TypeJSON {
			continue
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("model: encoding %s.%s: %w", m.entity.Table, fd.Name, err)
		}
		out[fd.Name] = string(b)
	}
	return out, nil
}

func (m *Model[T]) checkProtected(data Values) error {
	var hit []string
	for k := range data {
		if m.entity.IsProtected(k) {
			hit = append(hit, k)
		}
	}
	if len(hit) > 0 {
		return arecord.NewProtectedFieldError(m.entity.Name, hit...)
	}
	return nil
}

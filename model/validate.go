package model

import (
	"context"

	"github.com/syssam/arecord"
	"github.com/syssam/arecord/dialect/sql"
	"github.com/syssam/arecord/schema/field"
)

// Validation messages, as reported in ValidationError.Fields.
const (
	MsgRequired = "Field is required"
	MsgUnique   = "Value must be unique"
	MsgRelated  = "Related record does not exist"
	MsgType     = "Invalid type, expected "
)

// Validate checks data against every non-protected declared field and
// returns a ValidationError holding all violations. A nil value counts as
// absent. Database failures during unique or reference checks are
// returned as is.
func (m *Model[T]) Validate(ctx context.Context, data Values) error {
	violations := make(map[string][]string)
	add := func(name, msg string) {
		violations[name] = append(violations[name], msg)
	}
	pk := m.entity.PrimaryKeyName()
	for _, fd := range m.entity.Fields {
		if m.entity.IsProtected(fd.Name) {
			continue
		}
		v, present := data[fd.Name], data.Has(fd.Name)
		if fd.Required && !present {
			add(fd.Name, MsgRequired)
		}
		if !present {
			continue
		}
		if fd.Unique {
			taken, err := m.taken(ctx, fd.Name, v, pk, data[pk])
			if err != nil {
				return err
			}
			if taken {
				add(fd.Name, MsgUnique)
			}
		}
		if ref, ok := fd.References(); ok {
			ok, err := m.exists(ctx, ref, v)
			if err != nil {
				return err
			}
			if !ok {
				add(fd.Name, MsgRelated)
			}
		}
		if !typeMatches(fd.Type, v) {
			add(fd.Name, MsgType+fd.Type.String())
		}
	}
	return arecord.NewValidationError(m.entity.Name, violations)
}

// taken reports whether another row already holds value in column. The
// row identified by id is excluded only when id is set.
func (m *Model[T]) taken(ctx context.Context, column string, value any, pk string, id any) (bool, error) {
	b := m.Query().Where(column, "=", value)
	if id != nil {
		b.Where(pk, "!=", id)
	}
	n, err := b.Count(ctx)
	return n > 0, err
}

// exists reports whether the referenced row is present.
func (m *Model[T]) exists(ctx context.Context, ref field.ForeignKey, value any) (bool, error) {
	n, err := sql.Table(m.drv, ref.Table).Where(ref.Column, "=", value).Count(ctx)
	return n > 0, err
}

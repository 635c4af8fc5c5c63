package model

import (
	"maps"
	"slices"
	"time"
)

// Values holds the field values of one entity keyed by column name.
type Values map[string]any

// Entity is implemented by every type a Model hydrates.
type Entity interface {
	// Values returns the current field values. An unset primary key must be
	// absent or nil.
	Values() Values
	// SetValues overwrites the field values with an already-cast mapping.
	SetValues(Values)
}

// Has reports whether name is present and non-nil.
func (v Values) Has(name string) bool {
	return v[name] != nil
}

// Int returns the named value as an int64, or 0.
func (v Values) Int(name string) int64 {
	i, _ := v[name].(int64)
	return i
}

// Float returns the named value as a float64, or 0.
func (v Values) Float(name string) float64 {
	f, _ := v[name].(float64)
	return f
}

// String returns the named value as a string, or "".
func (v Values) String(name string) string {
	s, _ := v[name].(string)
	return s
}

// Bool returns the named value as a bool, or false.
func (v Values) Bool(name string) bool {
	b, _ := v[name].(bool)
	return b
}

// Time returns the named value as a time.Time, or the zero time.
func (v Values) Time(name string) time.Time {
	t, _ := v[name].(time.Time)
	return t
}

// Keys returns the keys in sorted order.
func (v Values) Keys() []string {
	return slices.Sorted(maps.Keys(v))
}

// Clone returns a shallow copy of v.
func (v Values) Clone() Values {
	if v == nil {
		return Values{}
	}
	return maps.Clone(v)
}

// Merge returns a copy of v overlaid with other; values in other win.
func (v Values) Merge(other Values) Values {
	out := v.Clone()
	maps.Copy(out, other)
	return out
}

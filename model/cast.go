package model

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/syssam/arecord/schema/field"
)

// Boolean text accepted by the caster, compared case-insensitively after
// trimming. Any other string is true when non-empty.
var (
	truthy = map[string]bool{"1": true, "true": true, "on": true, "yes": true, "y": true, "t": true}
	falsy  = map[string]bool{"0": true, "false": true, "off": true, "no": true, "n": true, "f": true, "": true}
)

// timeLayouts are tried in order when a time column arrives as text.
var timeLayouts = []string{
	time.DateTime,
	time.RFC3339Nano,
	time.DateOnly,
}

// Cast converts a raw driver value to the Go type of the field's semantic
// type. NULL stays nil. Primary keys are always converted to int64.
func Cast(fd *field.Descriptor, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if fd.PrimaryKey {
		return castInt(v)
	}
	switch fd.Type {
	case field.TypeInt, field.TypeRef:
		return castInt(v)
	case field.TypeFloat:
		return castFloat(v)
	case field.TypeString, field.TypeText:
		if s, ok := v.(string); ok {
			return s, nil
		}
		return fmt.Sprint(v), nil
	case field.TypeBool:
		return castBool(v), nil
	case field.TypeTime:
		return castTime(v)
	case field.TypeJSON:
		return castJSON(v)
	default:
		return v, nil
	}
}

// castInt accepts integers, floats and numeric text. Fractions are
// truncated.
func castInt(v any) (int64, error) {
	switch v := v.(type) {
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		s := strings.TrimSpace(v)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("model: cannot cast %q to int", v)
		}
		return int64(f), nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, fmt.Errorf("model: integer %d overflows int64", u)
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		return int64(rv.Float()), nil
	}
	return 0, fmt.Errorf("model: cannot cast %T to int", v)
}

func castFloat(v any) (float64, error) {
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, fmt.Errorf("model: cannot cast %q to float", s)
		}
		return f, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), nil
	}
	return 0, fmt.Errorf("model: cannot cast %T to float", v)
}

// castBool treats numbers as true when non-zero. Values of any other kind
// are true.
func castBool(v any) bool {
	switch v := v.(type) {
	case bool:
		return v
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		switch {
		case truthy[s]:
			return true
		case falsy[s]:
			return false
		}
		return v != ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	}
	return true
}

func castTime(v any) (time.Time, error) {
	switch v := v.(type) {
	case time.Time:
		return v, nil
	case string:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("model: cannot parse time %q", v)
	}
	return time.Time{}, fmt.Errorf("model: cannot cast %T to time", v)
}

// castJSON decodes JSON text. Values that are already structured pass
// through unchanged.
func castJSON(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return v, nil
	}
	var out any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("model: decoding json: %w", err)
	}
	return out, nil
}

// isNumeric reports whether v is a number or numeric text.
func isNumeric(v any) bool {
	switch v := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	case string:
		_, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return err == nil
	}
	return false
}

// typeMatches reports whether a payload value agrees with the declared type.
// Time and unknown types accept anything.
func typeMatches(t field.Type, v any) bool {
	switch t {
	case field.TypeInt, field.TypeFloat, field.TypeRef:
		return isNumeric(v)
	case field.TypeString, field.TypeText:
		_, ok := v.(string)
		return ok
	case field.TypeBool:
		_, ok := v.(bool)
		return ok
	case field.TypeJSON:
		switch reflect.ValueOf(v).Kind() {
		case reflect.Slice, reflect.Array, reflect.Map:
			return true
		}
		return false
	}
	return true
}

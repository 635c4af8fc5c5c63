package sql

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/syssam/arecord"
)

// Comparison operators accepted by Builder.Where. Nothing else may appear
// as literal text in the operator position of a predicate.
const (
	OpEQ    = "="
	OpNEQ   = "!="
	OpGT    = ">"
	OpLT    = "<"
	OpGTE   = ">="
	OpLTE   = "<="
	OpLike  = "LIKE"
	OpIn    = "IN"
	OpNotIn = "NOT IN"
)

var operators = map[string]struct{}{
	OpEQ: {}, OpNEQ: {}, OpGT: {}, OpLT: {}, OpGTE: {}, OpLTE: {},
	OpLike: {}, OpIn: {}, OpNotIn: {},
}

// Operators returns the whitelisted comparison operators.
func Operators() []string {
	return []string{OpEQ, OpNEQ, OpGT, OpLT, OpGTE, OpLTE, OpLike, OpIn, OpNotIn}
}

// NormalizeOperator returns the canonical spelling of op, or an
// *arecord.OperatorError when op is not whitelisted. Keyword operators
// are matched case-insensitively and inner whitespace is collapsed.
func NormalizeOperator(op string) (string, error) {
	norm := strings.ToUpper(strings.Join(strings.Fields(op), " "))
	if _, ok := operators[norm]; !ok {
		return "", arecord.NewOperatorError(op)
	}
	return norm, nil
}

// validIdentifierRe validates SQL identifiers (alphanumeric, underscores, dots for table.column)
var validIdentifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*$`)

// isValidIdentifier checks if the string is a valid SQL identifier.
func isValidIdentifier(s string) bool {
	return s != "" && len(s) <= 128 && validIdentifierRe.MatchString(s) &&
		!strings.HasSuffix(s, ".") && !strings.Contains(s, "..")
}

// ValidIdentifier returns an *arecord.IdentifierError if name is not a
// plain (optionally qualified) SQL identifier.
func ValidIdentifier(kind, name string) error {
	if !isValidIdentifier(name) {
		return arecord.NewIdentifierError(kind, name)
	}
	return nil
}

// validSelectColumn accepts identifiers plus the `*` and `table.*` wildcards.
func validSelectColumn(c string) bool {
	if c == "*" {
		return true
	}
	if t, ok := strings.CutSuffix(c, ".*"); ok {
		return isValidIdentifier(t)
	}
	return isValidIdentifier(c)
}

// placeholders returns n comma separated placeholders.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

// listArgs flattens a slice or array value for IN / NOT IN. It reports
// false when v is not a list, in which case v binds as a single value.
func listArgs(v any) ([]any, bool) {
	switch v := v.(type) {
	case []any:
		return v, true
	case []byte, string, nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

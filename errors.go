package arecord

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Standard sentinel errors. Typed errors below report true for
// errors.Is against their sentinel.
var (
	// ErrNotFound is returned by lookups that must not silently return empty.
	ErrNotFound = errors.New("arecord: row not found")

	// ErrInvalidOperator is returned when a predicate uses an operator
	// outside the comparison whitelist.
	ErrInvalidOperator = errors.New("arecord: invalid operator")

	// ErrInvalidIdentifier is returned when a table or column name is not a
	// plain SQL identifier.
	ErrInvalidIdentifier = errors.New("arecord: invalid identifier")

	// ErrMissingWhereClause is returned when an update or delete is attempted
	// without any condition.
	ErrMissingWhereClause = errors.New("arecord: missing where clause")

	// ErrProtectedField is returned when a payload writes a protected field.
	ErrProtectedField = errors.New("arecord: protected field write")

	// ErrMissingPrimaryKey is returned when an instance update or delete is
	// attempted on an entity without an identity value.
	ErrMissingPrimaryKey = errors.New("arecord: missing primary key")

	// ErrValidationFailed is returned when a payload violates declared constraints.
	ErrValidationFailed = errors.New("arecord: validation failed")

	// ErrConnection is returned when the database handle cannot be acquired.
	ErrConnection = errors.New("arecord: connection failure")
)

// NotFoundError represents a row that was required but not found.
type NotFoundError struct {
	table string
	id    any // Optional: the ID that was searched for
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	if e.id != nil {
		return fmt.Sprintf("arecord: %s row not found (id=%v)", e.table, e.id)
	}
	return fmt.Sprintf("arecord: %s row not found", e.table)
}

// Is reports whether the target error matches NotFoundError.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Table returns the table that was searched.
func (e *NotFoundError) Table() string {
	return e.table
}

// ID returns the ID that was searched for, if available.
func (e *NotFoundError) ID() any {
	return e.id
}

// NewNotFoundError returns a new NotFoundError for the given table.
func NewNotFoundError(table string, id any) *NotFoundError {
	return &NotFoundError{table: table, id: id}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// OperatorError reports a comparison operator outside the whitelist.
type OperatorError struct {
	Op string
}

// Error returns the error string.
func (e *OperatorError) Error() string {
	return fmt.Sprintf("arecord: invalid operator in where clause: %q", e.Op)
}

// Is reports whether the target error matches OperatorError.
func (e *OperatorError) Is(err error) bool {
	return err == ErrInvalidOperator
}

// NewOperatorError returns a new OperatorError.
func NewOperatorError(op string) *OperatorError {
	return &OperatorError{Op: op}
}

// IdentifierError reports a table or column name that failed validation.
type IdentifierError struct {
	Kind  string // "table" or "column"
	Ident string
}

// Error returns the error string.
func (e *IdentifierError) Error() string {
	return fmt.Sprintf("arecord: invalid %s identifier %q", e.Kind, e.Ident)
}

// Is reports whether the target error matches IdentifierError.
func (e *IdentifierError) Is(err error) bool {
	return err == ErrInvalidIdentifier
}

// NewIdentifierError returns a new IdentifierError.
func NewIdentifierError(kind, ident string) *IdentifierError {
	return &IdentifierError{Kind: kind, Ident: ident}
}

// MissingWhereError reports an unconditional mass mutation.
type MissingWhereError struct {
	Table string
	Op    string // "update" or "delete"
}

// Error returns the error string.
func (e *MissingWhereError) Error() string {
	return fmt.Sprintf("arecord: %s on %s requires at least one where condition", e.Op, e.Table)
}

// Is reports whether the target error matches MissingWhereError.
func (e *MissingWhereError) Is(err error) bool {
	return err == ErrMissingWhereClause
}

// NewMissingWhereError returns a new MissingWhereError.
func NewMissingWhereError(table, op string) *MissingWhereError {
	return &MissingWhereError{Table: table, Op: op}
}

// ProtectedFieldError reports a payload that touches protected fields.
type ProtectedFieldError struct {
	Entity string
	Fields []string
}

// Error returns the error string.
func (e *ProtectedFieldError) Error() string {
	return fmt.Sprintf("arecord: cannot write protected fields of %s: %s", e.Entity, strings.Join(e.Fields, ", "))
}

// Is reports whether the target error matches ProtectedFieldError.
func (e *ProtectedFieldError) Is(err error) bool {
	return err == ErrProtectedField
}

// NewProtectedFieldError returns a new ProtectedFieldError. Field names are sorted.
func NewProtectedFieldError(entity string, fields ...string) *ProtectedFieldError {
	fields = append([]string(nil), fields...)
	sort.Strings(fields)
	return &ProtectedFieldError{Entity: entity, Fields: fields}
}

// ValidationError carries every constraint violation of a payload,
// keyed by field name.
type ValidationError struct {
	Entity string
	Fields map[string][]string
}

// Error returns the error string.
func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	var sb strings.Builder
	fmt.Fprintf(&sb, "arecord: validation failed for %s:", e.Entity)
	for _, name := range names {
		fmt.Fprintf(&sb, "\n  %s: %s", name, strings.Join(e.Fields[name], ", "))
	}
	return sb.String()
}

// Is reports whether the target error matches ValidationError.
func (e *ValidationError) Is(err error) bool {
	return err == ErrValidationFailed
}

// Has reports whether the given field has at least one violation.
func (e *ValidationError) Has(field string) bool {
	return len(e.Fields[field]) > 0
}

// NewValidationError returns a new ValidationError, or nil when there are no violations.
func NewValidationError(entity string, fields map[string][]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Entity: entity, Fields: fields}
}

// IsValidationError returns true if the error is a ValidationError.
func IsValidationError(err error) bool {
	if err == nil {
		return false
	}
	var e *ValidationError
	return errors.As(err, &e)
}

// ConnectionError wraps a failure to open or reach the database.
type ConnectionError struct {
	Addr string
	Err  error
}

// Error returns the error string.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("arecord: connection to %s failed: %v", e.Addr, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches ConnectionError.
func (e *ConnectionError) Is(err error) bool {
	return err == ErrConnection
}

// ConstraintError represents a database constraint violation error.
type ConstraintError struct {
	msg  string
	wrap error
}

// Error returns the error string.
func (e ConstraintError) Error() string {
	return fmt.Sprintf("arecord: constraint failed: %s", e.msg)
}

// Unwrap returns the underlying error.
func (e ConstraintError) Unwrap() error {
	return e.wrap
}

// NewConstraintError returns a new ConstraintError with the given message.
func NewConstraintError(msg string, wrap error) error {
	return ConstraintError{msg: msg, wrap: wrap}
}

// IsConstraintError returns true if the error is a ConstraintError.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var e ConstraintError
	return errors.As(err, &e)
}

// QueryError wraps a read error with the table and operation.
type QueryError struct {
	Table string
	Op    string // e.g. "select", "count", "pluck"
	Err   error
}

// Error returns the error string.
func (e *QueryError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("arecord: querying %s (%s): %v", e.Table, e.Op, e.Err)
	}
	return fmt.Sprintf("arecord: querying %s: %v", e.Table, e.Err)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// NewQueryError returns a new QueryError.
func NewQueryError(table, op string, err error) *QueryError {
	return &QueryError{Table: table, Op: op, Err: err}
}

// MutationError wraps a write error with the table and operation.
type MutationError struct {
	Table string
	Op    string // e.g. "insert", "update", "delete"
	Err   error
}

// Error returns the error string.
func (e *MutationError) Error() string {
	return fmt.Sprintf("arecord: %s %s: %v", e.Op, e.Table, e.Err)
}

// Unwrap returns the underlying error.
func (e *MutationError) Unwrap() error {
	return e.Err
}

// NewMutationError returns a new MutationError.
func NewMutationError(table, op string, err error) *MutationError {
	return &MutationError{Table: table, Op: op, Err: err}
}

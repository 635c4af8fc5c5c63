package schema

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ValidationError represents a table definition problem.
type ValidationError struct {
	Table   string
	Column  string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// ValidationResult holds the results of table validation.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// Err joins the errors of the result, or returns nil.
func (r *ValidationResult) Err() error {
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	if len(r.Errors) > 0 {
		sb.WriteString("Errors:\n")
		for _, e := range r.Errors {
			sb.WriteString("  - ")
			sb.WriteString(e.Error())
			sb.WriteString("\n")
		}
	}
	if len(r.Warnings) > 0 {
		sb.WriteString("Warnings:\n")
		for _, w := range r.Warnings {
			sb.WriteString("  - ")
			sb.WriteString(w.Error())
			sb.WriteString("\n")
		}
	}
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

var nameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateTable validates a single table definition.
func ValidateTable(t *Table) *ValidationResult {
	result := &ValidationResult{}
	if !nameRe.MatchString(t.Name) {
		result.Errors = append(result.Errors, &ValidationError{Table: t.Name, Message: "invalid table name"})
	}
	if len(t.Columns) == 0 {
		result.Errors = append(result.Errors, &ValidationError{Table: t.Name, Message: "table has no columns"})
	}

	var pks int
	colNames := make(map[string]bool)
	for _, c := range t.Columns {
		if !nameRe.MatchString(c.Name) {
			result.Errors = append(result.Errors, &ValidationError{Table: t.Name, Column: c.Name, Message: "invalid column name"})
		}
		if colNames[c.Name] {
			result.Errors = append(result.Errors, &ValidationError{Table: t.Name, Column: c.Name, Message: "duplicate column name"})
		}
		colNames[c.Name] = true
		for _, o := range c.Options {
			if o == OptPrimaryKey {
				pks++
			}
		}
		if fk := c.Foreign; fk != nil && (!nameRe.MatchString(fk.Table) || !nameRe.MatchString(fk.Column)) {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.Name,
				Column:  c.Name,
				Message: fmt.Sprintf("invalid foreign key reference %s(%s)", fk.Table, fk.Column),
			})
		}
	}

	switch {
	case pks == 0:
		result.Warnings = append(result.Warnings, &ValidationError{Table: t.Name, Message: "table has no primary key"})
	case pks > 1:
		result.Errors = append(result.Errors, &ValidationError{Table: t.Name, Message: "table has more than one primary key"})
	}
	return result
}

// ValidateSchema validates a set of tables, including that foreign keys
// reference tables of the set.
func ValidateSchema(tables []*Table) *ValidationResult {
	result := &ValidationResult{}

	tableNames := make(map[string]bool)
	for _, t := range tables {
		if tableNames[t.Name] {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.Name,
				Message: "duplicate table name",
			})
		}
		tableNames[t.Name] = true

		tableResult := ValidateTable(t)
		result.Errors = append(result.Errors, tableResult.Errors...)
		result.Warnings = append(result.Warnings, tableResult.Warnings...)
	}

	for _, t := range tables {
		for _, c := range t.Columns {
			if c.Foreign != nil && !tableNames[c.Foreign.Table] {
				result.Errors = append(result.Errors, &ValidationError{
					Table:   t.Name,
					Column:  c.Name,
					Message: fmt.Sprintf("foreign key references non-existent table %q", c.Foreign.Table),
				})
			}
		}
	}
	return result
}

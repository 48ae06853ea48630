package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Code represents a typed error code for catalog failures.
type Code string

// ErrSchemaViolation is the only domain error code: a record is missing a
// required field, carries a negative or non-finite value, references an
// unknown preset, or duplicates another record's short name.
const ErrSchemaViolation Code = "SCHEMA_VIOLATION"

// SchemaError reports every violation found while constructing a catalog.
// Each entry's Field path names the offending record and key, e.g.
// "devices[3070].fp16".
type SchemaError struct {
	Code Code
	Errs field.ErrorList
}

// NewSchemaError wraps errs, returning nil when the list is empty.
func NewSchemaError(errs field.ErrorList) error {
	if len(errs) == 0 {
		return nil
	}
	return &SchemaError{Code: ErrSchemaViolation, Errs: errs}
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	if len(e.Errs) == 1 {
		return fmt.Sprintf("catalog: schema violation: %s", e.Errs[0].Error())
	}
	msgs := make([]string, 0, len(e.Errs))
	for _, fe := range e.Errs {
		msgs = append(msgs, fe.Error())
	}
	return fmt.Sprintf("catalog: %d schema violations: [%s]", len(e.Errs), strings.Join(msgs, "; "))
}

// Unwrap exposes the individual field errors to errors.Is/As.
func (e *SchemaError) Unwrap() []error {
	out := make([]error, 0, len(e.Errs))
	for _, fe := range e.Errs {
		out = append(out, fe)
	}
	return out
}

// CountByType tallies violations per field.ErrorType, keyed by the type's
// string form ("Required value", "Duplicate value", ...).
func (e *SchemaError) CountByType() map[string]int {
	counts := make(map[string]int)
	for _, fe := range e.Errs {
		counts[string(fe.Type)]++
	}
	return counts
}

// IsSchemaViolation reports whether err is or wraps a SchemaError.
func IsSchemaViolation(err error) bool {
	var se *SchemaError
	return stderrors.As(err, &se)
}

// AsSchemaError returns the SchemaError in err's chain, if any.
func AsSchemaError(err error) (*SchemaError, bool) {
	var se *SchemaError
	ok := stderrors.As(err, &se)
	return se, ok
}

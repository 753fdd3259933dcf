package validation

import "strings"

// FieldError names the field and the rule it broke.
type FieldError struct {
	Field      string
	Constraint Constraint
	Message    string
}

func (e *FieldError) Error() string {
	return e.Message
}

// Errors aggregates field failures in the order they were added.
type Errors []*FieldError

// Add appends fe unless it is nil.
func (e *Errors) Add(fe *FieldError) {
	if fe != nil {
		*e = append(*e, fe)
	}
}

// Err returns nil when nothing failed so callers can return it directly.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func (e Errors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fe.Message)
	}
	return strings.Join(msgs, "; ")
}

func (e Errors) First() *FieldError {
	if len(e) == 0 {
		return nil
	}
	return e[0]
}

// Has reports whether field failed any rule.
func (e Errors) Has(field string) bool {
	for _, fe := range e {
		if fe.Field == field {
			return true
		}
	}
	return false
}

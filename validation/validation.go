// Package validation checks single field values against declarative rules.
//
// Checks are pure and field-independent: each returns the accepted (possibly
// trimmed) value or a *FieldError naming the field and the violated constraint.
// Callers collect failures into Errors in a fixed field order so the aggregate
// is deterministic.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Constraint string

const (
	Required  Constraint = "required"
	MinLength Constraint = "min_length"
	MaxLength Constraint = "max_length"
	Min       Constraint = "min"
	Max       Constraint = "max"
	Pattern   Constraint = "pattern"
	OneOf     Constraint = "one_of"
	MaxItems  Constraint = "max_items"
)

// URLPattern accepts http and https URLs with a non-empty remainder.
const URLPattern = "httpurl"

var patterns = map[string]*regexp.Regexp{
	URLPattern: regexp.MustCompile(`^https?://.+`),
}

var engine = newEngine()

func newEngine() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	for name, re := range patterns {
		re := re
		if err := v.RegisterValidation(name, func(fl validator.FieldLevel) bool {
			return re.MatchString(fl.Field().String())
		}); err != nil {
			panic(fmt.Sprintf("validation: register pattern %q: %v", name, err))
		}
	}
	return v
}

// Rule describes what a single field must satisfy. Zero values disable a check.
type Rule struct {
	Required  bool
	Trim      bool
	MinLength int
	MaxLength int
	Min       int
	Max       int
	Pattern   string
	OneOf     []string
	MaxItems  int
	Messages  map[Constraint]string
}

func (r Rule) message(field string, c Constraint) string {
	if msg, ok := r.Messages[c]; ok {
		return msg
	}
	switch c {
	case Required:
		return fmt.Sprintf("%s is required", field)
	case MinLength:
		return fmt.Sprintf("%s must be at least %d characters", field, r.MinLength)
	case MaxLength:
		return fmt.Sprintf("%s cannot exceed %d characters", field, r.MaxLength)
	case Min:
		return fmt.Sprintf("%s must be at least %d", field, r.Min)
	case Max:
		return fmt.Sprintf("%s cannot exceed %d", field, r.Max)
	case OneOf:
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(r.OneOf, ", "))
	case MaxItems:
		return fmt.Sprintf("%s cannot have more than %d items", field, r.MaxItems)
	}
	return fmt.Sprintf("%s is invalid", field)
}

func (r Rule) fail(field string, c Constraint) *FieldError {
	return &FieldError{Field: field, Constraint: c, Message: r.message(field, c)}
}

// check runs the validator tags built for one value and maps the first failing
// tag back to its constraint.
func (r Rule) check(field string, value any, tags []tag) *FieldError {
	if len(tags) == 0 {
		return nil
	}
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = t.expr
	}
	err := engine.Var(value, strings.Join(parts, ","))
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return &FieldError{Field: field, Constraint: Pattern, Message: err.Error()}
	}
	failed := verrs[0].Tag()
	for _, t := range tags {
		if t.name() == failed {
			return r.fail(field, t.constraint)
		}
	}
	return &FieldError{Field: field, Constraint: Pattern, Message: r.message(field, Pattern)}
}

type tag struct {
	expr       string
	constraint Constraint
}

func (t tag) name() string {
	name, _, _ := strings.Cut(t.expr, "=")
	return name
}

// String validates a string field. A nil value means the field was not supplied.
// Empty optional strings are accepted without running the remaining checks.
func String(field string, value *string, rule Rule) (string, *FieldError) {
	if value == nil {
		if rule.Required {
			return "", rule.fail(field, Required)
		}
		return "", nil
	}
	v := *value
	if rule.Trim {
		v = strings.TrimSpace(v)
	}
	if v == "" {
		if rule.Required {
			return "", rule.fail(field, Required)
		}
		return v, nil
	}

	var tags []tag
	if rule.MinLength > 0 {
		tags = append(tags, tag{fmt.Sprintf("min=%d", rule.MinLength), MinLength})
	}
	if rule.MaxLength > 0 {
		tags = append(tags, tag{fmt.Sprintf("max=%d", rule.MaxLength), MaxLength})
	}
	if rule.Pattern != "" {
		tags = append(tags, tag{rule.Pattern, Pattern})
	}
	if len(rule.OneOf) > 0 {
		tags = append(tags, tag{"oneof=" + strings.Join(rule.OneOf, " "), OneOf})
	}
	if fe := rule.check(field, v, tags); fe != nil {
		return "", fe
	}
	return v, nil
}

// Int validates an integer field against an inclusive range when Min or Max is set.
func Int(field string, value *int, rule Rule) (int, *FieldError) {
	if value == nil {
		if rule.Required {
			return 0, rule.fail(field, Required)
		}
		return 0, nil
	}
	var tags []tag
	if rule.Min != 0 || rule.Max != 0 {
		tags = append(tags,
			tag{fmt.Sprintf("min=%d", rule.Min), Min},
			tag{fmt.Sprintf("max=%d", rule.Max), Max},
		)
	}
	if fe := rule.check(field, *value, tags); fe != nil {
		return 0, fe
	}
	return *value, nil
}

// Strings validates a string collection. Order is preserved.
func Strings(field string, value *[]string, rule Rule) ([]string, *FieldError) {
	if value == nil {
		if rule.Required {
			return nil, rule.fail(field, Required)
		}
		return nil, nil
	}
	v := *value
	if v == nil {
		v = []string{}
	}
	var tags []tag
	if rule.MaxItems > 0 {
		tags = append(tags, tag{fmt.Sprintf("max=%d", rule.MaxItems), MaxItems})
	}
	if fe := rule.check(field, v, tags); fe != nil {
		return nil, fe
	}
	return v, nil
}

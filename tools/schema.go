// Package tools provides the capability system: declarative argument
// schemas, a capability registry and a dispatcher with retry, timeout and
// reliability tracking.
//
// Information Hiding:
// - Validation mechanics hidden behind Schema.Validate
// - Retry strategy and backoff hidden in the Dispatcher
// - Metric bookkeeping hidden behind MetricsTable
package tools

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// FieldType is the declared type of a schema field.
type FieldType int

const (
	// StringField accepts string values.
	StringField FieldType = iota
	// NumberField accepts any numeric value.
	NumberField
	// IntegerField accepts whole numeric values.
	IntegerField
	// BooleanField accepts booleans.
	BooleanField
	// ObjectField accepts nested maps.
	ObjectField
	// ArrayField accepts lists.
	ArrayField
)

// String returns a human-readable type name for error messages.
func (t FieldType) String() string {
	switch t {
	case StringField:
		return "string"
	case NumberField:
		return "number"
	case IntegerField:
		return "integer"
	case BooleanField:
		return "boolean"
	case ObjectField:
		return "object"
	case ArrayField:
		return "array"
	default:
		return "unknown"
	}
}

// Named string formats checked when Field.Format is set.
const (
	// FormatDate is YYYY-MM-DD.
	FormatDate = "date"
	// FormatDateTime is ISO-8601.
	FormatDateTime = "datetime"
	// FormatTime is HH:MM.
	FormatTime = "time"
	// FormatEmail is a plausible email address.
	FormatEmail = "email"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Field declares the constraints for one argument.
// Only the constraints matching the field's type are consulted.
type Field struct {
	Type        FieldType
	Required    bool
	Description string

	// String constraints.
	Enum    []string
	MinLen  int
	MaxLen  int // 0 means unbounded
	Pattern *regexp.Regexp
	Format  string

	// Numeric constraints.
	Min *float64
	Max *float64
}

// Schema maps argument names to their declared constraints.
type Schema map[string]Field

// Validate checks args against the schema. Every declared field is checked;
// unknown fields in args are passed through, not rejected. The first
// violation is returned as a *ValidationError naming the offending field.
func (s Schema) Validate(capability string, args map[string]any) error {
	for name, field := range s {
		value, present := args[name]
		if !present {
			if field.Required {
				return &ValidationError{Capability: capability, Field: name, Reason: "required field missing"}
			}
			continue
		}
		if err := field.check(capability, name, value); err != nil {
			return err
		}
	}
	return nil
}

func (f Field) check(capability, name string, value any) error {
	fail := func(reason string) error {
		return &ValidationError{Capability: capability, Field: name, Reason: reason}
	}

	switch f.Type {
	case StringField:
		str, ok := value.(string)
		if !ok {
			return fail(fmt.Sprintf("expected string, got %T", value))
		}
		if f.MinLen > 0 && len(str) < f.MinLen {
			return fail(fmt.Sprintf("length %d below minimum %d", len(str), f.MinLen))
		}
		if f.MaxLen > 0 && len(str) > f.MaxLen {
			return fail(fmt.Sprintf("length %d above maximum %d", len(str), f.MaxLen))
		}
		if len(f.Enum) > 0 && !contains(f.Enum, str) {
			return fail(fmt.Sprintf("value %q not in allowed set [%s]", str, strings.Join(f.Enum, ", ")))
		}
		if f.Pattern != nil && !f.Pattern.MatchString(str) {
			return fail(fmt.Sprintf("value %q does not match pattern %s", str, f.Pattern))
		}
		if f.Format != "" {
			if err := checkFormat(f.Format, str); err != nil {
				return fail(err.Error())
			}
		}

	case NumberField, IntegerField:
		num, ok := asFloat(value)
		if !ok {
			return fail(fmt.Sprintf("expected %s, got %T", f.Type, value))
		}
		if f.Type == IntegerField && num != float64(int64(num)) {
			return fail(fmt.Sprintf("expected integer, got %v", value))
		}
		if f.Min != nil && num < *f.Min {
			return fail(fmt.Sprintf("value %v below minimum %v", num, *f.Min))
		}
		if f.Max != nil && num > *f.Max {
			return fail(fmt.Sprintf("value %v above maximum %v", num, *f.Max))
		}

	case BooleanField:
		if _, ok := value.(bool); !ok {
			return fail(fmt.Sprintf("expected boolean, got %T", value))
		}

	case ObjectField:
		if _, ok := value.(map[string]any); !ok {
			return fail(fmt.Sprintf("expected object, got %T", value))
		}

	case ArrayField:
		if _, ok := value.([]any); !ok {
			return fail(fmt.Sprintf("expected array, got %T", value))
		}
	}

	return nil
}

func checkFormat(format, value string) error {
	switch format {
	case FormatDate:
		if _, err := time.Parse("2006-01-02", value); err != nil {
			return fmt.Errorf("value %q is not a valid date (YYYY-MM-DD)", value)
		}
	case FormatDateTime:
		if _, err := time.Parse(time.RFC3339, value); err != nil {
			return fmt.Errorf("value %q is not a valid ISO-8601 datetime", value)
		}
	case FormatTime:
		if _, err := time.Parse("15:04", value); err != nil {
			return fmt.Errorf("value %q is not a valid time (HH:MM)", value)
		}
	case FormatEmail:
		if !emailPattern.MatchString(value) {
			return fmt.Errorf("value %q is not a valid email address", value)
		}
	default:
		return fmt.Errorf("unknown format %q in schema", format)
	}
	return nil
}

// asFloat widens any JSON-decodable numeric type to float64.
func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// Ptr returns a pointer to v; convenience for Min/Max bounds.
func Ptr[T any](v T) *T {
	return &v
}

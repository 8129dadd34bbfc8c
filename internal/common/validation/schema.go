// Package validation checks flat request parameter sets (OAuth query strings,
// form posts, job variables) against a small declarative schema.
package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

const (
	CodeRequired     = "REQUIRED_FIELD_MISSING"
	CodeExtraField   = "EXTRA_FIELD"
	CodeInvalidType  = "INVALID_TYPE"
	CodeMinLength    = "MIN_LENGTH_VIOLATION"
	CodePattern      = "PATTERN_MISMATCH"
	CodeInvalidValue = "INVALID_ENUM_VALUE"
)

// JSONSchema describes an object of scalar parameters. Required is checked
// in declaration order so missing fields are reported deterministically.
type JSONSchema struct {
	Type                 string              `json:"type"`
	Properties           map[string]Property `json:"properties"`
	Required             []string            `json:"required,omitempty"`
	AdditionalProperties bool                `json:"additionalProperties,omitempty"`
}

type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Pattern     string   `json:"pattern,omitempty"`
	MinLength   int      `json:"minLength,omitempty"`
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ValidateStrings treats blank values as absent, which is how query strings
// and form posts report an omitted parameter.
func ValidateStrings(params map[string]string, schema JSONSchema) *ValidationResult {
	input := make(map[string]interface{}, len(params))
	for k, v := range params {
		if strings.TrimSpace(v) != "" {
			input[k] = v
		}
	}
	return ValidateInput(input, schema)
}

// ValidateInput validates input against schema with per-field errors.
func ValidateInput(input map[string]interface{}, schema JSONSchema) *ValidationResult {
	var errs []ValidationError

	for _, field := range schema.Required {
		if _, ok := input[field]; !ok {
			errs = append(errs, ValidationError{Field: field, Message: "required field missing", Code: CodeRequired})
		}
	}

	for _, field := range sortedFields(input) {
		prop, ok := schema.Properties[field]
		if !ok {
			if !schema.AdditionalProperties {
				errs = append(errs, ValidationError{Field: field, Message: "field not allowed in schema", Code: CodeExtraField})
			}
			continue
		}
		if e, bad := validateField(field, input[field], prop); bad {
			errs = append(errs, e)
		}
	}

	return &ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

func validateField(field string, value interface{}, prop Property) (ValidationError, bool) {
	fail := func(code, format string, args ...interface{}) (ValidationError, bool) {
		return ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Code: code}, true
	}

	switch prop.Type {
	case "", "string":
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fail(CodeInvalidType, "expected boolean, got %T", value)
		}
		return ValidationError{}, false
	default:
		return fail(CodeInvalidType, "unsupported property type %q", prop.Type)
	}

	s, ok := value.(string)
	if !ok {
		return fail(CodeInvalidType, "expected string, got %T", value)
	}
	if prop.MinLength > 0 && len(s) < prop.MinLength {
		return fail(CodeMinLength, "value must be at least %d characters", prop.MinLength)
	}
	if prop.Pattern != "" {
		if matched, err := regexp.MatchString(prop.Pattern, s); err != nil || !matched {
			return fail(CodePattern, "value must match pattern %s", prop.Pattern)
		}
	}
	if len(prop.Enum) > 0 && !contains(prop.Enum, s) {
		return fail(CodeInvalidValue, "value must be one of %v", prop.Enum)
	}
	return ValidationError{}, false
}

// GetErrorMessages returns "field: message" lines.
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

func (vr *ValidationResult) HasErrors(field string) bool {
	return len(vr.GetErrorsForField(field)) > 0
}

func (vr *ValidationResult) GetErrorsForField(field string) []ValidationError {
	var out []ValidationError
	for _, err := range vr.Errors {
		if err.Field == field {
			out = append(out, err)
		}
	}
	return out
}

// MissingFields lists required fields reported absent, in schema order.
func (vr *ValidationResult) MissingFields() []string {
	var missing []string
	for _, err := range vr.Errors {
		if err.Code == CodeRequired {
			missing = append(missing, err.Field)
		}
	}
	return missing
}

var identifierPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// ValidateIdentifier checks catalog service and flavor ids (lowercase, digits, _ and -).
func ValidateIdentifier(id string) bool {
	return identifierPattern.MatchString(id)
}

func sortedFields(input map[string]interface{}) []string {
	fields := make([]string, 0, len(input))
	for k := range input {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

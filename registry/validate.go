package registry

import (
	"fmt"
	"regexp"
	"strings"
)

// FieldError represents a validation failure for a specific field.
type FieldError struct {
	Field   string // Field path (e.g., "modules[3].dependencies[0]")
	Message string // Human-readable error message
}

func (e *FieldError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors struct {
	Errors []*FieldError
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d validation errors:", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&b, "\n  - %s", err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying errors for errors.Is/As compatibility.
func (e *ValidationErrors) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		errs[i] = err
	}
	return errs
}

// Add appends a validation error.
func (e *ValidationErrors) Add(field, message string) {
	e.Errors = append(e.Errors, &FieldError{Field: field, Message: message})
}

// HasErrors returns true if any errors were collected.
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

// ToError returns nil if no errors, otherwise returns self.
func (e *ValidationErrors) ToError() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

// idPattern allows dotted identifiers such as "es.array.at" and
// "web.dom-collections.iterator".
var idPattern = regexp.MustCompile(`^[A-Za-z0-9_$][A-Za-z0-9_$.\-]*$`)

// ValidID reports whether id is an acceptable module identifier.
func ValidID(id string) bool {
	return idPattern.MatchString(id) && !strings.HasSuffix(id, ".") && !strings.Contains(id, "..")
}

// validate checks one entry, recording problems under prefix.
func (e *Entry) validate(prefix string, errs *ValidationErrors) {
	if e.ID == "" {
		errs.Add(prefix+".id", "required field is missing")
	} else if !ValidID(e.ID) {
		errs.Add(prefix+".id", fmt.Sprintf("invalid module identifier %q", e.ID))
	}
	for i, dep := range e.Dependencies {
		field := fmt.Sprintf("%s.dependencies[%d]", prefix, i)
		if dep == "" {
			errs.Add(field, "empty dependency")
		}
	}
	if strings.TrimSpace(e.Payload) != e.Payload {
		errs.Add(prefix+".payload", "payload reference has surrounding whitespace")
	}
}

// Validate checks entries without building a registry. Duplicate, dangling
// and cyclic references are reported by New as typed errors instead.
func Validate(entries []Entry) error {
	var errs ValidationErrors
	for i := range entries {
		entries[i].validate(fmt.Sprintf("modules[%d]", i), &errs)
	}
	return errs.ToError()
}

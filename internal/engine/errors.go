// Package engine implements product configuration resolution: which option
// values a shopper may still select, which stocked variant a complete
// selection identifies, and what the resulting line price is. Everything in
// this package is pure and synchronous; persistence, transport and rendering
// live in the surrounding layers.
package engine

import (
	"fmt"
	"strings"
)

// Validation error codes surfaced to the display layer. All of these are
// user-correctable except the catalog configuration ones, which indicate the
// catalog provider handed the engine unusable data.
const (
	CodeMissingRequiredAttribute    = "MISSING_REQUIRED_ATTRIBUTE"
	CodeMissingRequiredCustomOption = "MISSING_REQUIRED_CUSTOM_OPTION"
	CodeNoMatchingVariant           = "NO_MATCHING_VARIANT"
	CodeOptionOutOfStock            = "OPTION_OUT_OF_STOCK"
	CodeInvalidCustomOptionValue    = "INVALID_CUSTOM_OPTION_VALUE"
)

// FieldError is a single validation problem tied to a group or option name.
type FieldError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is the accumulated list of problems for one selection
// state. Mutators never fail; Validate and Commit surface the whole list so
// the display layer can show every missing field at once.
type ValidationErrors []FieldError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fmt.Sprintf("%s: %s", fe.Field, fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// InvalidCatalogError reports a data-integrity problem in the catalog the
// caller handed in (duplicate variant combinations, references to undeclared
// groups or values, negative custom option modifiers). It cannot be fixed by
// the shopper and is raised eagerly when the catalog is built.
type InvalidCatalogError struct {
	Reason string
}

func (e *InvalidCatalogError) Error() string {
	return "invalid catalog configuration: " + e.Reason
}

func invalidCatalogf(format string, args ...interface{}) error {
	return &InvalidCatalogError{Reason: fmt.Sprintf(format, args...)}
}

// Package generrors provides the error types raised while generating clients.
//
// Every fatal condition of a generation run has a dedicated type so callers
// can tell them apart with errors.As, and a sentinel so errors.Is works
// without a type assertion:
//
//	var refErr *generrors.ReferenceError
//	if errors.As(err, &refErr) {
//		log.Printf("unresolved %s", refErr.Ref)
//	}
package generrors

import (
	"errors"
	"fmt"
)

var (
	// ErrReference indicates a $ref that could not be resolved.
	ErrReference = errors.New("reference not found")

	// ErrPathParam indicates a mismatch between a route's placeholders and its path parameters.
	ErrPathParam = errors.New("path parameter mismatch")

	// ErrSchema indicates a schema that cannot be turned into a type.
	ErrSchema = errors.New("invalid schema")

	// ErrConfig indicates an invalid configuration.
	ErrConfig = errors.New("configuration error")

	// ErrConversion indicates a Swagger 2.0 to OpenAPI 3 conversion failure.
	ErrConversion = errors.New("conversion error")
)

// ReferenceError is returned when a $ref points to a missing document or pointer.
type ReferenceError struct {
	// Ref is the reference string as written in the document
	Ref string
	// SpecKey is the document the reference was resolved from
	SpecKey string
	// Message adds context about the failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

func (e *ReferenceError) Error() string {
	msg := "reference not found: " + e.Ref
	if e.SpecKey != "" {
		msg += " (in " + e.SpecKey + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ReferenceError) Unwrap() error { return e.Cause }

// Is reports whether target is ErrReference.
func (e *ReferenceError) Is(target error) bool { return target == ErrReference }

// PathParamError is returned when a route placeholder has no matching path
// parameter, or a path parameter has no placeholder.
type PathParamError struct {
	OperationID string
	Param       string
	// Missing is true when the route declares the placeholder but no parameter exists
	Missing bool
}

func (e *PathParamError) Error() string {
	if e.Missing {
		return fmt.Sprintf("operation %s: route placeholder {%s} has no path parameter", e.OperationID, e.Param)
	}
	return fmt.Sprintf("operation %s: path parameter %q is not in the route", e.OperationID, e.Param)
}

// Is reports whether target is ErrPathParam.
func (e *PathParamError) Is(target error) bool { return target == ErrPathParam }

// SchemaError is returned for schemas that cannot be synthesized, such as an
// array without items.
type SchemaError struct {
	// Name is the type name being synthesized, when known
	Name    string
	Message string
}

func (e *SchemaError) Error() string {
	if e.Name == "" {
		return "invalid schema: " + e.Message
	}
	return fmt.Sprintf("invalid schema %s: %s", e.Name, e.Message)
}

// Is reports whether target is ErrSchema.
func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	// Option is the configuration key at fault
	Option  string
	Message string
	Cause   error
}

func (e *ConfigError) Error() string {
	msg := "configuration error"
	if e.Option != "" {
		msg += " in " + e.Option
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Cause }

// Is reports whether target is ErrConfig.
func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// ConversionError reports a failed Swagger 2.0 upgrade. It is never fatal on
// its own: the loader logs it and keeps the original document.
type ConversionError struct {
	Source string
	Cause  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("converting %s to OpenAPI 3: %v", e.Source, e.Cause)
}

func (e *ConversionError) Unwrap() error { return e.Cause }

// Is reports whether target is ErrConversion.
func (e *ConversionError) Is(target error) bool { return target == ErrConversion }

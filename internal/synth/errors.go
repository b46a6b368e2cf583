package synth

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for errors.Is checks.
var (
	ErrSchemaResolution    = errors.New("schema resolution error")
	ErrAmbiguousParameters = errors.New("ambiguous parameters")
	ErrConfig              = errors.New("configuration error")
)

// SchemaResolutionError reports an operation whose shape cannot be turned into
// a request: no tags to derive a controller from, or a body schema that does
// not resolve to a definition.
type SchemaResolutionError struct {
	Path   string
	Method string
	Schema string // referenced definition name, if any
	Reason string
}

func (e *SchemaResolutionError) Error() string {
	var b strings.Builder
	b.WriteString("schema resolution error: ")
	b.WriteString(strings.ToUpper(e.Method))
	b.WriteString(" ")
	b.WriteString(e.Path)
	if e.Schema != "" {
		fmt.Fprintf(&b, " (schema %q)", e.Schema)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

func (e *SchemaResolutionError) Is(target error) bool { return target == ErrSchemaResolution }

// AmbiguousParametersError reports an operation declaring both a body and
// form-data parameters.
type AmbiguousParametersError struct {
	Path   string
	Method string
	Body   string   // body parameter name
	Form   []string // form-data parameter names
}

func (e *AmbiguousParametersError) Error() string {
	return fmt.Sprintf("ambiguous parameters: %s %s declares body parameter %q and form-data parameters [%s]",
		strings.ToUpper(e.Method), e.Path, e.Body, strings.Join(e.Form, ", "))
}

func (e *AmbiguousParametersError) Is(target error) bool { return target == ErrAmbiguousParameters }

// ConfigError reports an unusable EnvironmentConfig or Options value.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "configuration error: " + e.Message
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
}

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

package csharp

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfig is matched by every configuration error raised while building
// a Generator.
var ErrConfig = errors.New("invalid generator configuration")

// ConfigCode categorizes configuration errors.
type ConfigCode string

const (
	InvalidFramework ConfigCode = "InvalidFramework"
	InvalidNaming    ConfigCode = "InvalidNaming"
	InvalidLibrary   ConfigCode = "InvalidLibrary"
	InvalidOption    ConfigCode = "InvalidOption"
)

// ConfigError reports an option value outside its closed catalog.
type ConfigError struct {
	Code    ConfigCode
	Option  string
	Value   string
	Allowed []string
	// Input is the full option value when Value is one segment of it.
	Input string
	Cause error
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	switch e.Code {
	case InvalidFramework:
		if e.Input != "" && e.Input != e.Value {
			fmt.Fprintf(&b, "the input (%s) contains invalid .NET framework version: %s", e.Input, e.Value)
		} else {
			fmt.Fprintf(&b, "invalid .NET framework version: %s", e.Value)
		}
		fmt.Fprintf(&b, ". List of supported versions: %s", strings.Join(e.Allowed, ", "))
	case InvalidNaming:
		fmt.Fprintf(&b, "invalid model property naming '%s'. Must be %s", e.Value, quoteList(e.Allowed))
	case InvalidLibrary:
		fmt.Fprintf(&b, "invalid HTTP library %s. Only %s are supported", e.Value, strings.Join(e.Allowed, ", "))
	default:
		fmt.Fprintf(&b, "invalid value %q for option %s", e.Value, e.Option)
		if len(e.Allowed) > 0 {
			fmt.Fprintf(&b, " (allowed: %s)", strings.Join(e.Allowed, ", "))
		}
		if e.Cause != nil {
			fmt.Fprintf(&b, ": %v", e.Cause)
		}
	}
	return b.String()
}

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }
func (e *ConfigError) Unwrap() error        { return e.Cause }

// quoteList renders 'a', 'b' or 'c'.
func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = "'" + s + "'"
	}
	if len(quoted) < 2 {
		return strings.Join(quoted, "")
	}
	return strings.Join(quoted[:len(quoted)-1], ", ") + " or " + quoted[len(quoted)-1]
}

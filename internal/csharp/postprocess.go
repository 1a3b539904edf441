package csharp

import (
	"slices"
	"strings"

	"github.com/Robbilie/openapi-generator/internal/spec"
)

// Vendor extensions set on properties and parameters for the templates.
const (
	extValueType        = "x-csharp-value-type"
	extEmitDefaultValue = "x-emit-default-value"
	extRegex            = "x-regex"
	extModifiers        = "x-modifiers"
)

var regexModifiers = map[rune]string{
	'i': "IgnoreCase",
	'm': "Multiline",
	's': "Singleline",
	'x': "IgnorePatternWhitespace",
}

func postProcessProperty(p *spec.Property, opts Options, types *typeMapper) {
	if p.VendorExtensions == nil {
		p.VendorExtensions = map[string]any{}
	}
	base := strings.TrimSuffix(p.DataType, "?")
	if p.Container == spec.ContainerNone && (IsNullableType(base) || p.IsEnum || types.isEnumModel(p.Ref)) {
		p.VendorExtensions[extValueType] = true
	}
	p.VendorExtensions[extEmitDefaultValue] = opts.OptionalEmitDefaultValues
	if p.Pattern != "" {
		regex, modifiers := splitPattern(p.Pattern)
		p.VendorExtensions[extRegex] = regex
		p.VendorExtensions[extModifiers] = modifiers
	}
}

// splitPattern turns a /pattern/flags expression into a C# verbatim string
// body and RegexOptions names. Undelimited patterns get the delimiters
// added first.
func splitPattern(pattern string) (string, []string) {
	i := strings.LastIndex(pattern, "/")
	if !strings.HasPrefix(pattern, "/") || i < 1 {
		pattern = "/" + pattern + "/"
		i = len(pattern) - 1
	}
	regex := strings.ReplaceAll(pattern[1:i], `"`, `""`)
	modifiers := []string{"CultureInvariant"}
	for _, c := range pattern[i+1:] {
		if m, ok := regexModifiers[c]; ok {
			modifiers = append(modifiers, m)
		} else if c == 'l' {
			modifiers = slices.DeleteFunc(modifiers, func(s string) bool { return s == "CultureInvariant" })
		}
	}
	return regex, modifiers
}

func postProcessParameter(p *spec.Parameter, opts Options) {
	if p.VendorExtensions == nil {
		p.VendorExtensions = map[string]any{}
	}
	p.VendorExtensions[extEmitDefaultValue] = opts.OptionalEmitDefaultValues
	base := strings.TrimSuffix(p.DataType, "?")
	if p.Container == spec.ContainerNone && (IsNullableType(base) || p.IsEnum) {
		p.VendorExtensions[extValueType] = true
	}
	if p.Required || strings.HasSuffix(p.DataType, "?") {
		return
	}
	switch {
	case p.IsEnum && IsValueType(base):
		p.DataType += "?"
	case opts.NullableReferenceTypes || IsNullableType(p.DataType):
		p.DataType += "?"
	}
}

// postProcessModel drops the null alternative of a composition and marks
// the model nullable instead.
func postProcessModel(m *spec.Model) {
	for _, list := range []*[]string{&m.OneOf, &m.AnyOf} {
		if slices.Contains(*list, spec.ModelNull) {
			m.IsNullable = true
			*list = slices.DeleteFunc(*list, func(s string) bool { return s == spec.ModelNull })
		}
	}
}

package csharp

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Robbilie/openapi-generator/internal/spec"
)

var (
	valueTypes    = toSet("decimal", "bool", "int", "uint", "long", "ulong", "float", "double")
	nullableTypes = toSet("decimal", "bool", "int", "uint", "long", "ulong", "float", "double",
		"DateTime", "DateTimeOffset", "Guid")
)

// IsValueType reports whether t is a C# value type.
func IsValueType(t string) bool {
	_, ok := valueTypes[t]
	return ok
}

// IsNullableType reports whether t needs a '?' to express absence.
func IsNullableType(t string) bool {
	_, ok := nullableTypes[t]
	return ok
}

// typeMapper maps abstract types to C# types for one run.
type typeMapper struct {
	mapping        map[string]string
	instantiations map[string]string
	namer          *Namer
	// enumModels holds the raw names of schemas declared as enums.
	enumModels map[string]struct{}
}

func newTypeMapper(opts Options, lib Library, namer *Namer) *typeMapper {
	m := map[string]string{
		"string":    "string",
		"binary":    "byte[]",
		"ByteArray": "byte[]",
		"boolean":   "bool",
		"integer":   "int",
		"float":     "float",
		"long":      "long",
		"double":    "double",
		"number":    "decimal",
		"decimal":   "decimal",
		"DateTime":  "DateTime",
		"date":      "DateTime",
		"file":      lib.Capabilities().FileType,
		"array":     "List",
		"list":      "List",
		"map":       "Dictionary",
		"object":    "Object",
		"UUID":      "Guid",
		"URI":       "string",
		"AnyType":   "Object",
	}
	if opts.UseDateTimeOffset {
		m["DateTime"] = "DateTimeOffset"
		m["date"] = "DateTimeOffset"
	}
	inst := map[string]string{"array": "List", "map": "Dictionary"}
	if opts.UseCollection {
		m["array"] = "Collection"
		m["list"] = "Collection"
		inst["array"] = "Collection"
	}
	return &typeMapper{mapping: m, instantiations: inst, namer: namer, enumModels: map[string]struct{}{}}
}

// schemaType resolves the bare type of an abstract type. Unmapped names are
// model references.
func (t *typeMapper) schemaType(abstract string) string {
	if mapped, ok := t.mapping[abstract]; ok {
		return mapped
	}
	return t.namer.ModelName(abstract)
}

// Declaration renders the C# type of p, e.g. List<Pet> or
// Dictionary<string, int?>.
func (t *typeMapper) Declaration(p *spec.Property) string {
	if p == nil {
		return "Object"
	}
	switch p.Container {
	case spec.ContainerArray:
		return t.schemaType("array") + "<" + t.Declaration(p.Items) + ">"
	case spec.ContainerMap:
		return t.schemaType("map") + "<string, " + t.Declaration(p.Items) + ">"
	}
	typ := t.schemaType(p.AbstractType)
	if p.Ref != "" {
		typ = t.namer.ModelName(p.Ref)
	}
	if p.Nullable && (IsNullableType(typ) || t.isEnumModel(p.Ref)) {
		return typ + "?"
	}
	return typ
}

// Instantiation renders the concrete type used to create a container value.
func (t *typeMapper) Instantiation(p *spec.Property) string {
	switch p.Container {
	case spec.ContainerArray:
		return t.instantiations["array"] + "<" + t.Declaration(p.Items) + ">"
	case spec.ContainerMap:
		inner := t.Declaration(p.Items)
		if p.Items != nil && p.Items.Container == spec.ContainerMap {
			inner = t.Instantiation(p.Items)
		}
		return t.instantiations["map"] + "<String, " + inner + ">"
	}
	return ""
}

func (t *typeMapper) isEnumModel(name string) bool {
	if name == "" {
		return false
	}
	_, ok := t.enumModels[name]
	return ok
}

// DeclarationWithEnum renders the type of p with its innermost element
// replaced by the nested enum type enumName.
func (t *typeMapper) DeclarationWithEnum(p *spec.Property, enumName string) string {
	switch p.Container {
	case spec.ContainerArray:
		return t.schemaType("array") + "<" + t.DeclarationWithEnum(p.Items, enumName) + ">"
	case spec.ContainerMap:
		return t.schemaType("map") + "<string, " + t.DeclarationWithEnum(p.Items, enumName) + ">"
	}
	return enumName
}

// innermost returns the leaf element of a container property.
func innermost(p *spec.Property) *spec.Property {
	for p.Container != spec.ContainerNone && p.Items != nil {
		p = p.Items
	}
	return p
}

// DefaultLiteral renders the schema default of p as a C# expression. It
// returns nil when the default has no literal form for the resolved type,
// as for models, Guid values or inline enum arrays.
func (t *typeMapper) DefaultLiteral(p *spec.Property) *string {
	if p == nil || p.Default == nil {
		return nil
	}
	lit, ok := t.literal(p, p.Default)
	if !ok {
		return nil
	}
	return &lit
}

func (t *typeMapper) literal(p *spec.Property, v any) (string, bool) {
	switch p.Container {
	case spec.ContainerArray:
		items, ok := v.([]any)
		if !ok || p.Items == nil || innermost(p).IsEnum {
			return "", false
		}
		elems := make([]string, 0, len(items))
		for _, item := range items {
			lit, ok := t.literal(p.Items, item)
			if !ok {
				return "", false
			}
			elems = append(elems, lit)
		}
		if len(elems) == 0 {
			return "new " + t.Instantiation(p) + "()", true
		}
		return "new " + t.Instantiation(p) + " { " + strings.Join(elems, ", ") + " }", true
	case spec.ContainerMap:
		// an empty object is the only map default with a literal form
		if m, ok := v.(map[string]any); ok && len(m) == 0 && !innermost(p).IsEnum {
			return "new " + t.Instantiation(p) + "()", true
		}
		return "", false
	}

	raw := fmt.Sprint(v)
	if p.IsEnum && p.EnumName != "" {
		for _, ev := range p.AllowableValues {
			if ev.Value == raw {
				return p.EnumName + "." + ev.Name, true
			}
		}
		return "", false
	}
	if t.isEnumModel(p.Ref) {
		kind := "string"
		if _, ok := v.(string); !ok {
			kind = "int"
		}
		return t.namer.ModelName(p.Ref) + "." + t.namer.EnumVarName(raw, kind), true
	}

	switch typ := strings.TrimSuffix(t.Declaration(p), "?"); typ {
	case "string":
		return quoteString(raw), true
	case "bool":
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return "", false
		}
		return strconv.FormatBool(b), true
	case "int", "long":
		f, ok := number(v)
		if !ok || f != math.Trunc(f) || (typ == "int" && (f < math.MinInt32 || f > math.MaxInt32)) {
			return "", false
		}
		lit := strconv.FormatInt(int64(f), 10)
		if typ == "long" {
			lit += "L"
		}
		return lit, true
	case "float", "double", "decimal":
		f, ok := number(v)
		if !ok {
			return "", false
		}
		suffix := map[string]string{"float": "F", "double": "D", "decimal": "M"}[typ]
		return strconv.FormatFloat(f, 'g', -1, 64) + suffix, true
	case "DateTime", "DateTimeOffset":
		return "default(" + typ + ")", true
	}
	return "", false
}

// number accepts the numeric forms a decoded document can hold.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

// quoteString renders s as a regular C# string literal.
func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f || r == 0x85 || r == 0x2028 || r == 0x2029 {
				fmt.Fprintf(&b, `\u%04X`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

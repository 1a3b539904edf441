package csharp

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/iancoleman/strcase"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NamingPolicy is the casing rule applied to model property names.
type NamingPolicy string

const (
	Original   NamingPolicy = "original"
	CamelCase  NamingPolicy = "camelCase"
	PascalCase NamingPolicy = "PascalCase"
	SnakeCase  NamingPolicy = "snake_case"
)

// NamingPolicies returns the accepted policies in listing order.
func NamingPolicies() []string {
	return []string{string(Original), string(CamelCase), string(PascalCase), string(SnakeCase)}
}

// ParseNamingPolicy validates a policy name. Empty selects PascalCase.
func ParseNamingPolicy(name string) (NamingPolicy, error) {
	switch p := NamingPolicy(name); p {
	case "":
		return PascalCase, nil
	case Original, CamelCase, PascalCase, SnakeCase:
		return p, nil
	}
	return "", &ConfigError{Code: InvalidNaming, Option: "modelPropertyNaming", Value: name, Allowed: NamingPolicies()}
}

// Apply recases name according to the policy.
func (p NamingPolicy) Apply(name string) string {
	switch p {
	case CamelCase:
		return strcase.ToLowerCamel(name)
	case SnakeCase:
		return strcase.ToSnake(name)
	case Original:
		return name
	default:
		return camelize(name)
	}
}

// reservedWords holds the C# keywords plus identifiers the client templates
// declare themselves. Matching is case sensitive.
var reservedWords = toSet(
	// template locals and client types
	"Client", "client", "parameter", "Configuration", "Version",
	"localVarPath", "localVarPathParams", "localVarQueryParams", "localVarHeaderParams",
	"localVarFormParams", "localVarFileParams", "localVarStatusCode", "localVarResponse",
	"localVarPostBody", "localVarHttpHeaderAccepts", "localVarHttpHeaderAccept",
	"localVarHttpContentTypes", "localVarHttpContentType", "localVarRequestOptions",
	"localVarContentTypes", "localVarAccepts", "localVarContentType", "localVarAccept",
	// keywords
	"abstract", "as", "base", "bool", "break", "byte", "case", "catch", "char", "checked",
	"class", "const", "continue", "decimal", "default", "delegate", "do", "double", "else",
	"enum", "event", "explicit", "extern", "false", "finally", "fixed", "float", "for",
	"foreach", "goto", "if", "implicit", "in", "int", "interface", "internal", "is", "lock",
	"long", "namespace", "new", "null", "object", "operator", "out", "override", "params",
	"private", "protected", "public", "readonly", "ref", "return", "sbyte", "sealed",
	"short", "sizeof", "stackalloc", "static", "string", "struct", "switch", "this", "throw",
	"true", "try", "typeof", "uint", "ulong", "unchecked", "unsafe", "ushort", "using",
	"virtual", "void", "volatile", "while",
)

// propertySpecialKeywords collide with members every generated class has.
var propertySpecialKeywords = toSet("ToString", "Equals", "GetHashCode")

// symbolNames maps whole enum values that are punctuation to readable words.
var symbolNames = map[string]string{
	"$": "Dollar", "^": "Caret", "|": "Pipe", "=": "Equal", "*": "Star", "-": "Minus",
	"&": "Ampersand", "%": "Percent", "#": "Hash", "@": "At", "!": "Exclamation",
	"+": "Plus", ":": "Colon", ";": "Semicolon", ">": "Greater_Than", "<": "Less_Than",
	".": "Period", "_": "Underscore", "?": "Question_Mark", ",": "Comma", "'": "Quote",
	"\"": "Double_Quote", "/": "Slash", "\\": "Back_Slash", "(": "Left_Parenthesis",
	")": "Right_Parenthesis", "{": "Left_Curly_Bracket", "}": "Right_Curly_Bracket",
	"[": "Left_Square_Bracket", "]": "Right_Square_Bracket", "~": "Tilde", "`": "Backtick",
	"<=": "Less_Than_Or_Equal_To", ">=": "Greater_Than_Or_Equal_To", "!=": "Not_Equal",
}

var (
	upperOnlyRe   = regexp.MustCompile(`^[A-Z_]*$`)
	leadingDigit  = regexp.MustCompile(`^\d`)
	nonWordRe     = regexp.MustCompile(`\W+`)
	identUnsafeRe = regexp.MustCompile(`[^A-Za-z0-9_]`)
	sanitizeRepl  = strings.NewReplacer("[", "_", "]", "", "(", "_", ")", "", ".", "_", "-", "_", " ", "_", "$", "_", "/", "_", ":", "_")
)

// Namer renders OpenAPI identifiers as C# identifiers.
type Namer struct {
	Policy       NamingPolicy
	NameMapping  map[string]string
	AllowUnicode bool
	titleCaser   cases.Caser
}

func NewNamer(policy NamingPolicy, nameMapping map[string]string, allowUnicode bool) *Namer {
	return &Namer{
		Policy:       policy,
		NameMapping:  nameMapping,
		AllowUnicode: allowUnicode,
		titleCaser:   cases.Title(language.Und, cases.NoLower),
	}
}

// Sanitize replaces separators with '_' and drops characters that cannot
// appear in an identifier.
func (n *Namer) Sanitize(name string) string {
	name = sanitizeRepl.Replace(name)
	if n.AllowUnicode {
		return strings.Map(func(r rune) rune {
			if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
				return r
			}
			return -1
		}, name)
	}
	return identUnsafeRe.ReplaceAllString(name, "")
}

// VarName resolves a model property identifier.
func (n *Namer) VarName(name string) string {
	if mapped, ok := n.NameMapping[name]; ok {
		return mapped
	}
	name = n.Sanitize(name)
	if upperOnlyRe.MatchString(name) {
		return name
	}
	name = n.Policy.Apply(name)
	if isReserved(name) || leadingDigit.MatchString(name) {
		name = escapeReserved(name)
	}
	if _, ok := propertySpecialKeywords[name]; ok {
		return camelize("property_" + name)
	}
	return name
}

// ParamName resolves an operation parameter identifier (camelCase).
func (n *Namer) ParamName(name string) string {
	name = n.Sanitize(name)
	if upperOnlyRe.MatchString(name) {
		return name
	}
	name = strcase.ToLowerCamel(name)
	if isReserved(name) || leadingDigit.MatchString(name) {
		name = escapeReserved(name)
	}
	return name
}

// ModelName resolves a model class identifier.
func (n *Namer) ModelName(name string) string {
	name = n.Sanitize(name)
	if name == "" {
		return "Object"
	}
	if leadingDigit.MatchString(name) {
		return "Model" + camelize(name)
	}
	name = camelize(name)
	if isReserved(name) || isReserved(strings.ToLower(name)) {
		return "Model" + name
	}
	return name
}

// APIName resolves the class name of the API grouping for tag.
func (n *Namer) APIName(tag string) string {
	if strings.TrimSpace(tag) == "" {
		return "DefaultApi"
	}
	return camelize(n.Sanitize(tag)) + "Api"
}

// OperationName resolves a method identifier. Without an operationId the
// name is derived from the path words and the method.
func (n *Namer) OperationName(operationID, method, path string) string {
	if strings.TrimSpace(operationID) == "" {
		words := strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '{' || r == '}' })
		operationID = strings.Join(append(words, method), "_")
	}
	name := camelize(n.Sanitize(operationID))
	if isReserved(name) || isReserved(strings.ToLower(name)) {
		name = "Call" + name
	}
	if leadingDigit.MatchString(name) {
		name = "Call" + name
	}
	return name
}

// EnumName is the nested enum type name of an inline enum property.
func (n *Namer) EnumName(name string) string {
	return camelize(n.Sanitize(name)) + "Enum"
}

// EnumVarName resolves an enum member identifier for value of dataType.
func (n *Namer) EnumVarName(value, dataType string) string {
	if value == "" {
		return "Empty"
	}
	if sym, ok := symbolNames[value]; ok {
		return camelize(sym)
	}
	if isNumericType(dataType) {
		v := "NUMBER_" + value
		v = strings.ReplaceAll(v, "-", "MINUS_")
		v = strings.ReplaceAll(v, "+", "PLUS_")
		return strings.ReplaceAll(v, ".", "_DOT_")
	}
	v := camelize(strings.ReplaceAll(value, " ", "_"))
	v = nonWordRe.ReplaceAllString(v, "")
	if leadingDigit.MatchString(v) {
		return "_" + v
	}
	return v
}

// PackageTitle derives a title cased assembly title from a free form name,
// e.g. "swagger petstore-api" becomes "Swagger Petstore Api".
func (n *Namer) PackageTitle(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool { return r == '.' || r == '-' || r == '_' || unicode.IsSpace(r) })
	for i, p := range parts {
		parts[i] = n.titleCaser.String(p)
	}
	return strings.Join(parts, " ")
}

func isNumericType(dataType string) bool {
	for _, prefix := range []string{"int", "long", "double", "float", "decimal"} {
		if strings.HasPrefix(dataType, prefix) {
			return true
		}
	}
	return false
}

func isReserved(name string) bool {
	_, ok := reservedWords[name]
	return ok
}

func escapeReserved(name string) string { return "_" + name }

// camelize upper-cases the first letter of every '_' separated word while
// leaving the rest of each word intact, so "userID" stays "UserID".
func camelize(s string) string {
	if s == "" {
		return s
	}
	if !strings.ContainsAny(s, "_ -") {
		r := []rune(s)
		r[0] = unicode.ToUpper(r[0])
		return string(r)
	}
	return strcase.ToCamel(s)
}

func toSet(items ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, s := range items {
		out[s] = struct{}{}
	}
	return out
}

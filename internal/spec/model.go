package spec

import (
	"fmt"
	"maps"
	"slices"
)

// Internal Model (IM) definitions shared by the normalizer, the target policy
// and the renderer. Instances are built once per run, mutated in place by the
// resolution passes and dropped after rendering.

type HttpMethod string

const (
	GET     HttpMethod = "get"
	POST    HttpMethod = "post"
	PUT     HttpMethod = "put"
	DELETE  HttpMethod = "delete"
	PATCH   HttpMethod = "patch"
	HEAD    HttpMethod = "head"
	OPTIONS HttpMethod = "options"
	TRACE   HttpMethod = "trace"
)

// ModelNull is the member name recorded for a nullable/null alternative of a
// oneOf or anyOf composition.
const ModelNull = "ModelNull"

// ContainerKind classifies properties and parameters holding collections.
type ContainerKind int

const (
	ContainerNone ContainerKind = iota
	ContainerArray
	ContainerMap
)

func (k ContainerKind) String() string {
	switch k {
	case ContainerArray:
		return "array"
	case ContainerMap:
		return "map"
	default:
		return "none"
	}
}

type API struct {
	Title       string
	Version     string
	Description string
	BasePath    string
	Servers     []Server
	Tags        []string
	Models      []*Model
	Operations  []*Operation
	// HasHTTPSignature reports whether any security scheme uses HTTP message signatures.
	HasHTTPSignature bool
}

type Server struct {
	URL         string
	Description string
}

// Model returns the model declared under the raw schema name, or nil.
func (a *API) Model(name string) *Model {
	for _, m := range a.Models {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Discriminator names the property that identifies the concrete subtype.
type Discriminator struct {
	PropertyName string
	// Mapping holds discriminator value -> schema name entries in sorted value order.
	Mapping []DiscriminatorMapping
}

type DiscriminatorMapping struct {
	Value  string
	Schema string
}

type Model struct {
	Name        string // raw schema name
	ClassName   string // resolved target identifier
	Description string
	Title       string
	DataType    string // for enum and alias models
	Deprecated  bool

	// Vars are the properties declared by this model itself. Names are unique.
	Vars []*Property
	// ParentVars are independent copies of ancestor properties not shadowed by Vars.
	ParentVars    []*Property
	ReadWriteVars []*Property
	ReadOnlyVars  []*Property
	RequiredVars  []*Property
	OptionalVars  []*Property

	// Parent is the raw schema name of the model this one extends. It is a
	// lookup key into API.Models, never an owning reference.
	Parent        string
	Discriminator *Discriminator
	OneOf         []string
	AnyOf         []string
	// InheritedDiscriminator is the discriminator of the nearest ancestor
	// declaring one. It is filled by reconciliation.
	InheritedDiscriminator *Discriminator

	IsMap      bool
	IsEnum     bool
	HasEnums   bool
	IsNullable bool
	IsAlias    bool

	AllowableValues      []EnumValue
	AdditionalProperties *Property
	// Alias is the aliased type of a non-object top level schema.
	Alias *Property

	VendorExtensions map[string]any
}

// EffectiveVars returns own properties followed by inherited ones.
func (m *Model) EffectiveVars() []*Property {
	out := make([]*Property, 0, len(m.Vars)+len(m.ParentVars))
	out = append(out, m.Vars...)
	return append(out, m.ParentVars...)
}

// Var returns the declared property with the given resolved or raw name.
func (m *Model) Var(name string) *Property {
	for _, p := range m.Vars {
		if p.Name == name || p.BaseName == name {
			return p
		}
	}
	return nil
}

// RefreshGroups recomputes the derived property lists from Vars and ParentVars.
// HasEnums only considers the declared Vars.
func (m *Model) RefreshGroups() {
	m.ReadWriteVars, m.ReadOnlyVars = nil, nil
	m.RequiredVars, m.OptionalVars = nil, nil
	m.HasEnums = false
	for _, p := range m.Vars {
		if p.IsEnum {
			m.HasEnums = true
		}
	}
	for _, p := range m.EffectiveVars() {
		if p.ReadOnly {
			m.ReadOnlyVars = append(m.ReadOnlyVars, p)
		} else {
			m.ReadWriteVars = append(m.ReadWriteVars, p)
		}
		if p.Required {
			m.RequiredVars = append(m.RequiredVars, p)
		} else {
			m.OptionalVars = append(m.OptionalVars, p)
		}
	}
}

type EnumValue struct {
	Name     string
	Value    string
	IsString bool
}

type Property struct {
	BaseName         string // raw name from the document
	Name             string // resolved identifier
	AbstractType     string
	Format           string
	DataType         string
	DatatypeWithEnum string
	EnumName         string
	Container        ContainerKind
	Items            *Property
	Ref              string
	Required         bool
	Nullable         bool
	ReadOnly         bool
	IsEnum           bool
	Enum             []any
	AllowableValues  []EnumValue
	Default          any     // schema default as decoded
	DefaultValue     *string // default as a target language expression
	IsInherited      bool
	Description      string
	Pattern          string
	Example          any
	Deprecated       bool
	VendorExtensions map[string]any

	// IsDiscriminatorDefault marks a DefaultValue assigned from the model
	// name rather than taken from the schema.
	IsDiscriminatorDefault bool
}

// Clone returns a deep copy that shares no mutable state with p.
func (p *Property) Clone() *Property {
	if p == nil {
		return nil
	}
	c := *p
	c.Items = p.Items.Clone()
	c.Enum = slices.Clone(p.Enum)
	c.AllowableValues = slices.Clone(p.AllowableValues)
	if p.DefaultValue != nil {
		v := *p.DefaultValue
		c.DefaultValue = &v
	}
	c.VendorExtensions = maps.Clone(p.VendorExtensions)
	return &c
}

// Equivalent reports structural equality of the descriptive fields.
// IsInherited and vendor extensions are ignored.
func (p *Property) Equivalent(o *Property) bool {
	if p == nil || o == nil {
		return p == o
	}
	if p.BaseName != o.BaseName || p.Name != o.Name || p.AbstractType != o.AbstractType ||
		p.Format != o.Format || p.DataType != o.DataType || p.DatatypeWithEnum != o.DatatypeWithEnum ||
		p.EnumName != o.EnumName || p.Container != o.Container || p.Ref != o.Ref ||
		p.Required != o.Required || p.Nullable != o.Nullable || p.ReadOnly != o.ReadOnly ||
		p.IsEnum != o.IsEnum || p.Description != o.Description || p.Pattern != o.Pattern ||
		p.Deprecated != o.Deprecated {
		return false
	}
	if (p.DefaultValue == nil) != (o.DefaultValue == nil) {
		return false
	}
	if p.DefaultValue != nil && *p.DefaultValue != *o.DefaultValue {
		return false
	}
	if !slices.Equal(p.AllowableValues, o.AllowableValues) {
		return false
	}
	if !slices.EqualFunc(p.Enum, o.Enum, func(a, b any) bool { return fmt.Sprint(a) == fmt.Sprint(b) }) {
		return false
	}
	return p.Items.Equivalent(o.Items)
}

type Parameter struct {
	BaseName         string
	ParamName        string
	In               string // path|query|header|cookie|body|formData
	AbstractType     string
	Format           string
	DataType         string
	Container        ContainerKind
	Items            *Property
	Ref              string
	Required         bool
	Nullable         bool
	IsEnum           bool
	Enum             []any
	Default          any
	DefaultValue     *string
	Description      string
	VendorExtensions map[string]any
}

type Operation struct {
	OperationID string
	Nickname    string
	Method      HttpMethod
	Path        string
	Summary     string
	Description string
	Tags        []string
	Deprecated  bool

	PathParams   []*Parameter
	QueryParams  []*Parameter
	HeaderParams []*Parameter
	CookieParams []*Parameter
	FormParams   []*Parameter
	BodyParam    *Parameter
	AllParams    []*Parameter

	ReturnType *Property
	Consumes   []string
	Produces   []string

	HasHTTPSignature bool
}

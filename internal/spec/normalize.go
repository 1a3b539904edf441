package spec

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// BuildOption configures how the API model is built from an OpenAPI doc.
type BuildOption func(*buildConfig)

type buildConfig struct {
	includeTags map[string]struct{}
	excludeTags map[string]struct{}
	methods     map[HttpMethod]struct{}
	pathRes     []*regexp.Regexp
	logger      *slog.Logger
}

// WithIncludeTags keeps only operations that have at least one of the given tags.
func WithIncludeTags(tags []string) BuildOption {
	return func(c *buildConfig) { c.includeTags = addTags(c.includeTags, tags) }
}

// WithExcludeTags removes operations that have any of the given tags.
func WithExcludeTags(tags []string) BuildOption {
	return func(c *buildConfig) { c.excludeTags = addTags(c.excludeTags, tags) }
}

func addTags(set map[string]struct{}, tags []string) map[string]struct{} {
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if set == nil {
			set = make(map[string]struct{}, len(tags))
		}
		set[t] = struct{}{}
	}
	return set
}

// WithMethods keeps only operations using one of the provided HTTP methods.
func WithMethods(methods []HttpMethod) BuildOption {
	return func(c *buildConfig) {
		for _, m := range methods {
			if c.methods == nil {
				c.methods = make(map[HttpMethod]struct{}, len(methods))
			}
			c.methods[m] = struct{}{}
		}
	}
}

// WithPathPatterns keeps only operations whose path matches at least one of
// the provided regular expressions. Invalid patterns never match.
func WithPathPatterns(patterns []string) BuildOption {
	return func(c *buildConfig) {
		for _, p := range patterns {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			re, err := regexp.Compile(p)
			if err != nil {
				re = regexp.MustCompile("a^$")
			}
			c.pathRes = append(c.pathRes, re)
		}
	}
}

// WithLogger sets the logger used for debug diagnostics.
func WithLogger(l *slog.Logger) BuildOption {
	return func(c *buildConfig) { c.logger = l }
}

// BuildAPI converts an OpenAPI v3 document into the target agnostic API
// model. Schemas and paths are visited in sorted order so repeated runs yield
// identical models.
func BuildAPI(ctx context.Context, doc *openapi3.T, opts ...BuildOption) (*API, error) {
	if doc == nil {
		return nil, fmt.Errorf("nil document")
	}
	cfg := &buildConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	b := &builder{doc: doc, cfg: cfg, log: cfg.logger}

	api := &API{}
	if doc.Info != nil {
		api.Title = safeStr(doc.Info.Title)
		api.Version = safeStr(doc.Info.Version)
		api.Description = safeStr(doc.Info.Description)
	}
	for _, s := range doc.Servers {
		if s == nil {
			continue
		}
		api.Servers = append(api.Servers, Server{URL: safeStr(s.URL), Description: safeStr(s.Description)})
	}
	if len(api.Servers) > 0 {
		api.BasePath = strings.TrimSuffix(api.Servers[0].URL, "/")
	}
	b.signatureSchemes = signatureSchemes(doc)
	api.HasHTTPSignature = len(b.signatureSchemes) > 0

	if doc.Components != nil {
		for _, name := range sortedKeys(doc.Components.Schemas) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if m := b.model(name, doc.Components.Schemas[name]); m != nil {
				api.Models = append(api.Models, m)
			}
		}
	}

	for _, p := range sortedKeys(doc.Paths) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		api.Operations = append(api.Operations, b.operations(p, doc.Paths[p])...)
	}
	api.Tags = collectSortedTags(api.Operations)
	return api, nil
}

type builder struct {
	doc              *openapi3.T
	cfg              *buildConfig
	log              *slog.Logger
	signatureSchemes map[string]struct{}
}

func (b *builder) schema(name string) *openapi3.Schema {
	if b.doc.Components == nil {
		return nil
	}
	ref := b.doc.Components.Schemas[name]
	if ref == nil {
		return nil
	}
	return ref.Value
}

func (b *builder) model(name string, ref *openapi3.SchemaRef) *Model {
	if ref == nil {
		return nil
	}
	m := &Model{Name: name}
	if ref.Ref != "" {
		m.IsAlias = true
		m.Alias = &Property{BaseName: name, AbstractType: refName(ref.Ref), Ref: refName(ref.Ref)}
		return m
	}
	s := ref.Value
	if s == nil {
		m.IsAlias = true
		m.Alias = &Property{BaseName: name, AbstractType: "object"}
		return m
	}
	m.Description = safeStr(s.Description)
	m.Title = safeStr(s.Title)
	m.Deprecated = s.Deprecated
	m.IsNullable = s.Nullable
	m.VendorExtensions = maps.Clone(s.Extensions)

	m.OneOf = b.members(s.OneOf)
	m.AnyOf = b.members(s.AnyOf)
	m.Discriminator = discriminator(s.Discriminator)

	switch {
	case len(s.Enum) > 0 && s.Type != "object":
		m.IsEnum = true
		m.Alias = newProperty(name, ref, false)
		m.AllowableValues = m.Alias.AllowableValues
		return m
	case isObjectLike(s):
	default:
		m.IsAlias = true
		m.Alias = newProperty(name, ref, false)
		return m
	}

	if hasAdditional(s) {
		m.AdditionalProperties = newProperty("", additionalSchema(s), false)
		if len(s.Properties) == 0 && len(s.AllOf) == 0 {
			m.IsMap = true
		}
	}

	// Own declaration first, then allOf members in order. First occurrence wins.
	seen := make(map[string]struct{})
	add := func(schema *openapi3.Schema) {
		required := make(map[string]bool, len(schema.Required))
		for _, r := range schema.Required {
			required[r] = true
		}
		for _, r := range s.Required {
			required[r] = true
		}
		for _, pn := range sortedKeys(schema.Properties) {
			if _, dup := seen[pn]; dup {
				b.log.Debug("dropping duplicate property", "model", name, "property", pn)
				continue
			}
			seen[pn] = struct{}{}
			m.Vars = append(m.Vars, newProperty(pn, schema.Properties[pn], required[pn]))
		}
	}
	add(s)

	m.Parent = b.parentOf(s.AllOf)
	for _, member := range s.AllOf {
		if member == nil {
			continue
		}
		if member.Ref != "" {
			target := refName(member.Ref)
			if target == m.Parent {
				continue
			}
			// Non-parent refs are flattened into the declaration.
			if ts := b.schema(target); ts != nil {
				add(ts)
			} else {
				b.log.Debug("allOf member not found", "model", name, "ref", target)
			}
			continue
		}
		if member.Value != nil {
			add(member.Value)
			if m.Discriminator == nil {
				m.Discriminator = discriminator(member.Value.Discriminator)
			}
		}
	}

	m.RefreshGroups()
	return m
}

// parentOf picks the parent among allOf refs: the first one carrying a
// discriminator, otherwise the single ref when exactly one is present.
func (b *builder) parentOf(allOf openapi3.SchemaRefs) string {
	var refs []string
	for _, member := range allOf {
		if member != nil && member.Ref != "" {
			refs = append(refs, refName(member.Ref))
		}
	}
	for _, r := range refs {
		if s := b.schema(r); s != nil && s.Discriminator != nil {
			return r
		}
	}
	if len(refs) == 1 {
		return refs[0]
	}
	return ""
}

func (b *builder) members(refs openapi3.SchemaRefs) []string {
	var out []string
	for _, r := range refs {
		switch {
		case r == nil:
		case r.Ref != "":
			out = append(out, refName(r.Ref))
		case isNullSchema(r.Value):
			out = append(out, ModelNull)
		case r.Value != nil:
			out = append(out, abstractType(r.Value))
		}
	}
	return out
}

var methodOrder = []HttpMethod{GET, POST, PUT, DELETE, PATCH, HEAD, OPTIONS, TRACE}

func (b *builder) operations(path string, item *openapi3.PathItem) []*Operation {
	if item == nil {
		return nil
	}
	if len(b.cfg.pathRes) > 0 && !slices.ContainsFunc(b.cfg.pathRes, func(re *regexp.Regexp) bool { return re.MatchString(path) }) {
		return nil
	}
	var out []*Operation
	for _, method := range methodOrder {
		op := item.GetOperation(strings.ToUpper(string(method)))
		if op == nil {
			continue
		}
		if len(b.cfg.methods) > 0 {
			if _, ok := b.cfg.methods[method]; !ok {
				continue
			}
		}
		tags := make([]string, 0, len(op.Tags))
		for _, t := range op.Tags {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
		if !allowByTags(tags, b.cfg) {
			continue
		}

		o := &Operation{
			OperationID: safeStr(op.OperationID),
			Method:      method,
			Path:        path,
			Summary:     safeStr(op.Summary),
			Description: safeStr(op.Description),
			Tags:        tags,
			Deprecated:  op.Deprecated,
		}
		for _, p := range mergeParams(item.Parameters, op.Parameters) {
			switch p.In {
			case openapi3.ParameterInPath:
				o.PathParams = append(o.PathParams, p)
			case openapi3.ParameterInQuery:
				o.QueryParams = append(o.QueryParams, p)
			case openapi3.ParameterInHeader:
				o.HeaderParams = append(o.HeaderParams, p)
			case openapi3.ParameterInCookie:
				o.CookieParams = append(o.CookieParams, p)
			default:
				continue
			}
			o.AllParams = append(o.AllParams, p)
		}
		b.requestBody(o, op.RequestBody)
		b.responses(o, op.Responses)
		o.HasHTTPSignature = b.signed(op)
		out = append(out, o)
	}
	return out
}

// mergeParams keeps declaration order: path level parameters first, each
// replaced in place by an operation level parameter with the same in+name.
func mergeParams(base, own openapi3.Parameters) []*Parameter {
	var out []*Parameter
	index := make(map[string]int)
	for _, list := range []openapi3.Parameters{base, own} {
		for _, ref := range list {
			p := newParameter(ref)
			if p == nil {
				continue
			}
			key := paramKey(p.In, p.BaseName)
			if i, ok := index[key]; ok {
				out[i] = p
				continue
			}
			index[key] = len(out)
			out = append(out, p)
		}
	}
	return out
}

func (b *builder) requestBody(o *Operation, ref *openapi3.RequestBodyRef) {
	if ref == nil || ref.Value == nil {
		return
	}
	rb := ref.Value
	o.Consumes = sortedKeys(rb.Content)
	mime, media := preferredMedia(rb.Content)
	if media == nil || media.Schema == nil {
		return
	}
	if isFormMime(mime) {
		s := media.Schema.Value
		if media.Schema.Ref != "" {
			s = b.schema(refName(media.Schema.Ref))
		}
		if s == nil {
			return
		}
		required := make(map[string]bool, len(s.Required))
		for _, r := range s.Required {
			required[r] = true
		}
		for _, name := range sortedKeys(s.Properties) {
			p := parameterFromProperty(newProperty(name, s.Properties[name], required[name]), "formData")
			o.FormParams = append(o.FormParams, p)
			o.AllParams = append(o.AllParams, p)
		}
		return
	}

	name := "body"
	if v, ok := rb.Extensions["x-codegen-request-body-name"].(string); ok && v != "" {
		name = v
	} else if media.Schema.Ref != "" {
		name = refName(media.Schema.Ref)
	}
	p := parameterFromProperty(newProperty(name, media.Schema, rb.Required), "body")
	p.Description = safeStr(rb.Description)
	o.BodyParam = p
	o.AllParams = append(o.AllParams, p)
}

// responses takes the return type from the lowest 2xx response with content.
func (b *builder) responses(o *Operation, responses openapi3.Responses) {
	codes := sortedKeys(responses)
	produces := make(map[string]struct{})
	for _, code := range codes {
		r := responses[code]
		if r == nil || r.Value == nil {
			continue
		}
		for mime := range r.Value.Content {
			produces[mime] = struct{}{}
		}
		if o.ReturnType != nil || !isSuccess(code) {
			continue
		}
		if _, media := preferredMedia(r.Value.Content); media != nil && media.Schema != nil {
			o.ReturnType = newProperty("", media.Schema, false)
		}
	}
	o.Produces = sortedKeys(produces)
}

func (b *builder) signed(op *openapi3.Operation) bool {
	if len(b.signatureSchemes) == 0 {
		return false
	}
	reqs := b.doc.Security
	if op.Security != nil {
		reqs = *op.Security
	}
	for _, req := range reqs {
		for name := range req {
			if _, ok := b.signatureSchemes[name]; ok {
				return true
			}
		}
	}
	return false
}

func signatureSchemes(doc *openapi3.T) map[string]struct{} {
	if doc.Components == nil {
		return nil
	}
	var out map[string]struct{}
	for name, ref := range doc.Components.SecuritySchemes {
		if ref == nil || ref.Value == nil {
			continue
		}
		if strings.EqualFold(ref.Value.Type, "http") && strings.EqualFold(ref.Value.Scheme, "signature") {
			if out == nil {
				out = make(map[string]struct{})
			}
			out[name] = struct{}{}
		}
	}
	return out
}

func newParameter(ref *openapi3.ParameterRef) *Parameter {
	if ref == nil || ref.Value == nil {
		return nil
	}
	v := ref.Value
	var prop *Property
	if v.Schema != nil {
		prop = newProperty(v.Name, v.Schema, v.Required)
	} else {
		prop = &Property{BaseName: v.Name, AbstractType: "string", Required: v.Required}
	}
	p := parameterFromProperty(prop, safeStr(v.In))
	p.BaseName = safeStr(v.Name)
	p.Description = safeStr(v.Description)
	if len(v.Extensions) > 0 {
		p.VendorExtensions = maps.Clone(v.Extensions)
	}
	return p
}

func parameterFromProperty(prop *Property, in string) *Parameter {
	return &Parameter{
		BaseName:         prop.BaseName,
		In:               in,
		AbstractType:     prop.AbstractType,
		Format:           prop.Format,
		Container:        prop.Container,
		Items:            prop.Items,
		Ref:              prop.Ref,
		Required:         prop.Required,
		Nullable:         prop.Nullable,
		IsEnum:           prop.IsEnum,
		Enum:             prop.Enum,
		Default:          prop.Default,
		DefaultValue:     prop.DefaultValue,
		Description:      prop.Description,
		VendorExtensions: prop.VendorExtensions,
	}
}

// newProperty converts a schema reference into an unresolved property.
func newProperty(name string, ref *openapi3.SchemaRef, required bool) *Property {
	p := &Property{BaseName: name, Required: required}
	if ref == nil {
		p.AbstractType = "AnyType"
		return p
	}
	if ref.Ref != "" {
		p.Ref = refName(ref.Ref)
		p.AbstractType = p.Ref
		if ref.Value != nil {
			p.Description = safeStr(ref.Value.Description)
		}
		return p
	}
	s := ref.Value
	if s == nil {
		p.AbstractType = "AnyType"
		return p
	}
	// A lone allOf ref is the usual way to attach a description to a ref.
	if len(s.AllOf) == 1 && s.AllOf[0] != nil && s.AllOf[0].Ref != "" && len(s.Properties) == 0 {
		p.Ref = refName(s.AllOf[0].Ref)
		p.AbstractType = p.Ref
	} else {
		p.AbstractType = abstractType(s)
	}
	p.Format = s.Format
	p.Description = safeStr(s.Description)
	p.Pattern = s.Pattern
	p.Example = s.Example
	p.Nullable = s.Nullable
	p.ReadOnly = s.ReadOnly
	p.Deprecated = s.Deprecated
	if len(s.Extensions) > 0 {
		p.VendorExtensions = maps.Clone(s.Extensions)
	}
	if s.Default != nil {
		p.Default = s.Default
		v := fmt.Sprint(s.Default)
		p.DefaultValue = &v
	}
	if len(s.Enum) > 0 {
		p.IsEnum = true
		p.Enum = slices.Clone(s.Enum)
		for _, e := range s.Enum {
			_, isString := e.(string)
			p.AllowableValues = append(p.AllowableValues, EnumValue{Value: fmt.Sprint(e), IsString: isString})
		}
	}
	switch p.AbstractType {
	case "array":
		p.Container = ContainerArray
		p.Items = newProperty(name, s.Items, false)
	case "map":
		p.Container = ContainerMap
		p.Items = newProperty(name, additionalSchema(s), false)
	}
	return p
}

// abstractType derives the target agnostic type name of a schema.
func abstractType(s *openapi3.Schema) string {
	switch s.Type {
	case "integer":
		if s.Format == "int64" {
			return "long"
		}
		return "integer"
	case "number":
		switch s.Format {
		case "float", "double", "decimal":
			return s.Format
		}
		return "number"
	case "string":
		switch s.Format {
		case "date":
			return "date"
		case "date-time":
			return "DateTime"
		case "byte":
			return "ByteArray"
		case "binary":
			return "binary"
		case "uuid":
			return "UUID"
		case "uri":
			return "URI"
		}
		return "string"
	case "boolean":
		return "boolean"
	case "array":
		return "array"
	case "object", "":
		if len(s.Properties) == 0 && len(s.AllOf) == 0 && hasAdditional(s) {
			return "map"
		}
		if s.Type == "" && len(s.Properties) == 0 && len(s.AllOf) == 0 {
			return "AnyType"
		}
		return "object"
	}
	return s.Type
}

func isObjectLike(s *openapi3.Schema) bool {
	if s.Type == "object" {
		return true
	}
	return s.Type == "" && (len(s.Properties) > 0 || len(s.AllOf) > 0 || len(s.OneOf) > 0 || len(s.AnyOf) > 0 || hasAdditional(s))
}

func isNullSchema(s *openapi3.Schema) bool {
	if s == nil {
		return false
	}
	return s.Type == "null" || (s.Type == "" && s.Nullable && len(s.Properties) == 0 && len(s.AllOf) == 0)
}

func hasAdditional(s *openapi3.Schema) bool {
	ap := s.AdditionalProperties
	return ap.Schema != nil || (ap.Has != nil && *ap.Has)
}

func additionalSchema(s *openapi3.Schema) *openapi3.SchemaRef {
	return s.AdditionalProperties.Schema
}

func discriminator(d *openapi3.Discriminator) *Discriminator {
	if d == nil {
		return nil
	}
	out := &Discriminator{PropertyName: d.PropertyName}
	for _, value := range sortedKeys(d.Mapping) {
		out.Mapping = append(out.Mapping, DiscriminatorMapping{Value: value, Schema: refName(d.Mapping[value])})
	}
	return out
}

func preferredMedia(content openapi3.Content) (string, *openapi3.MediaType) {
	keys := sortedKeys(content)
	for _, k := range keys {
		if strings.Contains(strings.ToLower(k), "json") {
			return k, content[k]
		}
	}
	if len(keys) == 0 {
		return "", nil
	}
	return keys[0], content[keys[0]]
}

func isFormMime(mime string) bool {
	mime = strings.ToLower(mime)
	return mime == "application/x-www-form-urlencoded" || mime == "multipart/form-data"
}

func isSuccess(code string) bool {
	n, err := strconv.Atoi(code)
	return err == nil && n >= 200 && n < 300
}

// refName returns the last element of a JSON reference.
func refName(ref string) string {
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

func allowByTags(tags []string, cfg *buildConfig) bool {
	if len(cfg.includeTags) > 0 && !slices.ContainsFunc(tags, func(t string) bool {
		_, ok := cfg.includeTags[t]
		return ok
	}) {
		return false
	}
	for _, t := range tags {
		if _, blocked := cfg.excludeTags[t]; blocked {
			return false
		}
	}
	return true
}

func paramKey(in, name string) string { return in + ":" + name }

func safeStr(s string) string { return strings.TrimSpace(s) }

func sortedKeys[V any](m map[string]V) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func collectSortedTags(ops []*Operation) []string {
	set := make(map[string]struct{})
	for _, op := range ops {
		for _, t := range op.Tags {
			set[t] = struct{}{}
		}
	}
	return sortedKeys(set)
}

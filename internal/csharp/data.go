package csharp

import (
	"maps"
	"strings"
	"unicode"

	"github.com/Robbilie/openapi-generator/internal/spec"
)

// Template contexts are plain maps keyed the way the mustache templates
// expect them. Lists carry a hasMore flag on every element but the last.

const clientPackage = "Client"

// baseData holds the run wide values every template can read.
func (g *Generator) baseData(api *spec.API) map[string]any {
	o, sel := g.opts, g.selection
	visibility := "public"
	if o.NonPublicAPI {
		visibility = "internal"
	}
	d := map[string]any{
		"packageName":        o.PackageName,
		"packageVersion":     o.PackageVersion,
		"packageGuid":        o.PackageGUID,
		"packageTitle":       g.packageTitle(api),
		"packageCompany":     o.PackageCompany,
		"packageAuthors":     o.PackageAuthors,
		"packageCopyright":   o.PackageCopyright,
		"packageDescription": o.PackageDescription,
		"packageTags":        o.PackageTags,
		"licenseId":          o.LicenseID,
		"releaseNote":        o.ReleaseNote,
		"sourceFolder":       o.SourceFolder,
		"apiPackage":         o.APIPackage,
		"modelPackage":       o.ModelPackage,
		"clientPackage":      clientPackage,
		"testPackageName":    g.testPackageName(),
		"interfacePrefix":    o.InterfacePrefix,
		"gitHost":            o.GitHost,
		"gitUserId":          o.GitUserID,
		"gitRepoId":          o.GitRepoID,
		"apiDocPath":         "docs/",
		"modelDocPath":       "docs/",
		"binRelativePath":    g.binRelativePath(),
		"visibility":         visibility,
		"modelClassModifier": "partial",

		"targetFramework":           sel.TargetFramework,
		"targetFrameworkNuget":      sel.TargetFrameworkNuget,
		"targetFrameworkIdentifier": sel.TargetFrameworkIdentifier,
		"targetFrameworkVersion":    sel.TargetFrameworkVersion,
		"testTargetFramework":       sel.TestTargetFramework,
		"multiTarget":               sel.MultiTarget,
		"netStandard":               sel.NetStandard,
		"mcsSdk":                    sel.McsSdk,

		"supportsAsync":                  o.SupportsAsync && g.caps.SupportsAsync,
		"supportsRetry":                  o.SupportsRetry,
		"validatable":                    o.Validatable,
		"netCoreProjectFile":             o.NetCoreProjectFile,
		"nullableReferenceTypes":         o.NullableReferenceTypes,
		"useDateTimeOffset":              o.UseDateTimeOffset,
		"useCollection":                  o.UseCollection,
		"returnICollection":              o.ReturnICollection,
		"nonPublicApi":                   o.NonPublicAPI,
		"optionalAssemblyInfo":           o.OptionalAssemblyInfo,
		"optionalProjectFile":            o.OptionalProjectFile,
		"optionalMethodArgument":         o.OptionalMethodArgument,
		"optionalEmitDefaultValues":      o.OptionalEmitDefaultValues,
		"conditionalSerialization":       o.ConditionalSerialization,
		"useOneOfDiscriminatorLookup":    o.UseOneOfDiscriminatorLookup,
		"caseInsensitiveResponseHeaders": o.CaseInsensitiveResponseHeaders,
		"hideGenerationTimestamp":        o.HideGenerationTimestamp,
		"excludeTests":                   o.ExcludeTests,
		"hasHttpSignatureMethods":        api.HasHTTPSignature,

		"appName":        api.Title,
		"appVersion":     api.Version,
		"appDescription": api.Description,
		"basePath":       basePath(api),
	}
	d[g.caps.TemplateFlag] = true
	return d
}

func basePath(api *spec.API) string {
	if len(api.Servers) > 0 {
		return strings.TrimSuffix(api.Servers[0].URL, "/")
	}
	return "http://localhost"
}

// packageTitle falls back to a title derived from the document when no
// package title is configured.
func (g *Generator) packageTitle(api *spec.API) string {
	if g.opts.PackageTitle != "" {
		return g.opts.PackageTitle
	}
	if t := g.namer.PackageTitle(api.Title); t != "" {
		return t
	}
	return defaultPackageTitle
}

func (g *Generator) testPackageName() string { return g.opts.PackageName + ".Test" }

// binRelativePath walks up from the package folder to the vendor directory.
func (g *Generator) binRelativePath() string {
	depth := strings.Count(g.packageFolder(), "/")
	return strings.Repeat(`..\`, depth+1) + "vendor"
}

func (g *Generator) packageFolder() string {
	return g.opts.SourceFolder + "/" + g.opts.PackageName
}

// merge returns a copy of base with extra laid over it.
func merge(base, extra map[string]any) map[string]any {
	d := maps.Clone(base)
	maps.Copy(d, extra)
	return d
}

func (g *Generator) modelData(api *spec.API, m *spec.Model) map[string]any {
	d := map[string]any{
		"name":             m.Name,
		"classname":        m.ClassName,
		"classVarName":     lowerFirst(m.ClassName),
		"description":      m.Description,
		"title":            m.Title,
		"dataType":         m.DataType,
		"isDeprecated":     m.Deprecated,
		"isEnum":           m.IsEnum,
		"isAlias":          m.IsAlias,
		"isMap":            m.IsMap,
		"isNullable":       m.IsNullable,
		"hasEnums":         m.HasEnums,
		"vars":             propertyList(m.Vars),
		"parentVars":       propertyList(m.ParentVars),
		"baseArgs":         propertyList(writable(m.ParentVars)),
		"allVars":          propertyList(m.EffectiveVars()),
		"readWriteVars":    propertyList(m.ReadWriteVars),
		"readOnlyVars":     propertyList(m.ReadOnlyVars),
		"requiredVars":     propertyList(m.RequiredVars),
		"optionalVars":     propertyList(m.OptionalVars),
		"hasVars":          len(m.Vars) > 0,
		"hasRequired":      len(m.RequiredVars) > 0,
		"hasReadOnly":      len(m.ReadOnlyVars) > 0,
		"vendorExtensions": m.VendorExtensions,
	}
	if len(m.AllowableValues) > 0 {
		d["allowableValues"] = map[string]any{"enumVars": enumList(m.AllowableValues)}
		d["isString"] = m.DataType == "string"
	}
	if m.Parent != "" {
		d["parent"] = g.namer.ModelName(m.Parent)
		if p := api.Model(m.Parent); p != nil {
			d["parentModel"] = map[string]any{"classname": p.ClassName, "hasDiscriminator": p.Discriminator != nil}
		}
	}
	if m.Discriminator != nil {
		d["discriminator"] = g.discriminatorData(m.Discriminator)
	}
	if len(m.OneOf) > 0 {
		d["oneOf"] = g.compositionList(m.OneOf)
		d["isOneOf"] = true
	}
	if len(m.AnyOf) > 0 {
		d["anyOf"] = g.compositionList(m.AnyOf)
		d["isAnyOf"] = true
	}
	if ap := m.AdditionalProperties; ap != nil {
		d["additionalPropertiesType"] = ap.DataType
		d["isAdditionalPropertiesTrue"] = true
	}
	return d
}

func (g *Generator) discriminatorData(disc *spec.Discriminator) map[string]any {
	mapped := make([]map[string]any, len(disc.Mapping))
	for i, mm := range disc.Mapping {
		mapped[i] = map[string]any{
			"mappingName": mm.Value,
			"modelName":   g.namer.ModelName(mm.Schema),
			"hasMore":     i < len(disc.Mapping)-1,
		}
	}
	return map[string]any{
		"propertyName":     disc.PropertyName,
		"propertyBaseName": disc.PropertyName,
		"mappedModels":     mapped,
		"hasMappedModels":  len(mapped) > 0,
	}
}

func (g *Generator) compositionList(names []string) []map[string]any {
	out := make([]map[string]any, len(names))
	for i, n := range names {
		out[i] = map[string]any{"name": g.namer.ModelName(n), "hasMore": i < len(names)-1}
	}
	return out
}

// writable returns the properties a constructor accepts.
func writable(props []*spec.Property) []*spec.Property {
	var out []*spec.Property
	for _, p := range props {
		if !p.ReadOnly {
			out = append(out, p)
		}
	}
	return out
}

func lowerFirst(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

func propertyList(props []*spec.Property) []map[string]any {
	out := make([]map[string]any, len(props))
	for i, p := range props {
		out[i] = propertyData(p)
		out[i]["hasMore"] = i < len(props)-1
	}
	return out
}

func propertyData(p *spec.Property) map[string]any {
	d := map[string]any{
		"name":             p.Name,
		"baseName":         p.BaseName,
		"dataType":         p.DataType,
		"datatypeWithEnum": p.DatatypeWithEnum,
		"enumName":         p.EnumName,
		"dataFormat":       p.Format,
		"description":      p.Description,
		"pattern":          p.Pattern,
		"required":         p.Required,
		"isNullable":       p.Nullable,
		"isReadOnly":       p.ReadOnly,
		"isInherited":      p.IsInherited,
		"isDeprecated":     p.Deprecated,
		"isContainer":      p.Container != spec.ContainerNone,
		"isArray":          p.Container == spec.ContainerArray,
		"isMap":            p.Container == spec.ContainerMap,
		"isModel":          p.Ref != "",
		"vendorExtensions": p.VendorExtensions,
		"isValueType":      p.VendorExtensions[extValueType] == true,
	}
	if leaf := innermost(p); leaf.IsEnum {
		d["isEnum"] = p.Container == spec.ContainerNone
		d["isInnerEnum"] = p.Container != spec.ContainerNone
		d["allowableValues"] = map[string]any{"enumVars": enumList(leaf.AllowableValues)}
		d["isString"] = strings.TrimSuffix(leaf.DataType, "?") == "string"
	}
	if p.DefaultValue != nil {
		d["defaultValue"] = *p.DefaultValue
		d["hasDefault"] = true
		// collection initializers cannot be optional parameter values
		d["hasConstantDefault"] = p.Container == spec.ContainerNone
	}
	if p.Items != nil {
		d["items"] = propertyData(p.Items)
	}
	if p.Example != nil {
		d["example"] = p.Example
	}
	return d
}

func enumList(values []spec.EnumValue) []map[string]any {
	out := make([]map[string]any, len(values))
	for i, v := range values {
		out[i] = map[string]any{
			"name":     v.Name,
			"value":    v.Value,
			"isString": v.IsString,
			// ordinal values for the C# enum members, starting at 1
			"ordinal": i + 1,
			"hasMore": i < len(values)-1,
		}
	}
	return out
}

func (g *Generator) groupData(grp *APIGroup) map[string]any {
	ops := make([]map[string]any, len(grp.Operations))
	for i, op := range grp.Operations {
		ops[i] = g.operationData(op)
		ops[i]["hasMore"] = i < len(grp.Operations)-1
	}
	return map[string]any{
		"classname":     grp.ClassName,
		"interfaceName": grp.InterfaceName,
		"baseName":      grp.Tag,
		"operations":    ops,
	}
}

func (g *Generator) operationData(op *spec.Operation) map[string]any {
	var required, optional []*spec.Parameter
	for _, p := range op.AllParams {
		if p.Required {
			required = append(required, p)
		} else {
			optional = append(optional, p)
		}
	}
	d := map[string]any{
		"nickname":          op.Nickname,
		"operationId":       op.OperationID,
		"httpMethod":        strings.ToUpper(string(op.Method)),
		"httpMethodPascal":  camelize(strings.ToLower(string(op.Method))),
		"path":              op.Path,
		"summary":           op.Summary,
		"notes":             op.Description,
		"isDeprecated":      op.Deprecated,
		"allParams":         paramList(op.AllParams),
		"requiredParams":    paramList(required),
		"optionalParams":    paramList(optional),
		"pathParams":        paramList(op.PathParams),
		"queryParams":       paramList(op.QueryParams),
		"headerParams":      paramList(op.HeaderParams),
		"cookieParams":      paramList(op.CookieParams),
		"formParams":        paramList(op.FormParams),
		"hasParams":         len(op.AllParams) > 0,
		"hasRequiredParams": len(required) > 0,
		"hasFormParams":     len(op.FormParams) > 0,
		"consumes":          mediaList(op.Consumes),
		"produces":          mediaList(op.Produces),
		"hasConsumes":       len(op.Consumes) > 0,
		"hasProduces":       len(op.Produces) > 0,
		"isMultipart":       contains(op.Consumes, "multipart/form-data"),
		"hasHttpSignature":  op.HasHTTPSignature,
		"tags":              op.Tags,
	}
	if op.BodyParam != nil {
		d["bodyParam"] = paramData(op.BodyParam)
		d["hasBodyParam"] = true
	}
	if rt := op.ReturnType; rt != nil {
		d["returnType"] = rt.DataType
		d["returnBaseType"] = innermost(rt).DataType
		d["returnContainer"] = rt.Container != spec.ContainerNone
		d["returnTypeIsPrimitive"] = rt.Ref == "" && rt.Container == spec.ContainerNone
	}
	return d
}

func paramList(params []*spec.Parameter) []map[string]any {
	out := make([]map[string]any, len(params))
	for i, p := range params {
		out[i] = paramData(p)
		out[i]["hasMore"] = i < len(params)-1
	}
	return out
}

func paramData(p *spec.Parameter) map[string]any {
	d := map[string]any{
		"paramName":        p.ParamName,
		"baseName":         p.BaseName,
		"dataType":         p.DataType,
		"description":      p.Description,
		"required":         p.Required,
		"isNullable":       p.Nullable,
		"isEnum":           p.IsEnum,
		"isPathParam":      p.In == "path",
		"isQueryParam":     p.In == "query",
		"isHeaderParam":    p.In == "header",
		"isCookieParam":    p.In == "cookie",
		"isFormParam":      p.In == "formData",
		"isBodyParam":      p.In == "body",
		"isFile":           p.AbstractType == "binary" || p.AbstractType == "file",
		"isContainer":      p.Container != spec.ContainerNone,
		"isArray":          p.Container == spec.ContainerArray,
		"isModel":          p.Ref != "",
		"vendorExtensions": p.VendorExtensions,
		"isValueType":      p.VendorExtensions[extValueType] == true,
	}
	if p.DefaultValue != nil {
		d["defaultValue"] = *p.DefaultValue
		d["hasDefault"] = true
	}
	return d
}

func mediaList(types []string) []map[string]any {
	out := make([]map[string]any, len(types))
	for i, t := range types {
		out[i] = map[string]any{"mediaType": t, "hasMore": i < len(types)-1}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

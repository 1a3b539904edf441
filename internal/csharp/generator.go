package csharp

import (
	"errors"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/Robbilie/openapi-generator/internal/spec"
)

// Generator applies the C# naming, typing and inheritance policy to an API
// model and plans the files of the client tree. A Generator is built once
// per run and is not safe for concurrent use.
type Generator struct {
	opts      Options
	library   Library
	caps      Capabilities
	policy    NamingPolicy
	selection Selection
	namer     *Namer
	types     *typeMapper
	log       *slog.Logger
}

// New validates opts and resolves the run configuration. All configuration
// errors are reported here, before anything is rendered.
func New(opts Options, logger *slog.Logger) (*Generator, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	policy, err := ParseNamingPolicy(opts.ModelPropertyNaming)
	if err != nil {
		return nil, err
	}
	lib, err := ParseLibrary(opts.Library)
	if err != nil {
		return nil, err
	}
	sel, err := SelectFrameworks(opts.Framework)
	if err != nil {
		return nil, err
	}
	sel.warnUnsupported(lib, logger)
	if !sel.NetStandard {
		opts.NetCoreProjectFile = true
	}
	opts.Library = string(lib)
	opts.ModelPropertyNaming = string(policy)
	opts.Framework = sel.TargetFramework
	opts.PackageGUID = opts.packageGUID()

	namer := NewNamer(policy, opts.NameMapping, opts.AllowUnicodeIdentifiers)
	logger.Info("generating code for .NET framework", "framework", sel.TargetFramework, "library", lib)
	return &Generator{
		opts:      opts,
		library:   lib,
		caps:      lib.Capabilities(),
		policy:    policy,
		selection: sel,
		namer:     namer,
		types:     newTypeMapper(opts, lib, namer),
		log:       logger,
	}, nil
}

func (g *Generator) Options() Options           { return g.opts }
func (g *Generator) Library() Library           { return g.library }
func (g *Generator) Selection() Selection       { return g.selection }
func (g *Generator) Namer() *Namer              { return g.namer }
func (g *Generator) Capabilities() Capabilities { return g.caps }

// APIGroup is the set of operations rendered into one API class.
type APIGroup struct {
	Tag           string
	ClassName     string
	InterfaceName string
	Operations    []*spec.Operation
}

// Project is the resolved API ready for planning.
type Project struct {
	API    *spec.API
	Groups []*APIGroup
}

// Process resolves names and types, reconciles inheritance and runs the
// post-processing passes. api is mutated in place.
func (g *Generator) Process(api *spec.API) (*Project, error) {
	if api == nil {
		return nil, errors.New("csharp: nil api")
	}
	for _, m := range api.Models {
		if m.IsEnum {
			g.types.enumModels[m.Name] = struct{}{}
		}
	}
	for _, m := range api.Models {
		g.resolveModel(m)
	}
	g.reconcileAll(api)
	for _, m := range api.Models {
		postProcessModel(m)
	}
	return &Project{API: api, Groups: g.groupOperations(api.Operations)}, nil
}

func (g *Generator) resolveModel(m *spec.Model) {
	m.ClassName = g.namer.ModelName(m.Name)
	if m.VendorExtensions == nil {
		m.VendorExtensions = map[string]any{}
	}
	for _, p := range m.Vars {
		g.resolveProperty(p)
	}
	switch {
	case m.IsEnum:
		g.resolveProperty(m.Alias)
		m.DataType = m.Alias.DataType
		m.AllowableValues = g.enumValues(m.AllowableValues, m.DataType)
	case m.IsAlias:
		g.resolveProperty(m.Alias)
		m.DataType = m.Alias.DataType
	}
	if m.AdditionalProperties == nil && !m.IsEnum && !m.IsAlias && !g.opts.DisallowAdditionalPropertiesIfNotPresent {
		m.AdditionalProperties = &spec.Property{AbstractType: "AnyType"}
	}
	if m.AdditionalProperties != nil {
		g.resolveProperty(m.AdditionalProperties)
	}
	if m.IsMap {
		m.DataType = "Dictionary<string, " + m.AdditionalProperties.DataType + ">"
	}
	m.RefreshGroups()
}

// resolveProperty fills the target names and types of p and its items.
func (g *Generator) resolveProperty(p *spec.Property) {
	if p == nil {
		return
	}
	if p.BaseName != "" {
		p.Name = g.namer.VarName(p.BaseName)
	}
	g.resolveProperty(p.Items)
	p.DataType = g.types.Declaration(p)
	p.DatatypeWithEnum = p.DataType

	if leaf := innermost(p); leaf.IsEnum {
		p.EnumName = g.namer.EnumName(p.BaseName)
		p.DatatypeWithEnum = g.types.DeclarationWithEnum(p, p.EnumName)
		leaf.AllowableValues = g.enumValues(leaf.AllowableValues, strings.TrimSuffix(leaf.DataType, "?"))
	}
	if p.Default != nil {
		p.DefaultValue = g.types.DefaultLiteral(p)
	}
	postProcessProperty(p, g.opts, g.types)
}

func (g *Generator) enumValues(values []spec.EnumValue, dataType string) []spec.EnumValue {
	out := make([]spec.EnumValue, len(values))
	for i, v := range values {
		v.Name = g.namer.EnumVarName(v.Value, dataType)
		out[i] = v
	}
	return out
}

// reconcileAll reconciles parents before children so grandparent
// properties reach every descendant. Cycles are broken at the first
// revisit.
func (g *Generator) reconcileAll(api *spec.API) {
	state := make(map[string]int, len(api.Models))
	var visit func(m *spec.Model)
	visit = func(m *spec.Model) {
		if state[m.Name] != 0 {
			if state[m.Name] == 1 {
				g.log.Debug("inheritance cycle, skipping reconciliation", "model", m.Name)
			}
			return
		}
		state[m.Name] = 1
		if m.Parent != "" {
			parent := api.Model(m.Parent)
			if parent == nil {
				g.log.Debug("parent model not found, skipping reconciliation", "model", m.Name, "parent", m.Parent)
			} else {
				visit(parent)
				before := len(m.ParentVars)
				Reconcile(m, parent)
				g.log.Debug("reconciled model", "model", m.Name, "parent", parent.Name, "parentVars", len(m.ParentVars)-before)
			}
		}
		state[m.Name] = 2
	}
	for _, m := range api.Models {
		visit(m)
	}
}

func (g *Generator) groupOperations(ops []*spec.Operation) []*APIGroup {
	byTag := map[string]*APIGroup{}
	for _, op := range ops {
		tag := "default"
		if len(op.Tags) > 0 {
			tag = op.Tags[0]
		}
		grp, ok := byTag[tag]
		if !ok {
			name := g.namer.APIName(tag)
			grp = &APIGroup{Tag: tag, ClassName: name, InterfaceName: g.opts.InterfacePrefix + name}
			byTag[tag] = grp
		}
		g.resolveOperation(op)
		grp.Operations = append(grp.Operations, op)
	}

	groups := make([]*APIGroup, 0, len(byTag))
	for _, grp := range byTag {
		uniqueNicknames(grp.Operations)
		sort.SliceStable(grp.Operations, func(i, j int) bool {
			return grp.Operations[i].Nickname < grp.Operations[j].Nickname
		})
		groups = append(groups, grp)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ClassName < groups[j].ClassName })
	return groups
}

func (g *Generator) resolveOperation(op *spec.Operation) {
	op.Nickname = g.namer.OperationName(op.OperationID, string(op.Method), op.Path)
	for _, p := range op.AllParams {
		g.resolveParameter(p)
	}
	if op.ReturnType != nil {
		g.resolveProperty(op.ReturnType)
	}
	if g.opts.SortParamsByRequired {
		sort.SliceStable(op.AllParams, func(i, j int) bool {
			return op.AllParams[i].Required && !op.AllParams[j].Required
		})
	}
}

func (g *Generator) resolveParameter(p *spec.Parameter) {
	p.ParamName = g.namer.ParamName(p.BaseName)
	abstract := p.AbstractType
	if abstract == "binary" && (p.In == "formData" || p.In == "body") {
		abstract = "file"
	}
	prop := &spec.Property{
		AbstractType: abstract,
		Container:    p.Container,
		Items:        p.Items,
		Ref:          p.Ref,
		Nullable:     p.Nullable,
		Default:      p.Default,
	}
	g.resolveProperty(prop.Items)
	p.DataType = g.types.Declaration(prop)
	if p.Default != nil {
		p.DefaultValue = g.types.DefaultLiteral(prop)
	}
	postProcessParameter(p, g.opts)
}

// uniqueNicknames suffixes repeated nicknames with _1, _2, ...
func uniqueNicknames(ops []*spec.Operation) {
	seen := map[string]int{}
	for _, op := range ops {
		n := seen[op.Nickname]
		seen[op.Nickname] = n + 1
		if n > 0 {
			op.Nickname += "_" + strconv.Itoa(n)
		}
	}
}

package csharp

import (
	"path"
	"sort"
)

// FileSpec is one planned output file: the template to render, where the
// result goes and the context it is rendered with. Entries switched off by
// configuration stay in the plan with Include=false.
type FileSpec struct {
	Template string
	Path     string
	Data     map[string]any
	Include  bool
}

// supportingFile is a client file that is rendered once per run.
type supportingFile struct {
	template string
	name     string
	when     func(g *Generator, p *Project) bool
}

func always(*Generator, *Project) bool { return true }

var clientFiles = []supportingFile{
	{"FileParameter.mustache", "FileParameter.cs", func(g *Generator, _ *Project) bool { return g.library == HTTPClient }},
	{"IApiAccessor.mustache", "IApiAccessor.cs", always},
	{"Configuration.mustache", "Configuration.cs", always},
	{"ApiClient.mustache", "ApiClient.cs", always},
	{"ApiException.mustache", "ApiException.cs", always},
	{"ApiResponse.mustache", "ApiResponse.cs", always},
	{"ExceptionFactory.mustache", "ExceptionFactory.cs", always},
	{"OpenAPIDateConverter.mustache", "OpenAPIDateConverter.cs", always},
	{"ClientUtils.mustache", "ClientUtils.cs", always},
	{"HttpMethod.mustache", "HttpMethod.cs", func(g *Generator, _ *Project) bool { return g.caps.NeedsCustomHTTPMethod }},
	{"WebRequestPathBuilder.mustache", "WebRequestPathBuilder.cs", func(g *Generator, _ *Project) bool { return g.caps.NeedsURIBuilder }},
	{"HttpSigningConfiguration.mustache", "HttpSigningConfiguration.cs", func(_ *Generator, p *Project) bool { return p.API.HasHTTPSignature }},
	{"IAsynchronousClient.mustache", "IAsynchronousClient.cs", func(g *Generator, _ *Project) bool { return g.opts.SupportsAsync && g.caps.SupportsAsync }},
	{"ISynchronousClient.mustache", "ISynchronousClient.cs", always},
	{"RequestOptions.mustache", "RequestOptions.cs", always},
	{"Multimap.mustache", "Multimap.cs", always},
	{"RetryConfiguration.mustache", "RetryConfiguration.cs", func(g *Generator, _ *Project) bool { return g.opts.SupportsRetry }},
	{"IReadableConfiguration.mustache", "IReadableConfiguration.cs", always},
	{"GlobalConfiguration.mustache", "GlobalConfiguration.cs", always},
}

// Plan lists every file of the client tree in a stable order: models, APIs,
// then supporting files. Paths are slash separated and relative to the
// output directory.
func (g *Generator) Plan(p *Project) []FileSpec {
	base := g.baseData(p.API)
	pkgDir := g.packageFolder()
	testDir := path.Join(g.opts.SourceFolder, g.testPackageName())
	includeTests := !g.opts.ExcludeTests

	allModels := make([]map[string]any, 0, len(p.API.Models))
	var files []FileSpec
	for _, m := range p.API.Models {
		md := g.modelData(p.API, m)
		allModels = append(allModels, map[string]any{"model": md})
		data := merge(base, map[string]any{"model": md, "models": []map[string]any{{"model": md}}})
		files = append(files,
			FileSpec{"model.mustache", path.Join(pkgDir, g.opts.ModelPackage, m.ClassName+".cs"), data, true},
			FileSpec{"model_doc.mustache", path.Join("docs", m.ClassName+".md"), data, true},
			FileSpec{"model_test.mustache", path.Join(testDir, g.opts.ModelPackage, m.ClassName+"Tests.cs"), data, includeTests},
		)
	}

	allAPIs := make([]map[string]any, 0, len(p.Groups))
	for _, grp := range p.Groups {
		gd := g.groupData(grp)
		allAPIs = append(allAPIs, gd)
		data := merge(base, gd)
		files = append(files,
			FileSpec{"api.mustache", path.Join(pkgDir, g.opts.APIPackage, grp.ClassName+".cs"), data, true},
			FileSpec{"api_doc.mustache", path.Join("docs", grp.ClassName+".md"), data, true},
			FileSpec{"api_test.mustache", path.Join(testDir, g.opts.APIPackage, grp.ClassName+"Tests.cs"), data, includeTests},
		)
	}
	for i, a := range allAPIs {
		a["hasMore"] = i < len(allAPIs)-1
	}

	support := merge(base, map[string]any{
		"models":    allModels,
		"apiInfo":   map[string]any{"apis": allAPIs},
		"hasModels": len(allModels) > 0,
	})
	clientDir := path.Join(pkgDir, clientPackage)
	for _, sf := range clientFiles {
		files = append(files, FileSpec{sf.template, path.Join(clientDir, sf.name), support, sf.when(g, p)})
	}
	files = append(files,
		FileSpec{"AbstractOpenAPISchema.mustache", path.Join(pkgDir, g.opts.ModelPackage, "AbstractOpenAPISchema.cs"), support, true},
		FileSpec{"netcore_project.mustache", path.Join(pkgDir, g.opts.PackageName+".csproj"), support, true},
		FileSpec{"netcore_testproject.mustache", path.Join(testDir, g.testPackageName()+".csproj"), support, includeTests},
		FileSpec{"Solution.mustache", g.opts.PackageName + ".sln", support, true},
		FileSpec{"README.mustache", "README.md", support, true},
		FileSpec{"git_push.sh.mustache", "git_push.sh", support, true},
		FileSpec{"gitignore.mustache", ".gitignore", support, true},
		FileSpec{"appveyor.mustache", "appveyor.yml", support, true},
	)
	return files
}

// IncludedPaths returns the sorted output paths of the included specs.
func IncludedPaths(files []FileSpec) []string {
	var out []string
	for _, f := range files {
		if f.Include {
			out = append(out, f.Path)
		}
	}
	sort.Strings(out)
	return out
}

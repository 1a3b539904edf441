package csharp

import (
	"log/slog"
	"strings"

	"github.com/hashicorp/go-version"
)

// Framework is one entry of the closed target profile catalog.
type Framework struct {
	ID                  string
	Description         string
	TestTargetFramework string
	NetStandard         bool
	Identifier          string
	Version             string
}

// NugetID is the lower-cased identifier used in nuspec dependency groups.
func (f Framework) NugetID() string { return strings.ToLower(f.ID) }

// DefaultFramework is selected when no framework is configured.
const DefaultFramework = "netstandard2.0"

const mcsSdk = "4.6-api"

var frameworks = []Framework{
	{"netstandard1.3", ".NET Standard 1.3 compatible", "netcoreapp2.0", true, ".NETStandard", "v1.3"},
	{"netstandard1.4", ".NET Standard 1.4 compatible", "netcoreapp2.0", true, ".NETStandard", "v1.4"},
	{"netstandard1.5", ".NET Standard 1.5 compatible", "netcoreapp2.0", true, ".NETStandard", "v1.5"},
	{"netstandard1.6", ".NET Standard 1.6 compatible", "netcoreapp2.0", true, ".NETStandard", "v1.6"},
	{"netstandard2.0", ".NET Standard 2.0 compatible", "netcoreapp2.0", true, ".NETStandard", "v2.0"},
	{"netstandard2.1", ".NET Standard 2.1 compatible", "netcoreapp3.0", true, ".NETStandard", "v2.1"},
	{"netcoreapp2.0", ".NET Core 2.0 compatible", "netcoreapp2.0", false, ".NETCoreApp", "v2.0"},
	{"netcoreapp2.1", ".NET Core 2.1 compatible", "netcoreapp2.1", false, ".NETCoreApp", "v2.1"},
	{"net47", ".NET Framework 4.7 compatible", "net47", false, ".NETFramework", "v4.7"},
	{"net5.0", ".NET 5.0 compatible", "net5.0", false, ".NETCoreApp", "v5.0"},
}

// Frameworks returns the catalog in its fixed listing order.
func Frameworks() []Framework {
	out := make([]Framework, len(frameworks))
	copy(out, frameworks)
	return out
}

// FrameworkIDs returns the catalog identifiers in listing order.
func FrameworkIDs() []string {
	ids := make([]string, len(frameworks))
	for i, f := range frameworks {
		ids[i] = f.ID
	}
	return ids
}

func lookupFramework(id string) (Framework, bool) {
	for _, f := range frameworks {
		if f.ID == id {
			return f, true
		}
	}
	return Framework{}, false
}

// Selection is the resolved set of target profiles for a run.
type Selection struct {
	Frameworks  []Framework
	MultiTarget bool

	TargetFramework           string
	TargetFrameworkNuget      string
	TargetFrameworkIdentifier string
	TargetFrameworkVersion    string
	TestTargetFramework       string

	// NetStandard is true when any selected profile is a .NET Standard one.
	NetStandard bool
	McsSdk      string
}

// SelectFrameworks resolves a single id or a ';' separated list of ids.
// Segments keep their input order. The first unknown id fails the whole
// selection with an InvalidFramework error listing the catalog.
func SelectFrameworks(input string) (Selection, error) {
	if strings.TrimSpace(input) == "" {
		input = DefaultFramework
	}
	parts := []string{input}
	multi := strings.Contains(input, ";")
	if multi {
		parts = strings.Split(input, ";")
	}

	sel := Selection{MultiTarget: multi, McsSdk: mcsSdk}
	for _, part := range parts {
		id := strings.TrimSpace(part)
		f, ok := lookupFramework(id)
		if !ok {
			return Selection{}, &ConfigError{
				Code:    InvalidFramework,
				Option:  "framework",
				Value:   id,
				Input:   input,
				Allowed: FrameworkIDs(),
			}
		}
		sel.Frameworks = append(sel.Frameworks, f)
		sel.NetStandard = sel.NetStandard || f.NetStandard
	}

	sel.TargetFramework = joinFrameworks(sel.Frameworks, func(f Framework) string { return f.ID })
	sel.TargetFrameworkNuget = joinFrameworks(sel.Frameworks, Framework.NugetID)
	sel.TargetFrameworkIdentifier = joinFrameworks(sel.Frameworks, func(f Framework) string { return f.Identifier })
	sel.TargetFrameworkVersion = joinFrameworks(sel.Frameworks, func(f Framework) string { return f.Version })
	sel.TestTargetFramework = joinFrameworks(sel.Frameworks, func(f Framework) string { return f.TestTargetFramework })
	return sel, nil
}

func joinFrameworks(fs []Framework, field func(Framework) string) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = field(f)
	}
	return strings.Join(parts, ";")
}

var restSharpMinimum = version.Must(version.NewVersion("2.0"))

// warnUnsupported logs profiles the built-in RestSharp templates cannot serve.
func (s Selection) warnUnsupported(lib Library, log *slog.Logger) {
	if lib != RestSharp {
		return
	}
	for _, f := range s.Frameworks {
		if !f.NetStandard {
			continue
		}
		v, err := version.NewVersion(strings.TrimPrefix(f.Version, "v"))
		if err != nil {
			continue
		}
		if v.LessThan(restSharpMinimum) {
			log.Warn("built-in RestSharp templates only support netstandard 2.0 or later", "framework", f.ID)
		}
	}
}

package csharp

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameworkCatalogOrder(t *testing.T) {
	t.Parallel()
	want := []string{
		"netstandard1.3", "netstandard1.4", "netstandard1.5", "netstandard1.6",
		"netstandard2.0", "netstandard2.1", "netcoreapp2.0", "netcoreapp2.1", "net47", "net5.0",
	}
	assert.Equal(t, want, FrameworkIDs())
	assert.Equal(t, FrameworkIDs(), FrameworkIDs())

	fs := Frameworks()
	fs[0].ID = "mutated"
	assert.Equal(t, "netstandard1.3", Frameworks()[0].ID)
}

func TestSelectFrameworks_Single(t *testing.T) {
	t.Parallel()
	sel, err := SelectFrameworks("")
	require.NoError(t, err)
	assert.False(t, sel.MultiTarget)
	assert.True(t, sel.NetStandard)
	assert.Equal(t, "netstandard2.0", sel.TargetFramework)
	assert.Equal(t, ".NETStandard", sel.TargetFrameworkIdentifier)
	assert.Equal(t, "v2.0", sel.TargetFrameworkVersion)
	assert.Equal(t, "netcoreapp2.0", sel.TestTargetFramework)
	assert.Equal(t, "4.6-api", sel.McsSdk)
}

func TestSelectFrameworks_MultiTarget(t *testing.T) {
	t.Parallel()
	sel, err := SelectFrameworks("netstandard2.0;net5.0")
	require.NoError(t, err)
	assert.True(t, sel.MultiTarget)
	require.Len(t, sel.Frameworks, 2)
	assert.Equal(t, "netstandard2.0;net5.0", sel.TargetFramework)
	assert.Equal(t, ".NETStandard;.NETCoreApp", sel.TargetFrameworkIdentifier)
	assert.Equal(t, "v2.0;v5.0", sel.TargetFrameworkVersion)
	assert.Equal(t, "netcoreapp2.0;net5.0", sel.TestTargetFramework)
	assert.Len(t, strings.Split(sel.TargetFrameworkNuget, ";"), 2)
	assert.True(t, sel.NetStandard)
}

func TestSelectFrameworks_Invalid(t *testing.T) {
	t.Parallel()
	_, err := SelectFrameworks("net4x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfig))
	assert.True(t, strings.HasPrefix(err.Error(), "invalid .NET framework version: net4x. List of supported versions: netstandard1.3, "))

	_, err = SelectFrameworks("netstandard2.0;bogus")
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, InvalidFramework, cerr.Code)
	assert.Equal(t, "bogus", cerr.Value)
	assert.Contains(t, err.Error(), "the input (netstandard2.0;bogus) contains invalid .NET framework version: bogus")
}

func TestRestSharpWarnsOnOldNetStandard(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	opts := DefaultOptions()
	opts.Framework = "netstandard1.3"
	_, err := New(opts, log)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "only support netstandard 2.0")

	buf.Reset()
	opts.Library = string(HTTPClient)
	_, err = New(opts, log)
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "only support netstandard 2.0")
}

func TestParseLibrary(t *testing.T) {
	t.Parallel()
	lib, err := ParseLibrary("")
	require.NoError(t, err)
	assert.Equal(t, RestSharp, lib)
	assert.True(t, lib.Capabilities().NeedsCustomHTTPMethod)
	assert.Equal(t, "System.IO.Stream", lib.Capabilities().FileType)

	lib, err = ParseLibrary("httpclient")
	require.NoError(t, err)
	assert.True(t, lib.Capabilities().NeedsURIBuilder)

	_, err = ParseLibrary("invalid-lib")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfig))
	assert.Equal(t, "invalid HTTP library invalid-lib. Only restsharp, httpclient are supported", err.Error())
}

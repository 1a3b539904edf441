package csharp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOptionsValidate(t *testing.T) {
	t.Parallel()
	require.NoError(t, DefaultOptions().Validate())
}

func TestNewValidatorRegistersTags(t *testing.T) {
	t.Parallel()
	v, err := newValidator()
	require.NoError(t, err)
	for tag := range customValidations {
		assert.NoError(t, v.Var("Acme.Client", "omitempty,"+tag+"|required"), tag)
	}
}

func TestOptionsValidate_Rejects(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*Options)
		field  string
	}{
		{"namespace", func(o *Options) { o.PackageName = "1bad" }, "PackageName"},
		{"dotted namespace", func(o *Options) { o.PackageName = "Org..Tools" }, "PackageName"},
		{"version", func(o *Options) { o.PackageVersion = "x.y" }, "PackageVersion"},
		{"guid", func(o *Options) { o.PackageGUID = "not-a-guid" }, "PackageGUID"},
		{"source folder", func(o *Options) { o.SourceFolder = "" }, "SourceFolder"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			o := DefaultOptions()
			tt.mutate(&o)
			err := o.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfig))
			var cerr *ConfigError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, InvalidOption, cerr.Code)
			assert.Equal(t, tt.field, cerr.Option)
		})
	}
}

func TestPackageGUID(t *testing.T) {
	t.Parallel()
	o := DefaultOptions()
	guid := o.packageGUID()
	assert.Regexp(t, bracedGUIDRe, guid)
	assert.Equal(t, guid, o.packageGUID())

	o.PackageName = "Other.Package"
	assert.NotEqual(t, guid, o.packageGUID())

	o.PackageGUID = "{321C8C3F-0156-40C1-AE42-D59761FB9B6C}"
	assert.Equal(t, o.PackageGUID, o.packageGUID())
}

func TestNewNormalizesOptions(t *testing.T) {
	t.Parallel()
	o := DefaultOptions()
	o.Library = ""
	o.ModelPropertyNaming = ""
	o.Framework = "net5.0"
	o.NetCoreProjectFile = false

	g, err := New(o, nil)
	require.NoError(t, err)
	assert.Equal(t, RestSharp, g.Library())
	assert.Equal(t, string(PascalCase), g.Options().ModelPropertyNaming)
	assert.True(t, g.Options().NetCoreProjectFile, "non netstandard targets always use the SDK project format")
	assert.NotEmpty(t, g.Options().PackageGUID)
	assert.False(t, g.Selection().NetStandard)
}

func TestNewRejectsInvalidConfiguration(t *testing.T) {
	t.Parallel()
	for _, mutate := range []func(*Options){
		func(o *Options) { o.Framework = "net99" },
		func(o *Options) { o.Library = "curl" },
		func(o *Options) { o.ModelPropertyNaming = "kebab" },
	} {
		o := DefaultOptions()
		mutate(&o)
		_, err := New(o, nil)
		assert.ErrorIs(t, err, ErrConfig)
	}
}

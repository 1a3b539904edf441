package csharp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		policy NamingPolicy
		in     string
		want   string
	}{
		{"snake to pascal", PascalCase, "user_id", "UserId"},
		{"upper case kept", PascalCase, "ID", "ID"},
		{"inner case kept", PascalCase, "userID", "UserID"},
		{"leading digit", PascalCase, "123abc", "_123abc"},
		{"special keyword", PascalCase, "ToString", "PropertyToString"},
		{"camel reserved", CamelCase, "class", "_class"},
		{"camel", CamelCase, "PetName", "petName"},
		{"snake", SnakeCase, "PetName", "pet_name"},
		{"original", Original, "pet-name", "pet_name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			n := NewNamer(tt.policy, nil, false)
			assert.Equal(t, tt.want, n.VarName(tt.in))
		})
	}
}

func TestVarName_UpperCaseKeptUnderEveryPolicy(t *testing.T) {
	t.Parallel()
	for _, policy := range NamingPolicies() {
		n := NewNamer(NamingPolicy(policy), nil, false)
		for _, in := range []string{"USER_ID", "API_KEY", "ID", "X"} {
			assert.Equal(t, in, n.VarName(in), "policy %s", policy)
		}
	}
}

func TestVarName_Idempotent(t *testing.T) {
	t.Parallel()
	for _, policy := range NamingPolicies() {
		n := NewNamer(NamingPolicy(policy), nil, false)
		for _, in := range []string{"user_id", "PetName", "petType", "USER_ID", "pet-name"} {
			once := n.VarName(in)
			assert.Equal(t, once, n.VarName(once), "policy %s, input %q", policy, in)
		}
	}
}

func TestVarName_NameMapping(t *testing.T) {
	t.Parallel()
	n := NewNamer(PascalCase, map[string]string{"_type": "Kind"}, false)
	assert.Equal(t, "Kind", n.VarName("_type"))
}

func TestParamName(t *testing.T) {
	t.Parallel()
	n := NewNamer(PascalCase, nil, false)
	assert.Equal(t, "limit", n.ParamName("limit"))
	assert.Equal(t, "xTrace", n.ParamName("X-Trace"))
	assert.Equal(t, "_class", n.ParamName("class"))
	assert.Equal(t, "API_KEY", n.ParamName("API_KEY"))
}

func TestModelName(t *testing.T) {
	t.Parallel()
	n := NewNamer(PascalCase, nil, false)
	assert.Equal(t, "Pet", n.ModelName("pet"))
	assert.Equal(t, "Model200Response", n.ModelName("200_response"))
	assert.Equal(t, "ModelObject", n.ModelName("object"))
	assert.Equal(t, "ModelClient", n.ModelName("Client"))
	assert.Equal(t, "Object", n.ModelName(""))
}

func TestAPIAndOperationNames(t *testing.T) {
	t.Parallel()
	n := NewNamer(PascalCase, nil, false)
	assert.Equal(t, "DefaultApi", n.APIName(""))
	assert.Equal(t, "PetApi", n.APIName("pet"))
	assert.Equal(t, "StoreAdminApi", n.APIName("store-admin"))

	assert.Equal(t, "GetPetById", n.OperationName("getPetById", "get", "/pet/{id}"))
	assert.Equal(t, "PetsIdGet", n.OperationName("", "get", "/pets/{id}"))
	assert.Equal(t, "CallReturn", n.OperationName("return", "post", "/r"))
}

func TestEnumVarName(t *testing.T) {
	t.Parallel()
	n := NewNamer(PascalCase, nil, false)
	tests := []struct {
		value, dataType, want string
	}{
		{"", "string", "Empty"},
		{"2", "int", "NUMBER_2"},
		{"-1.5", "double", "NUMBER_MINUS_1_DOT_5"},
		{"available", "string", "Available"},
		{"in stock", "string", "InStock"},
		{">=", "string", "GreaterThanOrEqualTo"},
		{"1st", "string", "_1st"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, n.EnumVarName(tt.value, tt.dataType), "value %q", tt.value)
	}
}

func TestPackageTitle(t *testing.T) {
	t.Parallel()
	n := NewNamer(PascalCase, nil, false)
	assert.Equal(t, "My Api Client", n.PackageTitle("my-api client"))
	assert.Equal(t, "Swagger Petstore", n.PackageTitle("swagger  petstore"))
	assert.Equal(t, "", n.PackageTitle(""))
}

func TestParseNamingPolicy(t *testing.T) {
	t.Parallel()
	p, err := ParseNamingPolicy("")
	require.NoError(t, err)
	assert.Equal(t, PascalCase, p)

	p, err = ParseNamingPolicy("snake_case")
	require.NoError(t, err)
	assert.Equal(t, SnakeCase, p)

	_, err = ParseNamingPolicy("kebab")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfig))
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, InvalidNaming, cerr.Code)
	assert.Equal(t, "invalid model property naming 'kebab'. Must be 'original', 'camelCase', 'PascalCase' or 'snake_case'", err.Error())
}

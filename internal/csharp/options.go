package csharp

import (
	"crypto/sha1"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-version"
)

// Options is the typed run configuration of the generator.
type Options struct {
	PackageName        string `validate:"required,csnamespace"`
	PackageVersion     string `validate:"required,semver_like"`
	PackageGUID        string `validate:"omitempty,guid_braced"`
	PackageTitle       string
	PackageCompany     string
	PackageAuthors     string
	PackageCopyright   string
	PackageDescription string
	SourceFolder       string `validate:"required"`
	APIPackage         string `validate:"required,csnamespace"`
	ModelPackage       string `validate:"required,csnamespace"`
	InterfacePrefix    string
	LicenseID          string
	ReleaseNote        string
	PackageTags        string
	GitHost            string
	GitUserID          string
	GitRepoID          string

	Framework           string
	Library             string
	ModelPropertyNaming string

	DisallowAdditionalPropertiesIfNotPresent bool
	OptionalEmitDefaultValues                bool
	ConditionalSerialization                 bool
	NullableReferenceTypes                   bool
	UseDateTimeOffset                        bool
	UseCollection                            bool
	ReturnICollection                        bool
	NonPublicAPI                             bool
	AllowUnicodeIdentifiers                  bool
	NetCoreProjectFile                       bool
	UseOneOfDiscriminatorLookup              bool
	CaseInsensitiveResponseHeaders           bool
	ExcludeTests                             bool

	HideGenerationTimestamp bool
	SortParamsByRequired    bool
	OptionalMethodArgument  bool
	OptionalAssemblyInfo    bool
	OptionalProjectFile     bool
	Validatable             bool
	SupportsAsync           bool
	SupportsRetry           bool

	// NameMapping overrides the identifier of a raw property name.
	NameMapping map[string]string
}

// defaultPackageTitle is the assembly title used when neither the options
// nor the document provide one.
const defaultPackageTitle = "OpenAPI Library"

// DefaultOptions returns the documented defaults. PackageTitle is left
// empty so it can be derived from the document title.
func DefaultOptions() Options {
	return Options{
		PackageName:         "Org.OpenAPITools",
		PackageVersion:      "1.0.0",
		PackageCompany:      "OpenAPI",
		PackageAuthors:      "OpenAPI",
		PackageCopyright:    "No Copyright",
		PackageDescription:  "A library generated from a OpenAPI doc",
		SourceFolder:        "src",
		APIPackage:          "Api",
		ModelPackage:        "Model",
		InterfacePrefix:     "I",
		ReleaseNote:         "Minor update",
		GitHost:             "github.com",
		GitUserID:           "GIT_USER_ID",
		GitRepoID:           "GIT_REPO_ID",
		Framework:           DefaultFramework,
		Library:             string(RestSharp),
		ModelPropertyNaming: string(PascalCase),

		DisallowAdditionalPropertiesIfNotPresent: true,

		HideGenerationTimestamp: true,
		SortParamsByRequired:    true,
		OptionalMethodArgument:  true,
		OptionalAssemblyInfo:    true,
		OptionalProjectFile:     true,
		Validatable:             true,
		SupportsAsync:           true,
		SupportsRetry:           true,
	}
}

var (
	namespaceRe  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)
	bracedGUIDRe = regexp.MustCompile(`^\{[0-9A-Fa-f]{8}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{12}\}$`)
)

var customValidations = map[string]validator.Func{
	"csnamespace": func(fl validator.FieldLevel) bool {
		return namespaceRe.MatchString(fl.Field().String())
	},
	"guid_braced": func(fl validator.FieldLevel) bool {
		return bracedGUIDRe.MatchString(fl.Field().String())
	},
	"semver_like": func(fl validator.FieldLevel) bool {
		_, err := version.NewVersion(fl.Field().String())
		return err == nil
	},
}

func newValidator() (*validator.Validate, error) {
	v := validator.New()
	var errs []error
	for tag, fn := range customValidations {
		if err := v.RegisterValidation(tag, fn); err != nil {
			errs = append(errs, fmt.Errorf("register %s: %w", tag, err))
		}
	}
	return v, errors.Join(errs...)
}

var optionsValidator = func() *validator.Validate {
	v, err := newValidator()
	if err != nil {
		panic(err)
	}
	return v
}()

// Validate checks the struct tags and reports the first failing field as an
// InvalidOption error.
func (o Options) Validate() error {
	err := optionsValidator.Struct(o)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ConfigError{
			Code:   InvalidOption,
			Option: fe.Field(),
			Value:  fmt.Sprint(fe.Value()),
			Cause:  fmt.Errorf("failed %q check", fe.Tag()),
		}
	}
	return &ConfigError{Code: InvalidOption, Cause: err}
}

// packageGUID returns the configured GUID or one derived from the package
// name, so repeated runs stay byte identical.
func (o Options) packageGUID() string {
	if o.PackageGUID != "" {
		return o.PackageGUID
	}
	sum := sha1.Sum([]byte("openapi-generator/" + o.PackageName))
	sum[6] = (sum[6] & 0x0f) | 0x50
	sum[8] = (sum[8] & 0x3f) | 0x80
	return strings.ToUpper(fmt.Sprintf("{%x-%x-%x-%x-%x}", sum[0:4], sum[4:6], sum[6:8], sum[8:10], sum[10:16]))
}

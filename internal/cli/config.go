package cli

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// fields maps normalized config keys to the GenerateConfig field they set.
// The flag names of generate normalize to the same keys.
func (c *GenerateConfig) fields() map[string]any {
	o := &c.Generator
	return map[string]any{
		"input":       &c.Input,
		"out":         &c.Out,
		"templatedir": &c.TemplateDir,
		"includetags": &c.IncludeTags,
		"excludetags": &c.ExcludeTags,
		"dryrun":      &c.DryRun,
		"force":       &c.Force,
		"verbose":     &c.Verbose,

		"framework":           &o.Framework,
		"library":             &o.Library,
		"modelpropertynaming": &o.ModelPropertyNaming,
		"packagename":         &o.PackageName,
		"packageversion":      &o.PackageVersion,
		"packageguid":         &o.PackageGUID,
		"packagetitle":        &o.PackageTitle,
		"packagecompany":      &o.PackageCompany,
		"packageauthors":      &o.PackageAuthors,
		"packagecopyright":    &o.PackageCopyright,
		"packagedescription":  &o.PackageDescription,
		"packagetags":         &o.PackageTags,
		"sourcefolder":        &o.SourceFolder,
		"apipackage":          &o.APIPackage,
		"modelpackage":        &o.ModelPackage,
		"interfaceprefix":     &o.InterfacePrefix,
		"licenseid":           &o.LicenseID,
		"releasenote":         &o.ReleaseNote,
		"githost":             &o.GitHost,
		"gituserid":           &o.GitUserID,
		"gitrepoid":           &o.GitRepoID,
		"namemapping":         &o.NameMapping,

		"disallowadditionalpropertiesifnotpresent": &o.DisallowAdditionalPropertiesIfNotPresent,
		"optionalemitdefaultvalues":                &o.OptionalEmitDefaultValues,
		"conditionalserialization":                 &o.ConditionalSerialization,
		"nullablereferencetypes":                   &o.NullableReferenceTypes,
		"usedatetimeoffset":                        &o.UseDateTimeOffset,
		"usecollection":                            &o.UseCollection,
		"returnicollection":                        &o.ReturnICollection,
		"nonpublicapi":                             &o.NonPublicAPI,
		"allowunicodeidentifiers":                  &o.AllowUnicodeIdentifiers,
		"netcoreprojectfile":                       &o.NetCoreProjectFile,
		"useoneofdiscriminatorlookup":              &o.UseOneOfDiscriminatorLookup,
		"caseinsensitiveresponseheaders":           &o.CaseInsensitiveResponseHeaders,
		"excludetests":                             &o.ExcludeTests,
		"hidegenerationtimestamp":                  &o.HideGenerationTimestamp,
		"sortparamsbyrequired":                     &o.SortParamsByRequired,
		"optionalmethodargument":                   &o.OptionalMethodArgument,
		"optionalassemblyinfo":                     &o.OptionalAssemblyInfo,
		"optionalprojectfile":                      &o.OptionalProjectFile,
		"validatable":                              &o.Validatable,
		"supportsasync":                            &o.SupportsAsync,
		"supportsretry":                            &o.SupportsRetry,
	}
}

func applyGenerateConfigFromFile(cfg *GenerateConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return newUsageError(fmt.Sprintf("read config file %q: %v", path, err))
	}

	// YAML is a superset of JSON, so one decoder serves both formats.
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return newUsageError(fmt.Sprintf("parse config file %q: %v", path, err))
	}

	fields := cfg.fields()
	for key, value := range raw {
		field, ok := fields[normalizeKey(key)]
		if !ok {
			return newUsageError(fmt.Sprintf("config file %q: unknown field %q", path, key))
		}
		if err := assign(field, value); err != nil {
			return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
		}
	}
	return nil
}

func assign(field, value any) error {
	switch dst := field.(type) {
	case *string:
		s, err := valueAsString(value)
		if err != nil {
			return err
		}
		*dst = s
	case *bool:
		b, err := valueAsBool(value)
		if err != nil {
			return err
		}
		*dst = b
	case *[]string:
		list, err := valueAsStringSlice(value)
		if err != nil {
			return err
		}
		*dst = sanitizeTags(list)
	case *map[string]string:
		m, err := valueAsStringMap(value)
		if err != nil {
			return err
		}
		*dst = m
	default:
		return fmt.Errorf("unsupported field type %T", field)
	}
	return nil
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case nil:
		return "", nil
	case int, float64:
		// versions like 1.0 arrive as numbers
		return fmt.Sprint(val), nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func valueAsStringSlice(v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, nil
		}
		return splitAndTrim(val), nil
	case []any:
		items := make([]string, 0, len(val))
		for idx, elem := range val {
			str, err := valueAsString(elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", idx, err)
			}
			if str != "" {
				items = append(items, str)
			}
		}
		return items, nil
	default:
		return nil, fmt.Errorf("expected string or list, got %T", v)
	}
}

func valueAsStringMap(v any) (map[string]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		out := make(map[string]string, len(val))
		for k, elem := range val {
			str, err := valueAsString(elem)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			out[k] = str
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected mapping, got %T", v)
	}
}

func valueAsBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "t", "1", "yes", "y":
			return true, nil
		case "false", "f", "0", "no", "n", "":
			return false, nil
		default:
			return false, fmt.Errorf("invalid boolean value %q", val)
		}
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}

func sanitizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func intersect(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(a))
	for _, item := range a {
		set[item] = struct{}{}
	}
	var result []string
	for _, item := range b {
		if _, ok := set[item]; ok {
			result = append(result, item)
		}
	}
	return result
}

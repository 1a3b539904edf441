package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// InitConfig captures the options for the init command.
type InitConfig struct {
	OutputPath string
	Force      bool
}

var initRunner = runInit

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a sample openapi-generator configuration file",
		Long:  "Scaffold a commented openapi-generator configuration file that documents available options.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return err
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}
			return initRunner(cmd.Context(), &InitConfig{OutputPath: out, Force: force}, cmd.OutOrStdout())
		},
	}

	cmd.Flags().String("out", defaultConfigName, "Where to write the sample config file")
	cmd.Flags().Bool("force", false, "Overwrite the target file if it already exists")

	return cmd
}

const defaultConfigName = "openapi-generator.yaml"

func runInit(_ context.Context, cfg *InitConfig, stdout io.Writer) error {
	out := strings.TrimSpace(cfg.OutputPath)
	if out == "" {
		out = defaultConfigName
	}
	absPath, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("init: resolve output path: %w", err)
	}

	if st, err := os.Stat(absPath); err == nil && !cfg.Force && st.Mode().IsRegular() {
		return newUsageError(fmt.Sprintf("init: %q already exists (use --force to overwrite)", absPath))
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot create parent directory: %v", err))
	}

	content := strings.TrimSpace(sampleConfigYAML) + "\n"

	tmp := absPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot write temp file: %v\nHint: choose a different --out or check directory permissions.", err))
	}
	if err := os.Rename(tmp, absPath); err != nil {
		_ = os.Remove(tmp)
		return newUsageError(fmt.Sprintf("init: cannot place file at %s: %v", absPath, err))
	}
	fmt.Fprintf(stdout, "Wrote sample config to %s\n", absPath)
	return nil
}

// sampleConfigYAML documents every config key; all of them are commented out.
const sampleConfigYAML = `# openapi-generator configuration (YAML or JSON)
# All fields are optional. Command-line flags override config values.
# Keys are case insensitive and may use camelCase, kebab-case or snake_case.

# Path or URL to the Swagger/OpenAPI document (http/https or local file).
# input: ./openapi.yaml

# Output directory. Defaults to the package name.
# out: ./out

# Directory with mustache templates overriding the embedded set.
# Library specific overrides live in libraries/<library>/.
# templateDir: ./templates

# Only include / exclude operations with these tags (comma-separated or list).
# includeTags: [public, read]
# excludeTags: [internal]

# Target framework(s); separate several with ';' for a multi-target build.
# Run "openapi-generator frameworks" for the catalog.
# framework: netstandard2.0

# HTTP library: restsharp or httpclient.
# library: restsharp

# Property naming: original, camelCase, PascalCase or snake_case.
# modelPropertyNaming: PascalCase

# Packaging.
# packageName: Org.OpenAPITools
# packageVersion: 1.0.0
# packageGuid: "{8F0C5B2A-3A5E-4C5B-9E2D-6F1D3C0B7A11}"
# packageTitle defaults to the document title.
# packageTitle: Petstore Client
# packageCompany: OpenAPI
# packageAuthors: OpenAPI
# packageCopyright: No Copyright
# packageDescription: A library generated from a OpenAPI doc
# packageTags: api;client
# licenseId: MIT
# releaseNote: Minor update
# sourceFolder: src
# apiPackage: Api
# modelPackage: Model
# interfacePrefix: I

# git_push.sh defaults.
# gitHost: github.com
# gitUserId: GIT_USER_ID
# gitRepoId: GIT_REPO_ID

# Explicit C# names for raw property names.
# nameMapping:
#   _type: Kind

# Feature switches (defaults shown).
# disallowAdditionalPropertiesIfNotPresent: true
# optionalEmitDefaultValues: false
# conditionalSerialization: false
# nullableReferenceTypes: false
# useDateTimeOffset: false
# useCollection: false
# returnICollection: false
# nonPublicApi: false
# netCoreProjectFile: false
# useOneOfDiscriminatorLookup: false
# caseInsensitiveResponseHeaders: false
# excludeTests: false
# optionalMethodArgument: true
# validatable: true
# supportsAsync: true
# supportsRetry: true

# Preview planned outputs without writing files.
# dryRun: false

# Overwrite non-empty output directory.
# force: false

# Enable verbose logging.
# verbose: false
`

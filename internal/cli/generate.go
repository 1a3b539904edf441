package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bndr/gotabulate"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Robbilie/openapi-generator/internal/csharp"
	"github.com/Robbilie/openapi-generator/internal/emitter"
	"github.com/Robbilie/openapi-generator/internal/render"
	"github.com/Robbilie/openapi-generator/internal/spec"
)

// GenerateConfig captures all inputs that influence the generate command after
// merging defaults, config file values, and CLI overrides.
type GenerateConfig struct {
	Input       string
	Out         string
	TemplateDir string
	IncludeTags []string
	ExcludeTags []string
	ConfigPath  string
	DryRun      bool
	Force       bool
	Verbose     bool

	Generator csharp.Options
}

func defaultGenerateConfig() GenerateConfig {
	return GenerateConfig{Generator: csharp.DefaultOptions()}
}

var generateRunner = runGenerate

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a C# client library from an OpenAPI/Swagger document",
		Long: "Generate a C# client library from an OpenAPI/Swagger document. " +
			"Options can be provided via flags, config files, or defaults.",
		Example: strings.TrimSpace(`  openapi-generator generate --input petstore.yaml --out ./petstore --package-name Acme.Petstore
  openapi-generator generate --input spec.json --framework netstandard2.0;net47 --library httpclient
  openapi-generator --config config.yaml generate --force --dry-run`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd)
			if err != nil {
				return err
			}
			return generateRunner(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	d := csharp.DefaultOptions()
	flags := cmd.Flags()
	flags.String("input", "", "Path or URL to the Swagger/OpenAPI document")
	flags.String("out", "", "Output directory (defaults to the package name)")
	flags.String("framework", d.Framework, "Target framework(s), ';' separated; see the frameworks command")
	flags.String("library", d.Library, "HTTP library ("+strings.Join(csharp.Libraries(), "|")+")")
	flags.String("model-property-naming", d.ModelPropertyNaming, "Property naming ("+strings.Join(csharp.NamingPolicies(), "|")+")")
	flags.String("package-name", d.PackageName, "Root namespace and assembly name")
	flags.String("package-version", d.PackageVersion, "Assembly and NuGet package version")
	flags.String("source-folder", d.SourceFolder, "Folder the library sources are written to")
	flags.String("template-dir", "", "Directory with templates overriding the embedded ones")
	flags.StringSlice("include-tags", nil, "Only include operations with these tags")
	flags.StringSlice("exclude-tags", nil, "Exclude operations with these tags")
	flags.Bool("disallow-additional-properties-if-not-present", d.DisallowAdditionalPropertiesIfNotPresent, "Treat schemas without additionalProperties as closed")
	flags.Bool("optional-emit-default-values", d.OptionalEmitDefaultValues, "Serialize properties that hold their default value")
	flags.Bool("supports-retry", d.SupportsRetry, "Generate Polly based retry support")
	flags.Bool("exclude-tests", d.ExcludeTests, "Skip the generated test project")
	flags.Bool("nullable-reference-types", d.NullableReferenceTypes, "Annotate optional reference types as nullable")
	flags.Bool("use-datetime-offset", d.UseDateTimeOffset, "Map date-time to DateTimeOffset instead of DateTime")
	flags.Bool("non-public-api", d.NonPublicAPI, "Generate internal instead of public types")
	flags.Bool("dry-run", false, "Preview planned outputs without writing files")
	flags.Bool("force", false, "Overwrite existing output when set")

	return cmd
}

func resolveGenerateConfig(cmd *cobra.Command) (*GenerateConfig, error) {
	cfg := defaultGenerateConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyGenerateConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
	}

	if err := applyGenerateFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyGenerateFlagOverrides copies every explicitly set flag over the
// config file and default values.
func applyGenerateFlagOverrides(flags *pflag.FlagSet, cfg *GenerateConfig) error {
	fields := cfg.fields()
	var err error
	flags.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		field, ok := fields[normalizeKey(f.Name)]
		if !ok {
			return
		}
		switch dst := field.(type) {
		case *string:
			*dst, err = flags.GetString(f.Name)
		case *bool:
			*dst, err = flags.GetBool(f.Name)
		case *[]string:
			var list []string
			list, err = flags.GetStringSlice(f.Name)
			*dst = sanitizeTags(list)
		}
	})
	return err
}

func (c *GenerateConfig) normalize() {
	c.Input = strings.TrimSpace(c.Input)
	c.Out = strings.TrimSpace(c.Out)
	c.TemplateDir = strings.TrimSpace(c.TemplateDir)
	c.IncludeTags = sanitizeTags(c.IncludeTags)
	c.ExcludeTags = sanitizeTags(c.ExcludeTags)
	c.Generator.Library = strings.ToLower(strings.TrimSpace(c.Generator.Library))
	c.Generator.Framework = strings.TrimSpace(c.Generator.Framework)
	c.Generator.PackageName = strings.TrimSpace(c.Generator.PackageName)
	if c.Out == "" {
		c.Out = c.Generator.PackageName
	}
}

func (c *GenerateConfig) validate() error {
	if c.Input == "" {
		return newUsageError("generate: --input is required (set via flag or config file)")
	}

	overlap := intersect(c.IncludeTags, c.ExcludeTags)
	if len(overlap) > 0 {
		return newUsageError(fmt.Sprintf("generate: include/exclude tags overlap: %s", strings.Join(overlap, ", ")))
	}

	// library, framework and naming are resolved here so a bad value fails
	// before the document is fetched
	if _, err := csharp.New(c.Generator, nil); err != nil {
		return newUsageError(fmt.Sprintf("generate: %v", err))
	}
	return nil
}

func runGenerate(ctx context.Context, cfg *GenerateConfig, stdout, stderr io.Writer) error {
	log := newLogger(stderr, cfg.Verbose)

	doc, err := spec.Load(ctx, cfg.Input, spec.WithLoaderLogger(log))
	if err != nil {
		var se *spec.SpecError
		if errors.As(err, &se) {
			msg := fmt.Sprintf("spec: %s", se.Message)
			if se.Location != "" {
				msg = fmt.Sprintf("%s\nLocation: %s", msg, se.Location)
			}
			if se.JSONPointer != "" {
				msg = fmt.Sprintf("%s\nPointer: %s", msg, se.JSONPointer)
			}
			return newUsageError(msg)
		}
		return err
	}

	api, err := spec.BuildAPI(ctx, doc,
		spec.WithIncludeTags(cfg.IncludeTags),
		spec.WithExcludeTags(cfg.ExcludeTags),
		spec.WithLogger(log),
	)
	if err != nil {
		return fmt.Errorf("build model: %w", err)
	}

	gen, err := csharp.New(cfg.Generator, log)
	if err != nil {
		if errors.Is(err, csharp.ErrConfig) {
			return newUsageError(fmt.Sprintf("generate: %v", err))
		}
		return err
	}
	project, err := gen.Process(api)
	if err != nil {
		return fmt.Errorf("process model: %w", err)
	}

	r, err := render.New(render.WithLibrary(string(gen.Library())), render.WithTemplateDir(cfg.TemplateDir))
	if err != nil {
		return newUsageError(fmt.Sprintf("generate: %v", err))
	}

	absOut := cfg.Out
	if ap, err := filepath.Abs(cfg.Out); err == nil {
		absOut = ap
	}
	res, err := emitter.Emit(ctx, gen.Plan(project), r, emitter.Options{
		OutDir:  cfg.Out,
		Version: Version,
		Force:   cfg.Force,
		DryRun:  cfg.DryRun,
		Logger:  log,
	})
	if err != nil {
		return wrapOutputError(err, absOut)
	}
	if cfg.DryRun {
		printPlan(stdout, res)
	}
	return nil
}

func printPlan(w io.Writer, res *emitter.Result) {
	fmt.Fprintf(w, "Planned writes to %s (%d files):\n", res.OutDir, len(res.Planned))
	rows := make([][]string, 0, len(res.Planned))
	for _, p := range res.Planned {
		rows = append(rows, []string{p.RelPath, fmt.Sprint(p.Size), fmt.Sprintf("%04o", uint32(p.Mode.Perm()))})
	}
	if len(rows) == 0 {
		return
	}
	t := gotabulate.Create(rows)
	t.SetHeaders([]string{"Path", "Bytes", "Mode"})
	t.SetAlign("left")
	fmt.Fprintln(w, strings.TrimRight(t.Render("simple"), "\n"))
}

func wrapOutputError(err error, outDir string) error {
	if errors.Is(err, render.ErrTemplateNotFound) {
		return newUsageError(fmt.Sprintf("generate: %v\nHint: check --template-dir and --library.", err))
	}
	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "permission") || strings.Contains(lower, "read-only") || strings.Contains(lower, "output directory") || errors.Is(err, os.ErrPermission) {
		return newUsageError(fmt.Sprintf("output error for %s: %s\nHint: choose a different --out or use --force when appropriate.", outDir, msg))
	}
	return err
}

package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/blimu-dev/resource-sdk-gen/pkg/config"
	"github.com/blimu-dev/resource-sdk-gen/pkg/generator"
	"github.com/blimu-dev/resource-sdk-gen/pkg/generator/javascript"
)

// Positional defaults of the generate command
const (
	DefaultSpec   = "./swagger.json"
	DefaultOutDir = "./sdk"
)

// GenerateParams is the resolved input of one generate run
type GenerateParams struct {
	Config *config.Config
	// OnlyClient restricts generation to the named client
	OnlyClient string
	Verbose    bool
}

// ValidateParams is the resolved input of one validate run
type ValidateParams struct {
	Spec    string
	Verbose bool
}

// Runners are variables so tests can observe resolved parameters.
var (
	generateRunner = RunGenerate
	validateRunner = RunValidate
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [spec] [outDir] [version]",
		Short: "Generate a JavaScript SDK",
		Long: "Generate a resource-oriented JavaScript SDK from an OpenAPI 3 or Swagger 2 document. " +
			"spec defaults to " + DefaultSpec + ", outDir to " + DefaultOutDir +
			" and version to the document's info.version.",
		Example: strings.TrimSpace(`  resource-sdk-gen generate ./openapi.yaml ./sdk 1.0.0
  resource-sdk-gen generate https://example.com/openapi.json ./sdk --nesting flat
  resource-sdk-gen generate --config sdkgen.yaml --client shop`),
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 3 {
				return newUsageError(fmt.Sprintf("accepts at most 3 arguments, received %d\n\n%s", len(args), cmd.UsageString()))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := resolveGenerateParams(cmd.Flags(), args)
			if err != nil {
				return err
			}
			return generateRunner(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), params)
		},
	}

	flags := cmd.Flags()
	flags.StringP("config", "c", "", "Path to an sdkgen.yaml config")
	flags.String("client", "", "Generate only the named client from the config")
	flags.String("nesting", config.NestingParam, "Resource nesting strategy (param|flat)")
	flags.String("package-name", "", "npm package name (defaults to the document title)")
	flags.String("client-name", "", "Client class name exported by index.js")
	flags.StringArray("include-tags", nil, "Regex patterns for tags to include")
	flags.StringArray("exclude-tags", nil, "Regex patterns for tags to exclude")
	flags.String("base-url", "", "Base URL used when the document lists no servers")
	return cmd
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <spec>",
		Short: "Validate an OpenAPI or Swagger document",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return newUsageError(fmt.Sprintf("validate needs exactly one spec argument\n\n%s", cmd.UsageString()))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			return validateRunner(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), ValidateParams{Spec: args[0], Verbose: verbose})
		},
	}
}

// resolveGenerateParams merges positionals and flags into a configuration.
// Without --config a single javascript client is built from defaults; with
// it, positionals and explicitly set flags override the file's values.
func resolveGenerateParams(flags *pflag.FlagSet, args []string) (GenerateParams, error) {
	get := func(name string) string {
		v, _ := flags.GetString(name)
		return strings.TrimSpace(v)
	}
	getArray := func(name string) []string {
		v, _ := flags.GetStringArray(name)
		return v
	}
	arg := func(i int) string {
		if i < len(args) {
			return args[i]
		}
		return ""
	}

	verbose, _ := flags.GetBool("verbose")
	params := GenerateParams{OnlyClient: get("client"), Verbose: verbose}

	var cfg *config.Config
	if path := get("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return params, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
		if spec := arg(0); spec != "" {
			cfg.Spec = spec
		}
	} else {
		if params.OnlyClient != "" {
			return params, newUsageError("--client requires --config")
		}
		spec := arg(0)
		if spec == "" {
			spec = DefaultSpec
		}
		cfg = &config.Config{
			Spec:    spec,
			Clients: []config.Client{{Type: javascript.Type, OutDir: DefaultOutDir}},
		}
	}

	for i := range cfg.Clients {
		c := &cfg.Clients[i]
		if params.OnlyClient != "" && c.Name != params.OnlyClient {
			continue
		}
		if outDir := arg(1); outDir != "" {
			c.OutDir = outDir
		}
		if version := arg(2); version != "" {
			c.Version = version
		}
		if flags.Changed("nesting") || c.Nesting == "" {
			c.Nesting = get("nesting")
		}
		if flags.Changed("package-name") {
			c.PackageName = get("package-name")
		}
		if flags.Changed("client-name") {
			c.Name = get("client-name")
		}
		if flags.Changed("include-tags") {
			c.IncludeTags = getArray("include-tags")
		}
		if flags.Changed("exclude-tags") {
			c.ExcludeTags = getArray("exclude-tags")
		}
		if flags.Changed("base-url") {
			c.DefaultBaseURL = get("base-url")
		}
	}

	if err := cfg.Normalize(); err != nil {
		return params, newUsageError(err.Error())
	}
	params.Config = cfg
	return params, nil
}

// RunGenerate generates every selected client and reports where it landed
func RunGenerate(ctx context.Context, stdout, stderr io.Writer, p GenerateParams) error {
	logger := newLogger(stderr, p.Verbose)
	svc := generator.NewService(generator.WithLogger(logger))
	if err := svc.GenerateFromConfig(ctx, p.Config, p.OnlyClient); err != nil {
		return err
	}

	for _, c := range p.Config.Clients {
		if p.OnlyClient != "" && c.Name != p.OnlyClient {
			continue
		}
		fmt.Fprintf(stdout, "SDK successfully generated in %s\n", c.OutDir)
	}
	return nil
}

// RunValidate loads and validates a document
func RunValidate(ctx context.Context, stdout, stderr io.Writer, p ValidateParams) error {
	logger := newLogger(stderr, p.Verbose)
	if err := generator.ValidateSpec(ctx, p.Spec); err != nil {
		return err
	}
	logger.Debug("document is valid", "spec", p.Spec)
	fmt.Fprintf(stdout, "%s is valid\n", p.Spec)
	return nil
}

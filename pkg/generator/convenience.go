package generator

import (
	"context"
	"path/filepath"

	"github.com/blimu-dev/resource-sdk-gen/pkg/config"
	"github.com/blimu-dev/resource-sdk-gen/pkg/generator/javascript"
	"github.com/blimu-dev/resource-sdk-gen/pkg/openapi"
)

// GenerateSDK is a convenience function for generating SDKs with minimal configuration
func GenerateSDK(ctx context.Context, opts GenerateSDKOptions) error {
	service := NewService()

	genOpts := GenerateOptions{
		ConfigPath:   opts.ConfigPath,
		SingleClient: opts.SingleClient,
		Fallback: FallbackOptions{
			Spec:           opts.Spec,
			Type:           opts.Type,
			OutDir:         opts.OutDir,
			PackageName:    opts.PackageName,
			Name:           opts.Name,
			Version:        opts.Version,
			Nesting:        opts.Nesting,
			DefaultBaseURL: opts.DefaultBaseURL,
			IncludeTags:    opts.IncludeTags,
			ExcludeTags:    opts.ExcludeTags,
		},
	}

	return service.Generate(ctx, genOpts)
}

// GenerateSDKOptions contains options for the convenience GenerateSDK function
type GenerateSDKOptions struct {
	// ConfigPath is the path to the configuration file (optional)
	ConfigPath string

	// SingleClient generates only the named client from config (optional)
	SingleClient string

	// Fallback options when no config file is provided
	Spec           string   // OpenAPI spec file or URL
	Type           string   // Generator type (e.g., "javascript")
	OutDir         string   // Output directory
	PackageName    string   // Package name for the generated SDK
	Name           string   // Client class name
	Version        string   // Overrides info.version
	Nesting        string   // "param" or "flat"
	DefaultBaseURL string   // Base URL when the document lists no servers
	IncludeTags    []string // Regex patterns for tags to include
	ExcludeTags    []string // Regex patterns for tags to exclude
}

// GenerateJavaScriptSDK is a convenience function specifically for JavaScript SDK generation
func GenerateJavaScriptSDK(ctx context.Context, spec, outDir, packageName, clientName string) error {
	absOutDir, err := filepath.Abs(outDir)
	if err != nil {
		return err
	}

	return GenerateSDK(ctx, GenerateSDKOptions{
		Spec:        spec,
		Type:        javascript.Type,
		OutDir:      absOutDir,
		PackageName: packageName,
		Name:        clientName,
	})
}

// GenerateFromConfig is a convenience function for generating from a config file
func GenerateFromConfig(ctx context.Context, configPath string, singleClient ...string) error {
	service := NewService()
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	onlyClient := ""
	if len(singleClient) > 0 {
		onlyClient = singleClient[0]
	}

	return service.GenerateFromConfig(ctx, cfg, onlyClient)
}

// ValidateSpec validates an OpenAPI specification
func ValidateSpec(ctx context.Context, specPath string) error {
	return openapi.Validate(ctx, specPath)
}

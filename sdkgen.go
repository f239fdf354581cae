// Package sdkgen generates resource-oriented JavaScript SDKs from OpenAPI 3
// and Swagger 2 documents.
//
// Quick Start:
//
//	import sdkgen "github.com/blimu-dev/resource-sdk-gen"
//
//	err := sdkgen.GenerateJavaScriptSDK(ctx,
//		"https://petstore3.swagger.io/api/v3/openapi.json",
//		"./generated-sdk",
//		"petstore-sdk",
//		"PetStore",
//	)
//
// Every path's first segment becomes a resource class; segments that follow
// a {param} become nested sub-resources. Inline object schemas are hoisted
// into named models before any code is emitted.
//
// For more control, see the generator package.
package sdkgen

import (
	"context"

	"github.com/blimu-dev/resource-sdk-gen/pkg/generator"
)

// GenerateJavaScriptSDK generates a JavaScript SDK with default settings.
//
// Parameters:
//   - spec: path to an OpenAPI document or an HTTP(S) URL
//   - outDir: output directory for the generated SDK
//   - packageName: npm package name; empty derives it from info.title
//   - clientName: class exported by index.js; empty means API
func GenerateJavaScriptSDK(ctx context.Context, spec, outDir, packageName, clientName string) error {
	return generator.GenerateJavaScriptSDK(ctx, spec, outDir, packageName, clientName)
}

// GenerateSDK generates an SDK with full configuration options.
//
// Example:
//
//	err := sdkgen.GenerateSDK(ctx, sdkgen.GenerateSDKOptions{
//		Spec:        "./openapi.yaml",
//		Type:        "javascript",
//		OutDir:      "./my-sdk",
//		Nesting:     "flat",
//		IncludeTags: []string{"users", "orders"},
//		ExcludeTags: []string{"internal"},
//	})
func GenerateSDK(ctx context.Context, opts GenerateSDKOptions) error {
	return generator.GenerateSDK(ctx, opts)
}

// GenerateFromConfig generates SDKs from a YAML configuration file,
// optionally only the named client.
//
//	err := sdkgen.GenerateFromConfig(ctx, "./sdkgen.yaml")
//	err = sdkgen.GenerateFromConfig(ctx, "./sdkgen.yaml", "shop")
func GenerateFromConfig(ctx context.Context, configPath string, singleClient ...string) error {
	return generator.GenerateFromConfig(ctx, configPath, singleClient...)
}

// ValidateSpec loads and validates a document without generating anything.
//
//	if err := sdkgen.ValidateSpec(ctx, "./openapi.yaml"); err != nil {
//		log.Fatalf("Invalid OpenAPI spec: %v", err)
//	}
func ValidateSpec(ctx context.Context, specPath string) error {
	return generator.ValidateSpec(ctx, specPath)
}

// GenerateSDKOptions contains options for SDK generation
type GenerateSDKOptions = generator.GenerateSDKOptions

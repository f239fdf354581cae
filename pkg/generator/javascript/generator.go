// Package javascript renders an ES module SDK from the intermediate
// representation: one class per resource, one file per model and a small
// axios based client.
package javascript

import (
	"context"
	"embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"golang.org/x/sync/errgroup"

	"github.com/blimu-dev/resource-sdk-gen/pkg/config"
	"github.com/blimu-dev/resource-sdk-gen/pkg/ir"
)

// Type is the generator type identifier used in client configuration
const Type = "javascript"

//go:embed templates
var templatesFS embed.FS

// Option configures a JavaScriptGenerator
type Option func(*JavaScriptGenerator)

// WithLogger routes per-file diagnostics to logger
func WithLogger(logger *slog.Logger) Option {
	return func(g *JavaScriptGenerator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithConcurrency bounds how many resource and model files render at once
func WithConcurrency(n int) Option {
	return func(g *JavaScriptGenerator) {
		if n > 0 {
			g.workers = n
		}
	}
}

// JavaScriptGenerator implements the Generator interface for JavaScript
type JavaScriptGenerator struct {
	logger  *slog.Logger
	workers int
}

// NewJavaScriptGenerator creates a new JavaScript generator
func NewJavaScriptGenerator(opts ...Option) *JavaScriptGenerator {
	g := &JavaScriptGenerator{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GetType returns the generator type identifier
func (g *JavaScriptGenerator) GetType() string {
	return Type
}

// Generate writes the SDK for client into client.OutDir
func (g *JavaScriptGenerator) Generate(ctx context.Context, client config.Client, in ir.IR) error {
	resourcesDir := filepath.Join(client.OutDir, "resources")
	modelsDir := filepath.Join(client.OutDir, "models")
	utilsDir := filepath.Join(client.OutDir, "utils")
	for _, dir := range []string{resourcesDir, modelsDir, utilsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	syms := planSymbols(in)
	for _, name := range syms.renamed {
		g.logger.Warn("name collides with another model or resource, suffixing", "name", name)
	}
	tmpl, err := parseTemplates(client, syms)
	if err != nil {
		return err
	}
	base := map[string]any{"Client": client, "IR": in}

	files := []struct{ name, target string }{
		{"index.js.gotmpl", filepath.Join(client.OutDir, "index.js")},
		{"client.js.gotmpl", filepath.Join(client.OutDir, "client.js")},
		{"package.json.gotmpl", filepath.Join(client.OutDir, "package.json")},
		{"README.md.gotmpl", filepath.Join(client.OutDir, "README.md")},
	}
	for _, f := range files {
		if err := g.renderFile(client, tmpl, f.name, f.target, base); err != nil {
			return err
		}
	}
	if err := g.copyStatic(client, "queryUtils.js", filepath.Join(utilsDir, "queryUtils.js")); err != nil {
		return err
	}

	// Resource and model files are independent; render them concurrently.
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)
	for _, res := range in.ResourceList() {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			sym := syms.resource(res.Name)
			target := filepath.Join(resourcesDir, sym.File+".js")
			return g.renderFile(client, tmpl, "resource.js.gotmpl", target, map[string]any{
				"Client": client,
				"Scope":  rootScope(res, sym.Class),
			})
		})
	}
	for _, model := range in.Models {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			target := filepath.Join(modelsDir, syms.model(model.Name).File+".js")
			return g.renderFile(client, tmpl, "model.js.gotmpl", target, map[string]any{
				"Client": client,
				"Model":  model,
			})
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	g.logger.Debug("rendered javascript sdk",
		"out_dir", client.OutDir,
		"resources", len(in.Resources),
		"models", len(in.Models))
	return nil
}

// parseTemplates parses every template once; the result is safe for
// concurrent execution.
func parseTemplates(client config.Client, syms symbols) (*template.Template, error) {
	funcMap := template.FuncMap{
		"jsIdent":     jsIdent,
		"jsString":    jsString,
		"jsPath":      jsPath,
		"jsDocType":   jsDocType,
		"methodName":  methodName,
		"methodArgs":  methodArgs,
		"pathArgs":    pathParamIdents,
		"aliases":     crudAliases,
		"modelClass":  func(name string) string { return syms.model(name).Class },
		"modelFile":   func(name string) string { return syms.model(name).File },
		"resClass":    func(name string) string { return syms.resource(name).Class },
		"resFile":     func(name string) string { return syms.resource(name).File },
		"resProp":     func(name string) string { return syms.resource(name).Prop },
		"packageName": func(info ir.IRInfo) string { return packageName(client, info) },
		"clientClass": func() string { return clientClassName(client) },
		"exampleName": exampleResource,
		"packageJSON": func(info ir.IRInfo) map[string]any { return packageManifest(client, info) },
	}
	// Merge sprig functions
	for k, v := range sprig.TxtFuncMap() {
		if _, exists := funcMap[k]; !exists {
			funcMap[k] = v
		}
	}

	tmpl, err := template.New(Type).Funcs(funcMap).ParseFS(templatesFS, "templates/*.gotmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}

// renderFile renders a template to the target path
func (g *JavaScriptGenerator) renderFile(client config.Client, tmpl *template.Template, templateName, targetPath string, data map[string]any) error {
	if client.ShouldExcludeFile(targetPath) {
		g.logger.Debug("skipping excluded file", "path", targetPath)
		return nil
	}

	file, err := os.Create(targetPath)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", targetPath, err)
	}
	defer file.Close()

	if err := tmpl.ExecuteTemplate(file, templateName, data); err != nil {
		return fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}
	g.logger.Debug("rendered file", "path", targetPath)
	return nil
}

// copyStatic copies an embedded file that needs no rendering
func (g *JavaScriptGenerator) copyStatic(client config.Client, name, targetPath string) error {
	if client.ShouldExcludeFile(targetPath) {
		g.logger.Debug("skipping excluded file", "path", targetPath)
		return nil
	}
	content, err := templatesFS.ReadFile("templates/static/" + name)
	if err != nil {
		return fmt.Errorf("failed to read static file %s: %w", name, err)
	}
	if err := os.WriteFile(targetPath, content, 0o644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", targetPath, err)
	}
	return nil
}

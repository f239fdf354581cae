package generator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/blimu-dev/resource-sdk-gen/pkg/config"
	"github.com/blimu-dev/resource-sdk-gen/pkg/document"
	"github.com/blimu-dev/resource-sdk-gen/pkg/generator/javascript"
	"github.com/blimu-dev/resource-sdk-gen/pkg/ir"
	"github.com/blimu-dev/resource-sdk-gen/pkg/normalize"
	"github.com/blimu-dev/resource-sdk-gen/pkg/openapi"
)

// Generator defines the interface for SDK emitters
type Generator interface {
	// Generate renders an SDK for client from the intermediate representation
	Generate(ctx context.Context, client config.Client, ir ir.IR) error
	// GetType returns the type identifier for this generator (e.g., "javascript")
	GetType() string
}

// Registry manages available generators
type Registry struct {
	generators map[string]Generator
}

// NewRegistry creates a new generator registry
func NewRegistry() *Registry {
	return &Registry{
		generators: make(map[string]Generator),
	}
}

// Register adds a generator to the registry
func (r *Registry) Register(gen Generator) {
	r.generators[gen.GetType()] = gen
}

// Get retrieves a generator by type
func (r *Registry) Get(genType string) (Generator, bool) {
	gen, exists := r.generators[genType]
	return gen, exists
}

// GetAvailableTypes returns all registered generator types, sorted
func (r *Registry) GetAvailableTypes() []string {
	types := make([]string, 0, len(r.generators))
	for t := range r.generators {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// GenerateOptions contains options for SDK generation
type GenerateOptions struct {
	ConfigPath   string
	SingleClient string
	Fallback     FallbackOptions
}

// FallbackOptions contains fallback options when no config file is provided
type FallbackOptions struct {
	Spec           string
	Type           string
	OutDir         string
	PackageName    string
	Name           string
	Version        string
	Nesting        string
	DefaultBaseURL string
	IncludeTags    []string
	ExcludeTags    []string
}

// Config turns the fallback options into a single-client configuration
func (f FallbackOptions) Config() (*config.Config, error) {
	if f.Spec == "" || f.Type == "" || f.OutDir == "" {
		return nil, fmt.Errorf("either a config path or spec, type and outDir must be provided")
	}
	cfg := &config.Config{
		Spec: f.Spec,
		Clients: []config.Client{
			{
				Type:           f.Type,
				OutDir:         f.OutDir,
				PackageName:    f.PackageName,
				Name:           f.Name,
				Version:        f.Version,
				Nesting:        f.Nesting,
				DefaultBaseURL: f.DefaultBaseURL,
				IncludeTags:    f.IncludeTags,
				ExcludeTags:    f.ExcludeTags,
			},
		},
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithLogger sets the logger used by the service, the normalizer and the emitters
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLoaderOptions passes options through to openapi.Load
func WithLoaderOptions(opts ...openapi.Option) ServiceOption {
	return func(s *Service) {
		s.loaderOpts = append(s.loaderOpts, opts...)
	}
}

// Service provides high-level SDK generation functionality
type Service struct {
	registry   *Registry
	logger     *slog.Logger
	loaderOpts []openapi.Option
}

// NewService creates a new generator service with default generators
func NewService(opts ...ServiceOption) *Service {
	s := newService(NewRegistry(), opts)
	s.registry.Register(javascript.NewJavaScriptGenerator(javascript.WithLogger(s.logger)))
	return s
}

// NewServiceWithRegistry creates a new generator service with a custom registry
func NewServiceWithRegistry(registry *Registry, opts ...ServiceOption) *Service {
	return newService(registry, opts)
}

func newService(registry *Registry, opts []ServiceOption) *Service {
	s := &Service{
		registry: registry,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate generates SDKs based on the provided options
func (s *Service) Generate(ctx context.Context, opts GenerateOptions) error {
	var cfg *config.Config
	var err error

	if opts.ConfigPath == "" {
		cfg, err = opts.Fallback.Config()
	} else {
		cfg, err = config.Load(opts.ConfigPath)
	}
	if err != nil {
		return err
	}

	return s.GenerateFromConfig(ctx, cfg, opts.SingleClient)
}

// GenerateFromConfig loads the document once, normalizes its schemas, then
// builds the IR and runs the generator of every selected client.
func (s *Service) GenerateFromConfig(ctx context.Context, cfg *config.Config, onlyClient string) error {
	doc, err := s.Prepare(ctx, cfg.Spec)
	if err != nil {
		return err
	}

	for _, client := range cfg.Clients {
		if onlyClient != "" && client.Name != onlyClient {
			continue
		}
		if err := s.generateClient(ctx, doc, client); err != nil {
			return err
		}
	}
	return nil
}

// Prepare loads spec and normalizes its schema registry
func (s *Service) Prepare(ctx context.Context, spec string) (*document.Document, error) {
	oa, err := openapi.Load(ctx, spec, s.loaderOpts...)
	if err != nil {
		return nil, err
	}
	doc, err := document.FromOpenAPI(oa)
	if err != nil {
		return nil, err
	}
	res, err := normalize.Document(doc, normalize.WithLogger(s.logger))
	if err != nil {
		return nil, fmt.Errorf("normalize schemas: %w", err)
	}
	s.logger.Info("loaded document",
		"title", doc.Info.Title,
		"paths", len(doc.Paths),
		"schemas", doc.Schemas.Len(),
		"hoisted", len(res.Hoisted))
	return doc, nil
}

func (s *Service) generateClient(ctx context.Context, doc *document.Document, client config.Client) error {
	generator, exists := s.registry.Get(client.Type)
	if !exists {
		return fmt.Errorf("unsupported client type: %s (available: %s)", client.Type, strings.Join(s.registry.GetAvailableTypes(), ", "))
	}

	result, err := BuildIR(doc, BuildOptions{
		Version:        client.Version,
		DefaultBaseURL: client.DefaultBaseURL,
		Nesting:        ir.NestingStrategy(client.Nesting),
		IncludeTags:    client.IncludeTags,
		ExcludeTags:    client.ExcludeTags,
	})
	if err != nil {
		return fmt.Errorf("build IR for client %s: %w", client.Name, err)
	}
	s.logger.Debug("built IR",
		"client", client.Name,
		"resources", len(result.Resources),
		"models", len(result.Models))

	// Ensure output directory exists before pre-commands
	if err := os.MkdirAll(client.OutDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory for client %s: %w", client.Name, err)
	}

	if err := s.executeCommand(ctx, client.GetPreCommand(), client.OutDir, "pre-command"); err != nil {
		return fmt.Errorf("pre-generation commands failed for client %s: %w", client.Name, err)
	}

	if err := generator.Generate(ctx, client, result); err != nil {
		return fmt.Errorf("generate client %s: %w", client.Name, err)
	}

	if err := s.executeCommand(ctx, client.GetPostCommand(), client.OutDir, "post-command"); err != nil {
		return fmt.Errorf("post-generation commands failed for client %s: %w", client.Name, err)
	}
	s.logger.Info("generated client", "client", client.Name, "out_dir", client.OutDir)
	return nil
}

// GetRegistry returns the generator registry
func (s *Service) GetRegistry() *Registry {
	return s.registry
}

// executeCommand executes a single command in Docker Compose array format
func (s *Service) executeCommand(ctx context.Context, command []string, workDir, commandLabel string) error {
	if len(command) == 0 {
		return nil
	}

	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Dir = workDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	cmdDescription := strings.Join(command, " ")
	s.logger.Debug("running command", "label", commandLabel, "command", cmdDescription)

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s (%s) failed: %w", commandLabel, cmdDescription, err)
	}
	return nil
}

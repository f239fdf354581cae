package generator

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/blimu-dev/resource-sdk-gen/pkg/document"
	"github.com/blimu-dev/resource-sdk-gen/pkg/ir"
	"github.com/blimu-dev/resource-sdk-gen/pkg/schema"
	"github.com/blimu-dev/resource-sdk-gen/pkg/utils"
)

// DefaultBaseURL is used when neither the document nor the client names a server
const DefaultBaseURL = "http://localhost"

// untaggedTag is the tag filters match against for operations without tags
const untaggedTag = "misc"

// resourceMethods are the HTTP methods that become resource operations
var resourceMethods = map[string]bool{
	"get": true, "post": true, "put": true, "patch": true, "delete": true,
}

// BuildOptions tunes IR construction for one client
type BuildOptions struct {
	// Version overrides the document's info.version
	Version        string
	DefaultBaseURL string
	Nesting        ir.NestingStrategy
	IncludeTags    []string
	ExcludeTags    []string
}

// BuildIR derives the resource tree and models from a normalized document
func BuildIR(doc *document.Document, opts BuildOptions) (ir.IR, error) {
	if doc == nil {
		return ir.IR{}, fmt.Errorf("nil document")
	}
	nesting := opts.Nesting
	if nesting == "" {
		nesting = ir.NestingParam
	}
	if !nesting.Valid() {
		return ir.IR{}, fmt.Errorf("unknown nesting strategy %q", nesting)
	}
	include, exclude, err := compileTagFilters(opts.IncludeTags, opts.ExcludeTags)
	if err != nil {
		return ir.IR{}, err
	}

	return ir.IR{
		Info:            buildInfo(doc, opts),
		Resources:       buildResources(doc.Paths, nesting, include, exclude),
		Models:          buildModels(doc.Schemas),
		SecuritySchemes: collectSecuritySchemes(doc.Source),
		Source:          doc.Source,
	}, nil
}

func buildInfo(doc *document.Document, opts BuildOptions) ir.IRInfo {
	info := ir.IRInfo{
		Title:       doc.Info.Title,
		Description: doc.Info.Description,
		Version:     doc.Info.Version,
		BaseURL:     DefaultBaseURL,
	}
	if opts.Version != "" {
		info.Version = opts.Version
	}
	switch {
	case len(doc.Servers) > 0 && doc.Servers[0] != "":
		info.BaseURL = doc.Servers[0]
	case opts.DefaultBaseURL != "":
		info.BaseURL = opts.DefaultBaseURL
	}
	return info
}

// buildResources walks every path template once. The first segment selects a
// root resource; a literal segment right after a {param} selects a child of
// the current resource; everything else stays on the current resource.
func buildResources(paths []*document.PathItem, nesting ir.NestingStrategy, include, exclude []*regexp.Regexp) map[string]*ir.IRResource {
	roots := map[string]*ir.IRResource{}
	filtering := len(include) > 0 || len(exclude) > 0

	for _, item := range paths {
		segments := splitPath(item.Template)
		if len(segments) == 0 {
			continue
		}

		var ops []*document.Operation
		for _, op := range item.Operations {
			if !resourceMethods[op.Method] {
				continue
			}
			if filtering && !shouldIncludeOperation(operationTags(op), include, exclude) {
				continue
			}
			ops = append(ops, op)
		}
		if filtering && len(ops) == 0 {
			continue
		}

		target := lookupResource(roots, segments[0])
		if nesting == ir.NestingParam {
			for i := 1; i < len(segments); i++ {
				if isParamSegment(segments[i-1]) && !isParamSegment(segments[i]) {
					if target.SubResources == nil {
						target.SubResources = map[string]*ir.IRResource{}
					}
					target = lookupResource(target.SubResources, segments[i])
				}
			}
		}

		for _, op := range ops {
			target.Operations = append(target.Operations, buildOperation(item.Template, op))
		}
	}
	return roots
}

func lookupResource(m map[string]*ir.IRResource, name string) *ir.IRResource {
	res, ok := m[name]
	if !ok {
		res = &ir.IRResource{Name: name, Operations: []ir.IROperation{}}
		m[name] = res
	}
	return res
}

func splitPath(template string) []string {
	var out []string
	for _, s := range strings.Split(template, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func isParamSegment(s string) bool {
	return strings.HasPrefix(s, "{")
}

// buildOperation creates the descriptor for one (path, method) pair
func buildOperation(path string, op *document.Operation) ir.IROperation {
	out := ir.IROperation{
		OperationID: op.OperationID,
		Summary:     op.Summary,
		Description: op.Description,
		Method:      op.Method,
		Path:        path,
		Tags:        append([]string(nil), op.Tags...),
		Deprecated:  op.Deprecated,
		PathParams:  []string{},
		QueryParams: []string{},
		RequestType: schema.TypeVoid,
		ReturnType:  schema.TypeVoid,
	}
	if out.OperationID == "" {
		out.OperationID = operationID(op.Method, path)
	}

	for _, p := range op.Parameters {
		switch p.In {
		case openapi3.ParameterInPath:
			out.PathParams = append(out.PathParams, p.Name)
		case openapi3.ParameterInQuery:
			out.QueryParams = append(out.QueryParams, p.Name)
		}
	}

	if op.RequestBody != nil {
		if media := firstMedia(op.RequestBody.Content); media != nil {
			out.HasRequestBody = true
			out.RequestType = schema.TypeOf(media.Schema)
		}
	}

	// Only 200 is modeled; 201, 204 and the rest fall back to void.
	if resp := op.Response("200"); resp != nil {
		if media := firstMedia(resp.Content); media != nil {
			out.HasResponseBody = true
			out.ReturnType = schema.TypeOf(media.Schema)
		}
	}
	return out
}

// firstMedia returns the first content entry, provided it carries a schema
func firstMedia(content []*document.Media) *document.Media {
	if len(content) == 0 || content[0].Schema == nil {
		return nil
	}
	return content[0]
}

// operationID synthesizes an identifier from the method and the path
// segments, e.g. getUsersIdOrders for GET /users/{id}/orders.
func operationID(method, path string) string {
	return strings.ToLower(method) + utils.ToPascal(path)
}

func operationTags(op *document.Operation) []string {
	if len(op.Tags) == 0 {
		return []string{untaggedTag}
	}
	return op.Tags
}

// buildModels flattens every registry entry that declares a property map
func buildModels(reg *schema.Registry) []ir.IRModel {
	models := []ir.IRModel{}
	if reg == nil {
		return models
	}
	for _, name := range reg.Names() {
		node, _ := reg.Get(name)
		if !node.HasProperties() {
			continue
		}
		model := ir.IRModel{
			Name:        name,
			Description: node.Description,
			Properties:  []ir.IRProperty{},
			Required:    append([]string{}, node.Required...),
		}
		for _, prop := range node.PropertyNames() {
			ps := node.Properties[prop]
			desc := ""
			if ps != nil {
				desc = ps.Description
			}
			model.Properties = append(model.Properties, ir.IRProperty{
				Name:        prop,
				Type:        schema.TypeOf(ps),
				Required:    node.IsRequired(prop),
				Description: desc,
			})
		}
		models = append(models, model)
	}
	return models
}

// compileTagFilters compiles regex patterns for tag filtering
func compileTagFilters(include, exclude []string) ([]*regexp.Regexp, []*regexp.Regexp, error) {
	inc := make([]*regexp.Regexp, 0, len(include))
	for _, p := range include {
		r, err := regexp.Compile(p)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid includeTags pattern %q: %w", p, err)
		}
		inc = append(inc, r)
	}
	exc := make([]*regexp.Regexp, 0, len(exclude))
	for _, p := range exclude {
		r, err := regexp.Compile(p)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid excludeTags pattern %q: %w", p, err)
		}
		exc = append(exc, r)
	}
	return inc, exc, nil
}

// shouldIncludeOperation keeps an operation when any tag matches an include
// pattern (or none are given) and no tag matches an exclude pattern.
func shouldIncludeOperation(tags []string, include, exclude []*regexp.Regexp) bool {
	if len(include) > 0 && !anyMatch(tags, include) {
		return false
	}
	return !anyMatch(tags, exclude)
}

func anyMatch(tags []string, patterns []*regexp.Regexp) bool {
	for _, tag := range tags {
		for _, r := range patterns {
			if r.MatchString(tag) {
				return true
			}
		}
	}
	return false
}

// collectSecuritySchemes extracts security scheme information
func collectSecuritySchemes(doc *openapi3.T) []ir.IRSecurityScheme {
	if doc == nil || doc.Components == nil || doc.Components.SecuritySchemes == nil {
		return nil
	}
	names := make([]string, 0, len(doc.Components.SecuritySchemes))
	for name := range doc.Components.SecuritySchemes {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]ir.IRSecurityScheme, 0, len(names))
	for _, name := range names {
		sr := doc.Components.SecuritySchemes[name]
		if sr == nil || sr.Value == nil {
			continue
		}
		s := sr.Value
		sc := ir.IRSecurityScheme{Key: name, Type: s.Type}
		switch s.Type {
		case "http":
			sc.Scheme = s.Scheme
			sc.BearerFormat = s.BearerFormat
		case "apiKey":
			sc.In = string(s.In)
			sc.Name = s.Name
		}
		out = append(out, sc)
	}
	return out
}

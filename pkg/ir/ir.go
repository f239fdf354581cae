package ir

import (
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
)

// NestingStrategy selects how path templates map onto resources
type NestingStrategy string

const (
	// NestingParam nests a resource under the one scoped by a preceding {param} segment
	NestingParam NestingStrategy = "param"
	// NestingFlat attaches every operation to its first-segment resource
	NestingFlat NestingStrategy = "flat"
)

// Valid reports whether s names a known strategy
func (s NestingStrategy) Valid() bool {
	return s == NestingParam || s == NestingFlat
}

// IR represents the complete intermediate representation of an OpenAPI document
type IR struct {
	Info IRInfo
	// Resources is keyed by the first segment of every path
	Resources       map[string]*IRResource
	Models          []IRModel
	SecuritySchemes []IRSecurityScheme
	// Source is the resolved document, for emitters that need raw detail
	Source *openapi3.T
}

// ResourceList returns the root resources ordered by name
func (r IR) ResourceList() []*IRResource {
	return sortedResources(r.Resources)
}

// IRInfo is the API metadata rendered into the client
type IRInfo struct {
	Title       string
	Description string
	Version     string
	BaseURL     string
}

// IRResource is one path segment grouping operations, with sub-resources
// keyed by the segment that follows a {param} inside it.
type IRResource struct {
	Name         string
	Operations   []IROperation
	SubResources map[string]*IRResource
}

// SubResourceList returns the sub-resources ordered by name
func (r *IRResource) SubResourceList() []*IRResource {
	return sortedResources(r.SubResources)
}

func sortedResources(m map[string]*IRResource) []*IRResource {
	out := make([]*IRResource, 0, len(m))
	for _, res := range m {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// IROperation represents a single API operation (path + method)
type IROperation struct {
	OperationID string
	Summary     string
	Description string
	// Method is lower case: get, post, put, patch or delete
	Method     string
	Path       string
	Tags       []string
	Deprecated bool
	// PathParams and QueryParams hold parameter names in declared order
	PathParams      []string
	QueryParams     []string
	HasRequestBody  bool
	RequestType     string
	HasResponseBody bool
	ReturnType      string
}

// IRModel is the flattened view of one named object schema
type IRModel struct {
	Name        string
	Description string
	Properties  []IRProperty
	Required    []string
}

// IRProperty is one model property
type IRProperty struct {
	Name        string
	Type        string
	Required    bool
	Description string
}

// IRSecurityScheme captures a simplified view of OpenAPI security schemes
// sufficient for SDK generation.
type IRSecurityScheme struct {
	// Key is the name of the security scheme in components.securitySchemes
	Key string
	// Type is one of: http, apiKey, oauth2, openIdConnect
	Type string
	// Scheme is used when Type is http (e.g., "basic", "bearer")
	Scheme string
	// In is used when Type is apiKey (e.g., "header", "query", "cookie")
	In string
	// Name is used when Type is apiKey; it is the header/query/cookie name
	Name         string
	BearerFormat string
}

// Package document is the view of an OpenAPI document the generator core
// works on: ordered paths and operations whose schemas are schema.Node values,
// plus the registry seeded from components.schemas.
package document

import (
	"errors"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/blimu-dev/resource-sdk-gen/pkg/schema"
)

// Document is the normalizable form of an OpenAPI document
type Document struct {
	Info    Info
	Servers []string
	Paths   []*PathItem
	Schemas *schema.Registry
	// Source is the loaded document with every $ref resolved in place.
	// Emitters may consult it; the core never does.
	Source *openapi3.T
}

// Info mirrors the document's info object
type Info struct {
	Title       string
	Description string
	Version     string
}

// PathItem is one path template and its operations
type PathItem struct {
	Template   string
	Operations []*Operation
}

// Operation is one HTTP method on a path
type Operation struct {
	Method      string
	OperationID string
	Summary     string
	Description string
	Tags        []string
	Deprecated  bool
	Parameters  []Parameter
	RequestBody *Body
	Responses   []*Response
}

// Parameter is an operation parameter
type Parameter struct {
	Name        string
	In          string
	Required    bool
	Description string
	Schema      *schema.Node
}

// Body is a request body
type Body struct {
	Required bool
	Content  []*Media
}

// Response is one declared response
type Response struct {
	Status      string
	Description string
	Content     []*Media
}

// Media is a content type and its schema
type Media struct {
	ContentType string
	Schema      *schema.Node
}

// Response returns the response declared for status, or nil
func (op *Operation) Response(status string) *Response {
	for _, r := range op.Responses {
		if r.Status == status {
			return r
		}
	}
	return nil
}

// FromOpenAPI builds a Document from a loaded kin-openapi document
func FromOpenAPI(doc *openapi3.T) (*Document, error) {
	if doc == nil {
		return nil, errors.New("nil document")
	}
	out := &Document{
		Schemas: schema.RegistryFromOpenAPI(doc),
		Source:  doc,
	}
	if doc.Info != nil {
		out.Info = Info{
			Title:       doc.Info.Title,
			Description: doc.Info.Description,
			Version:     doc.Info.Version,
		}
	}
	for _, s := range doc.Servers {
		if s == nil {
			continue
		}
		out.Servers = append(out.Servers, s.URL)
	}
	if doc.Paths == nil {
		return out, nil
	}

	items := doc.Paths.Map()
	templates := make([]string, 0, len(items))
	for template := range items {
		templates = append(templates, template)
	}
	sort.Strings(templates)

	for _, template := range templates {
		item := items[template]
		if item == nil {
			continue
		}
		out.Paths = append(out.Paths, convertPathItem(template, item))
	}
	return out, nil
}

func convertPathItem(template string, item *openapi3.PathItem) *PathItem {
	pi := &PathItem{Template: template}
	operations := []*openapi3.Operation{
		item.Get, item.Post, item.Put, item.Patch,
		item.Delete, item.Head, item.Options, item.Trace,
	}
	methods := []string{"get", "post", "put", "patch", "delete", "head", "options", "trace"}
	for i, op := range operations {
		if op == nil {
			continue
		}
		pi.Operations = append(pi.Operations, convertOperation(methods[i], item.Parameters, op))
	}
	return pi
}

func convertOperation(method string, shared openapi3.Parameters, op *openapi3.Operation) *Operation {
	out := &Operation{
		Method:      method,
		OperationID: op.OperationID,
		Summary:     op.Summary,
		Description: op.Description,
		Tags:        append([]string(nil), op.Tags...),
		Deprecated:  op.Deprecated,
		Parameters:  mergeParameters(shared, op.Parameters),
	}
	if op.RequestBody != nil && op.RequestBody.Value != nil {
		rb := op.RequestBody.Value
		out.RequestBody = &Body{Required: rb.Required, Content: convertContent(rb.Content)}
	}
	if op.Responses != nil {
		responses := op.Responses.Map()
		codes := make([]string, 0, len(responses))
		for code := range responses {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		for _, code := range codes {
			rr := responses[code]
			if rr == nil || rr.Value == nil {
				continue
			}
			resp := &Response{Status: code, Content: convertContent(rr.Value.Content)}
			if rr.Value.Description != nil {
				resp.Description = *rr.Value.Description
			}
			out.Responses = append(out.Responses, resp)
		}
	}
	return out
}

// mergeParameters lists path-level parameters first; an operation parameter
// with the same name and location replaces the shared one in place, the rest
// are appended in declared order.
func mergeParameters(shared, own openapi3.Parameters) []Parameter {
	var out []Parameter
	index := map[string]int{}
	add := func(pr *openapi3.ParameterRef) {
		if pr == nil || pr.Value == nil {
			return
		}
		p := pr.Value
		param := Parameter{
			Name:        p.Name,
			In:          p.In,
			Required:    p.Required,
			Description: p.Description,
			Schema:      schema.FromOpenAPI(p.Schema),
		}
		key := p.In + ":" + p.Name
		if i, ok := index[key]; ok {
			out[i] = param
			return
		}
		index[key] = len(out)
		out = append(out, param)
	}
	for _, pr := range shared {
		add(pr)
	}
	for _, pr := range own {
		add(pr)
	}
	return out
}

// convertContent orders media types with application/json first and the rest
// lexically, which is the order "first content type" refers to.
func convertContent(content openapi3.Content) []*Media {
	if len(content) == 0 {
		return nil
	}
	types := make([]string, 0, len(content))
	for ct := range content {
		types = append(types, ct)
	}
	sort.Slice(types, func(i, j int) bool {
		if types[i] == "application/json" || types[j] == "application/json" {
			return types[i] == "application/json" && types[j] != "application/json"
		}
		return types[i] < types[j]
	})
	out := make([]*Media, 0, len(types))
	for _, ct := range types {
		mt := content[ct]
		if mt == nil {
			continue
		}
		out = append(out, &Media{ContentType: ct, Schema: schema.FromOpenAPI(mt.Schema)})
	}
	return out
}

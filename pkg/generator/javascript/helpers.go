package javascript

import (
	"encoding/json"
	"strings"
	"unicode"

	"github.com/blimu-dev/resource-sdk-gen/pkg/config"
	"github.com/blimu-dev/resource-sdk-gen/pkg/ir"
	"github.com/blimu-dev/resource-sdk-gen/pkg/schema"
	"github.com/blimu-dev/resource-sdk-gen/pkg/utils"
)

// Waterline-style shorthands attached to resource classes
const (
	aliasFind    = "find"
	aliasFindOne = "findOne"
	aliasCreate  = "create"
	aliasUpdate  = "update"
	aliasDestroy = "destroy"
)

// reserved lists words that cannot name a JavaScript parameter
var reserved = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "debugger": true, "default": true, "delete": true, "do": true,
	"else": true, "enum": true, "export": true, "extends": true, "false": true,
	"finally": true, "for": true, "function": true, "if": true, "import": true,
	"in": true, "instanceof": true, "new": true, "null": true, "return": true,
	"super": true, "switch": true, "this": true, "throw": true, "true": true,
	"try": true, "typeof": true, "var": true, "void": true, "while": true,
	"with": true, "yield": true, "let": true, "static": true, "await": true,
	"data": true, "params": true,
}

// jsIdent turns an arbitrary name into a usable identifier
func jsIdent(name string) string {
	id := utils.ToCamel(name)
	if id == "" {
		return "value"
	}
	if unicode.IsDigit(rune(id[0])) {
		id = "_" + id
	}
	if reserved[id] {
		id += "Value"
	}
	return id
}

// className is the PascalCase form of name used for classes
func className(name string) string {
	c := utils.ToPascal(name)
	if c == "" {
		return "Api"
	}
	if unicode.IsDigit(rune(c[0])) {
		c = "_" + c
	}
	return c
}

// fileBase is the camelCase file name of a resource or model
func fileBase(name string) string {
	base := utils.ToCamel(name)
	if base == "" {
		return "index"
	}
	return base
}

// methodName is the class method generated for op
func methodName(op ir.IROperation) string {
	return jsIdent(op.OperationID)
}

// jsString renders s as a quoted JavaScript string literal
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// jsPath renders op.Path as a template literal body with path parameters
// substituted, e.g. /users/${encodeURIComponent(id)}/orders.
func jsPath(op ir.IROperation) string {
	var b strings.Builder
	path := strings.ReplaceAll(op.Path, "`", "\\`")
	for {
		open := strings.IndexByte(path, '{')
		if open < 0 {
			break
		}
		end := strings.IndexByte(path[open:], '}')
		if end < 0 {
			break
		}
		b.WriteString(path[:open])
		b.WriteString("${encodeURIComponent(" + jsIdent(path[open+1:open+end]) + ")}")
		path = path[open+end+1:]
	}
	b.WriteString(path)
	return b.String()
}

// pathParamIdents are the positional arguments of op, in declared order
func pathParamIdents(op ir.IROperation) []string {
	out := make([]string, 0, len(op.PathParams))
	for _, p := range op.PathParams {
		out = append(out, jsIdent(p))
	}
	return out
}

// methodArgs is the parameter list of the generated method
func methodArgs(op ir.IROperation) string {
	args := pathParamIdents(op)
	if op.HasRequestBody {
		args = append(args, "data")
	}
	args = append(args, "params = {}")
	return strings.Join(args, ", ")
}

// pathShape classifies path relative to the resource name: the collection
// itself (.../name) or one of its items (.../name/{param}). Action routes
// such as /users/search are neither.
func pathShape(name, path string) (collection, item bool) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	last := len(segments) - 1
	if segments[last] == name {
		return true, false
	}
	if last > 0 && segments[last-1] == name && isParam(segments[last]) {
		return false, true
	}
	return false, false
}

func isParam(segment string) bool {
	return strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}")
}

// Alias is a Waterline-style shorthand for an operation
type Alias struct {
	Name      string
	Operation ir.IROperation
}

// crudAliases maps operations of res to find, findOne, create, update and
// destroy by method and path shape. find and create bind to the collection
// path, the rest to its item path. Each alias is bound to the first
// operation that fits and skipped when it would shadow a generated method.
func crudAliases(res *ir.IRResource) []Alias {
	taken := map[string]bool{}
	for _, op := range res.Operations {
		taken[methodName(op)] = true
	}

	var out []Alias
	bind := func(name string, op ir.IROperation) {
		if taken[name] {
			return
		}
		taken[name] = true
		out = append(out, Alias{Name: name, Operation: op})
	}
	for _, op := range res.Operations {
		collection, item := pathShape(res.Name, op.Path)
		switch {
		case op.Method == "get" && collection:
			bind(aliasFind, op)
		case op.Method == "get" && item:
			bind(aliasFindOne, op)
		case op.Method == "post" && collection:
			bind(aliasCreate, op)
		case (op.Method == "put" || op.Method == "patch") && item:
			bind(aliasUpdate, op)
		case op.Method == "delete" && item:
			bind(aliasDestroy, op)
		}
	}
	return out
}

// jsDocType maps an inferred type string onto JSDoc syntax
func jsDocType(t string) string {
	switch {
	case strings.HasSuffix(t, schema.ArraySuffix):
		return jsDocType(strings.TrimSuffix(t, schema.ArraySuffix)) + schema.ArraySuffix
	case strings.HasPrefix(t, "Record<string, ") && strings.HasSuffix(t, ">"):
		inner := strings.TrimSuffix(strings.TrimPrefix(t, "Record<string, "), ">")
		return "Object<string, " + jsDocType(inner) + ">"
	}
	switch t {
	case "integer", "number":
		return "number"
	case "string", "boolean":
		return t
	case "object":
		return "Object"
	case schema.TypeUnknown, "":
		return "*"
	case schema.TypeVoid:
		return "void"
	}
	return t
}

// packageName is the npm package name of the generated SDK
func packageName(client config.Client, info ir.IRInfo) string {
	if client.PackageName != "" {
		return client.PackageName
	}
	return fileBase(info.Title) + "-sdk"
}

// clientClassName is the default export of index.js
func clientClassName(client config.Client) string {
	if client.Name != "" {
		return className(client.Name)
	}
	return "API"
}

// exampleResource picks the resource used in README snippets, preferring
// user or users when present.
func exampleResource(in ir.IR) string {
	for _, name := range []string{"user", "users"} {
		if _, ok := in.Resources[name]; ok {
			return name
		}
	}
	if list := in.ResourceList(); len(list) > 0 {
		return list[0].Name
	}
	return "resourceName"
}

// packageManifest is the content of package.json
func packageManifest(client config.Client, info ir.IRInfo) map[string]any {
	return map[string]any{
		"name":        packageName(client, info),
		"version":     info.Version,
		"description": "JavaScript SDK for " + info.Title,
		"type":        "module",
		"main":        "index.js",
		"dependencies": map[string]string{
			"axios": "^1.6.1",
		},
	}
}

// resourceScope is the data each resource class template receives
type resourceScope struct {
	Resource *ir.IRResource
	// Class is the class name prefix, e.g. UsersOrders for users -> orders
	Class string
}

func rootScope(res *ir.IRResource, class string) resourceScope {
	return resourceScope{Resource: res, Class: class}
}

func (s resourceScope) Children() []resourceScope {
	subs := s.Resource.SubResourceList()
	out := make([]resourceScope, 0, len(subs))
	for _, sub := range subs {
		out = append(out, resourceScope{Resource: sub, Class: s.Class + className(sub.Name)})
	}
	return out
}

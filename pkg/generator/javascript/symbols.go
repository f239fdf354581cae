package javascript

import (
	"sort"
	"strconv"
	"strings"

	"github.com/blimu-dev/resource-sdk-gen/pkg/ir"
)

// symbol is the emitted identity of a model or a root resource
type symbol struct {
	Class string
	File  string
	Prop  string
}

// symbols assigns every model and root resource a class, file and client
// property that no other entry of the same kind shares. Names that only
// differ in case or punctuation (Address and address) map to the same file
// on case-insensitive filesystems and to the same export in index.js, so
// later names in sorted order get a numeric suffix: Address, Address2.
type symbols struct {
	models    map[string]symbol
	resources map[string]symbol
	// renamed lists every name that received a suffix
	renamed []string
}

func planSymbols(in ir.IR) symbols {
	modelNames := make([]string, 0, len(in.Models))
	for _, m := range in.Models {
		modelNames = append(modelNames, m.Name)
	}
	resourceNames := make([]string, 0, len(in.Resources))
	for name := range in.Resources {
		resourceNames = append(resourceNames, name)
	}

	s := symbols{}
	s.models = s.assign(modelNames)
	s.resources = s.assign(resourceNames)
	return s
}

func (s *symbols) assign(names []string) map[string]symbol {
	sort.Strings(names)
	used := map[string]bool{}
	out := make(map[string]symbol, len(names))
	for _, name := range names {
		if _, dup := out[name]; dup {
			continue
		}
		base := strings.ToLower(fileBase(name))
		suffix := ""
		for n := 2; used[base+suffix]; n++ {
			suffix = strconv.Itoa(n)
		}
		used[base+suffix] = true
		if suffix != "" {
			s.renamed = append(s.renamed, name)
		}
		out[name] = symbol{
			Class: className(name) + suffix,
			File:  fileBase(name) + suffix,
			Prop:  jsIdent(name) + suffix,
		}
	}
	return out
}

func fallbackSymbol(name string) symbol {
	return symbol{Class: className(name), File: fileBase(name), Prop: jsIdent(name)}
}

// model returns the symbol of the named model
func (s symbols) model(name string) symbol {
	if sym, ok := s.models[name]; ok {
		return sym
	}
	return fallbackSymbol(name)
}

// resource returns the symbol of the named root resource
func (s symbols) resource(name string) symbol {
	if sym, ok := s.resources[name]; ok {
		return sym
	}
	return fallbackSymbol(name)
}

package spec

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// A File is a single, fully resolved request file.
//
// It may be constructed with [ResolveFile] from a [syntax.File].
type File struct {
	// Name of the file
	Name string `json:"name,omitempty"`

	// The final state of the variable environment after every definition
	// block has been applied, nil if the file defines no variables
	Vars map[string]string `json:"vars,omitempty"`

	// The HTTP requests described in the file, in file order
	Requests []Request `json:"requests,omitempty"`
}

// String implements [fmt.Stringer] for a [File].
//
// The rendered text is valid request file syntax; variable definitions come
// first (sorted by name, the original order is gone once resolved) and each
// request is its own "###" delimited unit.
func (f File) String() string {
	var units []string

	if len(f.Vars) > 0 {
		vars := &strings.Builder{}
		for _, key := range slices.Sorted(maps.Keys(f.Vars)) {
			fmt.Fprintf(vars, "@%s = %s\n", key, quoteVar(f.Vars[key]))
		}
		units = append(units, vars.String())
	}

	for _, request := range f.Requests {
		units = append(units, request.String())
	}

	return strings.Join(units, "\n###\n\n")
}

// quoteVar wraps a variable value in double quotes when it contains
// whitespace, which would otherwise end the value early on a re-parse.
func quoteVar(value string) string {
	if strings.ContainsAny(value, " \t") {
		return `"` + value + `"`
	}

	return value
}

// GetRequest returns the request by name from a File.
//
// Requests are named after their position in the file, so the first request
// is "#1", the second "#2" and so on.
func (f File) GetRequest(name string) (Request, bool) {
	for _, request := range f.Requests {
		if request.Name == name {
			return request, true
		}
	}

	return Request{}, false
}

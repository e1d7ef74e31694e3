package syntax

import "strings"

// File represents a single request file as parsed.
//
// It is "raw": variable interpolation has not yet been performed, so URLs,
// query values, header values and bodies are all still templates. Units
// appear in the order they were written in the file.
type File struct {
	Name  string `json:"name,omitempty"`  // Name of the file
	Units []Unit `json:"units,omitempty"` // The top level units, in file order
}

// Requests returns the requests described in the file, in file order,
// skipping over any variable definition blocks.
func (f File) Requests() []Request {
	var requests []Request
	for _, unit := range f.Units {
		if request, ok := unit.(Request); ok {
			requests = append(requests, request)
		}
	}

	return requests
}

// A Unit is a single top level element of a [File], either a [Request]
// or a [VarDefBlock], delimited from its neighbours by "###".
type Unit interface {
	unit() // Marker, nothing outside this package implements Unit
}

// VarDef is a single "@name = value" variable definition line.
type VarDef struct {
	Name  string   `json:"name"`  // The variable name
	Value Template `json:"value"` // The (possibly templated) value
}

// VarDefBlock is a run of consecutive variable definition lines forming
// one top level unit.
//
// Definitions only affect units that appear after the block, never before.
type VarDefBlock struct {
	Defs []VarDef `json:"defs,omitempty"` // The definitions, in file order
}

func (VarDefBlock) unit() {}

// Header is a single "name: value" line in a request.
//
// Order is significant and duplicate names are preserved as separate headers.
type Header struct {
	Name  string   `json:"name"`  // The header name
	Value Template `json:"value"` // The (possibly templated) value
}

// QueryParam is a single "name=value" item in a request query string.
//
// Order is significant and duplicate names are preserved as separate items.
type QueryParam struct {
	Name  string   `json:"name"`  // The parameter name
	Value Template `json:"value"` // The (possibly templated) value
}

// Request is a single HTTP request as parsed from a request file.
type Request struct {
	Method  string       `json:"method,omitempty"`  // The HTTP method, "GET" if absent in the file
	Version string       `json:"version,omitempty"` // The HTTP protocol version, "HTTP/1.1" if absent in the file
	URL     Template     `json:"url"`               // The request URL, may be templated
	Query   []QueryParam `json:"query,omitempty"`   // Query parameters, in file order
	Headers []Header     `json:"headers,omitempty"` // Request headers, in file order
	Body    Template     `json:"body,omitempty"`    // Request body, nil if the request has none
}

func (Request) unit() {}

// Fragment is a single piece of a [Template]; either a run of literal text
// or a "{{name}}" variable placeholder.
type Fragment struct {
	Text  string `json:"text"`            // The literal text, or the variable name if IsVar
	IsVar bool   `json:"isVar,omitempty"` // Whether this fragment is a variable placeholder
}

// Text returns a literal text [Fragment].
func Text(text string) Fragment {
	return Fragment{Text: text}
}

// Var returns a variable placeholder [Fragment].
func Var(name string) Fragment {
	return Fragment{Text: name, IsVar: true}
}

// Template is an ordered sequence of fragments; the common representation
// for every value in which "{{name}}" interpolation is permitted (URLs,
// query values, header values, bodies and variable definition values).
//
// A nil Template means the value was absent entirely.
type Template []Fragment

// Raw returns a [Template] comprising the single literal text.
func Raw(text string) Template {
	return Template{Text(text)}
}

// Empty reports whether the template has no content; that is it has no
// fragments, or every fragment is empty literal text.
func (t Template) Empty() bool {
	for _, fragment := range t {
		if fragment.IsVar || fragment.Text != "" {
			return false
		}
	}

	return true
}

// String renders the template in request file syntax; placeholders are
// rendered as "{{name}}" and values carrying leading or trailing spaces
// are quoted so the output re-parses to the same template.
func (t Template) String() string {
	builder := &strings.Builder{}
	for _, fragment := range t {
		if fragment.IsVar {
			builder.WriteString("{{")
			builder.WriteString(fragment.Text)
			builder.WriteString("}}")
		} else {
			builder.WriteString(fragment.Text)
		}
	}

	s := builder.String()
	if strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		return `"` + s + `"`
	}

	return s
}

package spec

import (
	"fmt"
	"strings"
)

// Header is a single resolved "name: value" request header.
//
// Order is significant and duplicate names are preserved as separate headers,
// so headers are a slice rather than a map.
type Header struct {
	Name  string `json:"name"`  // The header name
	Value string `json:"value"` // The fully resolved value
}

// QueryParam is a single resolved "name=value" query string item.
//
// As with [Header], order and duplicates are preserved.
type QueryParam struct {
	Name  string `json:"name"`  // The parameter name
	Value string `json:"value"` // The fully resolved value
}

// A Request represents a single HTTP request described in a [File].
type Request struct {
	// Name of the request, derived from its position in the file e.g. "#1"
	Name string `json:"name,omitempty"`

	// The HTTP method, "GET" if absent in the file
	Method string `json:"method,omitempty"`

	// The request URL with any variable interpolation evaluated, not
	// including the query string
	URL string `json:"url,omitempty"`

	// Query string items, in file order
	Query []QueryParam `json:"query,omitempty"`

	// Version of the HTTP protocol to use e.g. "HTTP/1.1"
	Version string `json:"version,omitempty"`

	// Request headers, in file order
	Headers []Header `json:"headers,omitempty"`

	// Request body with any variable interpolation evaluated, nil if the
	// request has no body
	Body []byte `json:"body,omitempty"`
}

// String implements [fmt.Stringer] for a [Request].
//
// The rendered text is valid request file syntax for a single request unit,
// without the leading "###".
func (r Request) String() string {
	builder := &strings.Builder{}

	fmt.Fprintf(builder, "%s %s", r.Method, r.URL)

	for i, param := range r.Query {
		if i == 0 {
			builder.WriteByte('?')
		} else {
			builder.WriteByte('&')
		}
		fmt.Fprintf(builder, "%s=%s", param.Name, quoteQuery(param.Value))
	}

	fmt.Fprintf(builder, " %s\n", r.Version)

	for _, header := range r.Headers {
		fmt.Fprintf(builder, "%s: %s\n", header.Name, header.Value)
	}

	if r.Body != nil {
		fmt.Fprintf(builder, "\n%s\n", string(r.Body))
	}

	return builder.String()
}

// quoteQuery wraps a query value in double quotes when it contains characters
// that would otherwise end the value early, so the output re-parses to the
// same value.
func quoteQuery(value string) string {
	if strings.ContainsAny(value, "&= \t") {
		return `"` + value + `"`
	}

	return value
}

// FilterValue helps implement tea.list.Item.
//
// See https://github.com/charmbracelet/bubbles/tree/master/list#adding-custom-items.
func (r Request) FilterValue() string {
	return r.Name
}

// Title returns the request's name.
func (r Request) Title() string {
	return r.Name
}

// Description returns a description of the request, in this case the method and URL.
func (r Request) Description() string {
	return fmt.Sprintf("%s %s", r.Method, r.URL)
}

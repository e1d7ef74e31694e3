// Package spec provides the [File] and [Request] data structures which together
// represent a request file ready to be dispatched.
//
// They differ from their counterparts in the syntax package in that they are "resolved". This means:
//   - Variable interpolation e.g. `{{...}}` has been performed
//   - Variable definition blocks have been consumed into the environment and elided
//
// This resolution means that the requests described can be correctly made via http.
package spec

import (
	"fmt"
	"io"
	"strings"

	"go.followtheprocess.codes/rq/internal/syntax"
	"go.followtheprocess.codes/rq/internal/syntax/parser"
)

// ResolveError is the error returned when a template references a variable
// that is not in the environment at the point the reference is resolved.
type ResolveError struct {
	Name    string // Name of the undefined variable
	Context string // The unit in which the reference occurred, e.g. "request #2"
}

// Error implements the error interface for [ResolveError].
func (e *ResolveError) Error() string {
	return fmt.Sprintf("undefined variable {{%s}} in %s", e.Name, e.Context)
}

// Parse parses and resolves a request file read from r; the single entry
// point composing the scanner, parser and resolver.
//
// Syntax errors take precedence over resolution errors, resolution only runs
// over a successfully parsed file. If a non nil handler is given it receives
// every syntax error with position info as it occurs, see [parser.New].
func Parse(name string, r io.Reader, handler syntax.ErrorHandler) (File, error) {
	p, err := parser.New(name, r, handler)
	if err != nil {
		return File{}, err
	}

	raw, err := p.Parse()
	if err != nil {
		return File{}, err
	}

	return ResolveFile(raw)
}

// ResolveFile converts a raw [syntax.File] into a [File], performing variable
// resolution.
//
// Units are processed strictly in file order against a single environment
// that starts empty. A definition block resolves each of its values in turn
// against the environment as it stands, then stores the result; definitions
// may therefore reference variables defined earlier in the file but never
// later ones, and redefinition overwrites. Stored values are plain strings
// and are never re-scanned for placeholders.
func ResolveFile(in syntax.File) (File, error) {
	resolved := File{Name: in.Name}
	env := make(map[string]string)

	for _, unit := range in.Units {
		switch unit := unit.(type) {
		case syntax.VarDefBlock:
			for _, def := range unit.Defs {
				value, err := fill(def.Value, env, "variable @"+def.Name)
				if err != nil {
					return File{}, err
				}
				env[def.Name] = value
			}
		case syntax.Request:
			request, err := resolveRequest(unit, env, 1+len(resolved.Requests))
			if err != nil {
				return File{}, err
			}
			resolved.Requests = append(resolved.Requests, request)
		}
	}

	if len(env) > 0 {
		resolved.Vars = env
	}

	return resolved, nil
}

// resolveRequest converts a [syntax.Request] to a [Request], resolving the
// URL, every query value, every header value and the body (if present)
// against the current environment.
//
// Requests have no name in the file format, they are named after their
// position in the file (1 indexed).
func resolveRequest(in syntax.Request, env map[string]string, index int) (Request, error) {
	context := fmt.Sprintf("request #%d", index)

	resolved := Request{
		Name:    fmt.Sprintf("#%d", index),
		Method:  in.Method,
		Version: in.Version,
	}

	url, err := fill(in.URL, env, context)
	if err != nil {
		return Request{}, err
	}
	resolved.URL = url

	for _, param := range in.Query {
		value, err := fill(param.Value, env, context)
		if err != nil {
			return Request{}, err
		}
		resolved.Query = append(resolved.Query, QueryParam{Name: param.Name, Value: value})
	}

	for _, header := range in.Headers {
		value, err := fill(header.Value, env, context)
		if err != nil {
			return Request{}, err
		}
		resolved.Headers = append(resolved.Headers, Header{Name: header.Name, Value: value})
	}

	if in.Body != nil {
		body, err := fill(in.Body, env, context)
		if err != nil {
			return Request{}, err
		}
		resolved.Body = []byte(body)
	}

	return resolved, nil
}

// fill resolves a template against the environment, concatenating literal
// fragments verbatim and substituting each placeholder with its looked up
// value.
//
// A placeholder whose name is absent from the environment is an error, it is
// never silently skipped or substituted with "".
func fill(template syntax.Template, env map[string]string, context string) (string, error) {
	builder := &strings.Builder{}

	for _, fragment := range template {
		if !fragment.IsVar {
			builder.WriteString(fragment.Text)
			continue
		}

		value, ok := env[fragment.Text]
		if !ok {
			return "", &ResolveError{Name: fragment.Text, Context: context}
		}
		builder.WriteString(value)
	}

	return builder.String(), nil
}

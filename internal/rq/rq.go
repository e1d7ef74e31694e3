// Package rq implements the actual functionality exposed via the CLI.
package rq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"go.followtheprocess.codes/log"
	"go.followtheprocess.codes/msg"
	"go.followtheprocess.codes/rq/internal/spec"
	"go.followtheprocess.codes/rq/internal/syntax"
	"go.followtheprocess.codes/rq/internal/syntax/parser"
)

// DefaultTimeout is the overall request timeout applied when the user
// doesn't provide one.
const DefaultTimeout = 30 * time.Second

// Rq holds the state of the program.
type Rq struct {
	stdout io.Writer   // Normal program output is written here
	stderr io.Writer   // Logs and debug info
	logger *log.Logger // The debug logger, configured from the --debug flag
}

// New returns a new instance of [Rq].
func New(stdout, stderr io.Writer, debug bool) Rq {
	level := log.LevelInfo
	if debug {
		level = log.LevelDebug
	}

	return Rq{
		stdout: stdout,
		stderr: stderr,
		logger: log.New(stderr, log.WithLevel(level)),
	}
}

// Check implements the `rq check` subcommand.
//
// Every file is both parsed and resolved so that undefined variable
// references are caught too, not just syntax errors.
func (r Rq) Check(files []string) error {
	var errs []error
	for _, file := range files {
		if err := r.check(file); err != nil {
			errs = append(errs, err)
			continue
		}

		msg.Fsuccess(r.stdout, "%s is valid", file)
	}

	return errors.Join(errs...)
}

// check parses and resolves a single file, reporting rich syntax errors
// to stderr as they occur.
func (r Rq) check(file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := spec.Parse(file, f, syntax.PrettyConsoleHandler(r.stderr)); err != nil {
		return fmt.Errorf("%w: %s is not a valid request file", err, file)
	}

	return nil
}

// ShowOptions are the flags passed to the `rq show` subcommand.
type ShowOptions struct {
	Resolve bool // Resolve variables and do replacements
	JSON    bool // Output the file in JSON
}

// Show implements the `rq show` subcommand.
func (r Rq) Show(file string, options ShowOptions) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	p, err := parser.New(file, f, syntax.PrettyConsoleHandler(r.stderr))
	if err != nil {
		return err
	}

	raw, err := p.Parse()
	if err != nil {
		return fmt.Errorf("%w: %s is not a valid request file", err, file)
	}

	if options.Resolve {
		resolved, err := spec.ResolveFile(raw)
		if err != nil {
			return err
		}

		if options.JSON {
			return json.NewEncoder(r.stdout).Encode(resolved)
		}

		fmt.Fprintln(r.stdout, strings.TrimSpace(resolved.String()))
		return nil
	}

	if options.JSON {
		return json.NewEncoder(r.stdout).Encode(raw)
	}

	fmt.Fprintln(r.stdout, strings.TrimSpace(renderRaw(raw)))
	return nil
}

// renderRaw renders an unresolved file back to request file syntax, keeping
// units in their original order.
func renderRaw(file syntax.File) string {
	var units []string
	for _, unit := range file.Units {
		builder := &strings.Builder{}

		switch unit := unit.(type) {
		case syntax.VarDefBlock:
			for _, def := range unit.Defs {
				fmt.Fprintf(builder, "@%s = %s\n", def.Name, def.Value)
			}
		case syntax.Request:
			fmt.Fprintf(builder, "%s %s", unit.Method, unit.URL)
			for i, param := range unit.Query {
				if i == 0 {
					builder.WriteByte('?')
				} else {
					builder.WriteByte('&')
				}
				fmt.Fprintf(builder, "%s=%s", param.Name, param.Value)
			}
			fmt.Fprintf(builder, " %s\n", unit.Version)

			for _, header := range unit.Headers {
				fmt.Fprintf(builder, "%s: %s\n", header.Name, header.Value)
			}

			if unit.Body != nil {
				fmt.Fprintf(builder, "\n%s\n", unit.Body)
			}
		}

		units = append(units, builder.String())
	}

	return strings.Join(units, "\n###\n\n")
}

// SendOptions are the flags passed to the `rq send` subcommand.
type SendOptions struct {
	Output     string        // Write the response body here instead of stdout
	Timeout    time.Duration // Overall request timeout
	NoRedirect bool          // Don't follow redirects
}

// Send implements the `rq send` subcommand.
//
// name is the position derived name of the request in the file, e.g. "#1"
// for the first request.
func (r Rq) Send(file, name string, options SendOptions) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	resolved, err := spec.Parse(file, f, syntax.PrettyConsoleHandler(r.stderr))
	if err != nil {
		return err
	}

	request, ok := resolved.GetRequest(name)
	if !ok {
		return fmt.Errorf("%s does not contain request %s", file, name)
	}

	return r.SendRequest(request, options)
}

// SendRequest dispatches a single resolved request and renders the response,
// it is the common implementation behind `rq send` and the interactive UI.
func (r Rq) SendRequest(request spec.Request, options SendOptions) error {
	timeout := options.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	target := requestURL(request)
	r.logger.Debug(
		"sending request",
		"name", request.Name,
		"method", request.Method,
		"url", target,
		"version", request.Version,
	)

	httpRequest, err := http.NewRequestWithContext(
		ctx,
		request.Method,
		target,
		bytes.NewReader(request.Body),
	)
	if err != nil {
		return err
	}

	for _, header := range request.Headers {
		httpRequest.Header.Add(header.Name, header.Value)
	}

	client := &http.Client{}
	if options.NoRedirect {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	response, err := client.Do(httpRequest)
	if err != nil {
		return fmt.Errorf("HTTP: %w", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}

	fmt.Fprintln(r.stdout, response.Status)
	for _, key := range slices.Sorted(maps.Keys(response.Header)) {
		fmt.Fprintf(r.stdout, "%s: %s\n", key, strings.Join(response.Header[key], ", "))
	}

	if options.Output != "" {
		r.logger.Debug("writing response body", "file", options.Output)
		return os.WriteFile(options.Output, body, 0o644)
	}

	fmt.Fprint(r.stdout, string(body))
	return nil
}

// requestURL assembles the full request URL including the encoded query
// string.
//
// The encoding is done by hand because [url.Values] sorts parameters by name
// and request files guarantee query order and duplicates are preserved.
func requestURL(request spec.Request) string {
	if len(request.Query) == 0 {
		return request.URL
	}

	builder := &strings.Builder{}
	builder.WriteString(request.URL)

	for i, param := range request.Query {
		if i == 0 {
			builder.WriteByte('?')
		} else {
			builder.WriteByte('&')
		}
		builder.WriteString(url.QueryEscape(param.Name))
		builder.WriteByte('=')
		builder.WriteString(url.QueryEscape(param.Value))
	}

	return builder.String()
}

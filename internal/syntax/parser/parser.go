// Package parser implements the request file parser.
//
// The parser pulls tokens from the scanner and assembles them into the raw
// [syntax.File] tree, applying the grammar's defaults (method GET, version
// HTTP/1.1) along the way.
package parser

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"unicode"

	"go.followtheprocess.codes/rq/internal/syntax"
	"go.followtheprocess.codes/rq/internal/syntax/scanner"
	"go.followtheprocess.codes/rq/internal/syntax/token"
)

// versions is the set of recognised HTTP protocol versions.
var versions = []string{"HTTP/0.9", "HTTP/1.0", "HTTP/1.1", "HTTP/2.0", "HTTP/3.0"}

// Parser is the request file parser.
type Parser struct {
	handler syntax.ErrorHandler // The error handler, if any
	scanner *scanner.Scanner    // Scanner to generate tokens
	name    string              // Name of the file being parsed
	src     []byte              // Raw source text
	current token.Token         // Current token under inspection
	next    token.Token         // Next token in the stream
	err     *syntax.Error       // First error encountered, parser goroutine only
	mu      sync.Mutex          // Guards scanErr, the scanner reports from its own goroutine
	scanErr *syntax.Error       // First error reported by the scanner
}

// New returns a new [Parser] that reads from r.
//
// If a non nil handler is provided it is called for every syntax error as it
// occurs, with position information; [Parser.Parse] additionally returns the
// first error so callers that don't care about rich reporting need no handler.
func New(name string, r io.Reader, handler syntax.ErrorHandler) (*Parser, error) {
	// Request files are smol, it's okay to read the whole thing
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read from input: %w", err)
	}

	p := &Parser{
		handler: handler,
		name:    name,
		src:     src,
	}
	p.scanner = scanner.New(name, src, p.scanError)

	// Read 2 tokens so current and next are set
	p.advance()
	p.advance()

	return p, nil
}

// Parse parses the file to completion, returning the raw [syntax.File] or
// the first syntax error encountered.
func (p *Parser) Parse() (syntax.File, error) {
	file := syntax.File{
		Name: p.name,
	}

	if p.current.Kind == token.Separator {
		p.errorf("request files must not begin with %q", "###")
	}

	for p.current.Kind != token.EOF && p.err == nil {
		if len(file.Units) > 0 {
			// Units after the first must be separated by '###'
			if p.current.Kind != token.Separator {
				p.errorf("expected %q between units, got %s", "###", p.current.Kind)
				break
			}
			p.advance()
			if p.current.Kind == token.EOF {
				p.errorf("request files must not end with %q", "###")
				break
			}
		}

		var unit syntax.Unit
		if p.current.Kind == token.At {
			unit = p.parseVarDefBlock()
		} else {
			unit = p.parseRequest()
		}

		if p.err != nil {
			break
		}
		file.Units = append(file.Units, unit)
	}

	// The scanner may have failed without the parser tripping over a bad
	// token, e.g. invalid utf8 right at the end of the input
	if p.err == nil {
		p.mu.Lock()
		p.err = p.scanErr
		p.mu.Unlock()
	}

	if p.err != nil {
		// Bailing out early leaves the scanner goroutine mid-stream, pull
		// the remaining tokens so it can run to completion and exit
		p.drain()
		return syntax.File{}, p.err
	}

	return file, nil
}

// drain consumes the rest of the token stream. The scanner emits over a
// bounded channel so abandoning it before EOF would leak its goroutine.
func (p *Parser) drain() {
	for p.next.Kind != token.EOF {
		p.advance()
	}
}

// scanError is the [syntax.ErrorHandler] installed into the scanner, it
// records the first scanning error and forwards everything to the user's
// handler if there is one.
func (p *Parser) scanError(pos syntax.Position, msg string) {
	p.mu.Lock()
	if p.scanErr == nil {
		p.scanErr = &syntax.Error{Pos: pos, Msg: msg}
	}
	p.mu.Unlock()

	if p.handler != nil {
		p.handler(pos, msg)
	}
}

// advance advances the parser by a single token.
func (p *Parser) advance() {
	p.current = p.next
	p.next = p.scanner.Scan()

	// An Error token means the scanner already reported the details, adopt
	// them as our own. The channel receive above orders the scanner's write
	// of scanErr before our read of it.
	if p.next.Kind == token.Error && p.err == nil {
		p.mu.Lock()
		p.err = p.scanErr
		p.mu.Unlock()
	}
}

// position returns the parser's current position in the input as a [syntax.Position].
//
// The position is calculated based on the start offset of the current token.
func (p *Parser) position() syntax.Position {
	line := 1              // Line counter
	lastNewLineOffset := 0 // The byte offset of the (end of the) last newline seen
	for index, byt := range p.src {
		if index >= p.current.Start {
			break
		}

		if byt == '\n' {
			lastNewLineOffset = index + 1 // +1 to account for len("\n")
			line++
		}
	}

	// If the next token is EOF, we use the end of the current token as the syntax
	// error is likely to be unexpected EOF so we want to point to the end of the
	// current token as in "something should have gone here"
	start := p.current.Start
	if p.next.Kind == token.EOF {
		start = p.current.End
	}
	end := p.current.End

	// The column is therefore the number of bytes between the end of the last newline
	// and the current position, +1 because editors columns start at 1. Applying this
	// correction here means you can click a syntax error in the terminal and be
	// taken to a precise location in an editor which is probably what we want to happen
	startCol := 1 + start - lastNewLineOffset
	endCol := 1 + end - lastNewLineOffset

	return syntax.Position{
		Name:     p.name,
		Line:     line,
		StartCol: startCol,
		EndCol:   endCol,
	}
}

// error records a syntax error at the current position, keeping the first
// one for the return from Parse and forwarding all of them to the handler.
func (p *Parser) error(msg string) {
	if p.err == nil {
		p.err = &syntax.Error{Pos: p.position(), Msg: msg}
	}

	if p.handler != nil {
		p.handler(p.position(), msg)
	}
}

// errorf calls error with a formatted message.
func (p *Parser) errorf(format string, a ...any) {
	p.error(fmt.Sprintf(format, a...))
}

// text returns the chunk of source text described by the p.current token.
func (p *Parser) text() string {
	return string(p.src[p.current.Start:p.current.End])
}

// parseVarDefBlock parses a run of consecutive "@name = value" lines into
// one [syntax.VarDefBlock] unit. p.current is known to be '@'.
func (p *Parser) parseVarDefBlock() syntax.Unit {
	block := syntax.VarDefBlock{}

	for p.current.Kind == token.At && p.err == nil {
		p.advance() // '@'

		if p.current.Kind != token.Ident {
			p.errorf("expected variable name, got %s", p.current.Kind)
			return syntax.VarDefBlock{}
		}
		name := p.text()
		p.advance()

		if p.current.Kind != token.Eq {
			p.errorf("expected %q after variable name, got %s", "=", p.current.Kind)
			return syntax.VarDefBlock{}
		}
		anchor := p.current.End
		p.advance()

		value := p.parseTemplate(anchor, token.Text, token.QuotedText)
		block.Defs = append(block.Defs, syntax.VarDef{Name: name, Value: value})
	}

	return block
}

// parseRequest parses a single request unit.
func (p *Parser) parseRequest() syntax.Unit {
	// Method and version are optional with documented defaults
	request := syntax.Request{Method: "GET", Version: "HTTP/1.1"}

	if token.IsMethod(p.current.Kind) {
		request.Method = p.text()
		p.advance()
	}

	request.URL = p.parseTemplate(p.current.Start, token.URL)
	if len(request.URL) == 0 {
		p.errorf("expected a URL, got %s", p.current.Kind)
		return syntax.Request{}
	}

	if p.current.Kind == token.Question {
		p.advance()
		request.Query = p.parseQuery()
		if p.err != nil {
			return syntax.Request{}
		}
	}

	if p.current.Kind == token.HTTPVersion {
		version := p.text()
		if !slices.Contains(versions, version) {
			p.errorf("unrecognised HTTP version %q, expected one of %v", version, versions)
			return syntax.Request{}
		}
		request.Version = version
		p.advance()
	}

	for p.current.Kind == token.Header && p.err == nil {
		name := p.text()
		p.advance()

		if p.current.Kind != token.Colon {
			p.errorf("expected %q after header name, got %s", ":", p.current.Kind)
			return syntax.Request{}
		}
		anchor := p.current.End
		p.advance()

		value := trimTrailing(p.parseTemplate(anchor, token.Text))
		request.Headers = append(request.Headers, syntax.Header{Name: name, Value: value})
	}

	if p.current.Kind == token.Body || p.current.Kind == token.Var {
		// noAnchor because the body starts on its own line after the blank
		// line separator, everything else must begin on the line it belongs to
		body := trimTrailing(p.parseTemplate(noAnchor, token.Body))
		if len(body) > 0 {
			request.Body = body
		}
	}

	if p.err != nil {
		return syntax.Request{}
	}

	return request
}

// parseQuery parses a '&' separated run of "name=value" query items. The
// leading '?' has already been consumed.
func (p *Parser) parseQuery() []syntax.QueryParam {
	var query []syntax.QueryParam

	for p.err == nil {
		if p.current.Kind != token.Ident {
			p.errorf("expected query parameter name, got %s", p.current.Kind)
			return nil
		}
		name := p.text()
		p.advance()

		if p.current.Kind != token.Eq {
			p.errorf("expected %q after query parameter name, got %s", "=", p.current.Kind)
			return nil
		}
		anchor := p.current.End
		p.advance()

		value := p.parseTemplate(anchor, token.Text, token.QuotedText)
		query = append(query, syntax.QueryParam{Name: name, Value: value})

		if p.current.Kind != token.Amp {
			break
		}
		p.advance()
	}

	return query
}

// noAnchor disables the same-line check in parseTemplate.
const noAnchor = -1

// parseTemplate collects a run of value fragment tokens into a [syntax.Template].
//
// kinds is the set of literal fragment kinds valid in this context; [token.Var]
// is always valid. The first fragment must begin on the same line as anchor
// (a byte offset, usually the end of the '=' or ':' that introduced the value)
// and fragments after the first must be directly adjacent in the source;
// anything else belongs to the next production and is left alone.
func (p *Parser) parseTemplate(anchor int, kinds ...token.Kind) syntax.Template {
	var template syntax.Template

	prevEnd := -1
	for p.err == nil {
		valid := p.current.Kind == token.Var || slices.Contains(kinds, p.current.Kind)
		if !valid {
			break
		}

		if len(template) == 0 {
			if anchor != noAnchor && bytes.ContainsRune(p.src[anchor:p.current.Start], '\n') {
				break
			}
		} else if p.current.Start != prevEnd {
			break
		}

		switch p.current.Kind {
		case token.QuotedText:
			text := p.text()
			template = p.quoted(template, text[1:len(text)-1])
		case token.Var:
			name := strings.TrimSuffix(strings.TrimPrefix(p.text(), "{{"), "}}")
			if name == "" {
				p.error("empty variable placeholder")
				return nil
			}
			template = append(template, syntax.Var(name))
		default:
			template = append(template, syntax.Text(p.text()))
		}

		prevEnd = p.current.End
		p.advance()
	}

	return template
}

// quoted appends the fragments of a quoted value to template.
//
// Quotes delimit the value, protecting '&', '=' and whitespace from their
// usual meaning, but "{{name}}" placeholders remain live inside them so the
// inner text must itself be split into literal and placeholder fragments.
func (p *Parser) quoted(template syntax.Template, inner string) syntax.Template {
	for {
		start := strings.Index(inner, "{{")
		if start < 0 {
			if inner != "" {
				template = append(template, syntax.Text(inner))
			}
			return template
		}

		if start > 0 {
			template = append(template, syntax.Text(inner[:start]))
		}

		rest := inner[start+len("{{"):]
		end := strings.Index(rest, "}}")
		if end < 0 {
			p.errorf("unterminated variable placeholder, expected %q", "}}")
			return template
		}

		name := rest[:end]
		switch {
		case name == "":
			p.error("empty variable placeholder")
			return template
		case strings.ContainsFunc(name, unicode.IsSpace):
			p.errorf("variable name %q must not contain whitespace", name)
			return template
		}

		template = append(template, syntax.Var(name))
		inner = rest[end+len("}}"):]
	}
}

// trimTrailing strips trailing whitespace from the final literal fragment of
// a template, dropping the fragment entirely if nothing remains.
func trimTrailing(template syntax.Template) syntax.Template {
	if len(template) == 0 {
		return template
	}

	last := len(template) - 1
	if template[last].IsVar {
		return template
	}

	template[last].Text = strings.TrimRight(template[last].Text, " \t\r\n")
	if template[last].Text == "" {
		template = template[:last]
	}

	return template
}

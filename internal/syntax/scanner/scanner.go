// Package scanner implements the lexical scanner for http request files.
package scanner

import (
	"bytes"
	"fmt"
	"unicode"
	"unicode/utf8"

	"go.followtheprocess.codes/rq/internal/syntax"
	"go.followtheprocess.codes/rq/internal/syntax/token"
)

const (
	bufferSize = 32       // Benchmarking suggests this as the best token buffer size
	eof        = rune(-1) // eof signifies we have reached the end of the input
)

// scanFn represents the state of the scanner as a function that returns the next state.
type scanFn func(*Scanner) scanFn

// Scanner is the request file scanner.
type Scanner struct {
	handler   syntax.ErrorHandler // The error handler, if any
	tokens    chan token.Token    // Channel on which to emit scanned tokens
	name      string              // Name of the file
	src       []byte              // Raw source text
	start     int                 // The start position of the current token
	pos       int                 // Current scanner position in src (bytes, 0 indexed)
	line      int                 // Current line number (1 indexed)
	lineStart int                 // Offset at which the current line started
	width     int                 // Width of the last rune read from input, so we can backup
}

// New returns a new [Scanner] that scans src.
func New(name string, src []byte, handler syntax.ErrorHandler) *Scanner {
	s := &Scanner{
		handler: handler,
		tokens:  make(chan token.Token, bufferSize),
		name:    name,
		src:     src,
		start:   0,
		pos:     0,
		line:    1,
		width:   0,
	}

	// Ignore a UTF-8 BOM if present, it is not part of the file's content
	if bom := []byte("\ufeff"); bytes.HasPrefix(src, bom) {
		s.start = len(bom)
		s.pos = len(bom)
	}

	// run terminates when the scanning state machine is finished and all the tokens
	// drained from s.tokens so no wg.Add needed here
	go s.run()
	return s
}

// Scan scans the input and returns the next token.
func (s *Scanner) Scan() token.Token {
	return <-s.tokens
}

// next returns, and consumes, the next character in the input or [eof].
func (s *Scanner) next() rune {
	if s.pos >= len(s.src) {
		return eof
	}

	char, width := utf8.DecodeRune(s.src[s.pos:])
	if char == utf8.RuneError {
		s.errorf("invalid utf8 char: %U", char)
		// Advance to the end to prevent cascade errors
		s.pos = len(s.src)
		return eof
	}

	s.width = width
	s.pos += width
	if char == '\n' {
		s.line++
		s.lineStart = s.pos
	}

	return char
}

// peek returns, but does not consume, the character after the current one or [eof].
func (s *Scanner) peek() rune {
	if s.pos >= len(s.src) {
		return eof
	}

	_, width := utf8.DecodeRune(s.src[s.pos:])

	peekPos := s.pos + width
	if peekPos >= len(s.src) {
		return eof
	}

	peekChar, _ := utf8.DecodeRune(s.src[peekPos:])

	return peekChar
}

// char returns the character the scanner is currently sat on or [eof].
func (s *Scanner) char() rune {
	if s.pos >= len(s.src) {
		return eof
	}
	char, _ := utf8.DecodeRune(s.src[s.pos:])
	return char
}

// rest returns the rest of src, starting from the current position.
func (s *Scanner) rest() []byte {
	if s.pos >= len(s.src) {
		return nil
	}
	return s.src[s.pos:]
}

// hasPrefix reports whether the remaining input starts with prefix.
func (s *Scanner) hasPrefix(prefix string) bool {
	return bytes.HasPrefix(s.rest(), []byte(prefix))
}

// skip ignores any characters for which the predicate returns true, stopping at the
// first one that returns false such that after it returns, s.char returns the
// first 'false' char.
//
// The scanner start position is brought up to the current position before returning, effectively
// ignoring everything it's travelled over in the meantime.
func (s *Scanner) skip(predicate func(r rune) bool) {
	for predicate(s.char()) {
		s.next()
	}
	s.start = s.pos
}

// skipSpace skips over any whitespace, returning the number of line
// breaks it crossed on the way.
//
// The grammar cares about the difference between "same line", "next line"
// and "after a blank line" in a few places, this is how the scanner tells.
func (s *Scanner) skipSpace() int {
	mark := s.pos
	for unicode.IsSpace(s.char()) {
		s.next()
	}
	s.start = s.pos
	return bytes.Count(s.src[mark:s.pos], []byte("\n"))
}

// emit passes a token over the tokens channel, using the scanner's internal
// state to populate position information.
func (s *Scanner) emit(kind token.Kind) {
	s.tokens <- token.Token{
		Kind:  kind,
		Start: s.start,
		End:   s.pos,
	}
	s.start = s.pos
}

// run starts the state machine for the scanner, it runs with each [scanFn] returning the next
// state until one returns nil (typically an error or eof), at which point the tokens channel
// is closed as a signal to the receiver that no more tokens will be sent.
func (s *Scanner) run() {
	for state := scanStart; state != nil; {
		state = state(s)
	}
	s.tokens <- token.Token{Kind: token.EOF, Start: s.pos, End: s.pos}
	close(s.tokens)
}

// error calculates the position information and arranges for s.handler to be called
// with the information.
func (s *Scanner) error(msg string) {
	if s.handler == nil {
		// I guess just ignore the error?
		return
	}

	// Column is the number of bytes between the last newline and the current position
	// +1 because columns are 1 indexed
	startCol := 1 + s.start - s.lineStart
	endCol := 1 + s.pos - s.lineStart

	position := syntax.Position{
		Name:     s.name,
		Line:     s.line,
		StartCol: startCol,
		EndCol:   endCol,
	}

	s.handler(position, msg)
}

// errorf calls error with a formatted message.
func (s *Scanner) errorf(format string, a ...any) {
	s.error(fmt.Sprintf(format, a...))
}

// scanStart is the initial state of the scanner, it expects the start of
// a top level unit: a "###" separator, a "@name = value" definition line
// or a request line.
func scanStart(s *Scanner) scanFn {
	s.skip(unicode.IsSpace)
	switch s.char() {
	case eof:
		return nil // Break the state machine
	case '#':
		return scanSeparator
	case '@':
		return scanAt
	default:
		return scanRequestLine
	}
}

// scanSeparator scans the literal "###" unit separator.
//
// Nothing but whitespace may follow it on the same line.
func scanSeparator(s *Scanner) scanFn {
	count := 0
	for s.char() == '#' {
		s.next()
		count++
	}

	const sepLength = 3 // len("###")
	if count != sepLength {
		s.errorf("malformed unit separator, expected %q", "###")
		s.emit(token.Error)
		return nil
	}

	s.emit(token.Separator)

	s.skip(isLineSpace)
	if s.char() != '\n' && s.char() != eof {
		s.errorf("unexpected text after %q", "###")
		s.emit(token.Error)
		return nil
	}

	return scanStart
}

// scanAt scans a "@name = value" variable definition line. The '@' character
// has not yet been consumed.
func scanAt(s *Scanner) scanFn {
	s.next() // Consume the '@'
	s.emit(token.At)

	if !isIdent(s.char()) {
		s.errorf("expected variable name after '@', got %q", string(s.char()))
		s.emit(token.Error)
		return nil
	}

	for isIdent(s.char()) {
		s.next()
	}
	s.emit(token.Ident)

	s.skip(isLineSpace)
	if s.char() != '=' {
		s.errorf("expected %q after variable name, got %q", "=", string(s.char()))
		s.emit(token.Error)
		return nil
	}

	s.next() // Consume the '='
	s.emit(token.Eq)
	s.skip(isLineSpace)

	return scanVarValue
}

// scanVarValue scans the value of a variable definition, a run of value
// fragments terminated by the end of the line.
func scanVarValue(s *Scanner) scanFn {
	if !s.scanValueFragments(0) {
		return nil
	}

	s.skip(isLineSpace)
	if s.char() != '\n' && s.char() != eof {
		s.errorf("unexpected text after variable value: %q", string(s.char()))
		s.emit(token.Error)
		return nil
	}

	s.skip(unicode.IsSpace)
	return scanStart
}

// scanValueFragments scans a run of value fragments: quoted text, "{{name}}"
// placeholders and unquoted literal runs. It stops (successfully) at
// whitespace, eof or extra, which callers set to '&' inside a query and 0
// otherwise.
//
// It returns false if an error was encountered, in which case it has
// already been reported and the state machine should stop.
func (s *Scanner) scanValueFragments(extra rune) bool {
	for {
		char := s.char()
		switch {
		case char == eof, char == extra, unicode.IsSpace(char):
			return true
		case char == '\'' || char == '"':
			if !s.scanQuoted() {
				return false
			}
		case s.hasPrefix("{{"):
			if !s.scanVar() {
				return false
			}
		default:
			for {
				char = s.char()
				if char == eof || char == extra || unicode.IsSpace(char) ||
					char == '\'' || char == '"' || s.hasPrefix("{{") {
					break
				}
				s.next()
			}
			s.emit(token.Text)
		}
	}
}

// scanQuoted scans a quoted value fragment.
//
// The opening delimiter (either ' or ") is captured and carried through the
// scan, only the same character again closes the fragment, so '&', '=' or
// whitespace inside the quotes do not terminate anything. The quotes are
// included in the emitted token, the parser strips them.
func (s *Scanner) scanQuoted() bool {
	open := s.char()
	s.next() // Consume the opening quote

	for s.char() != open {
		if s.char() == eof {
			s.errorf("unterminated quoted value, expected closing %q", string(open))
			s.emit(token.Error)
			return false
		}
		s.next()
	}

	s.next() // Consume the closing quote
	s.emit(token.QuotedText)
	return true
}

// scanVar scans a "{{name}}" variable placeholder, emitting the whole
// placeholder (braces included) as a single token.
func (s *Scanner) scanVar() bool {
	s.next() // '{'
	s.next() // '{'

	for !s.hasPrefix("}}") {
		char := s.char()
		if char == eof || unicode.IsSpace(char) {
			s.errorf("unterminated variable placeholder, expected %q", "}}")
			s.emit(token.Error)
			return false
		}
		s.next()
	}

	s.next() // '}'
	s.next() // '}'
	s.emit(token.Var)
	return true
}

// scanRequestLine scans the start of a request line. The first word may be
// a method keyword, otherwise it is the start of the URL.
func scanRequestLine(s *Scanner) scanFn {
	for !unicode.IsSpace(s.char()) && s.char() != eof && s.char() != '?' && !s.hasPrefix("{{") {
		s.next()
	}

	text := string(s.src[s.start:s.pos])
	if kind, ok := token.Method(text); ok && isLineSpace(s.char()) {
		// GET {space but not \n} <url>
		s.emit(kind)
		s.skip(isLineSpace)
		return scanURL
	}

	// Not a method, the word we just scanned is the first URL fragment
	if s.pos > s.start {
		s.emit(token.URL)
	}

	return scanURL
}

// scanURL scans the remaining fragments of a URL: literal runs and
// placeholders, up to the query, the end of the line or whitespace.
func scanURL(s *Scanner) scanFn {
	for {
		switch {
		case s.hasPrefix("{{"):
			if !s.scanVar() {
				return nil
			}
		case s.char() == '?':
			s.next()
			s.emit(token.Question)
			return scanQuery
		case s.char() == eof || unicode.IsSpace(s.char()):
			return scanAfterURL
		default:
			for !unicode.IsSpace(s.char()) && s.char() != eof && s.char() != '?' && !s.hasPrefix("{{") {
				s.next()
			}
			s.emit(token.URL)
		}
	}
}

// scanAfterURL handles the transition after the URL: a HTTP version on the
// same line, a query starting on the next line, or the rest of the request.
func scanAfterURL(s *Scanner) scanFn {
	s.skip(isLineSpace)
	if s.hasPrefix("HTTP/") {
		return scanVersion
	}

	newlines := s.skipSpace()

	// The query may start on its own (indented) line below the URL
	if newlines <= 1 && s.char() == '?' {
		s.next()
		s.emit(token.Question)
		return scanQuery
	}

	return restOfRequest(s, newlines)
}

// scanQuery scans a single "name=value" query item and whatever separates it
// from the next one, calling itself for each subsequent item.
//
// Items may continue on following (indented) lines.
func scanQuery(s *Scanner) scanFn {
	s.skip(unicode.IsSpace)

	if !isQueryName(s.char()) {
		s.errorf("expected query parameter name, got %q", string(s.char()))
		s.emit(token.Error)
		return nil
	}

	for isQueryName(s.char()) {
		s.next()
	}
	s.emit(token.Ident)

	if s.char() != '=' {
		s.errorf("expected %q after query parameter name, got %q", "=", string(s.char()))
		s.emit(token.Error)
		return nil
	}

	s.next() // Consume the '='
	s.emit(token.Eq)

	if !s.scanValueFragments('&') {
		return nil
	}

	if s.char() == '&' {
		s.next()
		s.emit(token.Amp)
		return scanQuery
	}

	s.skip(isLineSpace)
	if s.hasPrefix("HTTP/") {
		return scanVersion
	}

	newlines := s.skipSpace()

	// Continuation of the query on the next line
	if newlines <= 1 && s.char() == '&' {
		s.next()
		s.emit(token.Amp)
		return scanQuery
	}

	return restOfRequest(s, newlines)
}

// scanVersion scans a HTTP version declaration.
//
// The next characters in s.src are known to be "HTTP/", this consumes the
// entire thing i.e. "HTTP/1.1". Whether the version is one that is actually
// recognised is the parser's business.
func scanVersion(s *Scanner) scanFn {
	const prefixLength = 5 // len("HTTP/")
	for range prefixLength {
		s.next()
	}

	for isDigit(s.char()) || s.char() == '.' {
		s.next()
	}
	s.emit(token.HTTPVersion)

	s.skip(isLineSpace)
	if s.char() != '\n' && s.char() != eof {
		s.errorf("unexpected text after HTTP version: %q", string(s.char()))
		s.emit(token.Error)
		return nil
	}

	return restOfRequest(s, s.skipSpace())
}

// restOfRequest decides what follows a completed request line: headers after
// a single line break, a body after a blank line, or the next unit.
func restOfRequest(s *Scanner, newlines int) scanFn {
	switch {
	case s.char() == eof, s.hasPrefix("###"):
		return scanStart
	case newlines == 1 && isIdent(s.char()):
		return scanHeaders
	case newlines >= 2:
		// Rewind to the start of the line, leading indentation on the
		// first body line is part of the body
		s.start = s.lineStart
		return scanBody
	default:
		s.errorf("expected request headers or a blank line, got %q", string(s.char()))
		s.emit(token.Error)
		return nil
	}
}

// scanHeaders scans a single "name: value" header line, calling itself while
// more header lines follow.
//
// A blank line ends the headers and begins the body, a "###" (or eof) ends
// the request.
func scanHeaders(s *Scanner) scanFn {
	for isIdent(s.char()) {
		s.next()
	}
	s.emit(token.Header)

	if s.char() != ':' {
		s.errorf("expected %q after header name, got %q", ":", string(s.char()))
		s.emit(token.Error)
		return nil
	}

	s.next() // Consume the ':'
	s.emit(token.Colon)
	s.skip(isLineSpace)

	// The value runs to the end of the line: literal runs and placeholders
value:
	for {
		switch {
		case s.char() == '\n' || s.char() == eof:
			break value
		case s.hasPrefix("{{"):
			if !s.scanVar() {
				return nil
			}
		default:
			for s.char() != '\n' && s.char() != eof && !s.hasPrefix("{{") {
				s.next()
			}
			s.emit(token.Text)
		}
	}

	// Bodies are separated from headers by a blank line
	if s.char() == '\n' && s.peek() == '\n' {
		s.skip(unicode.IsSpace)
		if s.char() == eof || s.hasPrefix("###") {
			return scanStart
		}
		// As in restOfRequest, keep the first body line's indentation
		s.start = s.lineStart
		return scanBody
	}

	s.skip(unicode.IsSpace)
	if isIdent(s.char()) {
		// Another header, call itself again
		return scanHeaders
	}

	return scanStart
}

// scanBody scans a request body, which is everything up to the next "###"
// separator or eof, as literal runs and placeholders.
func scanBody(s *Scanner) scanFn {
	for {
		switch {
		case s.char() == eof, s.hasPrefix("###"):
			s.skip(unicode.IsSpace)
			return scanStart
		case s.hasPrefix("{{"):
			// Flush any pending indentation first so it doesn't end up
			// inside the Var token
			if s.pos > s.start {
				s.emit(token.Body)
			}
			if !s.scanVar() {
				return nil
			}
		default:
			for s.char() != eof && !s.hasPrefix("###") && !s.hasPrefix("{{") {
				s.next()
			}
			s.emit(token.Body)
		}
	}
}

// isLineSpace reports whether r is a non line terminating whitespace character,
// imagine [unicode.IsSpace] but without '\n' or '\r'.
func isLineSpace(r rune) bool {
	return r == ' ' || r == '\t'
}

// isAlpha reports whether r is an alpha character.
func isAlpha(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// isIdent reports whether r is a valid identifier character.
func isIdent(r rune) bool {
	return isAlpha(r) || isDigit(r) || r == '_' || r == '-'
}

// isQueryName reports whether r is valid in a query parameter name.
func isQueryName(r rune) bool {
	return isIdent(r) || r == '.'
}

// isDigit reports whether r is a valid ASCII digit.
func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

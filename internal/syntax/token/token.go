// Package token provides the set of lexical tokens for a http request file.
package token

import "fmt"

// Kind is the kind of a token.
type Kind int

//go:generate stringer -type Kind -linecomment
const (
	EOF          Kind = iota // EOF
	Error                    // Error
	Separator                // Separator
	At                       // At
	Ident                    // Ident
	Eq                       // Eq
	Colon                    // Colon
	Question                 // Question
	Amp                      // Amp
	URL                      // URL
	Text                     // Text
	QuotedText               // QuotedText
	Var                      // Var
	Header                   // Header
	Body                     // Body
	HTTPVersion              // HTTPVersion
	MethodGet                // MethodGet
	MethodDelete             // MethodDelete
	MethodPost               // MethodPost
	MethodPut                // MethodPut
)

// Token is a lexical token in a http request file.
type Token struct {
	Kind  Kind // The kind of token this is
	Start int  // Byte offset from the start of the file to the start of this token
	End   int  // Byte offset from the start of the file to the end of this token
}

// String returns a string representation of a [Token].
func (t Token) String() string {
	return fmt.Sprintf("<Token::%s start=%d, end=%d>", t.Kind, t.Start, t.End)
}

// Method reports whether a string refers to one of the recognised HTTP methods,
// returning it's [Kind] and true if it is. Otherwise [Text] and false are returned.
//
// Methods are exact, case sensitive keywords so "get" is not a method.
func Method(text string) (kind Kind, ok bool) {
	switch text {
	case "GET":
		return MethodGet, true
	case "DELETE":
		return MethodDelete, true
	case "POST":
		return MethodPost, true
	case "PUT":
		return MethodPut, true
	default:
		return Text, false
	}
}

// IsMethod reports whether the given kind is a HTTP Method.
func IsMethod(kind Kind) bool {
	return kind >= MethodGet && kind <= MethodPut
}

package spec_test

import (
	"errors"
	"maps"
	"reflect"
	"strings"
	"testing"

	"go.followtheprocess.codes/rq/internal/spec"
	"go.followtheprocess.codes/rq/internal/syntax"
	"go.followtheprocess.codes/rq/internal/syntax/parser"
	"go.followtheprocess.codes/test"
	"go.uber.org/goleak"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string    // Name of the test case
		src     string    // Source text to parse and resolve
		errMsg  string    // If we wanted an error, what should it say
		want    spec.File // Expected resolved file
		wantErr bool      // Whether we want an error
	}{
		{
			name: "empty",
			src:  "",
			want: spec.File{Name: "empty"},
		},
		{
			name: "no variables",
			src:  "GET https://example.com/items HTTP/1.1\n",
			want: spec.File{
				Name: "no variables",
				Requests: []spec.Request{
					{
						Name:    "#1",
						Method:  "GET",
						Version: "HTTP/1.1",
						URL:     "https://example.com/items",
					},
				},
			},
		},
		{
			name: "variables in order",
			src: `@host = example.com
@url = {{host}}/api

###

GET {{url}}/items
`,
			want: spec.File{
				Name: "variables in order",
				Vars: map[string]string{
					"host": "example.com",
					"url":  "example.com/api",
				},
				Requests: []spec.Request{
					{
						Name:    "#1",
						Method:  "GET",
						Version: "HTTP/1.1",
						URL:     "example.com/api/items",
					},
				},
			},
		},
		{
			name: "eager resolution and overwrite",
			src: `@name = world
@greeting = "hello {{name}}"
@name = mars

###

GET /greet?msg={{greeting}}&to={{name}}
`,
			want: spec.File{
				Name: "eager resolution and overwrite",
				Vars: map[string]string{
					"name":     "mars",
					"greeting": "hello world", // Resolved when defined, not when used
				},
				Requests: []spec.Request{
					{
						Name:    "#1",
						Method:  "GET",
						Version: "HTTP/1.1",
						URL:     "/greet",
						Query: []spec.QueryParam{
							{Name: "msg", Value: "hello world"},
							{Name: "to", Value: "mars"},
						},
					},
				},
			},
		},
		{
			name: "interpolation everywhere",
			src: `@host = example.com
@token = abc123

###

POST {{host}}/login?redirect={{host}}/home HTTP/2.0
Authorization: Bearer {{token}}
Content-Type: application/json

{"token": "{{token}}"}
`,
			want: spec.File{
				Name: "interpolation everywhere",
				Vars: map[string]string{
					"host":  "example.com",
					"token": "abc123",
				},
				Requests: []spec.Request{
					{
						Name:    "#1",
						Method:  "POST",
						Version: "HTTP/2.0",
						URL:     "example.com/login",
						Query: []spec.QueryParam{
							{Name: "redirect", Value: "example.com/home"},
						},
						Headers: []spec.Header{
							{Name: "Authorization", Value: "Bearer abc123"},
							{Name: "Content-Type", Value: "application/json"},
						},
						Body: []byte(`{"token": "abc123"}`),
					},
				},
			},
		},
		{
			name: "requests named by position",
			src:  "GET /one\n\n###\n\nDELETE /two\n",
			want: spec.File{
				Name: "requests named by position",
				Requests: []spec.Request{
					{Name: "#1", Method: "GET", Version: "HTTP/1.1", URL: "/one"},
					{Name: "#2", Method: "DELETE", Version: "HTTP/1.1", URL: "/two"},
				},
			},
		},
		{
			name:    "forward reference",
			src:     "@url = {{host}}/api\n@host = example.com\n",
			wantErr: true,
			errMsg:  "undefined variable {{host}} in variable @url",
		},
		{
			name:    "undefined in request",
			src:     "GET {{base}}/items\n",
			wantErr: true,
			errMsg:  "undefined variable {{base}} in request #1",
		},
		{
			name:    "undefined in second request",
			src:     "GET /fine\n\n###\n\nGET /broken?a={{nope}}\n",
			wantErr: true,
			errMsg:  "undefined variable {{nope}} in request #2",
		},
		{
			name:    "self reference",
			src:     "@x = \"{{x}}\"\n",
			wantErr: true,
			errMsg:  "undefined variable {{x}} in variable @x",
		},
		{
			name:    "definitions after use",
			src:     "GET {{host}}/items\n\n###\n\n@host = example.com\n",
			wantErr: true,
			errMsg:  "undefined variable {{host}} in request #1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			got, err := spec.Parse(tt.name, strings.NewReader(tt.src), nil)
			test.WantErr(t, err, tt.wantErr)

			if err != nil {
				test.Equal(t, err.Error(), tt.errMsg)

				resolveErr := &spec.ResolveError{}
				test.True(t, errors.As(err, &resolveErr), test.Context("error was not a *ResolveError"))

				return
			}

			test.EqualFunc(t, got, tt.want, filesEqual, test.Context("resolved file mismatch"))
		})
	}
}

func TestParseScenarios(t *testing.T) {
	tests := []struct {
		name string         // Name of the test case
		src  string         // Source text, written exactly as a user would
		want []spec.Request // Expected resolved requests
	}{
		{
			name: "bare get",
			src:  "GET https://a.b/c\n\n",
			want: []spec.Request{
				{Name: "#1", Method: "GET", Version: "HTTP/1.1", URL: "https://a.b/c"},
			},
		},
		{
			name: "quoted variable into url",
			src:  "@host = \"example.com\"\n###\nGET {{host}}/x\n\n",
			want: []spec.Request{
				{Name: "#1", Method: "GET", Version: "HTTP/1.1", URL: "example.com/x"},
			},
		},
		{
			name: "two requests in order",
			src:  "GET /a\n\n###\nPOST /b\n\n",
			want: []spec.Request{
				{Name: "#1", Method: "GET", Version: "HTTP/1.1", URL: "/a"},
				{Name: "#2", Method: "POST", Version: "HTTP/1.1", URL: "/b"},
			},
		},
		{
			name: "quoted ampersand in query",
			src:  "GET /search?q=\"a&b\"\n\n",
			want: []spec.Request{
				{
					Name:    "#1",
					Method:  "GET",
					Version: "HTTP/1.1",
					URL:     "/search",
					Query:   []spec.QueryParam{{Name: "q", Value: "a&b"}},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			got, err := spec.Parse(tt.name, strings.NewReader(tt.src), nil)
			test.Ok(t, err)

			test.EqualFunc(t, got.Requests, tt.want, requestsEqual, test.Context("requests mismatch"))
		})
	}
}

// Resolving the same parse tree twice must yield identical output, there is
// no hidden state in resolution.
func TestResolveIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := "@host = example.com\n\n###\n\nGET {{host}}/items?page=2\nAccept: application/json\n"

	p, err := parser.New("idempotent", strings.NewReader(src), nil)
	test.Ok(t, err)

	raw, err := p.Parse()
	test.Ok(t, err)

	first, err := spec.ResolveFile(raw)
	test.Ok(t, err)

	second, err := spec.ResolveFile(raw)
	test.Ok(t, err)

	test.EqualFunc(t, second, first, filesEqual, test.Context("resolution was not idempotent"))
}

// Syntax errors come back from Parse as-is, resolution never runs.
func TestParseSyntaxError(t *testing.T) {
	defer goleak.VerifyNone(t)

	_, err := spec.Parse("bad", strings.NewReader("@a = {{oops\n"), nil)
	test.Err(t, err)

	syntaxErr := &syntax.Error{}
	test.True(t, errors.As(err, &syntaxErr), test.Context("error was not a *syntax.Error"))
}

func TestGetRequest(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := "GET /one\n\n###\n\nPUT /two\n"
	file, err := spec.Parse("requests", strings.NewReader(src), nil)
	test.Ok(t, err)

	request, ok := file.GetRequest("#2")
	test.True(t, ok)
	test.Equal(t, request.Method, "PUT")
	test.Equal(t, request.URL, "/two")

	_, ok = file.GetRequest("#3")
	test.False(t, ok)
}

// A resolved file renders back to valid request file text, so parsing the
// rendering again must yield the same requests.
func TestStringRoundTrip(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := `@host = example.com
@greeting = "hello world"

###

POST {{host}}/items?q="a&b"&page=2 HTTP/1.1
Content-Type: application/json

{"greeting": "{{greeting}}"}

###

GET {{host}}/items
`

	first, err := spec.Parse("first", strings.NewReader(src), nil)
	test.Ok(t, err)

	second, err := spec.Parse("second", strings.NewReader(first.String()), nil)
	test.Ok(t, err)

	test.EqualFunc(t, second.Requests, first.Requests, requestsEqual, test.Context("round trip mismatch"))
	test.EqualFunc(t, second.Vars, first.Vars, maps.Equal, test.Context("round trip vars mismatch"))
}

// filesEqual reports whether two resolved files are identical, in the right
// shape for [test.EqualFunc].
func filesEqual(a, b spec.File) bool {
	return reflect.DeepEqual(a, b)
}

// requestsEqual is [filesEqual] for slices of requests.
func requestsEqual(a, b []spec.Request) bool {
	return reflect.DeepEqual(a, b)
}

package rq_test

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.followtheprocess.codes/rq/internal/rq"
	"go.followtheprocess.codes/test"
	"go.followtheprocess.codes/txtar"
)

func TestCheck(t *testing.T) {
	archive, err := txtar.ParseFile(filepath.Join("testdata", "check.txtar"))
	test.Ok(t, err)

	tmp := t.TempDir()
	for _, name := range []string{"good.rq", "bad.rq"} {
		src, ok := archive.Read(name)
		test.True(t, ok, test.Context("archive missing %s", name))
		test.Ok(t, os.WriteFile(filepath.Join(tmp, name), []byte(src), 0o644))
	}

	good := filepath.Join(tmp, "good.rq")
	bad := filepath.Join(tmp, "bad.rq")

	t.Run("good", func(t *testing.T) {
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		app := rq.New(stdout, stderr, false)

		err := app.Check([]string{good})
		test.Ok(t, err)

		// Stderr should be empty
		test.Equal(t, stderr.String(), "")

		// Stdout should have the success message
		want := fmt.Sprintf("Success: %s is valid\n", good)
		test.Equal(t, stdout.String(), want)
	})

	t.Run("bad", func(t *testing.T) {
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		app := rq.New(stdout, stderr, false)

		err := app.Check([]string{bad})
		test.Err(t, err)
		test.True(
			t,
			strings.Contains(err.Error(), "unrecognised HTTP version"),
			test.Context("error %q missing version complaint", err.Error()),
		)

		// Stderr should have the rich syntax error
		test.True(t, strings.Contains(stderr.String(), "unrecognised HTTP version"))

		// Stdout should be empty
		test.Equal(t, stdout.String(), "")
	})

	t.Run("mixed", func(t *testing.T) {
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		app := rq.New(stdout, stderr, false)

		// The good file is still reported valid even though the bad one fails
		err := app.Check([]string{good, bad})
		test.Err(t, err)
		test.True(t, strings.Contains(stdout.String(), "is valid"))
	})
}

func TestShow(t *testing.T) {
	src := `@host = example.com

###

GET {{host}}/items HTTP/1.1
`
	file := filepath.Join(t.TempDir(), "show.rq")
	test.Ok(t, os.WriteFile(file, []byte(src), 0o644))

	t.Run("raw", func(t *testing.T) {
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		app := rq.New(stdout, stderr, false)

		err := app.Show(file, rq.ShowOptions{})
		test.Ok(t, err)

		test.Equal(t, stderr.String(), "")
		test.True(t, strings.Contains(stdout.String(), "GET {{host}}/items"))
		test.True(t, strings.Contains(stdout.String(), "@host = example.com"))
	})

	t.Run("resolved", func(t *testing.T) {
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		app := rq.New(stdout, stderr, false)

		err := app.Show(file, rq.ShowOptions{Resolve: true})
		test.Ok(t, err)

		test.True(t, strings.Contains(stdout.String(), "GET example.com/items"))
	})

	t.Run("json", func(t *testing.T) {
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		app := rq.New(stdout, stderr, false)

		err := app.Show(file, rq.ShowOptions{Resolve: true, JSON: true})
		test.Ok(t, err)

		test.True(t, strings.Contains(stdout.String(), `"url":"example.com/items"`))
	})
}

func TestSend(t *testing.T) {
	// Record what the server saw, the assertions happen back on the test
	// goroutine after each Send returns
	type recorded struct {
		method   string
		path     string
		rawQuery string
		auth     string
		body     string
	}

	var got recorded

	testHandler := func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got = recorded{
			method:   r.Method,
			path:     r.URL.Path,
			rawQuery: r.URL.RawQuery,
			auth:     r.Header.Get("Authorization"),
			body:     string(body),
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"ok": true}`)
	}

	server := httptest.NewServer(http.HandlerFunc(testHandler))
	defer server.Close()

	src := fmt.Sprintf(`@base = %s
@token = abc123

###

POST {{base}}/items?q="hello world"&page=2 HTTP/1.1
Authorization: Bearer {{token}}
Content-Type: application/json

{"token": "{{token}}"}
`, server.URL)

	file := filepath.Join(t.TempDir(), "send.rq")
	test.Ok(t, os.WriteFile(file, []byte(src), 0o644))

	t.Run("to stdout", func(t *testing.T) {
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		app := rq.New(stdout, stderr, false)

		err := app.Send(file, "#1", rq.SendOptions{})
		test.Ok(t, err)

		test.Equal(t, got.method, http.MethodPost)
		test.Equal(t, got.path, "/items")

		// Query order and encoding must survive exactly as written
		test.Equal(t, got.rawQuery, "q=hello+world&page=2")

		test.Equal(t, got.auth, "Bearer abc123")
		test.Equal(t, got.body, `{"token": "abc123"}`)

		test.True(t, strings.Contains(stdout.String(), "200 OK"))
		test.True(t, strings.Contains(stdout.String(), "Content-Type: application/json"))
		test.True(t, strings.Contains(stdout.String(), `{"ok": true}`))
	})

	t.Run("to file", func(t *testing.T) {
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		app := rq.New(stdout, stderr, false)

		output := filepath.Join(t.TempDir(), "response.json")
		err := app.Send(file, "#1", rq.SendOptions{Output: output})
		test.Ok(t, err)

		body, err := os.ReadFile(output)
		test.Ok(t, err)
		test.Equal(t, string(body), `{"ok": true}`)

		// Body goes to the file, not stdout
		test.False(t, strings.Contains(stdout.String(), `{"ok": true}`))
	})

	t.Run("missing request", func(t *testing.T) {
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		app := rq.New(stdout, stderr, false)

		err := app.Send(file, "#9", rq.SendOptions{})
		test.Err(t, err)
		test.True(t, strings.Contains(err.Error(), "does not contain request #9"))
	})
}

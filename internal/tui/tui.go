// Package tui implements the terminal user interface for selecting and filtering
// request files and the requests within them.
package tui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.followtheprocess.codes/rq/internal/rq"
	"go.followtheprocess.codes/rq/internal/spec"
	"go.followtheprocess.codes/rq/internal/syntax"
	"go.followtheprocess.codes/rq/internal/tui/components/filepicker"
	"go.followtheprocess.codes/rq/internal/tui/components/list"
)

// Run runs the TUI, this is what happens when users call `rq` with no arguments.
//
// The flow is pick a file, parse and resolve it, pick one of its requests,
// then send that request.
func Run() error {
	model := filepicker.New()

	tm, err := tea.NewProgram(model).Run()
	if err != nil {
		return err
	}

	final, ok := tm.(filepicker.Model)
	if !ok {
		return fmt.Errorf("tui error, final model was not as expected: %T", tm)
	}

	file := final.Selected()
	if file == "" {
		// User quit without picking anything
		return nil
	}

	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	resolved, err := spec.Parse(file, f, syntax.PrettyConsoleHandler(os.Stderr))
	if err != nil {
		return err
	}

	listModel := list.New("Requests in "+file, resolved.Requests)

	tm, err = tea.NewProgram(listModel, tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}

	finalListModel, ok := tm.(list.Model)
	if !ok {
		return fmt.Errorf("tui error, list final model was not as expected: %T", tm)
	}

	name := finalListModel.Selected()
	if name == "" {
		return nil
	}

	request, ok := resolved.GetRequest(name)
	if !ok {
		return fmt.Errorf("%s does not contain request %s", file, name)
	}

	app := rq.New(os.Stdout, os.Stderr, false)
	return app.SendRequest(request, rq.SendOptions{Timeout: rq.DefaultTimeout})
}

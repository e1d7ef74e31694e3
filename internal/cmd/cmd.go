// Package cmd implements rq's CLI.
package cmd

import (
	"go.followtheprocess.codes/cli"
	"go.followtheprocess.codes/rq/internal/rq"
	"go.followtheprocess.codes/rq/internal/tui"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

// Build returns the root rq CLI command.
func Build() (*cli.Command, error) {
	return cli.New(
		"rq",
		cli.Short("Work with http request files on the command line"),
		cli.Allow(cli.NoArgs()),
		cli.Version(version),
		cli.Commit(commit),
		cli.BuildDate(date),
		cli.Run(func(cmd *cli.Command, args []string) error {
			// Bare rq is the interactive path, pick a file then a request
			return tui.Run()
		}),
		cli.SubCommands(check, show, send),
	)
}

// check returns the check subcommand.
func check() (*cli.Command, error) {
	return cli.New(
		"check",
		cli.Short("Check request files for syntax and variable errors"),
		cli.Allow(cli.MinArgs(1)),
		cli.Run(func(cmd *cli.Command, args []string) error {
			app := rq.New(cmd.Stdout(), cmd.Stderr(), false)
			return app.Check(args)
		}),
	)
}

// show returns the show subcommand.
func show() (*cli.Command, error) {
	var options rq.ShowOptions
	return cli.New(
		"show",
		cli.Short("Show the contents of a request file"),
		cli.RequiredArg("file", "Path of the request file"),
		cli.Flag(&options.Resolve, "resolve", 'r', false, "Resolve the file handling variable interpolation etc."),
		cli.Flag(&options.JSON, "json", 'j', false, "Output the file as JSON"),
		cli.Run(func(cmd *cli.Command, args []string) error {
			app := rq.New(cmd.Stdout(), cmd.Stderr(), false)
			return app.Show(cmd.Arg("file"), options)
		}),
	)
}

const sendLong = `
Requests are addressed by their position in the file, so '#1' is the
first request, '#2' the second and so on.

The request headers, body and other settings are taken from the file
but may be overridden by command line flags like '--timeout'.

Responses can be saved to a file with the '--output' flag.
`

// send returns the send subcommand.
func send() (*cli.Command, error) {
	var (
		options rq.SendOptions
		debug   bool
	)
	return cli.New(
		"send",
		cli.Short("Send a http request from a file"),
		cli.Long(sendLong),
		cli.RequiredArg("file", "Request file containing the request"),
		cli.RequiredArg("request", "The request to send, e.g. '#1'"),
		cli.Flag(&options.Timeout, "timeout", cli.NoShortHand, 0, "Timeout for the request"),
		cli.Flag(&options.NoRedirect, "no-redirect", cli.NoShortHand, false, "Disable following redirects"),
		cli.Flag(&options.Output, "output", 'o', "", "Name of a file to save the response body"),
		cli.Flag(&debug, "debug", 'd', false, "Enable debug logging"),
		cli.Run(func(cmd *cli.Command, args []string) error {
			app := rq.New(cmd.Stdout(), cmd.Stderr(), debug)
			return app.Send(cmd.Arg("file"), cmd.Arg("request"), options)
		}),
	)
}
